// Package store persists laid-out documents and evaluation runs.
//
// The store is the durable counterpart of the cache: cached entries may
// expire at any time, stored layouts survive until deleted and are
// addressable by ID. A MongoDB backend serves server deployments and an
// in-memory backend serves tests.
package store

import (
	"context"
	"time"

	"github.com/matzehuels/flowscope/pkg/eval"
	"github.com/matzehuels/flowscope/pkg/layout"
)

// LayoutRecord is one persisted layout: the laid-out document plus the
// inputs that produced it.
type LayoutRecord struct {
	ID        string          `bson:"_id" json:"id"`
	Name      string          `bson:"name" json:"name"`
	GraphHash string          `bson:"graph_hash" json:"graph_hash"`
	Settings  layout.Settings `bson:"settings" json:"settings"`
	Document  []byte          `bson:"document" json:"document"`
	CreatedAt time.Time       `bson:"created_at" json:"created_at"`
}

// ReportRecord is one persisted evaluation: the metric reports of every
// scope of a stored layout.
type ReportRecord struct {
	ID        string                 `bson:"_id" json:"id"`
	LayoutID  string                 `bson:"layout_id" json:"layout_id"`
	Scopes    map[string]eval.Report `bson:"scopes" json:"scopes"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
}

// LayoutSummary is the listing view of a stored layout, without the
// document payload.
type LayoutSummary struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	GraphHash string    `bson:"graph_hash" json:"graph_hash"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Store is the persistence interface consumed by the pipeline and the
// server. Implementations must be safe for concurrent use.
type Store interface {
	// SaveLayout inserts or replaces a layout record by ID.
	SaveLayout(ctx context.Context, rec *LayoutRecord) error

	// GetLayout returns the record with the given ID, or a
	// LAYOUT_NOT_FOUND error.
	GetLayout(ctx context.Context, id string) (*LayoutRecord, error)

	// ListLayouts returns up to limit summaries, newest first.
	ListLayouts(ctx context.Context, limit int) ([]LayoutSummary, error)

	// DeleteLayout removes a record; deleting an absent ID is a
	// LAYOUT_NOT_FOUND error.
	DeleteLayout(ctx context.Context, id string) error

	// SaveReport inserts or replaces an evaluation record by ID.
	SaveReport(ctx context.Context, rec *ReportRecord) error

	// ListReports returns the evaluation records for one layout, newest
	// first.
	ListReports(ctx context.Context, layoutID string) ([]ReportRecord, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
