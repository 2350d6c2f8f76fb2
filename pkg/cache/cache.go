// Package cache provides the caching layer for pipeline results.
//
// Layout passes and metric evaluations are deterministic over (document,
// settings) pairs, so their results are cached by content hash. The
// package offers a file-backed cache for CLI usage, a Redis-backed cache
// for the server, and a null cache for tests and opt-out.
package cache

import (
	"context"
	"time"
)

// TTLs per cached item class. Layouts and reports are pure functions of
// their keys and could live forever; the TTLs bound disk/keyspace growth.
const (
	// TTLLayout is the lifetime of a cached layout document.
	TTLLayout = 7 * 24 * time.Hour

	// TTLReport is the lifetime of a cached evaluation report.
	TTLReport = 7 * 24 * time.Hour

	// TTLArtifact is the lifetime of a cached rendered artifact.
	TTLArtifact = 24 * time.Hour
)

// Cache stores opaque byte values under string keys with per-entry TTL.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A non-positive ttl stores it without expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts carries the layout settings that affect cached layout
// identity. Two layouts of the same document with different settings must
// not share a key.
type LayoutKeyOpts struct {
	RankSep             float64
	NodeSep             float64
	VerticalLayout      bool
	OmitAccessNodes     bool
	LargeGraphThreshold int
}

// ArtifactKeyOpts carries the render parameters that affect cached
// artifact identity.
type ArtifactKeyOpts struct {
	Format string
}

// Keyer generates cache keys for the pipeline's cached item classes.
type Keyer interface {
	// LayoutKey generates a key for a laid-out document, from the source
	// document's content hash and the layout settings.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ReportKey generates a key for an evaluation report, from the
	// laid-out document's content hash.
	ReportKey(layoutHash string) string

	// ArtifactKey generates a key for a rendered artifact.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// LayoutKey implements [Keyer].
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ReportKey implements [Keyer].
func (k *DefaultKeyer) ReportKey(layoutHash string) string {
	return hashKey("report", layoutHash)
}

// ArtifactKey implements [Keyer].
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
