package store

import (
	"context"
	"sort"
	"sync"

	"github.com/matzehuels/flowscope/pkg/errors"
)

// MemoryStore implements Store in process memory, for tests and for
// running the server without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	layouts map[string]*LayoutRecord
	reports map[string]*ReportRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		layouts: make(map[string]*LayoutRecord),
		reports: make(map[string]*ReportRecord),
	}
}

// SaveLayout implements [Store].
func (s *MemoryStore) SaveLayout(ctx context.Context, rec *LayoutRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *rec
	s.layouts[rec.ID] = &clone
	return nil
}

// GetLayout implements [Store].
func (s *MemoryStore) GetLayout(ctx context.Context, id string) (*LayoutRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.layouts[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeLayoutNotFound, "layout %s not found", id)
	}
	clone := *rec
	return &clone, nil
}

// ListLayouts implements [Store].
func (s *MemoryStore) ListLayouts(ctx context.Context, limit int) ([]LayoutSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]LayoutSummary, 0, len(s.layouts))
	for _, rec := range s.layouts {
		out = append(out, LayoutSummary{
			ID:        rec.ID,
			Name:      rec.Name,
			GraphHash: rec.GraphHash,
			CreatedAt: rec.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteLayout implements [Store].
func (s *MemoryStore) DeleteLayout(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.layouts[id]; !ok {
		return errors.New(errors.ErrCodeLayoutNotFound, "layout %s not found", id)
	}
	delete(s.layouts, id)
	for rid, rec := range s.reports {
		if rec.LayoutID == id {
			delete(s.reports, rid)
		}
	}
	return nil
}

// SaveReport implements [Store].
func (s *MemoryStore) SaveReport(ctx context.Context, rec *ReportRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *rec
	s.reports[rec.ID] = &clone
	return nil
}

// ListReports implements [Store].
func (s *MemoryStore) ListReports(ctx context.Context, layoutID string) ([]ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ReportRecord
	for _, rec := range s.reports {
		if rec.LayoutID == layoutID {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Close implements [Store].
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
