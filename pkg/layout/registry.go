package layout

import "github.com/matzehuels/flowscope/pkg/flow"

// ScopeEntry records one laid-out scope: its working flat graph and the
// model element that owns it. Exactly one of State and Region is set; for
// scopes owned by a nested-graph node, Owner points back at that node.
type ScopeEntry struct {
	ID     string
	Flat   *FlatGraph
	Owner  *flow.Node
	State  *flow.State
	Region *flow.Region
}

// Registry is the table of computed scope layouts produced by a pass,
// keyed by nested-scope ID. Callers use it to navigate results without
// re-traversing the source graph.
type Registry struct {
	entries map[string]*ScopeEntry
	order   []string
}

func newRegistry() *Registry {
	return &Registry{entries: make(map[string]*ScopeEntry)}
}

func (r *Registry) add(e *ScopeEntry) {
	if _, exists := r.entries[e.ID]; !exists {
		r.order = append(r.order, e.ID)
	}
	r.entries[e.ID] = e
}

// Lookup returns the entry for a scope ID, or nil.
func (r *Registry) Lookup(id string) *ScopeEntry {
	return r.entries[id]
}

// Scopes returns all scope IDs in the order they were laid out
// (bottom-up within each nesting level).
func (r *Registry) Scopes() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered scopes.
func (r *Registry) Len() int { return len(r.entries) }
