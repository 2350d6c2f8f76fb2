package eval

import (
	"github.com/matzehuels/flowscope/pkg/layout"
)

// Report bundles every metric computed over one scope's flat graph.
type Report struct {
	Nodes         int            `json:"nodes"`
	Edges         int            `json:"edges"`
	Bends         BendStats      `json:"bends"`
	Lengths       LengthStats    `json:"lengths"`
	Orthogonality float64        `json:"orthogonality"`
	Density       float64        `json:"density"`
	Symmetry      SymmetryReport `json:"symmetry"`
	Tension       float64        `json:"tension"`
	Bundling      BundlingReport `json:"bundling"`
}

// Evaluate computes the full metric report for one scope.
func Evaluate(g *layout.FlatGraph) Report {
	return Report{
		Nodes:         g.NodeCount(),
		Edges:         len(g.Edges()),
		Bends:         Bends(g),
		Lengths:       Lengths(g),
		Orthogonality: Orthogonality(g),
		Density:       Density(g),
		Symmetry:      Symmetry(g),
		Tension:       Tension(g),
		Bundling:      Bundling(g),
	}
}

// EvaluateScopes evaluates every scope in a layout registry, keyed by
// scope ID.
func EvaluateScopes(reg *layout.Registry) map[string]Report {
	out := make(map[string]Report, reg.Len())
	for _, id := range reg.Scopes() {
		entry := reg.Lookup(id)
		if entry == nil || entry.Flat == nil {
			continue
		}
		out[id] = Evaluate(entry.Flat)
	}
	return out
}

// Columns flattens a report into named scalar columns for a
// [StatsCollector] row. Column order is fixed across calls.
func (r Report) Columns() []Column {
	return []Column{
		{"nodes", float64(r.Nodes)},
		{"edges", float64(r.Edges)},
		{"bends_total", float64(r.Bends.Total)},
		{"bends_max", float64(r.Bends.MaxPerEdge)},
		{"length_mean", r.Lengths.Mean},
		{"length_median", r.Lengths.Median},
		{"length_variance", r.Lengths.Variance},
		{"length_mad", r.Lengths.MAD},
		{"length_log_mad", r.Lengths.LogMAD},
		{"orthogonality", r.Orthogonality},
		{"density", r.Density},
		{"symmetry", r.Symmetry.Score},
		{"tension", r.Tension},
		{"bundling_back", r.Bundling.Back},
		{"bundling_forward", r.Bundling.Forward},
	}
}

// Column is one named scalar of a flattened report.
type Column struct {
	Name  string
	Value float64
}
