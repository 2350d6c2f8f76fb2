package layout

import (
	"sort"

	"github.com/matzehuels/flowscope/pkg/flow"
)

// hiddenRecord tracks one node omitted from display: its at most one
// incoming edge and its outgoing edges. Records live for a single layout
// pass and are never persisted.
type hiddenRecord struct {
	node *flow.Node
	src  *flow.Edge
	dsts []*flow.Edge
}

// visibleEdge pairs a model edge with its effective endpoints in the
// flat graph. Redirection (to a scope entry, or across hidden nodes)
// changes the effective endpoints without mutating the model edge.
type visibleEdge struct {
	edge *flow.Edge
	src  int
	dst  int
}

// synthesizeVisibleEdges rewrites a state's edge set for display:
// edges incident to hidden nodes are folded into shortcut edges, edges
// from non-drawn nodes inside collapsed scopes are redirected to the
// visible scope entry, and everything else passes through. Synthesized
// shortcut edges are appended to the state (so a renderer sees them) but
// never duplicated: at most one shortcut may exist per (source,
// destination, destination-connector) triple.
//
// drawn reports whether a node ID is present in the flat graph; hidden
// holds the records of omitted nodes; entryFor resolves the visible scope
// entry of a node buried in a collapsed scope, or nil. Edges whose
// ancestry cannot be resolved are dropped silently.
func synthesizeVisibleEdges(st *flow.State, hidden map[int]*hiddenRecord, drawn func(int) bool, entryFor func(int) *flow.Node, omit bool) []visibleEdge {
	var visible []visibleEdge

	for _, e := range st.Edges {
		srcHidden := hidden[e.Src] != nil
		dstHidden := hidden[e.Dst] != nil

		switch {
		case srcHidden && dstHidden:
			// Pass-through: the source record splices the destination's
			// outgoing edges in at synthesis time.
			e.Shortcut = false
			hidden[e.Src].dsts = append(hidden[e.Src].dsts, e)

		case srcHidden:
			hidden[e.Src].dsts = append(hidden[e.Src].dsts, e)

		case dstHidden:
			hidden[e.Dst].src = e

		case e.Shortcut && !omit:
			// Stale shortcut from an omitted-view pass; only that view
			// wants it.

		default:
			src, okSrc := resolveEndpoint(e.Src, drawn, entryFor)
			dst, okDst := resolveEndpoint(e.Dst, drawn, entryFor)
			if !okSrc || !okDst {
				continue // ancestor not found, tolerate by omission
			}
			visible = append(visible, visibleEdge{edge: e, src: src, dst: dst})
		}
	}

	// Synthesize one shortcut per (incoming, outgoing) pair of each
	// hidden node that has a recorded incoming edge. Deterministic order
	// keeps repeated passes byte-identical.
	ids := make([]int, 0, len(hidden))
	for id := range hidden {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		rec := hidden[id]
		if rec.src == nil {
			continue
		}
		for _, out := range resolveDsts(hidden, rec, nil) {
			if !drawn(rec.src.Src) || !drawn(out.Dst) {
				continue
			}
			if hasVisibleEdge(st, drawn, rec.src.Src, out.Dst, out.DstConnector) {
				continue // duplicate shortcut, skip
			}
			shortcut := &flow.Edge{
				Src:          rec.src.Src,
				SrcConnector: rec.src.SrcConnector,
				Dst:          out.Dst,
				DstConnector: out.DstConnector,
				Data:         out.Data,
				Shortcut:     true,
			}
			st.Edges = append(st.Edges, shortcut)
			visible = append(visible, visibleEdge{edge: shortcut, src: shortcut.Src, dst: shortcut.Dst})
		}
	}

	return visible
}

// resolveEndpoint maps a node ID to the ID actually drawn for it: itself
// when visible, otherwise the entry node of the collapsed scope hiding
// it. The second result is false when no visible ancestor exists.
func resolveEndpoint(id int, drawn func(int) bool, entryFor func(int) *flow.Node) (int, bool) {
	if drawn(id) {
		return id, true
	}
	entry := entryFor(id)
	if entry == nil || !drawn(entry.ID) {
		return 0, false
	}
	return entry.ID, true
}

// resolveDsts expands a record's outgoing edges, splicing through any
// destination that is itself hidden. The visited set guards against
// malformed cyclic chains.
func resolveDsts(hidden map[int]*hiddenRecord, rec *hiddenRecord, visited map[int]bool) []*flow.Edge {
	if visited == nil {
		visited = map[int]bool{}
	}
	if visited[rec.node.ID] {
		return nil
	}
	visited[rec.node.ID] = true

	var out []*flow.Edge
	for _, e := range rec.dsts {
		if next := hidden[e.Dst]; next != nil {
			out = append(out, resolveDsts(hidden, next, visited)...)
			continue
		}
		out = append(out, e)
	}
	return out
}

// hasVisibleEdge reports whether the visible graph already has an edge
// from src to dst at the given destination connector.
func hasVisibleEdge(st *flow.State, drawn func(int) bool, src, dst int, dstConnector string) bool {
	for _, e := range st.Edges {
		if e.Src == src && e.Dst == dst && e.DstConnector == dstConnector && drawn(e.Src) && drawn(e.Dst) {
			return true
		}
	}
	return false
}
