package layout

import (
	"testing"

	"github.com/matzehuels/flowscope/pkg/flow"
)

// hiddenFixture builds a state S -> H -> {D1, D2} where H is an access
// node to be hidden.
func hiddenFixture() *flow.State {
	return &flow.State{
		Nodes: []*flow.Node{
			{ID: 0, Kind: flow.NodeTasklet, Label: "S", OutConnectors: []string{"out"}},
			{ID: 1, Kind: flow.NodeAccess, Label: "H"},
			{ID: 2, Kind: flow.NodeTasklet, Label: "D1", InConnectors: []string{"a"}},
			{ID: 3, Kind: flow.NodeTasklet, Label: "D2", InConnectors: []string{"b"}},
		},
		Edges: []*flow.Edge{
			{Src: 0, Dst: 1, SrcConnector: "out"},
			{Src: 1, Dst: 2, DstConnector: "a"},
			{Src: 1, Dst: 3, DstConnector: "b"},
		},
		ScopeDict: map[int][]int{flow.TopLevelScope: {0, 1, 2, 3}},
	}
}

func runSynthesis(st *flow.State, hiddenIDs ...int) []visibleEdge {
	hidden := map[int]*hiddenRecord{}
	for _, id := range hiddenIDs {
		hidden[id] = &hiddenRecord{node: st.Node(id)}
	}
	drawn := func(id int) bool {
		_, isHidden := hidden[id]
		return !isHidden && st.Node(id) != nil
	}
	entryFor := func(id int) *flow.Node { return visibleAncestorEntry(st, id) }
	return synthesizeVisibleEdges(st, hidden, drawn, entryFor, true)
}

func countShortcuts(st *flow.State) int {
	n := 0
	for _, e := range st.Edges {
		if e.Shortcut {
			n++
		}
	}
	return n
}

func TestSynthesizeShortcuts(t *testing.T) {
	st := hiddenFixture()
	visible := runSynthesis(st, 1)

	if got := countShortcuts(st); got != 2 {
		t.Fatalf("shortcuts = %d, want 2", got)
	}
	if len(visible) != 2 {
		t.Fatalf("visible edges = %d, want 2", len(visible))
	}

	for _, want := range []struct{ dst int; conn string }{{2, "a"}, {3, "b"}} {
		found := false
		for _, e := range st.Edges {
			if e.Shortcut && e.Src == 0 && e.Dst == want.dst && e.DstConnector == want.conn {
				if e.SrcConnector != "out" {
					t.Errorf("shortcut to %d lost source connector: %q", want.dst, e.SrcConnector)
				}
				found = true
			}
		}
		if !found {
			t.Errorf("missing shortcut 0 -> %d (%s)", want.dst, want.conn)
		}
	}
}

func TestSynthesizeShortcutsIdempotent(t *testing.T) {
	st := hiddenFixture()
	runSynthesis(st, 1)
	before := len(st.Edges)

	// A second pass over the same state must not duplicate anything.
	visible := runSynthesis(st, 1)
	if len(st.Edges) != before {
		t.Fatalf("edges grew from %d to %d on second pass", before, len(st.Edges))
	}
	if got := countShortcuts(st); got != 2 {
		t.Errorf("shortcuts = %d, want 2", got)
	}
	// The existing shortcuts are visible, not re-synthesized.
	if len(visible) != 2 {
		t.Errorf("visible edges = %d, want 2", len(visible))
	}
}

func TestSynthesizeSplicesHiddenChains(t *testing.T) {
	// S -> H1 -> H2 -> D with both H1 and H2 hidden.
	st := &flow.State{
		Nodes: []*flow.Node{
			{ID: 0, Kind: flow.NodeTasklet, Label: "S"},
			{ID: 1, Kind: flow.NodeAccess, Label: "H1"},
			{ID: 2, Kind: flow.NodeAccess, Label: "H2"},
			{ID: 3, Kind: flow.NodeTasklet, Label: "D", InConnectors: []string{"in"}},
		},
		Edges: []*flow.Edge{
			{Src: 0, Dst: 1},
			{Src: 1, Dst: 2},
			{Src: 2, Dst: 3, DstConnector: "in"},
		},
		ScopeDict: map[int][]int{flow.TopLevelScope: {0, 1, 2, 3}},
	}

	visible := runSynthesis(st, 1, 2)
	if len(visible) != 1 {
		t.Fatalf("visible edges = %d, want 1", len(visible))
	}
	e := visible[0].edge
	if !e.Shortcut || e.Src != 0 || e.Dst != 3 || e.DstConnector != "in" {
		t.Errorf("spliced shortcut = %+v", e)
	}
}

func TestStaleShortcutDroppedWithoutOmission(t *testing.T) {
	st := hiddenFixture()
	st.Edges = append(st.Edges, &flow.Edge{Src: 0, Dst: 2, DstConnector: "a", Shortcut: true})

	drawn := func(id int) bool { return st.Node(id) != nil }
	entryFor := func(id int) *flow.Node { return nil }
	visible := synthesizeVisibleEdges(st, map[int]*hiddenRecord{}, drawn, entryFor, false)

	for _, ve := range visible {
		if ve.edge.Shortcut {
			t.Error("stale shortcut edge should not be visible when omission is off")
		}
	}
	if len(visible) != 3 {
		t.Errorf("visible edges = %d, want 3", len(visible))
	}
}

func TestRedirectToCollapsedScopeEntry(t *testing.T) {
	// entry(collapsed) owns inner; edge inner -> out must be redirected
	// to the entry node.
	st := &flow.State{
		Nodes: []*flow.Node{
			{ID: 0, Kind: flow.NodeScopeEntry, Label: "entry", Collapsed: true},
			{ID: 1, Kind: flow.NodeTasklet, Label: "inner"},
			{ID: 2, Kind: flow.NodeScopeExit, Label: "exit"},
			{ID: 3, Kind: flow.NodeTasklet, Label: "out"},
		},
		Edges: []*flow.Edge{
			{Src: 1, Dst: 3},
		},
		ScopeDict: map[int][]int{
			flow.TopLevelScope: {0, 3},
			0:                  {1, 2},
		},
	}

	drawnSet := map[int]bool{0: true, 3: true}
	drawn := func(id int) bool { return drawnSet[id] }
	entryFor := func(id int) *flow.Node { return visibleAncestorEntry(st, id) }

	visible := synthesizeVisibleEdges(st, map[int]*hiddenRecord{}, drawn, entryFor, false)
	if len(visible) != 1 {
		t.Fatalf("visible edges = %d, want 1", len(visible))
	}
	if visible[0].src != 0 || visible[0].dst != 3 {
		t.Errorf("redirected endpoints = %d -> %d, want 0 -> 3", visible[0].src, visible[0].dst)
	}
	// The model edge keeps its original endpoints.
	if visible[0].edge.Src != 1 {
		t.Errorf("model edge mutated: src = %d", visible[0].edge.Src)
	}
}

func TestEdgeDroppedWhenAncestorMissing(t *testing.T) {
	st := &flow.State{
		Nodes: []*flow.Node{
			{ID: 0, Kind: flow.NodeTasklet},
			{ID: 1, Kind: flow.NodeTasklet},
		},
		Edges: []*flow.Edge{
			{Src: 5, Dst: 0}, // source does not exist anywhere
			{Src: 0, Dst: 1},
		},
		ScopeDict: map[int][]int{flow.TopLevelScope: {0, 1}},
	}

	drawnSet := map[int]bool{0: true, 1: true}
	visible := synthesizeVisibleEdges(st, map[int]*hiddenRecord{},
		func(id int) bool { return drawnSet[id] },
		func(id int) *flow.Node { return nil },
		false)

	if len(visible) != 1 {
		t.Fatalf("visible edges = %d, want 1 (malformed edge silently dropped)", len(visible))
	}
	if visible[0].edge.Src != 0 {
		t.Errorf("wrong edge survived: %+v", visible[0].edge)
	}
}
