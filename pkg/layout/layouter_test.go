package layout

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowscope/pkg/flow"
)

// nestedGraph builds a three-level document: a root region with one
// state, whose nested-graph node owns a region with an inner state.
func nestedGraph() *flow.Graph {
	inner := &flow.State{
		ID:    0,
		Label: "inner",
		Nodes: []*flow.Node{
			{ID: 0, Kind: flow.NodeTasklet, Label: "f", OutConnectors: []string{"out"}},
			{ID: 1, Kind: flow.NodeTasklet, Label: "g", InConnectors: []string{"in"}},
		},
		Edges: []*flow.Edge{
			{Src: 0, Dst: 1, SrcConnector: "out", DstConnector: "in"},
		},
		ScopeDict: map[int][]int{flow.TopLevelScope: {0, 1}},
	}
	outer := &flow.State{
		ID:    0,
		Label: "outer",
		Nodes: []*flow.Node{
			{ID: 0, Kind: flow.NodeAccess, Label: "A"},
			{
				ID: 1, Kind: flow.NodeNested, Label: "nested",
				Nested: &flow.Region{
					Blocks:     []*flow.Block{{ID: 0, Kind: flow.BlockState, Label: "inner", State: inner}},
					StartBlock: 0,
				},
			},
			{ID: 2, Kind: flow.NodeAccess, Label: "B"},
		},
		Edges: []*flow.Edge{
			{Src: 0, Dst: 1},
			{Src: 1, Dst: 2},
		},
		ScopeDict: map[int][]int{flow.TopLevelScope: {0, 1, 2}},
	}
	return &flow.Graph{
		Name: "t",
		Root: &flow.Region{
			Blocks:     []*flow.Block{{ID: 0, Kind: flow.BlockState, Label: "outer", State: outer}},
			StartBlock: 0,
		},
	}
}

func testEngine(opts ...Option) *Engine {
	return New(DefaultSettings(), append([]Option{WithPlacer(LayeredPlacer{})}, opts...)...)
}

func TestLayoutNested(t *testing.T) {
	g := nestedGraph()
	reg, err := testEngine().Layout(context.Background(), g)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}

	// Root region, outer state, nested region and inner state each get a
	// registry entry, innermost first.
	if reg.Len() != 4 {
		t.Fatalf("registry has %d scopes, want 4: %v", reg.Len(), reg.Scopes())
	}
	scopes := reg.Scopes()
	if scopes[len(scopes)-1] != "root" {
		t.Errorf("last laid-out scope = %q, want root", scopes[len(scopes)-1])
	}

	outer := g.Root.Blocks[0].State
	nested := outer.Node(1)
	if nested.Layout.Width == 0 || nested.Layout.Height == 0 {
		t.Fatal("nested node has no extent")
	}

	// The nested interior must sit inside the owning node's frame.
	bounds := struct{ left, top, right, bottom float64 }{
		nested.Layout.X - nested.Layout.Width/2,
		nested.Layout.Y - nested.Layout.Height/2,
		nested.Layout.X + nested.Layout.Width/2,
		nested.Layout.Y + nested.Layout.Height/2,
	}
	for _, n := range nested.Nested.Blocks[0].State.Nodes {
		if n.Layout.X < bounds.left || n.Layout.X > bounds.right ||
			n.Layout.Y < bounds.top || n.Layout.Y > bounds.bottom {
			t.Errorf("inner node %d at (%v,%v) escapes nested frame %+v",
				n.ID, n.Layout.X, n.Layout.Y, bounds)
		}
	}

	// Edges carry polylines whose first point is at the source connector.
	e := outer.Nodes[0] // access A
	for _, oe := range outer.OutEdges(e.ID) {
		if len(oe.Points) < 2 {
			t.Errorf("edge %d->%d has %d points", oe.Src, oe.Dst, len(oe.Points))
		}
	}

	inner := nested.Nested.Blocks[0].State
	ie := inner.Edges[0]
	src := inner.Node(0).Connector(flow.Out, "out")
	if src == nil {
		t.Fatal("source connector not attached")
	}
	if len(ie.Points) == 0 || ie.Points[0].X != src.X || ie.Points[0].Y != src.Y {
		t.Errorf("inner edge start %+v not snapped to connector (%v,%v)",
			ie.Points, src.X, src.Y)
	}
}

func TestLayoutIdempotent(t *testing.T) {
	g := nestedGraph()
	eng := testEngine()

	if _, err := eng.Layout(context.Background(), g); err != nil {
		t.Fatal(err)
	}
	first, err := flow.Marshal(g)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := eng.Layout(context.Background(), g); err != nil {
		t.Fatal(err)
	}
	second, err := flow.Marshal(g)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(first, second) {
		t.Error("second pass produced different output")
	}
}

func TestLayoutUnknownKindAborts(t *testing.T) {
	g := nestedGraph()
	g.Root.Blocks[0].State.Nodes[0].Kind = flow.NodeKind(42)

	_, err := testEngine().Layout(context.Background(), g)
	if !errors.Is(err, flow.ErrUnknownKind) {
		t.Fatalf("err = %v, want ErrUnknownKind", err)
	}
}

func TestLayoutCollapsedEntryMissingExit(t *testing.T) {
	st := &flow.State{
		Nodes: []*flow.Node{
			{ID: 0, Kind: flow.NodeScopeEntry, Label: "map", Collapsed: true},
			{ID: 1, Kind: flow.NodeTasklet, Label: "body"},
			{ID: 2, Kind: flow.NodeTasklet, Label: "sink", InConnectors: []string{"in"}},
		},
		Edges: []*flow.Edge{
			{Src: 1, Dst: 2, DstConnector: "in"},
		},
		ScopeDict: map[int][]int{
			flow.TopLevelScope: {0, 2},
			0:                  {1},
		},
	}
	g := &flow.Graph{Root: &flow.Region{
		Blocks: []*flow.Block{{ID: 0, Kind: flow.BlockState, State: st}},
	}}

	var buf strings.Builder
	logger := log.New(&buf)
	logger.SetLevel(log.WarnLevel)

	_, err := testEngine(WithLogger(logger)).Layout(context.Background(), g)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}

	if !strings.Contains(buf.String(), "no exit") {
		t.Errorf("missing exit not logged: %q", buf.String())
	}
	// The entry degrades to no out connectors but stays drawn.
	entry := st.Node(0)
	if len(entry.Out) != 0 {
		t.Errorf("entry borrowed %d out connectors from a missing exit", len(entry.Out))
	}
	if entry.Layout.Width == 0 {
		t.Error("entry not laid out")
	}

	// The buried body node was redirected: the visible edge runs from the
	// collapsed entry into the sink.
	if len(st.Edges) != 1 || len(st.Edges[0].Points) < 2 {
		t.Errorf("redirected edge not routed: %+v", st.Edges)
	}
}

func TestLayoutVerticalFallback(t *testing.T) {
	// A cyclic region cannot be stacked vertically; the pass must fall
	// back to the default placer instead of failing.
	st1 := &flow.State{Label: "a", ScopeDict: map[int][]int{}}
	st2 := &flow.State{Label: "b", ScopeDict: map[int][]int{}}
	g := &flow.Graph{Root: &flow.Region{
		Blocks: []*flow.Block{
			{ID: 0, Kind: flow.BlockState, Label: "a", State: st1},
			{ID: 1, Kind: flow.BlockState, Label: "b", State: st2},
		},
		Edges: []*flow.Transition{
			{Src: 0, Dst: 1},
			{Src: 1, Dst: 0},
		},
	}}

	settings := DefaultSettings()
	settings.VerticalLayout = true
	eng := New(settings, WithPlacer(LayeredPlacer{}))

	if _, err := eng.Layout(context.Background(), g); err != nil {
		t.Fatalf("Layout: %v", err)
	}
	b0 := g.Root.Blocks[0]
	b1 := g.Root.Blocks[1]
	if b0.Layout.Width == 0 || b1.Layout.Width == 0 {
		t.Error("blocks not laid out after fallback")
	}
	if b0.Layout.Y == b1.Layout.Y && b0.Layout.X == b1.Layout.X {
		t.Error("blocks placed on top of each other")
	}
}

func TestLayoutConditionalBranchHeights(t *testing.T) {
	stateBlock := func(id int, label string) *flow.Block {
		return &flow.Block{ID: id, Kind: flow.BlockState, Label: label, State: &flow.State{
			Label:     label,
			Nodes:     []*flow.Node{{ID: 0, Kind: flow.NodeTasklet, Label: label}},
			ScopeDict: map[int][]int{flow.TopLevelScope: {0}},
		}}
	}

	// The else arm stacks two blocks and is the taller one.
	cond := &flow.Block{
		ID:   0,
		Kind: flow.BlockConditional,
		Branches: []flow.Branch{
			{Condition: "x > 0", Body: &flow.Region{
				Blocks: []*flow.Block{stateBlock(0, "then")},
			}},
			{Condition: "", Body: &flow.Region{
				Blocks: []*flow.Block{stateBlock(0, "else1"), stateBlock(1, "else2")},
				Edges:  []*flow.Transition{{Src: 0, Dst: 1}},
			}},
		},
	}
	g := &flow.Graph{Root: &flow.Region{Blocks: []*flow.Block{cond}}}

	if _, err := testEngine().Layout(context.Background(), g); err != nil {
		t.Fatalf("Layout: %v", err)
	}

	// All arms stretch to the tallest branch.
	h0 := cond.Branches[0].Height
	h1 := cond.Branches[1].Height
	if h0 == 0 || h0 != h1 {
		t.Fatalf("branch heights = %v, %v; want equal and non-zero", h0, h1)
	}
	tallest := max(cond.Branches[0].Body.Bounds().Height, cond.Branches[1].Body.Bounds().Height)
	if h0 != tallest {
		t.Errorf("common branch height = %v, want tallest branch %v", h0, tallest)
	}
	if cond.Layout.Height != tallest+2*ScopeMargin {
		t.Errorf("block height = %v, want %v", cond.Layout.Height, tallest+2*ScopeMargin)
	}
}

func TestLayoutOmitAccessNodes(t *testing.T) {
	st := &flow.State{
		Nodes: []*flow.Node{
			{ID: 0, Kind: flow.NodeTasklet, Label: "S", OutConnectors: []string{"out"}},
			{ID: 1, Kind: flow.NodeAccess, Label: "H"},
			{ID: 2, Kind: flow.NodeTasklet, Label: "D", InConnectors: []string{"in"}},
		},
		Edges: []*flow.Edge{
			{Src: 0, Dst: 1, SrcConnector: "out"},
			{Src: 1, Dst: 2, DstConnector: "in"},
		},
		ScopeDict: map[int][]int{flow.TopLevelScope: {0, 1, 2}},
	}
	g := &flow.Graph{Root: &flow.Region{
		Blocks: []*flow.Block{{ID: 0, Kind: flow.BlockState, State: st}},
	}}

	settings := DefaultSettings()
	settings.OmitAccessNodes = true
	eng := New(settings, WithPlacer(LayeredPlacer{}))

	if _, err := eng.Layout(context.Background(), g); err != nil {
		t.Fatal(err)
	}

	// The hidden access node keeps no extent; the shortcut is routed.
	if st.Node(1).Layout.Width != 0 {
		t.Error("hidden node was sized")
	}
	var shortcut *flow.Edge
	for _, e := range st.Edges {
		if e.Shortcut {
			shortcut = e
		}
	}
	if shortcut == nil {
		t.Fatal("no shortcut edge synthesized")
	}
	if shortcut.Src != 0 || shortcut.Dst != 2 || len(shortcut.Points) < 2 {
		t.Errorf("shortcut = %+v", shortcut)
	}
}
