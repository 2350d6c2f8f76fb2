package flow

import (
	"testing"

	"github.com/matzehuels/flowscope/pkg/geom"
)

func TestStateBounds(t *testing.T) {
	st := &State{
		Nodes: []*Node{
			{ID: 0, Layout: Layout{X: 50, Y: 20, Width: 100, Height: 40}},
			{ID: 1, Layout: Layout{X: 30, Y: 100, Width: 20, Height: 20}},
		},
		Edges: []*Edge{
			{Src: 0, Dst: 1, Points: []geom.Point{{X: 50, Y: 40}, {X: 120, Y: 90}}},
		},
	}

	b := st.Bounds()
	if b.X != 0 || b.Y != 0 {
		t.Errorf("bounds anchored at %v,%v, want origin", b.X, b.Y)
	}
	// Node 0 right edge: 50+50 = 100; edge point x: 120.
	if b.Width != 120 {
		t.Errorf("width = %v, want 120", b.Width)
	}
	// Node 1 bottom edge: 100+10 = 110.
	if b.Height != 110 {
		t.Errorf("height = %v, want 110", b.Height)
	}
}

func TestEdgeBounds(t *testing.T) {
	e := &Edge{Points: []geom.Point{{X: 0, Y: 10}, {X: 100, Y: 10}}}
	b := e.Bounds()
	if b.Width != 100 {
		t.Errorf("width = %v, want 100", b.Width)
	}
	// Height 0 expands to exactly 10, centered on y=10.
	if b.Height != 10 || b.Y != 5 {
		t.Errorf("height = %v y = %v, want 10, 5", b.Height, b.Y)
	}

	e.UpdateBounds()
	if e.Layout.X != 50 || e.Layout.Y != 10 {
		t.Errorf("center = %v,%v, want 50,10", e.Layout.X, e.Layout.Y)
	}
	if e.Layout.Width != 100 || e.Layout.Height != 10 {
		t.Errorf("extent = %vx%v, want 100x10", e.Layout.Width, e.Layout.Height)
	}
}

func TestTranslate(t *testing.T) {
	n := &Node{
		Layout: Layout{X: 10, Y: 10, Width: 20, Height: 20},
		In:     []*Connector{{Name: "a", X: 5, Y: 0}},
	}
	st := &State{
		Nodes: []*Node{n},
		Edges: []*Edge{{Points: []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 10}}}},
	}
	st.Translate(100, 50)

	if n.Layout.X != 110 || n.Layout.Y != 60 {
		t.Errorf("node at %v,%v", n.Layout.X, n.Layout.Y)
	}
	if n.In[0].X != 105 || n.In[0].Y != 50 {
		t.Errorf("connector at %v,%v", n.In[0].X, n.In[0].Y)
	}
	if p := st.Edges[0].Points[1]; p.X != 110 || p.Y != 60 {
		t.Errorf("edge point at %v", p)
	}
}

func TestScopeHelpers(t *testing.T) {
	st := &State{
		Nodes: []*Node{
			{ID: 0, Kind: NodeScopeEntry},
			{ID: 1, Kind: NodeTasklet},
			{ID: 2, Kind: NodeScopeExit},
		},
		ScopeDict: map[int][]int{
			TopLevelScope: {0},
			0:             {1, 2},
		},
	}

	if got := st.ScopeOf(1); got != 0 {
		t.Errorf("ScopeOf(1) = %d, want 0", got)
	}
	if got := st.ScopeOf(0); got != TopLevelScope {
		t.Errorf("ScopeOf(0) = %d, want top level", got)
	}

	exit := st.ExitOf(st.Node(0))
	if exit == nil || exit.ID != 2 {
		t.Errorf("ExitOf = %+v, want node 2", exit)
	}

	// A scope without an exit degrades to nil.
	st.ScopeDict[0] = []int{1}
	if st.ExitOf(st.Node(0)) != nil {
		t.Error("expected nil exit")
	}
}
