package eval

import (
	"math"
	"testing"

	"github.com/matzehuels/flowscope/pkg/layout"
)

func TestSymmetrySingleNode(t *testing.T) {
	g := layout.NewFlatGraph()
	n := g.AddNode(0, 40, 40)
	n.X, n.Y = 100, 100

	r := Symmetry(g)
	for i, axis := range r.Axes {
		if axis != 0 {
			t.Errorf("axis %d = %v, want 0", i, axis)
		}
	}
	if r.Score != 0 {
		t.Errorf("Score = %v, want 0", r.Score)
	}
}

func TestSymmetryBalancedSquare(t *testing.T) {
	// Four nodes on the corners of a square balance around every axis.
	g := layout.NewFlatGraph()
	for i, pos := range [][2]float64{{0, 0}, {100, 0}, {0, 100}, {100, 100}} {
		n := g.AddNode(i, 10, 10)
		n.X, n.Y = pos[0], pos[1]
	}

	r := Symmetry(g)
	if !almostEqual(r.Score, 0) {
		t.Errorf("Score = %v, want 0", r.Score)
	}
	if r.Bounds.Width != 100 || r.Bounds.Height != 100 {
		t.Errorf("Bounds = %+v", r.Bounds)
	}
}

func TestSymmetryLopsided(t *testing.T) {
	// Three nodes bunched below the horizontal midline must produce a
	// nonzero signed average on that axis.
	g := layout.NewFlatGraph()
	for i, pos := range [][2]float64{{0, 0}, {50, 90}, {100, 100}} {
		n := g.AddNode(i, 10, 10)
		n.X, n.Y = pos[0], pos[1]
	}

	r := Symmetry(g)
	if r.Axes[0] == 0 {
		t.Error("horizontal axis reported perfect balance for lopsided layout")
	}
	if r.Score <= 0 {
		t.Errorf("Score = %v, want > 0", r.Score)
	}
}

func TestTensionEquilibriumPair(t *testing.T) {
	// Two connected nodes exactly the ideal length apart: the repulsive
	// log(ideal^2/d) and attractive log(d^2/ideal) magnitudes coincide at
	// d = ideal, so the residual force vanishes.
	g := layout.NewFlatGraph()
	a := g.AddNode(0, 10, 10)
	b := g.AddNode(1, 10, 10)
	a.X, a.Y = 0, 0
	b.X, b.Y = 0, IdealEdgeLength
	g.AddEdge(0, 1)

	if got := Tension(g); !almostEqual(got, 0) {
		t.Errorf("Tension = %v, want 0", got)
	}
}

func TestTensionGrowsWithStretch(t *testing.T) {
	build := func(d float64) *layout.FlatGraph {
		g := layout.NewFlatGraph()
		a := g.AddNode(0, 10, 10)
		b := g.AddNode(1, 10, 10)
		a.X, a.Y = 0, 0
		b.X, b.Y = 0, d
		g.AddEdge(0, 1)
		return g
	}

	near := Tension(build(IdealEdgeLength * 1.2))
	far := Tension(build(IdealEdgeLength * 4))
	if far <= near {
		t.Errorf("tension did not grow with stretch: near %v, far %v", near, far)
	}
}

func TestTensionDegenerate(t *testing.T) {
	if got := Tension(layout.NewFlatGraph()); got != 0 {
		t.Errorf("empty Tension = %v, want 0", got)
	}

	// Coincident nodes skip the repulsive term instead of dividing by 0.
	g := layout.NewFlatGraph()
	g.AddNode(0, 10, 10)
	g.AddNode(1, 10, 10)
	got := Tension(g)
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Errorf("Tension = %v, want finite", got)
	}
}
