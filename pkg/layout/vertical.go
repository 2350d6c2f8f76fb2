package layout

import (
	"context"
	"errors"
	"sort"

	"github.com/matzehuels/flowscope/pkg/geom"
)

// ErrVerticalUnsupported is returned by [VerticalPlacer] when the control
// flow cannot be arranged as a single vertical sequence (e.g. irreducible
// control flow). Callers fall back to the default placer; this is a
// recoverable condition, not a failure.
var ErrVerticalUnsupported = errors.New("vertical placement unsupported for this control flow")

// VerticalPlacer is the alternative state-machine placement strategy: it
// stacks blocks in a single column in topological order. Its internals
// stand in for an external strategy and are deliberately simple.
type VerticalPlacer struct{}

// Place implements [Placer].
func (VerticalPlacer) Place(ctx context.Context, g *FlatGraph, opts PlaceOptions) error {
	if g.NodeCount() == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	order, ok := topoOrder(g)
	if !ok {
		return ErrVerticalUnsupported
	}

	maxWidth := 0.0
	for _, n := range g.Nodes() {
		maxWidth = max(maxWidth, n.Width)
	}

	y := 0.0
	for _, id := range order {
		n := g.Node(id)
		n.X = maxWidth / 2
		n.Y = y + n.Height/2
		y += n.Height + opts.RankSep
	}

	for _, e := range g.Edges() {
		src := g.Node(e.Src)
		dst := g.Node(e.Dst)
		fan := float64(e.Index) * 10
		e.Points = []geom.Point{
			{X: src.X + fan, Y: src.Y + src.Height/2},
			{X: dst.X + fan, Y: dst.Y - dst.Height/2},
		}
	}
	return nil
}

// topoOrder returns a deterministic topological order, or ok=false when
// the graph has a cycle.
func topoOrder(g *FlatGraph) ([]int, bool) {
	indeg := map[int]int{}
	for _, n := range g.Nodes() {
		indeg[n.ID] = len(g.Predecessors(n.ID))
	}

	var ready []int
	for id, d := range indeg {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	sort.Ints(ready)

	var order []int
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, succ := range g.Successors(id) {
			indeg[succ]--
			if indeg[succ] == 0 {
				ready = append(ready, succ)
				sort.Ints(ready)
			}
		}
	}
	return order, len(order) == g.NodeCount()
}
