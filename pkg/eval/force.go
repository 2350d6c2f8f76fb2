package eval

import (
	"math"

	"github.com/matzehuels/flowscope/pkg/geom"
	"github.com/matzehuels/flowscope/pkg/layout"
)

// Tension computes a force-based layout tension proxy: every node pair
// repels with magnitude log(ideal²/d) along the connecting vector, and
// every edge pulls its endpoints together with magnitude log(d²/ideal).
// The residual per-node force magnitudes are averaged; a layout whose
// node spacing matches the ideal edge length has low tension. Lower is
// better. Quadratic in the node count.
func Tension(g *layout.FlatGraph) float64 {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return 0
	}

	forces := make(map[int]geom.Point, len(nodes))

	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			a, b := nodes[i], nodes[j]
			delta := geom.Point{X: a.X - b.X, Y: a.Y - b.Y}
			d := delta.Norm()
			if d < geom.Epsilon {
				continue
			}
			mag := math.Log(IdealEdgeLength * IdealEdgeLength / d)
			unit := delta.Scale(1 / d)
			forces[a.ID] = forces[a.ID].Add(unit.Scale(mag))
			forces[b.ID] = forces[b.ID].Sub(unit.Scale(mag))
		}
	}

	for _, e := range g.Edges() {
		src := g.Node(e.Src)
		dst := g.Node(e.Dst)
		if src == nil || dst == nil {
			continue
		}
		delta := geom.Point{X: dst.X - src.X, Y: dst.Y - src.Y}
		d := delta.Norm()
		if d < geom.Epsilon {
			continue
		}
		mag := math.Log(d * d / IdealEdgeLength)
		unit := delta.Scale(1 / d)
		forces[src.ID] = forces[src.ID].Add(unit.Scale(mag))
		forces[dst.ID] = forces[dst.ID].Sub(unit.Scale(mag))
	}

	total := 0.0
	for _, n := range nodes {
		total += forces[n.ID].Norm()
	}
	return total / float64(len(nodes))
}
