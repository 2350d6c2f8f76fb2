package eval

import (
	"math"

	"github.com/matzehuels/flowscope/pkg/geom"
	"github.com/matzehuels/flowscope/pkg/layout"
)

// SymmetryReport holds the per-axis mean signed distances and the
// overall asymmetry score. Axes are, in order: horizontal midline,
// vertical midline, main diagonal (top-left to bottom-right) and anti
// diagonal (bottom-left to top-right) of Bounds.
type SymmetryReport struct {
	Axes   [4]float64 `json:"axes"`
	Score  float64    `json:"score"`
	Bounds geom.Rect  `json:"bounds"`
}

// Symmetry measures how evenly node centers balance around the four
// candidate symmetry axes of their bounding box. For each axis, every
// node contributes its signed perpendicular distance; a perfectly
// symmetric placement averages to 0 per axis. The score is the mean
// absolute per-axis average, so lower is better and 0 is ideal.
func Symmetry(g *layout.FlatGraph) SymmetryReport {
	var r SymmetryReport
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return r
	}

	pts := make([]geom.Point, len(nodes))
	for i, n := range nodes {
		pts[i] = geom.Point{X: n.X, Y: n.Y}
	}
	b := geom.BoundsOfPoints(pts)
	r.Bounds = b

	axes := [4][2]geom.Point{
		// Horizontal midline.
		{{X: b.X, Y: b.Y + b.Height/2}, {X: b.MaxX(), Y: b.Y + b.Height/2}},
		// Vertical midline.
		{{X: b.X + b.Width/2, Y: b.Y}, {X: b.X + b.Width/2, Y: b.MaxY()}},
		// Main diagonal.
		{{X: b.X, Y: b.Y}, {X: b.MaxX(), Y: b.MaxY()}},
		// Anti diagonal.
		{{X: b.X, Y: b.MaxY()}, {X: b.MaxX(), Y: b.Y}},
	}

	for i, axis := range axes {
		sum := 0.0
		for _, p := range pts {
			sum += signedAxisDistance(p, axis[0], axis[1])
		}
		r.Axes[i] = sum / float64(len(pts))
		r.Score += math.Abs(r.Axes[i])
	}
	r.Score /= 4
	return r
}

// signedAxisDistance is the perpendicular distance from p to the line
// through a and b, signed by which side of the axis p falls on. An axis
// degenerate to a point yields the plain distance to that point.
func signedAxisDistance(p, a, b geom.Point) float64 {
	ab := b.Sub(a)
	n := ab.Norm()
	if n < geom.Epsilon {
		return geom.Distance(p, a)
	}
	return ab.Cross(p.Sub(a)) / n
}
