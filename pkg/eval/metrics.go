package eval

import (
	"math"
	"sort"

	"github.com/matzehuels/flowscope/pkg/geom"
	"github.com/matzehuels/flowscope/pkg/layout"
)

// IdealEdgeLength is the target inter-node distance used by the
// force-tension metric and the forward-edge classification.
const IdealEdgeLength = 50.0

// densityCell is the side length of the grid cells the density metric
// divides the bounding box into.
const densityCell = 100.0

// BendStats reports polyline bend counts across all edges of a scope.
type BendStats struct {
	Total      int `json:"total"`
	MaxPerEdge int `json:"max_per_edge"`
}

// Bends counts direction changes over every edge polyline. Collinear
// intermediate points (three consecutive points sharing an x or y
// coordinate) are pruned first, so a staircase of axis-aligned segments
// in the same direction does not inflate the count.
func Bends(g *layout.FlatGraph) BendStats {
	var s BendStats
	for _, e := range g.Edges() {
		pts := pruneCollinear(e.Points)
		bends := len(pts) - 2
		if bends < 0 {
			bends = 0
		}
		s.Total += bends
		s.MaxPerEdge = maxInt(s.MaxPerEdge, bends)
	}
	return s
}

// pruneCollinear drops every intermediate point whose two neighbours
// share its x or y coordinate.
func pruneCollinear(pts []geom.Point) []geom.Point {
	if len(pts) < 3 {
		return pts
	}
	out := []geom.Point{pts[0]}
	for i := 1; i < len(pts)-1; i++ {
		prev := out[len(out)-1]
		next := pts[i+1]
		p := pts[i]
		sameX := prev.X == p.X && p.X == next.X
		sameY := prev.Y == p.Y && p.Y == next.Y
		if sameX || sameY {
			continue
		}
		out = append(out, p)
	}
	return append(out, pts[len(pts)-1])
}

// LengthStats reports edge length distribution statistics. Zero-length
// edges are excluded; Count is the number of edges measured.
type LengthStats struct {
	Count    int     `json:"count"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Median   float64 `json:"median"`
	MAD      float64 `json:"mad"`
	LogMAD   float64 `json:"log_mad"`
}

// Lengths computes edge length statistics. An edge's length is the sum
// of its polyline segment lengths.
func Lengths(g *layout.FlatGraph) LengthStats {
	var lengths []float64
	for _, e := range g.Edges() {
		l := polylineLength(e.Points)
		if l > 0 {
			lengths = append(lengths, l)
		}
	}
	if len(lengths) == 0 {
		return LengthStats{}
	}

	s := LengthStats{Count: len(lengths), Min: math.Inf(1), Max: math.Inf(-1)}
	sum := 0.0
	for _, l := range lengths {
		s.Min = math.Min(s.Min, l)
		s.Max = math.Max(s.Max, l)
		sum += l
	}
	s.Mean = sum / float64(len(lengths))

	for _, l := range lengths {
		d := l - s.Mean
		s.Variance += d * d
	}
	s.Variance /= float64(len(lengths))

	s.Median = median(lengths)
	s.MAD = mad(lengths)

	logs := make([]float64, len(lengths))
	for i, l := range lengths {
		logs[i] = math.Log(l)
	}
	s.LogMAD = mad(logs)
	return s
}

func polylineLength(pts []geom.Point) float64 {
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += geom.Distance(pts[i-1], pts[i])
	}
	return total
}

// median returns the middle value of the sample (the mean of the two
// middle values for even sizes). The input is not modified.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// mad returns the median absolute deviation from the median.
func mad(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := median(xs)
	devs := make([]float64, len(xs))
	for i, x := range xs {
		devs[i] = math.Abs(x - m)
	}
	return median(devs)
}

// Orthogonality scores how axis-aligned the edge segments are, from 0
// (every segment diagonal at 45 degrees) to 1 (every segment horizontal
// or vertical). A scope without edge segments scores a perfect 1.
func Orthogonality(g *layout.FlatGraph) float64 {
	sum := 0.0
	count := 0
	for _, e := range g.Edges() {
		for i := 1; i < len(e.Points); i++ {
			d := e.Points[i].Sub(e.Points[i-1])
			if d.Norm() < geom.Epsilon {
				continue
			}
			theta := math.Atan2(d.Y, d.X) * 180 / math.Pi
			if theta < 0 {
				theta += 180
			}
			score := math.Min(theta, math.Min(math.Abs(90-theta), math.Abs(180-theta))) / 45
			sum += score
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return 1 - sum/float64(count)
}

// Density returns the node count divided by the number of 100-unit grid
// cells spanned by the node bounding box.
func Density(g *layout.FlatGraph) float64 {
	if g.NodeCount() == 0 {
		return 0
	}
	b := nodeBounds(g)
	cols := math.Max(1, math.Ceil(b.Width/densityCell))
	rows := math.Max(1, math.Ceil(b.Height/densityCell))
	return float64(g.NodeCount()) / (cols * rows)
}

// nodeBounds returns the box enclosing every node extent.
func nodeBounds(g *layout.FlatGraph) geom.Rect {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return geom.Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		minX = math.Min(minX, n.X-n.Width/2)
		minY = math.Min(minY, n.Y-n.Height/2)
		maxX = math.Max(maxX, n.X+n.Width/2)
		maxY = math.Max(maxY, n.Y+n.Height/2)
	}
	return geom.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
