package eval

import (
	"math"

	"github.com/matzehuels/flowscope/pkg/geom"
	"github.com/matzehuels/flowscope/pkg/layout"
)

// forwardSlack is how far beyond the ideal edge length a destination
// must sit below its source for the edge to count as long-range forward.
const forwardSlack = 20.0

// BundlingReport holds the median closest-approach distance between
// same-class long-range edges. Tightly bundled parallel edges yield
// small medians.
type BundlingReport struct {
	Back         float64 `json:"back"`
	Forward      float64 `json:"forward"`
	BackCount    int     `json:"back_count"`
	ForwardCount int     `json:"forward_count"`
}

// Bundling classifies edges as back edges (destination above source) or
// long-range forward edges (destination below source by more than the
// ideal length plus slack) and reports the median pairwise minimum
// distance within each class. Pairs whose vertical extents do not
// overlap are skipped before the quadratic segment-distance work.
func Bundling(g *layout.FlatGraph) BundlingReport {
	var back, forward []*layout.FlatEdge
	for _, e := range g.Edges() {
		src := g.Node(e.Src)
		dst := g.Node(e.Dst)
		if src == nil || dst == nil || len(e.Points) < 2 {
			continue
		}
		switch {
		case dst.Y < src.Y:
			back = append(back, e)
		case dst.Y > src.Y+IdealEdgeLength+forwardSlack:
			forward = append(forward, e)
		}
	}

	return BundlingReport{
		Back:         medianPairDistance(back),
		Forward:      medianPairDistance(forward),
		BackCount:    len(back),
		ForwardCount: len(forward),
	}
}

// medianPairDistance computes, for every pair of edges whose vertical
// ranges overlap, the minimum distance between their polylines, and
// returns the median over all pairs.
func medianPairDistance(edges []*layout.FlatEdge) float64 {
	var dists []float64
	for i := 0; i < len(edges); i++ {
		for j := i + 1; j < len(edges); j++ {
			if !verticalOverlap(edges[i].Points, edges[j].Points) {
				continue
			}
			dists = append(dists, polylineDistance(edges[i].Points, edges[j].Points))
		}
	}
	return median(dists)
}

// verticalOverlap reports whether the y-ranges of two polylines
// intersect.
func verticalOverlap(a, b []geom.Point) bool {
	aMin, aMax := yRange(a)
	bMin, bMax := yRange(b)
	return aMin <= bMax && bMin <= aMax
}

func yRange(pts []geom.Point) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		lo = math.Min(lo, p.Y)
		hi = math.Max(hi, p.Y)
	}
	return lo, hi
}

// polylineDistance is the minimum segment-to-segment distance between
// two polylines.
func polylineDistance(a, b []geom.Point) float64 {
	minDist := math.Inf(1)
	for i := 1; i < len(a); i++ {
		for j := 1; j < len(b); j++ {
			d, _, _ := geom.SegmentToSegmentDistance(a[i-1], a[i], b[j-1], b[j])
			minDist = math.Min(minDist, d)
		}
	}
	if math.IsInf(minDist, 1) {
		return 0
	}
	return minDist
}
