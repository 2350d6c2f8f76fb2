package geom

// SegmentIntersection returns the intersection point of segments a-b and
// c-d, or ok=false if they do not intersect.
//
// Degenerate segments (coincident endpoints) are treated as points and
// tested for membership on the other segment. Colinear overlapping
// segments return a representative point at the midpoint of the clamped
// overlap interval. Strictly parallel or non-overlapping colinear segments
// do not intersect. Intersection parameters are accepted within Epsilon of
// the [0,1] range to absorb floating-point error at endpoints.
func SegmentIntersection(a, b, c, d Point) (Point, bool) {
	ab := b.Sub(a)
	cd := d.Sub(c)
	degAB := ab.Norm() < Epsilon
	degCD := cd.Norm() < Epsilon

	switch {
	case degAB && degCD:
		if Distance(a, c) < Epsilon {
			return a, true
		}
		return Point{}, false
	case degAB:
		if PointToSegmentDistance(a, c, d) < Epsilon {
			return a, true
		}
		return Point{}, false
	case degCD:
		if PointToSegmentDistance(c, a, b) < Epsilon {
			return c, true
		}
		return Point{}, false
	}

	denom := ab.Cross(cd)
	ac := c.Sub(a)
	if abs(denom) < Epsilon {
		// Parallel. Colinear only if c lies on the infinite line a-b.
		if abs(ab.Cross(ac)) > Epsilon {
			return Point{}, false
		}
		return colinearOverlapMidpoint(a, b, c, d)
	}

	t := ac.Cross(cd) / denom
	u := ac.Cross(ab) / denom
	if t < -Epsilon || t > 1+Epsilon || u < -Epsilon || u > 1+Epsilon {
		return Point{}, false
	}
	return a.Add(ab.Scale(clamp01(t))), true
}

// colinearOverlapMidpoint projects c and d onto the a-b parameter axis and
// returns the midpoint of the overlap with [0,1], if any.
func colinearOverlapMidpoint(a, b, c, d Point) (Point, bool) {
	ab := b.Sub(a)
	denom := ab.Dot(ab)
	tc := c.Sub(a).Dot(ab) / denom
	td := d.Sub(a).Dot(ab) / denom
	lo, hi := tc, td
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo > 1+Epsilon || hi < -Epsilon {
		return Point{}, false
	}
	mid := (clamp01(lo) + clamp01(hi)) / 2
	return a.Add(ab.Scale(mid)), true
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
