package geom

// PointToLineDistance returns the perpendicular distance from p to the
// infinite line through a and b. When a and b coincide the line collapses
// to a point and the Euclidean distance to a is returned.
func PointToLineDistance(p, a, b Point) float64 {
	ab := b.Sub(a)
	n := ab.Norm()
	if n < Epsilon {
		return Distance(p, a)
	}
	return abs(ab.Cross(p.Sub(a))) / n
}

// LineToLineDistance returns the distance between the infinite lines
// through p1,q1 and p2,q2. Non-parallel lines intersect, so their distance
// is 0. Parallel lines yield the perpendicular distance between them. A
// degenerate line (coincident endpoints) is treated as a point; two
// degenerate lines yield the plain point distance.
func LineToLineDistance(p1, q1, p2, q2 Point) float64 {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	deg1 := d1.Norm() < Epsilon
	deg2 := d2.Norm() < Epsilon

	switch {
	case deg1 && deg2:
		return Distance(p1, p2)
	case deg1:
		return PointToLineDistance(p1, p2, q2)
	case deg2:
		return PointToLineDistance(p2, p1, q1)
	}

	if abs(d1.Cross(d2)) > Epsilon {
		return 0 // lines intersect
	}
	return PointToLineDistance(p2, p1, q1)
}

// ClosestPointOnSegment returns the point on segment a-b closest to p.
// The projection parameter is clamped to [0,1]; a degenerate segment
// returns a.
func ClosestPointOnSegment(p, a, b Point) Point {
	ab := b.Sub(a)
	denom := ab.Dot(ab)
	if denom < Epsilon {
		return a
	}
	t := p.Sub(a).Dot(ab) / denom
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.Add(ab.Scale(t))
}

// PointToSegmentDistance returns the distance from p to the closest point
// on segment a-b.
func PointToSegmentDistance(p, a, b Point) float64 {
	return Distance(p, ClosestPointOnSegment(p, a, b))
}

// SegmentToSegmentDistance returns the minimum distance between segments
// a-b and c-d. If the segments cross, the distance is 0 and the crossing
// point is returned with ok set to true. Otherwise the minimum of the four
// endpoint-to-opposite-segment projections is returned.
func SegmentToSegmentDistance(a, b, c, d Point) (dist float64, at Point, ok bool) {
	if p, hit := SegmentIntersection(a, b, c, d); hit {
		return 0, p, true
	}
	dist = PointToSegmentDistance(a, c, d)
	if v := PointToSegmentDistance(b, c, d); v < dist {
		dist = v
	}
	if v := PointToSegmentDistance(c, a, b); v < dist {
		dist = v
	}
	if v := PointToSegmentDistance(d, a, b); v < dist {
		dist = v
	}
	return dist, Point{}, false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
