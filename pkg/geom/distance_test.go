package geom

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestPointToLineDistance(t *testing.T) {
	tests := []struct {
		name    string
		p, a, b Point
		want    float64
	}{
		{"HorizontalLine", Point{5, 3}, Point{0, 0}, Point{10, 0}, 3},
		{"VerticalLine", Point{4, 5}, Point{0, 0}, Point{0, 10}, 4},
		{"Diagonal", Point{0, 2}, Point{0, 0}, Point{10, 10}, math.Sqrt2},
		{"PointOnLine", Point{5, 5}, Point{0, 0}, Point{10, 10}, 0},
		{"DegenerateLine", Point{3, 4}, Point{0, 0}, Point{0, 0}, 5},
		{"DegenerateAtPoint", Point{2, 2}, Point{2, 2}, Point{2, 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointToLineDistance(tt.p, tt.a, tt.b); !almostEqual(got, tt.want) {
				t.Errorf("PointToLineDistance = %v, want %v", got, tt.want)
			}
			// Distance is invariant under swapping the line endpoints.
			if got := PointToLineDistance(tt.p, tt.b, tt.a); !almostEqual(got, tt.want) {
				t.Errorf("PointToLineDistance (swapped) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLineToLineDistance(t *testing.T) {
	tests := []struct {
		name           string
		p1, q1, p2, q2 Point
		want           float64
	}{
		{"NonParallel", Point{0, 0}, Point{10, 0}, Point{0, 10}, Point{5, 0}, 0},
		{"ParallelHorizontal", Point{0, 0}, Point{10, 0}, Point{0, 4}, Point{10, 4}, 4},
		{"Coincident", Point{0, 0}, Point{10, 0}, Point{20, 0}, Point{30, 0}, 0},
		{"OneDegenerate", Point{0, 3}, Point{0, 3}, Point{0, 0}, Point{10, 0}, 3},
		{"BothDegenerate", Point{0, 0}, Point{0, 0}, Point{3, 4}, Point{3, 4}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LineToLineDistance(tt.p1, tt.q1, tt.p2, tt.q2); !almostEqual(got, tt.want) {
				t.Errorf("LineToLineDistance = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClosestPointOnSegment(t *testing.T) {
	tests := []struct {
		name    string
		p, a, b Point
		want    Point
	}{
		{"Middle", Point{5, 5}, Point{0, 0}, Point{10, 0}, Point{5, 0}},
		{"ClampedToStart", Point{-5, 5}, Point{0, 0}, Point{10, 0}, Point{0, 0}},
		{"ClampedToEnd", Point{15, 5}, Point{0, 0}, Point{10, 0}, Point{10, 0}},
		{"Degenerate", Point{7, 7}, Point{2, 2}, Point{2, 2}, Point{2, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClosestPointOnSegment(tt.p, tt.a, tt.b)
			if !almostEqual(got.X, tt.want.X) || !almostEqual(got.Y, tt.want.Y) {
				t.Errorf("ClosestPointOnSegment = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSegmentToSegmentDistance(t *testing.T) {
	t.Run("Crossing", func(t *testing.T) {
		dist, at, ok := SegmentToSegmentDistance(Point{0, 0}, Point{10, 10}, Point{0, 10}, Point{10, 0})
		if !ok {
			t.Fatal("expected intersection")
		}
		if dist != 0 {
			t.Errorf("dist = %v, want 0", dist)
		}
		if !almostEqual(at.X, 5) || !almostEqual(at.Y, 5) {
			t.Errorf("at = %v, want (5,5)", at)
		}
	})

	t.Run("ParallelHorizontal", func(t *testing.T) {
		dist, _, ok := SegmentToSegmentDistance(Point{0, 0}, Point{10, 0}, Point{2, 4}, Point{12, 4})
		if ok {
			t.Fatal("unexpected intersection")
		}
		if !almostEqual(dist, 4) {
			t.Errorf("dist = %v, want 4", dist)
		}
	})

	t.Run("Disjoint", func(t *testing.T) {
		dist, _, ok := SegmentToSegmentDistance(Point{0, 0}, Point{1, 0}, Point{5, 0}, Point{6, 0})
		if ok {
			t.Fatal("unexpected intersection")
		}
		if !almostEqual(dist, 4) {
			t.Errorf("dist = %v, want 4", dist)
		}
	})
}
