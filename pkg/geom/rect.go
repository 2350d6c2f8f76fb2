package geom

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// MaxX returns the right edge coordinate.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the bottom edge coordinate.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Center returns the rectangle's center point.
func (r Rect) Center() Point { return Point{r.X + r.Width/2, r.Y + r.Height/2} }

// Union returns the smallest rectangle enclosing both r and s.
func (r Rect) Union(s Rect) Rect {
	minX := min(r.X, s.X)
	minY := min(r.Y, s.Y)
	maxX := max(r.MaxX(), s.MaxX())
	maxY := max(r.MaxY(), s.MaxY())
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// BoundsOfPoints returns the smallest rectangle enclosing all points.
// An empty slice yields the zero Rect.
func BoundsOfPoints(pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, maxX := pts[0].X, pts[0].X
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// EnsureMinExtent expands any dimension of r that is at most threshold to
// exactly target, keeping the rectangle centered. Near-straight edges
// produce degenerate bounds that would otherwise defeat hit-testing.
func (r Rect) EnsureMinExtent(threshold, target float64) Rect {
	if r.Width <= threshold {
		cx := r.X + r.Width/2
		r.X = cx - target/2
		r.Width = target
	}
	if r.Height <= threshold {
		cy := r.Y + r.Height/2
		r.Y = cy - target/2
		r.Height = target
	}
	return r
}
