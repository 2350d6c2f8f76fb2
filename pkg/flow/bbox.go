package flow

import "github.com/matzehuels/flowscope/pkg/geom"

// Bounds returns the smallest box enclosing every node extent and every
// edge point of the state, anchored at (0,0). Layout coordinates are
// non-negative after placement, so only the maximum corner grows.
func (s *State) Bounds() geom.Rect {
	var maxX, maxY float64
	for _, n := range s.Nodes {
		maxX = max(maxX, n.Layout.X+n.Layout.Width/2)
		maxY = max(maxY, n.Layout.Y+n.Layout.Height/2)
	}
	for _, e := range s.Edges {
		for _, p := range e.Points {
			maxX = max(maxX, p.X)
			maxY = max(maxY, p.Y)
		}
	}
	return geom.Rect{Width: maxX, Height: maxY}
}

// Bounds returns the smallest box enclosing every block extent and every
// transition point of the region, anchored at (0,0).
func (r *Region) Bounds() geom.Rect {
	var maxX, maxY float64
	for _, b := range r.Blocks {
		maxX = max(maxX, b.Layout.X+b.Layout.Width/2)
		maxY = max(maxY, b.Layout.Y+b.Layout.Height/2)
	}
	for _, t := range r.Edges {
		for _, p := range t.Points {
			maxX = max(maxX, p.X)
			maxY = max(maxY, p.Y)
		}
	}
	return geom.Rect{Width: maxX, Height: maxY}
}

// Bounds returns the box enclosing the edge's polyline. Boxes thinner
// than 5 units in either dimension are expanded to exactly 10 units,
// centered, so near-straight edges stay hit-testable.
func (e *Edge) Bounds() geom.Rect {
	return geom.BoundsOfPoints(e.Points).EnsureMinExtent(5, 10)
}

// UpdateBounds recomputes the edge's layout box (center and extent) from
// its current points. Call after any mutation of the polyline.
func (e *Edge) UpdateBounds() {
	r := e.Bounds()
	c := r.Center()
	e.Layout = Layout{X: c.X, Y: c.Y, Width: r.Width, Height: r.Height}
}

// Translate rigidly shifts the node, its connectors, and any laid-out
// nested region it owns.
func (n *Node) Translate(dx, dy float64) {
	n.Layout.X += dx
	n.Layout.Y += dy
	for _, c := range n.In {
		c.X += dx
		c.Y += dy
	}
	for _, c := range n.Out {
		c.X += dx
		c.Y += dy
	}
	if n.Nested != nil && !n.Collapsed {
		n.Nested.Translate(dx, dy)
	}
}

// Translate rigidly shifts the edge's polyline and bounding box.
func (e *Edge) Translate(dx, dy float64) {
	for i := range e.Points {
		e.Points[i].X += dx
		e.Points[i].Y += dy
	}
	e.Layout.X += dx
	e.Layout.Y += dy
}

// Translate rigidly shifts every node, connector and edge point of the
// state's interior into a new coordinate frame.
func (s *State) Translate(dx, dy float64) {
	for _, n := range s.Nodes {
		n.Translate(dx, dy)
	}
	for _, e := range s.Edges {
		e.Translate(dx, dy)
	}
}

// Translate rigidly shifts the block and, recursively, its laid-out
// interior. Coordinates are global once a layout pass completes, so
// moving a block moves everything inside it.
func (b *Block) Translate(dx, dy float64) {
	b.Layout.X += dx
	b.Layout.Y += dy
	switch b.Kind {
	case BlockState:
		if b.State != nil {
			b.State.Translate(dx, dy)
		}
	case BlockRegion, BlockLoop:
		if b.Body != nil {
			b.Body.Translate(dx, dy)
		}
	case BlockConditional:
		for _, br := range b.Branches {
			if br.Body != nil {
				br.Body.Translate(dx, dy)
			}
		}
	}
}

// Translate rigidly shifts every block and transition of the region.
func (r *Region) Translate(dx, dy float64) {
	for _, b := range r.Blocks {
		b.Translate(dx, dy)
	}
	for _, t := range r.Edges {
		for i := range t.Points {
			t.Points[i].X += dx
			t.Points[i].Y += dy
		}
		t.Layout.X += dx
		t.Layout.Y += dy
	}
}
