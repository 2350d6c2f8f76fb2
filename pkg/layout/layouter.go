package layout

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowscope/pkg/flow"
	"github.com/matzehuels/flowscope/pkg/geom"
)

// Engine runs layout passes. Create with New; an Engine is stateless
// between passes and may be reused, but passes over the same graph must
// not overlap.
type Engine struct {
	settings Settings
	placer   Placer
	vertical Placer
	logger   *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithPlacer overrides the default placement primitive.
func WithPlacer(p Placer) Option {
	return func(e *Engine) { e.placer = p }
}

// WithVerticalPlacer overrides the alternative state-machine placer.
func WithVerticalPlacer(p Placer) Option {
	return func(e *Engine) { e.vertical = p }
}

// WithLogger attaches a logger for degradation warnings and debug
// output.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine with the given settings. The default placement
// primitive is Graphviz dot; the default alternative strategy is the
// vertical placer.
func New(settings Settings, opts ...Option) *Engine {
	e := &Engine{
		settings: settings,
		placer:   GraphvizPlacer{},
		vertical: VerticalPlacer{},
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Layout runs one full pass over the graph, mutating layout annotations
// in place, and returns the registry of computed scopes. Positions are
// fully overwritten, never accumulated, so an unchanged graph with
// unchanged settings lays out identically every time.
func (e *Engine) Layout(ctx context.Context, g *flow.Graph) (*Registry, error) {
	p := &pass{
		Engine:   e,
		registry: newRegistry(),
		visited:  make(map[*flow.Region]bool),
	}
	if err := p.layoutRegion(ctx, "root", g.Root, nil); err != nil {
		return nil, err
	}
	return p.registry, nil
}

// pass is the per-invocation layout context threaded through the
// recursion. The visited set guards against cyclic nested-scope
// references in malformed input.
type pass struct {
	*Engine
	registry *Registry
	visited  map[*flow.Region]bool
}

// =============================================================================
// Region Level
// =============================================================================

// layoutRegion lays out a control-flow region: sizes each block
// (recursing into expanded children first), places the block graph, and
// offsets child layouts into the region frame.
func (p *pass) layoutRegion(ctx context.Context, id string, r *flow.Region, owner *flow.Node) error {
	if r == nil || p.visited[r] {
		return nil
	}
	p.visited[r] = true

	for i, b := range r.Blocks {
		w, h, err := p.sizeBlock(ctx, fmt.Sprintf("%s/%d", id, i), b)
		if err != nil {
			return err
		}
		b.Layout = flow.Layout{Width: w, Height: h}
	}

	flat := NewFlatGraph()
	for _, b := range r.Blocks {
		flat.AddNode(b.ID, b.Layout.Width, b.Layout.Height)
	}
	for _, t := range r.Edges {
		if flat.Has(t.Src) && flat.Has(t.Dst) {
			flat.AddEdge(t.Src, t.Dst)
		}
	}

	if err := p.placeRegion(ctx, flat); err != nil {
		return err
	}

	for _, b := range r.Blocks {
		fn := flat.Node(b.ID)
		if fn == nil {
			continue
		}
		b.Layout.X = fn.X
		b.Layout.Y = fn.Y
		p.offsetBlockInterior(b)
	}

	for _, t := range r.Edges {
		for _, fe := range flat.Edges() {
			if fe.Src == t.Src && fe.Dst == t.Dst {
				t.Points = fe.Points
				rect := geom.BoundsOfPoints(t.Points).EnsureMinExtent(5, 10)
				c := rect.Center()
				t.Layout = flow.Layout{X: c.X, Y: c.Y, Width: rect.Width, Height: rect.Height}
				break
			}
		}
	}

	p.registry.add(&ScopeEntry{ID: id, Flat: flat, Owner: owner, Region: r})
	return nil
}

// placeRegion submits a region's block graph to the configured placer,
// preferring the vertical strategy when selected and falling back to the
// default placement when it cannot handle the control-flow shape.
func (p *pass) placeRegion(ctx context.Context, flat *FlatGraph) error {
	opts := PlaceOptions{
		RankSep:      p.settings.RankSep,
		NodeSep:      p.settings.NodeSep,
		CheapRanking: flat.NodeCount() >= p.settings.LargeGraphThreshold,
	}
	if p.settings.VerticalLayout {
		err := p.vertical.Place(ctx, flat, opts)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrVerticalUnsupported) {
			return err
		}
		p.logger.Debug("vertical layout unsupported, falling back", "nodes", flat.NodeCount())
	}
	return p.placer.Place(ctx, flat, opts)
}

// sizeBlock computes a block's extent, recursing into its children when
// expanded. Collapsed blocks are sized by the summary formula alone.
func (p *pass) sizeBlock(ctx context.Context, id string, b *flow.Block) (float64, float64, error) {
	if b.Collapsed {
		return collapsedBlockSize(b)
	}

	switch b.Kind {
	case flow.BlockState:
		if b.State == nil {
			return collapsedBlockSize(b)
		}
		if err := p.layoutState(ctx, id, b.State, nil); err != nil {
			return 0, 0, err
		}
		w, h := expandedBlockSize(b, b.State.Bounds())
		return w, h, nil

	case flow.BlockRegion, flow.BlockLoop:
		if b.Body == nil {
			return collapsedBlockSize(b)
		}
		if err := p.layoutRegion(ctx, id, b.Body, nil); err != nil {
			return 0, 0, err
		}
		w, h := expandedBlockSize(b, b.Body.Bounds())
		return w, h, nil

	case flow.BlockConditional:
		return p.sizeConditional(ctx, id, b)

	default:
		return 0, 0, fmt.Errorf("layout block %d: %w: %v", b.ID, flow.ErrUnknownKind, b.Kind)
	}
}

// sizeConditional lays out each branch independently, stretches all
// branches to the tallest one, and sums widths with the inter-branch
// condition-label spacing.
func (p *pass) sizeConditional(ctx context.Context, id string, b *flow.Block) (float64, float64, error) {
	var width, tallest float64
	for i := range b.Branches {
		br := &b.Branches[i]
		if err := p.layoutRegion(ctx, fmt.Sprintf("%s/branch%d", id, i), br.Body, nil); err != nil {
			return 0, 0, err
		}
		var bounds geom.Rect
		if br.Body != nil {
			bounds = br.Body.Bounds()
		}
		width += bounds.Width + labelWidth(br.Condition) + BranchSpacing
		tallest = max(tallest, bounds.Height)
	}

	// Every arm stretches to the tallest branch so the block interior is
	// one uniform band.
	for i := range b.Branches {
		b.Branches[i].Height = tallest
	}

	w := width + 2*ScopeMargin
	h := tallest + 2*ScopeMargin
	w = max(w, labelWidth(b.Label)+2*RowHeight)
	return w, h, nil
}

// offsetBlockInterior rigidly translates a block's laid-out children
// from their local origin into the block's frame: top-left corner plus
// the scope margin, plus loop clause rows where present. Conditional
// branches are placed side by side at their cumulative offsets.
func (p *pass) offsetBlockInterior(b *flow.Block) {
	if b.Collapsed {
		return
	}
	left := b.Layout.X - b.Layout.Width/2
	top := b.Layout.Y - b.Layout.Height/2

	switch b.Kind {
	case flow.BlockState:
		if b.State != nil {
			b.State.Layout = b.Layout
			b.State.Translate(left+ScopeMargin, top+ScopeMargin)
		}
	case flow.BlockRegion, flow.BlockLoop:
		if b.Body != nil {
			b.Body.Translate(left+ScopeMargin, top+ScopeMargin+clauseOffset(b))
		}
	case flow.BlockConditional:
		x := left + ScopeMargin
		for i := range b.Branches {
			br := &b.Branches[i]
			x += labelWidth(br.Condition) + BranchSpacing
			if br.Body == nil {
				continue
			}
			bounds := br.Body.Bounds()
			br.Body.Translate(x, top+ScopeMargin)
			x += bounds.Width
		}
	}
}

// =============================================================================
// State Level
// =============================================================================

// layoutState lays out one dataflow state: nested graphs recurse first
// so node sizes are known, hidden access nodes are folded into shortcut
// edges, the flat graph is placed, and connectors plus final edge
// geometry are written back.
func (p *pass) layoutState(ctx context.Context, id string, st *flow.State, owner *flow.Node) error {
	hidden := make(map[int]*hiddenRecord)
	drawnSet := make(map[int]bool)

	for i, n := range st.Nodes {
		if buriedInCollapsedScope(st, n.ID) {
			continue
		}
		if p.settings.OmitAccessNodes && n.Kind == flow.NodeAccess {
			hidden[n.ID] = &hiddenRecord{node: n}
			continue
		}
		w, h, err := p.sizeNode(ctx, fmt.Sprintf("%s/n%d", id, i), st, n)
		if err != nil {
			return err
		}
		n.Layout = flow.Layout{Width: w, Height: h}
		drawnSet[n.ID] = true
	}

	drawn := func(nid int) bool { return drawnSet[nid] }
	entryFor := func(nid int) *flow.Node { return visibleAncestorEntry(st, nid) }
	visible := synthesizeVisibleEdges(st, hidden, drawn, entryFor, p.settings.OmitAccessNodes)

	flat := NewFlatGraph()
	for _, n := range st.Nodes {
		if drawnSet[n.ID] {
			flat.AddNode(n.ID, n.Layout.Width, n.Layout.Height)
		}
	}
	flatEdges := make([]*FlatEdge, len(visible))
	for i, ve := range visible {
		flatEdges[i] = flat.AddEdge(ve.src, ve.dst)
	}

	opts := PlaceOptions{
		RankSep:      p.settings.RankSep,
		NodeSep:      p.settings.NodeSep,
		CheapRanking: flat.NodeCount() >= p.settings.LargeGraphThreshold,
	}
	if err := p.placer.Place(ctx, flat, opts); err != nil {
		return err
	}

	for _, n := range st.Nodes {
		fn := flat.Node(n.ID)
		if fn == nil {
			continue
		}
		n.Layout.X = fn.X
		n.Layout.Y = fn.Y
		if n.Nested != nil && !n.Collapsed {
			// The nested interior sits at its local origin; move it under
			// the node's top-left corner plus the scope margin.
			n.Nested.Translate(fn.X-n.Layout.Width/2+ScopeMargin, fn.Y-n.Layout.Height/2+ScopeMargin)
		}
		p.attachConnectors(st, n)
	}

	for _, n := range st.Nodes {
		if drawnSet[n.ID] {
			reorderInConnectors(st, n)
			summarizeEdges(st, n)
		}
	}

	for i, ve := range visible {
		finalizeEdge(st, ve, flatEdges[i])
	}

	p.registry.add(&ScopeEntry{ID: id, Flat: flat, Owner: owner, State: st})
	return nil
}

// sizeNode computes a node's extent, recursing into an owned nested
// region first so the size reflects the child layout.
func (p *pass) sizeNode(ctx context.Context, id string, st *flow.State, n *flow.Node) (float64, float64, error) {
	if n.Kind == flow.NodeNested && n.Nested != nil && !n.Collapsed {
		if err := p.layoutRegion(ctx, id, n.Nested, n); err != nil {
			return 0, 0, err
		}
		bounds := n.Nested.Bounds()
		w := max(bounds.Width+2*ScopeMargin, labelWidth(n.Label)+RowHeight)
		return w, bounds.Height + 2*ScopeMargin, nil
	}
	return nodeSize(n)
}

// attachConnectors computes connector geometry at the node's final
// position. A collapsed scope entry borrows its exit's out-connectors so
// downstream edges keep an attachment point; a missing exit degrades the
// set to empty with a warning.
func (p *pass) attachConnectors(st *flow.State, n *flow.Node) {
	inNames, outNames := n.InConnectors, n.OutConnectors
	if n.Kind == flow.NodeScopeEntry && n.Collapsed {
		if exit := st.ExitOf(n); exit != nil {
			outNames = exit.OutConnectors
		} else {
			p.logger.Warn("collapsed scope entry has no exit node", "node", n.ID, "label", n.Label)
			outNames = nil
		}
	}

	tmp := &flow.Node{ID: n.ID, Layout: n.Layout, InConnectors: inNames, OutConnectors: outNames}
	positionConnectors(tmp)
	n.In = tmp.In
	n.Out = tmp.Out
}

// buriedInCollapsedScope reports whether a node sits inside a collapsed
// scope entry and therefore is not drawn at all.
func buriedInCollapsedScope(st *flow.State, id int) bool {
	owner := st.ScopeOf(id)
	for owner != flow.TopLevelScope {
		n := st.Node(owner)
		if n == nil {
			return false
		}
		if n.Collapsed {
			return true
		}
		owner = st.ScopeOf(owner)
	}
	return false
}

// visibleAncestorEntry returns the outermost collapsed scope entry above
// the node, or nil when the node has no collapsed ancestor.
func visibleAncestorEntry(st *flow.State, id int) *flow.Node {
	var entry *flow.Node
	owner := st.ScopeOf(id)
	for owner != flow.TopLevelScope {
		n := st.Node(owner)
		if n == nil {
			break
		}
		if n.Collapsed {
			entry = n
		}
		owner = st.ScopeOf(owner)
	}
	return entry
}

// =============================================================================
// Edge Finalization
// =============================================================================

// finalizeEdge writes an edge's polyline back to the model: placer
// points, endpoints re-anchored to the matched connectors (with a
// boundary-intersection correction so arrows touch the shape outline),
// and the degenerate three-point straightening.
func finalizeEdge(st *flow.State, ve visibleEdge, fe *FlatEdge) {
	e := ve.edge
	src := st.Node(ve.src)
	dst := st.Node(ve.dst)

	pts := make([]geom.Point, len(fe.Points))
	copy(pts, fe.Points)
	if len(pts) < 2 {
		if src == nil || dst == nil {
			return
		}
		pts = []geom.Point{
			{X: src.Layout.X, Y: src.Layout.Y + src.Layout.Height/2},
			{X: dst.Layout.X, Y: dst.Layout.Y - dst.Layout.Height/2},
		}
	}

	if src != nil {
		if c := src.Connector(flow.Out, e.SrcConnector); c != nil && e.SrcConnector != "" {
			pts[0] = geom.Point{X: c.X, Y: c.Y}
		} else {
			pts[0] = borderAnchor(src, pts[1], geom.Point{X: src.Layout.X, Y: src.Layout.Y + src.Layout.Height/2})
		}
	}
	if dst != nil {
		if c := dst.Connector(flow.In, e.DstConnector); c != nil && e.DstConnector != "" {
			pts[len(pts)-1] = geom.Point{X: c.X, Y: c.Y}
		} else {
			pts[len(pts)-1] = borderAnchor(dst, pts[len(pts)-2], geom.Point{X: dst.Layout.X, Y: dst.Layout.Y - dst.Layout.Height/2})
		}
	}

	// A three-point edge whose endpoints line up vertically is straight.
	if len(pts) == 3 && abs(pts[0].X-pts[2].X) < geom.Epsilon {
		pts = []geom.Point{pts[0], pts[2]}
	}

	e.Points = pts
	e.UpdateBounds()
}

// borderAnchor intersects the segment from the node's center toward a
// neighbouring edge point with the node's rectangular outline, so the
// edge meets the shape instead of its center. Falls back to the given
// edge-midpoint anchor when the segment never leaves the box.
func borderAnchor(n *flow.Node, toward, fallback geom.Point) geom.Point {
	center := geom.Point{X: n.Layout.X, Y: n.Layout.Y}
	left := n.Layout.X - n.Layout.Width/2
	right := n.Layout.X + n.Layout.Width/2
	top := n.Layout.Y - n.Layout.Height/2
	bottom := n.Layout.Y + n.Layout.Height/2

	sides := [4][2]geom.Point{
		{{X: left, Y: top}, {X: right, Y: top}},
		{{X: right, Y: top}, {X: right, Y: bottom}},
		{{X: right, Y: bottom}, {X: left, Y: bottom}},
		{{X: left, Y: bottom}, {X: left, Y: top}},
	}
	for _, s := range sides {
		if p, ok := geom.SegmentIntersection(center, toward, s[0], s[1]); ok {
			return p
		}
	}
	return fallback
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
