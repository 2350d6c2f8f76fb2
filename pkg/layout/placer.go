package layout

import (
	"context"
	"sort"

	"github.com/matzehuels/flowscope/pkg/geom"
)

// PlaceOptions carries the placement parameters a scope hands to its
// placer.
type PlaceOptions struct {
	// RankSep is the vertical separation between ranks.
	RankSep float64

	// NodeSep is the horizontal separation between rank neighbours.
	NodeSep float64

	// CheapRanking requests the inexpensive ranking strategy for large
	// scopes.
	CheapRanking bool
}

// Placer assigns coordinates to a flat graph given node sizes. It is the
// external placement primitive consumed as a black box: implementations
// must write non-negative center coordinates to every node and a
// source-to-destination polyline to every edge.
type Placer interface {
	Place(ctx context.Context, g *FlatGraph, opts PlaceOptions) error
}

// LayeredPlacer is a deterministic longest-path layered placer. It is the
// cheap ranking strategy for large scopes and the fallback when no
// external placer is configured.
type LayeredPlacer struct{}

// Place implements [Placer]. Ranks are assigned by longest path from the
// sources (back edges are ignored, so cyclic inputs still terminate),
// nodes within a rank are ordered by a parent barycenter heuristic, rows
// are centered, and edges become straight polylines with one bend point
// per intermediate rank.
func (LayeredPlacer) Place(ctx context.Context, g *FlatGraph, opts PlaceOptions) error {
	if g.NodeCount() == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ranks := assignRanks(g)

	// Group into rows, initially ordered by node ID for determinism.
	maxRank := 0
	for _, r := range ranks {
		maxRank = max(maxRank, r)
	}
	rows := make([][]int, maxRank+1)
	for _, n := range g.Nodes() {
		r := ranks[n.ID]
		rows[r] = append(rows[r], n.ID)
	}
	for _, row := range rows {
		sort.Ints(row)
	}

	// One downward barycenter sweep to reduce crossings.
	pos := map[int]float64{}
	for i, row := range rows {
		if i > 0 {
			sort.SliceStable(row, func(a, b int) bool {
				return barycenter(g, row[a], pos) < barycenter(g, row[b], pos)
			})
		}
		for j, id := range row {
			pos[id] = float64(j)
		}
	}

	// Coordinate assignment: rows stacked by rank, centered on the widest
	// row so coordinates stay non-negative after shifting.
	rowWidths := make([]float64, len(rows))
	total := 0.0
	for i, row := range rows {
		w := 0.0
		for _, id := range row {
			w += g.Node(id).Width
		}
		w += float64(len(row)-1) * opts.NodeSep
		rowWidths[i] = w
		total = max(total, w)
	}

	y := 0.0
	for i, row := range rows {
		rowHeight := 0.0
		for _, id := range row {
			rowHeight = max(rowHeight, g.Node(id).Height)
		}
		x := (total - rowWidths[i]) / 2
		for _, id := range row {
			n := g.Node(id)
			n.X = x + n.Width/2
			n.Y = y + rowHeight/2
			x += n.Width + opts.NodeSep
		}
		y += rowHeight + opts.RankSep
	}

	routeStraight(g, ranks)
	return nil
}

// assignRanks computes longest-path ranks via DFS, skipping edges that
// would close a cycle.
func assignRanks(g *FlatGraph) map[int]int {
	ranks := make(map[int]int, g.NodeCount())
	state := make(map[int]int, g.NodeCount()) // 0 unvisited, 1 on stack, 2 done

	var visit func(id, rank int)
	visit = func(id, rank int) {
		if state[id] == 1 {
			return // back edge
		}
		if rank > ranks[id] {
			ranks[id] = rank
		} else if state[id] == 2 {
			return
		}
		state[id] = 1
		for _, succ := range g.Successors(id) {
			visit(succ, ranks[id]+1)
		}
		state[id] = 2
	}

	ids := make([]int, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	sort.Ints(ids)

	// Roots first, then anything a cycle kept unvisited.
	for _, id := range ids {
		if len(g.Predecessors(id)) == 0 {
			visit(id, 0)
		}
	}
	for _, id := range ids {
		if state[id] == 0 {
			visit(id, 0)
		}
	}
	return ranks
}

func barycenter(g *FlatGraph, id int, pos map[int]float64) float64 {
	preds := g.Predecessors(id)
	if len(preds) == 0 {
		return float64(id)
	}
	sum := 0.0
	for _, p := range preds {
		sum += pos[p]
	}
	return sum / float64(len(preds))
}

// routeStraight writes polylines from source bottom to destination top
// with interpolated bend points at intermediate ranks. Parallel edges are
// fanned out horizontally by their edge index.
func routeStraight(g *FlatGraph, ranks map[int]int) {
	for _, e := range g.Edges() {
		src := g.Node(e.Src)
		dst := g.Node(e.Dst)
		if src == nil || dst == nil {
			continue
		}
		fan := float64(e.Index) * 10
		from := geom.Point{X: src.X + fan, Y: src.Y + src.Height/2}
		to := geom.Point{X: dst.X + fan, Y: dst.Y - dst.Height/2}
		pts := []geom.Point{from}
		span := ranks[e.Dst] - ranks[e.Src]
		for i := 1; i < span; i++ {
			t := float64(i) / float64(span)
			pts = append(pts, geom.Point{
				X: from.X + (to.X-from.X)*t,
				Y: from.Y + (to.Y-from.Y)*t,
			})
		}
		pts = append(pts, to)
		e.Points = pts
	}
}
