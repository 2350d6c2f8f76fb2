package layout

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowscope/pkg/geom"
)

// GraphvizPlacer drives the Graphviz dot engine as the layered placement
// primitive. The flat graph is serialized to DOT with fixed node sizes,
// laid out, and positions are read back from the attributed output.
//
// When CheapRanking is requested the placer defers to [LayeredPlacer],
// whose longest-path ranking is linear in the scope size.
type GraphvizPlacer struct{}

// Place implements [Placer].
func (p GraphvizPlacer) Place(ctx context.Context, g *FlatGraph, opts PlaceOptions) error {
	if g.NodeCount() == 0 {
		return nil
	}
	if opts.CheapRanking {
		return LayeredPlacer{}.Place(ctx, g, opts)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	parsed, err := graphviz.ParseBytes([]byte(toDOT(g, opts)))
	if err != nil {
		return fmt.Errorf("parse DOT: %w", err)
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, parsed, graphviz.Format("dot"), &buf); err != nil {
		return fmt.Errorf("dot layout: %w", err)
	}

	return readPositions(g, buf.String())
}

// toDOT serializes the flat graph. Sizes are converted from layout units
// (points) to the inches DOT expects; fixedsize pins them.
func toDOT(g *FlatGraph, opts PlaceOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  graph [rankdir=TB, ranksep=%.4f, nodesep=%.4f];\n",
		opts.RankSep/72, opts.NodeSep/72)
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  n%d [width=%.4f, height=%.4f];\n", n.ID, n.Width/72, n.Height/72)
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  n%d -> n%d [key=%d];\n", e.Src, e.Dst, e.Index)
	}

	buf.WriteString("}\n")
	return buf.String()
}

var (
	bbRe      = regexp.MustCompile(`bb="0,0,([0-9.]+),([0-9.]+)"`)
	nodePosRe = regexp.MustCompile(`\bn(\d+)\s*\[[^\]]*pos="([0-9.\-]+),([0-9.\-]+)"`)
	edgeRe    = regexp.MustCompile(`\bn(\d+)\s*->\s*n(\d+)\s*\[([^\]]*)\]`)
	posAttrRe = regexp.MustCompile(`pos="([^"]+)"`)
)

// readPositions parses the attributed DOT output back into the flat
// graph. Graphviz y grows upward; coordinates are flipped to the downward
// frame used everywhere else.
func readPositions(g *FlatGraph, dot string) error {
	// Attributed output wraps long lines with a trailing backslash.
	dot = strings.ReplaceAll(dot, "\\\n", "")

	bb := bbRe.FindStringSubmatch(dot)
	if bb == nil {
		return fmt.Errorf("dot output missing bounding box")
	}
	height, _ := strconv.ParseFloat(bb[2], 64)

	for _, m := range nodePosRe.FindAllStringSubmatch(dot, -1) {
		id, _ := strconv.Atoi(m[1])
		n := g.Node(id)
		if n == nil {
			continue
		}
		x, _ := strconv.ParseFloat(m[2], 64)
		y, _ := strconv.ParseFloat(m[3], 64)
		n.X = x
		n.Y = height - y
	}

	// Parallel edges appear in input order, which matches the flat
	// graph's insertion order per endpoint pair.
	seen := map[[2]int]int{}
	for _, m := range edgeRe.FindAllStringSubmatch(dot, -1) {
		src, _ := strconv.Atoi(m[1])
		dst, _ := strconv.Atoi(m[2])
		pair := [2]int{src, dst}
		idx := seen[pair]
		seen[pair]++

		pos := posAttrRe.FindStringSubmatch(m[3])
		if pos == nil {
			continue
		}
		pts := parseSpline(pos[1], height)
		for _, e := range g.Edges() {
			if e.Src == src && e.Dst == dst && e.Index == idx {
				e.Points = pts
				break
			}
		}
	}
	return nil
}

// parseSpline decodes a DOT pos spline attribute into a polyline. The
// optional e,x,y / s,x,y arrow endpoints are folded into the point list.
func parseSpline(pos string, height float64) []geom.Point {
	var start, end *geom.Point
	var pts []geom.Point

	for _, tok := range strings.Fields(pos) {
		switch {
		case strings.HasPrefix(tok, "e,"):
			if p, ok := parsePoint(tok[2:], height); ok {
				end = &p
			}
		case strings.HasPrefix(tok, "s,"):
			if p, ok := parsePoint(tok[2:], height); ok {
				start = &p
			}
		default:
			if p, ok := parsePoint(tok, height); ok {
				pts = append(pts, p)
			}
		}
	}

	if start != nil {
		pts = append([]geom.Point{*start}, pts...)
	}
	if end != nil {
		pts = append(pts, *end)
	}
	return pts
}

func parsePoint(s string, height float64) (geom.Point, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geom.Point{}, false
	}
	x, errX := strconv.ParseFloat(parts[0], 64)
	y, errY := strconv.ParseFloat(parts[1], 64)
	if errX != nil || errY != nil {
		return geom.Point{}, false
	}
	return geom.Point{X: x, Y: height - y}, true
}
