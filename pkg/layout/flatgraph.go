package layout

import (
	"sort"

	"github.com/matzehuels/flowscope/pkg/geom"
)

// FlatNode is a node of the per-scope working graph handed to a placer.
// Width and Height are inputs; X and Y (center) are placer outputs.
type FlatNode struct {
	ID     int
	Width  float64
	Height float64
	X      float64
	Y      float64
}

// FlatEdge is a directed edge of the working graph. Multi-edges between
// the same endpoints are distinguished by Index. Points is a placer
// output polyline from source to destination.
type FlatEdge struct {
	Index  int
	Src    int
	Dst    int
	Points []geom.Point
}

// FlatGraph is the flat working structure built afresh for each scope and
// discarded once positions are copied back to the model.
type FlatGraph struct {
	nodes []*FlatNode
	edges []*FlatEdge
	byID  map[int]*FlatNode
}

// NewFlatGraph returns an empty working graph.
func NewFlatGraph() *FlatGraph {
	return &FlatGraph{byID: make(map[int]*FlatNode)}
}

// AddNode adds a node with the given size. Re-adding an existing ID
// replaces its size.
func (g *FlatGraph) AddNode(id int, width, height float64) *FlatNode {
	if n, ok := g.byID[id]; ok {
		n.Width, n.Height = width, height
		return n
	}
	n := &FlatNode{ID: id, Width: width, Height: height}
	g.nodes = append(g.nodes, n)
	g.byID[id] = n
	return n
}

// AddEdge adds a directed edge and returns it. The edge index counts
// parallel edges between the same endpoint pair.
func (g *FlatGraph) AddEdge(src, dst int) *FlatEdge {
	idx := 0
	for _, e := range g.edges {
		if e.Src == src && e.Dst == dst {
			idx++
		}
	}
	e := &FlatEdge{Index: idx, Src: src, Dst: dst}
	g.edges = append(g.edges, e)
	return e
}

// Node returns the node with the given ID, or nil.
func (g *FlatGraph) Node(id int) *FlatNode {
	return g.byID[id]
}

// Has reports whether a node with the given ID exists.
func (g *FlatGraph) Has(id int) bool {
	_, ok := g.byID[id]
	return ok
}

// Nodes returns the nodes in insertion order.
func (g *FlatGraph) Nodes() []*FlatNode { return g.nodes }

// Edges returns the edges in insertion order.
func (g *FlatGraph) Edges() []*FlatEdge { return g.edges }

// NodeCount returns the number of nodes.
func (g *FlatGraph) NodeCount() int { return len(g.nodes) }

// Successors returns the distinct destination IDs reachable over one
// edge from id, sorted ascending for deterministic traversal.
func (g *FlatGraph) Successors(id int) []int {
	seen := map[int]bool{}
	var out []int
	for _, e := range g.edges {
		if e.Src == id && !seen[e.Dst] {
			seen[e.Dst] = true
			out = append(out, e.Dst)
		}
	}
	sort.Ints(out)
	return out
}

// Predecessors returns the distinct source IDs with an edge into id,
// sorted ascending.
func (g *FlatGraph) Predecessors(id int) []int {
	seen := map[int]bool{}
	var out []int
	for _, e := range g.edges {
		if e.Dst == id && !seen[e.Src] {
			seen[e.Src] = true
			out = append(out, e.Src)
		}
	}
	sort.Ints(out)
	return out
}

// Bounds returns the box enclosing all placed node extents and edge
// points, anchored at the origin.
func (g *FlatGraph) Bounds() geom.Rect {
	var maxX, maxY float64
	for _, n := range g.nodes {
		maxX = max(maxX, n.X+n.Width/2)
		maxY = max(maxY, n.Y+n.Height/2)
	}
	for _, e := range g.edges {
		for _, p := range e.Points {
			maxX = max(maxX, p.X)
			maxY = max(maxY, p.Y)
		}
	}
	return geom.Rect{Width: maxX, Height: maxY}
}
