package flow

import (
	"github.com/matzehuels/flowscope/pkg/geom"
)

// TopLevelScope is the scope_dict key denoting nodes owned by no scope
// entry, i.e. nodes at the top level of a state.
const TopLevelScope = -1

// NodeKind identifies the variant of a dataflow node.
type NodeKind int

const (
	// NodeAccess represents a data container access.
	NodeAccess NodeKind = iota
	// NodeTasklet represents a unit of computation.
	NodeTasklet
	// NodeScopeEntry opens a parametric scope (e.g. a parallel map).
	NodeScopeEntry
	// NodeScopeExit closes a parametric scope.
	NodeScopeExit
	// NodeNested owns a nested region that is laid out recursively.
	NodeNested
	// NodeLibrary represents an opaque library call.
	NodeLibrary
	// NodeReduce represents a reduction node.
	NodeReduce
)

// String returns the wire name of the node kind.
func (k NodeKind) String() string {
	switch k {
	case NodeAccess:
		return "Access"
	case NodeTasklet:
		return "Tasklet"
	case NodeScopeEntry:
		return "ScopeEntry"
	case NodeScopeExit:
		return "ScopeExit"
	case NodeNested:
		return "NestedGraph"
	case NodeLibrary:
		return "Library"
	case NodeReduce:
		return "Reduce"
	}
	return "Unknown"
}

// BlockKind identifies the variant of a control-flow block.
type BlockKind int

const (
	// BlockState is a dataflow state.
	BlockState BlockKind = iota
	// BlockRegion is a nested control-flow region.
	BlockRegion
	// BlockConditional is a branching block with one region per branch.
	BlockConditional
	// BlockLoop is a loop region with optional init/condition/update clauses.
	BlockLoop
)

// String returns the wire name of the block kind.
func (k BlockKind) String() string {
	switch k {
	case BlockState:
		return "State"
	case BlockRegion:
		return "Region"
	case BlockConditional:
		return "ConditionalBlock"
	case BlockLoop:
		return "LoopRegion"
	}
	return "Unknown"
}

// Direction distinguishes input from output connectors.
type Direction int

const (
	// In connectors attach along a node's top edge.
	In Direction = iota
	// Out connectors attach along a node's bottom edge.
	Out
)

// Layout holds the computed geometry of a boxed element. X and Y are the
// element's center. Positions are fully overwritten on every layout pass.
type Layout struct {
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Connector is a named attachment point owned by exactly one dataflow
// node. Its position is computed relative to the owner's top (in) or
// bottom (out) edge.
type Connector struct {
	Name   string    `json:"name" bson:"name"`
	Dir    Direction `json:"-" bson:"-"`
	X      float64   `json:"x" bson:"x"`
	Y      float64   `json:"y" bson:"y"`
	Width  float64   `json:"width" bson:"width"`
	Height float64   `json:"height" bson:"height"`
}

// Node is a dataflow node within a state.
type Node struct {
	ID        int
	Kind      NodeKind
	Label     string
	Collapsed bool

	// Connector names in declaration order.
	InConnectors  []string
	OutConnectors []string

	// Nested owns the child region for NodeNested nodes; nil when absent
	// or when the node is collapsed in the source document.
	Nested *Region

	// Computed connector geometry, populated during layout.
	In  []*Connector
	Out []*Connector

	// Summarized marks nodes whose edge bundles are drawn as a single
	// arrow because the connector count exceeds the summarization
	// threshold.
	Summarized bool

	Layout Layout

	extra rawAttrs
}

// Edge is a dataflow edge within a state. Endpoints reference node IDs;
// the optional connector names select a specific attachment point.
type Edge struct {
	Src          int
	Dst          int
	SrcConnector string
	DstConnector string
	Data         string

	// Points is the edge's polyline, first point at the source.
	Points []geom.Point

	// Shortcut marks synthesized edges that bypass hidden nodes.
	Shortcut bool

	// Summarized edges are drawn collapsed into their bundle arrow.
	Summarized bool

	// Layout holds the edge's bounding box (center and extent), kept in
	// sync with Points via UpdateBounds.
	Layout Layout

	extra rawAttrs
}

// State is a dataflow scope: a set of nodes and edges plus the scope
// ownership table.
type State struct {
	ID        int
	Label     string
	Collapsed bool
	Nodes     []*Node
	Edges     []*Edge

	// ScopeDict maps a scope-entry node ID to the IDs of the nodes it
	// owns. TopLevelScope keys the nodes owned by the state itself.
	ScopeDict map[int][]int

	Layout Layout

	extra rawAttrs
}

// Branch is one arm of a conditional block.
type Branch struct {
	Condition string
	Body      *Region

	// Height is the common arm height written during layout: every
	// branch of one conditional records the tallest branch's interior
	// height, so arms render at equal height.
	Height float64
}

// Block is a control-flow block: a tagged variant over state, nested
// region, conditional and loop kinds. Exactly the fields of the active
// kind are populated.
type Block struct {
	ID        int
	Kind      BlockKind
	Label     string
	Collapsed bool

	// State is set for BlockState.
	State *State

	// Body is set for BlockRegion and BlockLoop.
	Body *Region

	// Branches is set for BlockConditional.
	Branches []Branch

	// Loop clauses, set for BlockLoop. Empty clauses are absent.
	Init      string
	Condition string
	Update    string

	Layout Layout

	extra rawAttrs
}

// Transition is a control-flow edge between two blocks of a region.
type Transition struct {
	Src    int
	Dst    int
	Label  string
	Points []geom.Point
	Layout Layout

	extra rawAttrs
}

// Region is a control-flow region: an ordered set of blocks connected by
// transitions.
type Region struct {
	Blocks     []*Block
	Edges      []*Transition
	StartBlock int
}

// Graph is a top-level document: a named root region.
type Graph struct {
	Name string
	Root *Region
}

// Node returns the dataflow node with the given ID, or nil.
func (s *State) Node(id int) *Node {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Block returns the block with the given ID, or nil.
func (r *Region) Block(id int) *Block {
	for _, b := range r.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// ScopeChildren returns the IDs of nodes owned by the given scope entry
// (or by the state itself for TopLevelScope).
func (s *State) ScopeChildren(owner int) []int {
	if s.ScopeDict == nil {
		return nil
	}
	return s.ScopeDict[owner]
}

// ScopeOf returns the ID of the scope entry owning the node, or
// TopLevelScope if the node is top-level. Owners are scanned in sorted
// order so malformed documents listing a node under several scopes still
// resolve the same owner on every pass.
func (s *State) ScopeOf(id int) int {
	for _, owner := range s.SortedScopes() {
		for _, c := range s.ScopeChildren(owner) {
			if c == id {
				return owner
			}
		}
	}
	return TopLevelScope
}

// ExitOf returns the scope-exit node closing the given scope entry, or
// nil if the scope has no exit. The exit is located among the entry's
// owned nodes.
func (s *State) ExitOf(entry *Node) *Node {
	for _, id := range s.ScopeChildren(entry.ID) {
		if n := s.Node(id); n != nil && n.Kind == NodeScopeExit {
			return n
		}
	}
	return nil
}

// Connector returns the node's connector with the given name and
// direction, or nil.
func (n *Node) Connector(dir Direction, name string) *Connector {
	conns := n.In
	if dir == Out {
		conns = n.Out
	}
	for _, c := range conns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// OutEdges returns the edges whose source is the given node ID.
func (s *State) OutEdges(id int) []*Edge {
	var out []*Edge
	for _, e := range s.Edges {
		if e.Src == id {
			out = append(out, e)
		}
	}
	return out
}

// InEdges returns the edges whose destination is the given node ID.
func (s *State) InEdges(id int) []*Edge {
	var in []*Edge
	for _, e := range s.Edges {
		if e.Dst == id {
			in = append(in, e)
		}
	}
	return in
}
