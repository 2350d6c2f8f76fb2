package flow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/matzehuels/flowscope/pkg/geom"
)

// ErrUnknownKind is returned when a document contains an element type
// string outside the known kind set.
var ErrUnknownKind = errors.New("unknown element kind")

// rawAttrs carries an element's attribute object. Unknown keys survive a
// decode/encode round trip untouched; layout annotation only overwrites
// the keys it owns.
type rawAttrs map[string]json.RawMessage

// Attribute keys owned by the layout annotation.
const (
	attrLayout        = "layout"
	attrCollapsed     = "is_collapsed"
	attrInConnectors  = "in_connectors"
	attrOutConnectors = "out_connectors"
	attrData          = "data"
	attrInit          = "init_statement"
	attrCondition     = "loop_condition"
	attrUpdate        = "update_statement"
	attrShortcut      = "shortcut"
	attrSummarized    = "summarized"
	attrLabel         = "label"
)

func (a rawAttrs) getBool(key string) bool {
	var v bool
	if raw, ok := a[key]; ok {
		_ = json.Unmarshal(raw, &v)
	}
	return v
}

func (a rawAttrs) getString(key string) string {
	var v string
	if raw, ok := a[key]; ok {
		_ = json.Unmarshal(raw, &v)
	}
	return v
}

func (a rawAttrs) getStrings(key string) []string {
	var v []string
	if raw, ok := a[key]; ok {
		_ = json.Unmarshal(raw, &v)
	}
	return v
}

func (a rawAttrs) set(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	a[key] = data
}

// clone copies the attribute map so encoding never mutates decoded state.
func (a rawAttrs) clone() rawAttrs {
	out := make(rawAttrs, len(a)+4)
	for k, v := range a {
		out[k] = v
	}
	return out
}

// wireLayout is the attributes.layout object.
type wireLayout struct {
	X      float64      `json:"x"`
	Y      float64      `json:"y"`
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Points []geom.Point `json:"points,omitempty"`
}

func (a rawAttrs) getLayout() (Layout, []geom.Point) {
	var wl wireLayout
	if raw, ok := a[attrLayout]; ok {
		_ = json.Unmarshal(raw, &wl)
	}
	return Layout{X: wl.X, Y: wl.Y, Width: wl.Width, Height: wl.Height}, wl.Points
}

func (a rawAttrs) setLayout(l Layout, points []geom.Point) {
	a.set(attrLayout, wireLayout{X: l.X, Y: l.Y, Width: l.Width, Height: l.Height, Points: points})
}

// =============================================================================
// Wire Types
// =============================================================================

type wireGraph struct {
	Name string      `json:"name,omitempty"`
	Root *wireRegion `json:"root"`
}

type wireRegion struct {
	Nodes      []*wireBlock      `json:"nodes"`
	Edges      []*wireTransition `json:"edges"`
	StartBlock int               `json:"start_block"`
}

type wireBlock struct {
	Type       string   `json:"type"`
	ID         int      `json:"id"`
	Label      string   `json:"label,omitempty"`
	Attributes rawAttrs `json:"attributes,omitempty"`

	// State payload.
	Nodes     []*wireNode      `json:"nodes,omitempty"`
	Edges     []*wireEdge      `json:"edges,omitempty"`
	ScopeDict map[string][]int `json:"scope_dict,omitempty"`

	// Region and loop payload.
	Body *wireRegion `json:"body,omitempty"`

	// Conditional payload.
	Branches []wireBranch `json:"branches,omitempty"`
}

type wireBranch struct {
	Condition string      `json:"condition,omitempty"`
	Body      *wireRegion `json:"body"`
	Height    float64     `json:"height,omitempty"`
}

type wireTransition struct {
	Src        int      `json:"src"`
	Dst        int      `json:"dst"`
	Attributes rawAttrs `json:"attributes,omitempty"`
}

type wireNode struct {
	Type       string      `json:"type"`
	ID         int         `json:"id"`
	Label      string      `json:"label,omitempty"`
	Attributes rawAttrs    `json:"attributes,omitempty"`
	Graph      *wireRegion `json:"graph,omitempty"`
}

type wireEdge struct {
	Src          int      `json:"src"`
	Dst          int      `json:"dst"`
	SrcConnector string   `json:"src_connector,omitempty"`
	DstConnector string   `json:"dst_connector,omitempty"`
	Attributes   rawAttrs `json:"attributes,omitempty"`
}

// =============================================================================
// Decoding
// =============================================================================

func nodeKindFromString(s string) (NodeKind, error) {
	switch s {
	case "Access", "AccessNode":
		return NodeAccess, nil
	case "Tasklet":
		return NodeTasklet, nil
	case "ScopeEntry", "MapEntry":
		return NodeScopeEntry, nil
	case "ScopeExit", "MapExit":
		return NodeScopeExit, nil
	case "NestedGraph", "NestedSDFG":
		return NodeNested, nil
	case "Library", "LibraryNode":
		return NodeLibrary, nil
	case "Reduce":
		return NodeReduce, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func blockKindFromString(s string) (BlockKind, error) {
	switch s {
	case "State", "SDFGState":
		return BlockState, nil
	case "Region", "ControlFlowRegion":
		return BlockRegion, nil
	case "ConditionalBlock":
		return BlockConditional, nil
	case "LoopRegion":
		return BlockLoop, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func decodeRegion(wr *wireRegion) (*Region, error) {
	if wr == nil {
		return nil, nil
	}
	r := &Region{StartBlock: wr.StartBlock}
	for _, wb := range wr.Nodes {
		b, err := decodeBlock(wb)
		if err != nil {
			return nil, err
		}
		r.Blocks = append(r.Blocks, b)
	}
	for _, wt := range wr.Edges {
		attrs := wt.Attributes
		if attrs == nil {
			attrs = rawAttrs{}
		}
		layout, points := attrs.getLayout()
		r.Edges = append(r.Edges, &Transition{
			Src:    wt.Src,
			Dst:    wt.Dst,
			Label:  attrs.getString(attrLabel),
			Points: points,
			Layout: layout,
			extra:  attrs,
		})
	}
	return r, nil
}

func decodeBlock(wb *wireBlock) (*Block, error) {
	kind, err := blockKindFromString(wb.Type)
	if err != nil {
		return nil, err
	}
	attrs := wb.Attributes
	if attrs == nil {
		attrs = rawAttrs{}
	}
	layout, _ := attrs.getLayout()
	b := &Block{
		ID:        wb.ID,
		Kind:      kind,
		Label:     wb.Label,
		Collapsed: attrs.getBool(attrCollapsed),
		Layout:    layout,
		extra:     attrs,
	}

	switch kind {
	case BlockState:
		st := &State{
			ID:        wb.ID,
			Label:     wb.Label,
			Collapsed: b.Collapsed,
			ScopeDict: decodeScopeDict(wb.ScopeDict),
			Layout:    layout,
			extra:     attrs,
		}
		for _, wn := range wb.Nodes {
			n, err := decodeNode(wn)
			if err != nil {
				return nil, err
			}
			st.Nodes = append(st.Nodes, n)
		}
		for _, we := range wb.Edges {
			st.Edges = append(st.Edges, decodeEdge(we))
		}
		b.State = st

	case BlockRegion, BlockLoop:
		body, err := decodeRegion(wb.Body)
		if err != nil {
			return nil, err
		}
		b.Body = body
		if kind == BlockLoop {
			b.Init = attrs.getString(attrInit)
			b.Condition = attrs.getString(attrCondition)
			b.Update = attrs.getString(attrUpdate)
		}

	case BlockConditional:
		for _, wbr := range wb.Branches {
			body, err := decodeRegion(wbr.Body)
			if err != nil {
				return nil, err
			}
			b.Branches = append(b.Branches, Branch{Condition: wbr.Condition, Body: body, Height: wbr.Height})
		}
	}
	return b, nil
}

func decodeNode(wn *wireNode) (*Node, error) {
	kind, err := nodeKindFromString(wn.Type)
	if err != nil {
		return nil, err
	}
	attrs := wn.Attributes
	if attrs == nil {
		attrs = rawAttrs{}
	}
	layout, _ := attrs.getLayout()
	n := &Node{
		ID:            wn.ID,
		Kind:          kind,
		Label:         wn.Label,
		Collapsed:     attrs.getBool(attrCollapsed),
		InConnectors:  attrs.getStrings(attrInConnectors),
		OutConnectors: attrs.getStrings(attrOutConnectors),
		Layout:        layout,
		extra:         attrs,
	}
	if wn.Graph != nil {
		nested, err := decodeRegion(wn.Graph)
		if err != nil {
			return nil, err
		}
		n.Nested = nested
	}
	return n, nil
}

func decodeEdge(we *wireEdge) *Edge {
	attrs := we.Attributes
	if attrs == nil {
		attrs = rawAttrs{}
	}
	layout, points := attrs.getLayout()
	return &Edge{
		Src:          we.Src,
		Dst:          we.Dst,
		SrcConnector: we.SrcConnector,
		DstConnector: we.DstConnector,
		Data:         attrs.getString(attrData),
		Points:       points,
		Shortcut:     attrs.getBool(attrShortcut),
		Summarized:   attrs.getBool(attrSummarized),
		Layout:       layout,
		extra:        attrs,
	}
}

func decodeScopeDict(in map[string][]int) map[int][]int {
	if in == nil {
		return nil
	}
	out := make(map[int][]int, len(in))
	for k, v := range in {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[id] = v
	}
	return out
}

// =============================================================================
// Encoding
// =============================================================================

func encodeRegion(r *Region) *wireRegion {
	if r == nil {
		return nil
	}
	wr := &wireRegion{
		StartBlock: r.StartBlock,
		Nodes:      make([]*wireBlock, 0, len(r.Blocks)),
		Edges:      make([]*wireTransition, 0, len(r.Edges)),
	}
	for _, b := range r.Blocks {
		wr.Nodes = append(wr.Nodes, encodeBlock(b))
	}
	for _, t := range r.Edges {
		attrs := t.extra.clone()
		attrs.setLayout(t.Layout, t.Points)
		if t.Label != "" {
			attrs.set(attrLabel, t.Label)
		}
		wr.Edges = append(wr.Edges, &wireTransition{Src: t.Src, Dst: t.Dst, Attributes: attrs})
	}
	return wr
}

func encodeBlock(b *Block) *wireBlock {
	attrs := b.extra.clone()
	attrs.set(attrCollapsed, b.Collapsed)
	attrs.setLayout(b.Layout, nil)

	wb := &wireBlock{
		Type:       b.Kind.String(),
		ID:         b.ID,
		Label:      b.Label,
		Attributes: attrs,
	}

	switch b.Kind {
	case BlockState:
		if b.State != nil {
			for _, n := range b.State.Nodes {
				wb.Nodes = append(wb.Nodes, encodeNode(n))
			}
			for _, e := range b.State.Edges {
				wb.Edges = append(wb.Edges, encodeEdge(e))
			}
			wb.ScopeDict = encodeScopeDict(b.State.ScopeDict)
		}
	case BlockRegion, BlockLoop:
		wb.Body = encodeRegion(b.Body)
		if b.Kind == BlockLoop {
			if b.Init != "" {
				attrs.set(attrInit, b.Init)
			}
			if b.Condition != "" {
				attrs.set(attrCondition, b.Condition)
			}
			if b.Update != "" {
				attrs.set(attrUpdate, b.Update)
			}
		}
	case BlockConditional:
		for _, br := range b.Branches {
			wb.Branches = append(wb.Branches, wireBranch{Condition: br.Condition, Body: encodeRegion(br.Body), Height: br.Height})
		}
	}
	return wb
}

func encodeNode(n *Node) *wireNode {
	attrs := n.extra.clone()
	attrs.set(attrCollapsed, n.Collapsed)
	attrs.setLayout(n.Layout, nil)
	if len(n.InConnectors) > 0 {
		attrs.set(attrInConnectors, n.InConnectors)
	}
	if len(n.OutConnectors) > 0 {
		attrs.set(attrOutConnectors, n.OutConnectors)
	}
	return &wireNode{
		Type:       n.Kind.String(),
		ID:         n.ID,
		Label:      n.Label,
		Attributes: attrs,
		Graph:      encodeRegion(n.Nested),
	}
}

func encodeEdge(e *Edge) *wireEdge {
	attrs := e.extra.clone()
	attrs.setLayout(e.Layout, e.Points)
	if e.Data != "" {
		attrs.set(attrData, e.Data)
	}
	attrs.set(attrShortcut, e.Shortcut)
	if e.Summarized {
		attrs.set(attrSummarized, true)
	}
	return &wireEdge{
		Src:          e.Src,
		Dst:          e.Dst,
		SrcConnector: e.SrcConnector,
		DstConnector: e.DstConnector,
		Attributes:   attrs,
	}
}

func encodeScopeDict(in map[int][]int) map[string][]int {
	if in == nil {
		return nil
	}
	out := make(map[string][]int, len(in))
	for k, v := range in {
		out[strconv.Itoa(k)] = v
	}
	return out
}

// =============================================================================
// Public API
// =============================================================================

// Marshal serializes a graph to pretty-printed JSON bytes. Output is
// deterministic: JSON object keys are emitted in sorted order by the
// standard library, and element order follows the model's slices.
func Marshal(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes a graph as JSON to w.
func Write(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(wireGraph{Name: g.Name, Root: encodeRegion(g.Root)}); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Unmarshal deserializes JSON bytes into a graph. Returns ErrUnknownKind
// (wrapped) when an element type string is not recognized.
func Unmarshal(data []byte) (*Graph, error) {
	return Read(bytes.NewReader(data))
}

// Read decodes a JSON graph from r.
func Read(r io.Reader) (*Graph, error) {
	var wg wireGraph
	if err := json.NewDecoder(r).Decode(&wg); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	root, err := decodeRegion(wg.Root)
	if err != nil {
		return nil, err
	}
	if root == nil {
		root = &Region{}
	}
	return &Graph{Name: wg.Name, Root: root}, nil
}

// ReadFile reads a JSON file and returns the decoded graph.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// WriteFile writes a graph to a JSON file with 0644 permissions.
func WriteFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(g, f)
}

// SortedScopes returns the scope_dict owner IDs in ascending order, with
// TopLevelScope first. Deterministic iteration keeps layout idempotent.
func (s *State) SortedScopes() []int {
	owners := make([]int, 0, len(s.ScopeDict))
	for owner := range s.ScopeDict {
		owners = append(owners, owner)
	}
	sort.Ints(owners)
	return owners
}
