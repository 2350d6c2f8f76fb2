package render

import (
	"strings"
	"testing"

	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/flow"
	"github.com/matzehuels/flowscope/pkg/geom"
)

// laidOutDoc builds a small document with positions already filled in,
// the shape a layout pass leaves behind.
func laidOutDoc() *flow.Graph {
	state := &flow.State{
		ID:    0,
		Label: "compute",
		Nodes: []*flow.Node{
			{
				ID: 0, Kind: flow.NodeAccess, Label: "A",
				Layout: flow.Layout{X: 50, Y: 20, Width: 60, Height: 30},
			},
			{
				ID: 1, Kind: flow.NodeTasklet, Label: "f",
				Layout: flow.Layout{X: 50, Y: 100, Width: 80, Height: 40},
				Out:    []*flow.Connector{{Name: "out", X: 50, Y: 120, Width: 10, Height: 10}},
			},
		},
		Edges: []*flow.Edge{
			{
				Src: 0, Dst: 1, Data: "x",
				Points: []geom.Point{{X: 50, Y: 35}, {X: 50, Y: 80}},
			},
		},
		ScopeDict: map[int][]int{flow.TopLevelScope: {0, 1}},
		Layout:    flow.Layout{X: 60, Y: 75, Width: 120, Height: 150},
	}
	return &flow.Graph{
		Name: "demo",
		Root: &flow.Region{
			Blocks: []*flow.Block{
				{ID: 0, Kind: flow.BlockState, Label: "compute", State: state,
					Layout: flow.Layout{X: 60, Y: 75, Width: 120, Height: 150}},
			},
		},
	}
}

func TestSVG(t *testing.T) {
	data, err := SVG(laidOutDoc())
	if err != nil {
		t.Fatalf("SVG: %v", err)
	}
	svg := string(data)

	if !strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg"`) {
		t.Errorf("missing svg header: %.80s", svg)
	}
	// Access node draws as an ellipse at its stored center.
	if !strings.Contains(svg, `<ellipse cx="50.0" cy="20.0"`) {
		t.Error("access node ellipse missing")
	}
	// Tasklet draws as a rounded rect.
	if !strings.Contains(svg, `rx="4"`) {
		t.Error("tasklet rect missing")
	}
	// Edge polyline passes through its stored points.
	if !strings.Contains(svg, `points="50.0,35.0 50.0,80.0"`) {
		t.Error("edge polyline missing")
	}
	// Connector circle.
	if !strings.Contains(svg, `<circle cx="50.0" cy="120.0"`) {
		t.Error("connector circle missing")
	}
}

func TestSVGEscapesLabels(t *testing.T) {
	doc := laidOutDoc()
	doc.Root.Blocks[0].State.Nodes[1].Label = "a<b & c"
	data, err := SVG(doc)
	if err != nil {
		t.Fatalf("SVG: %v", err)
	}
	if !strings.Contains(string(data), "a&lt;b &amp; c") {
		t.Error("label not escaped")
	}
	if strings.Contains(string(data), ">a<b &") {
		t.Error("raw label leaked into markup")
	}
}

func TestSVGSkipsHiddenAndSummarized(t *testing.T) {
	doc := laidOutDoc()
	st := doc.Root.Blocks[0].State
	st.Nodes[0].Layout.Width = 0 // hidden
	st.Edges[0].Summarized = true

	data, err := SVG(doc)
	if err != nil {
		t.Fatalf("SVG: %v", err)
	}
	svg := string(data)
	if strings.Contains(svg, "<ellipse") {
		t.Error("hidden node should not be drawn")
	}
	if strings.Contains(svg, "<polyline") {
		t.Error("summarized edge should not be drawn")
	}
}

func TestSVGNilDocument(t *testing.T) {
	if _, err := SVG(nil); errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Errorf("error = %v", err)
	}
	if _, err := SVG(&flow.Graph{}); errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Errorf("error = %v", err)
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(laidOutDoc())

	if !strings.HasPrefix(dot, `digraph "demo" {`) {
		t.Errorf("header: %.40s", dot)
	}
	if !strings.Contains(dot, `subgraph "cluster_r_b0"`) {
		t.Error("state cluster missing")
	}
	if !strings.Contains(dot, `"r_b0_n0" [label="A", shape=ellipse];`) {
		t.Error("access node missing")
	}
	if !strings.Contains(dot, `"r_b0_n1" [label="f", shape=box];`) {
		t.Error("tasklet node missing")
	}
	if !strings.Contains(dot, `"r_b0_n0" -> "r_b0_n1" [label="x"];`) {
		t.Error("dataflow edge missing")
	}
	// Positions stay out of the structural export.
	if strings.Contains(dot, "pos=") {
		t.Error("DOT export should not carry positions")
	}
}

func TestToDOTNestedCluster(t *testing.T) {
	doc := laidOutDoc()
	inner := &flow.Region{
		Blocks: []*flow.Block{
			{ID: 0, Kind: flow.BlockState, Label: "inner", State: &flow.State{
				Nodes: []*flow.Node{{ID: 0, Kind: flow.NodeTasklet, Label: "g"}},
			}},
		},
	}
	st := doc.Root.Blocks[0].State
	st.Nodes = append(st.Nodes, &flow.Node{ID: 2, Kind: flow.NodeNested, Label: "sub", Nested: inner})

	dot := ToDOT(doc)
	if !strings.Contains(dot, `"r_b0_n2" [label="sub", shape=box3d];`) {
		t.Error("nested node missing")
	}
	if !strings.Contains(dot, `subgraph "cluster_r_b0_n2"`) {
		t.Error("nested region cluster missing")
	}
	if !strings.Contains(dot, `"r_b0_n2_b0_n0" [label="g", shape=box];`) {
		t.Error("inner node missing")
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"svg", "dot", "png"} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) = %v", f, err)
		}
	}
	err := ValidateFormat("pdf")
	if errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Errorf("invalid format error = %v", err)
	}
}

func TestRender(t *testing.T) {
	out, err := Render(laidOutDoc(), []string{FormatSVG, FormatDOT})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("formats = %d, want 2", len(out))
	}
	if !strings.HasPrefix(string(out["svg"]), "<svg") {
		t.Error("svg artifact malformed")
	}
	if !strings.HasPrefix(string(out["dot"]), "digraph") {
		t.Error("dot artifact malformed")
	}

	if _, err := Render(laidOutDoc(), []string{"bmp"}); err == nil {
		t.Error("invalid format should fail")
	}
}
