package flow

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/matzehuels/flowscope/pkg/geom"
)

const sampleDoc = `{
  "name": "sample",
  "root": {
    "start_block": 0,
    "nodes": [
      {
        "type": "State",
        "id": 0,
        "label": "compute",
        "attributes": {"is_collapsed": false, "custom_key": {"keep": true}},
        "scope_dict": {"-1": [0, 1, 2]},
        "nodes": [
          {"type": "Access", "id": 0, "label": "A"},
          {"type": "Tasklet", "id": 1, "label": "add",
           "attributes": {"in_connectors": ["a"], "out_connectors": ["out"]}},
          {"type": "Access", "id": 2, "label": "B"}
        ],
        "edges": [
          {"src": 0, "dst": 1, "dst_connector": "a", "attributes": {"data": "A"}},
          {"src": 1, "dst": 2, "src_connector": "out", "attributes": {"data": "B"}}
        ]
      }
    ],
    "edges": []
  }
}`

func TestUnmarshal(t *testing.T) {
	g, err := Unmarshal([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if g.Name != "sample" {
		t.Errorf("name = %q, want sample", g.Name)
	}
	if len(g.Root.Blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(g.Root.Blocks))
	}

	b := g.Root.Blocks[0]
	if b.Kind != BlockState {
		t.Fatalf("kind = %v, want BlockState", b.Kind)
	}
	st := b.State
	if len(st.Nodes) != 3 || len(st.Edges) != 2 {
		t.Fatalf("nodes/edges = %d/%d, want 3/2", len(st.Nodes), len(st.Edges))
	}
	if st.Nodes[1].Kind != NodeTasklet {
		t.Errorf("node 1 kind = %v, want NodeTasklet", st.Nodes[1].Kind)
	}
	if got := st.Nodes[1].InConnectors; len(got) != 1 || got[0] != "a" {
		t.Errorf("in_connectors = %v, want [a]", got)
	}
	if st.Edges[0].DstConnector != "a" || st.Edges[0].Data != "A" {
		t.Errorf("edge 0 = %+v", st.Edges[0])
	}
	if got := st.ScopeChildren(TopLevelScope); len(got) != 3 {
		t.Errorf("top-level scope children = %v", got)
	}
}

func TestUnmarshalUnknownKind(t *testing.T) {
	doc := strings.Replace(sampleDoc, `"type": "Tasklet"`, `"type": "Mystery"`, 1)
	_, err := Unmarshal([]byte(doc))
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if !strings.Contains(err.Error(), "Mystery") {
		t.Errorf("error should name the kind: %v", err)
	}
}

func TestRoundTripPreservesUnknownAttributes(t *testing.T) {
	g, err := Unmarshal([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	// Annotate some layout, as a pass would.
	st := g.Root.Blocks[0].State
	st.Nodes[0].Layout = Layout{X: 10, Y: 20, Width: 100, Height: 40}
	st.Edges[0].Points = []geom.Point{{X: 10, Y: 40}, {X: 10, Y: 80}}

	data, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	// The foreign attribute must survive.
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if !strings.Contains(string(data), "custom_key") {
		t.Error("custom_key attribute lost in round trip")
	}

	// And the document must decode back to the same geometry.
	g2, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("re-Unmarshal: %v", err)
	}
	st2 := g2.Root.Blocks[0].State
	if st2.Nodes[0].Layout != st.Nodes[0].Layout {
		t.Errorf("layout = %+v, want %+v", st2.Nodes[0].Layout, st.Nodes[0].Layout)
	}
	if len(st2.Edges[0].Points) != 2 || st2.Edges[0].Points[1] != (geom.Point{X: 10, Y: 80}) {
		t.Errorf("points = %v", st2.Edges[0].Points)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	g, err := Unmarshal([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	a, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	b, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Error("marshal output not deterministic")
	}
}

func TestLoopAndConditionalDecoding(t *testing.T) {
	doc := `{
	  "root": {
	    "start_block": 0,
	    "nodes": [
	      {"type": "LoopRegion", "id": 0, "label": "for_i",
	       "attributes": {"init_statement": "i = 0", "loop_condition": "i < N", "update_statement": "i = i + 1"},
	       "body": {"start_block": 0, "nodes": [], "edges": []}},
	      {"type": "ConditionalBlock", "id": 1,
	       "branches": [
	         {"condition": "x > 0", "body": {"start_block": 0, "nodes": [], "edges": []}},
	         {"body": {"start_block": 0, "nodes": [], "edges": []}}
	       ]}
	    ],
	    "edges": [{"src": 0, "dst": 1}]
	  }
	}`

	g, err := Unmarshal([]byte(doc))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	loop := g.Root.Blocks[0]
	if loop.Kind != BlockLoop {
		t.Fatalf("kind = %v, want BlockLoop", loop.Kind)
	}
	if loop.Init != "i = 0" || loop.Condition != "i < N" || loop.Update != "i = i + 1" {
		t.Errorf("loop clauses = %q %q %q", loop.Init, loop.Condition, loop.Update)
	}

	cond := g.Root.Blocks[1]
	if cond.Kind != BlockConditional || len(cond.Branches) != 2 {
		t.Fatalf("conditional = %+v", cond)
	}
	if cond.Branches[0].Condition != "x > 0" {
		t.Errorf("branch condition = %q", cond.Branches[0].Condition)
	}
	if cond.Branches[1].Condition != "" {
		t.Errorf("else branch condition = %q", cond.Branches[1].Condition)
	}
}

func TestBranchHeightRoundTrip(t *testing.T) {
	g := &Graph{Root: &Region{Blocks: []*Block{{
		ID:   0,
		Kind: BlockConditional,
		Branches: []Branch{
			{Condition: "x > 0", Body: &Region{}, Height: 140},
			{Condition: "", Body: &Region{}, Height: 140},
		},
	}}}}

	data, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	for i, br := range got.Root.Blocks[0].Branches {
		if br.Height != 140 {
			t.Errorf("branch %d height = %v, want 140", i, br.Height)
		}
	}
}

func TestSortedScopes(t *testing.T) {
	st := &State{ScopeDict: map[int][]int{
		5:             {6},
		TopLevelScope: {0, 1, 5},
		2:             {3, 4},
	}}

	got := st.SortedScopes()
	want := []int{TopLevelScope, 2, 5}
	if len(got) != len(want) {
		t.Fatalf("SortedScopes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SortedScopes() = %v, want %v", got, want)
		}
	}
}

func TestScopeOfDeterministic(t *testing.T) {
	// Malformed input may list one node under several scopes; the lowest
	// owner wins on every call.
	st := &State{ScopeDict: map[int][]int{
		TopLevelScope: {2},
		2:             {7},
		5:             {7},
	}}

	for i := 0; i < 50; i++ {
		if got := st.ScopeOf(7); got != 2 {
			t.Fatalf("ScopeOf(7) = %d, want 2", got)
		}
	}
	if got := st.ScopeOf(2); got != TopLevelScope {
		t.Errorf("ScopeOf(2) = %d, want TopLevelScope", got)
	}
}
