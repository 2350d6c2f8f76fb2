package pipeline

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowscope/pkg/cache"
	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/flow"
	"github.com/matzehuels/flowscope/pkg/layout"
)

// testDoc builds a minimal two-node document: an access feeding a
// tasklet inside a single state.
func testDoc() *flow.Graph {
	state := &flow.State{
		ID:    0,
		Label: "compute",
		Nodes: []*flow.Node{
			{ID: 0, Kind: flow.NodeAccess, Label: "A"},
			{ID: 1, Kind: flow.NodeTasklet, Label: "f"},
		},
		Edges: []*flow.Edge{
			{Src: 0, Dst: 1},
		},
		ScopeDict: map[int][]int{flow.TopLevelScope: {0, 1}},
	}
	return &flow.Graph{
		Name: "test",
		Root: &flow.Region{
			Blocks: []*flow.Block{
				{ID: 0, Kind: flow.BlockState, Label: "compute", State: state},
			},
		},
	}
}

// writeTestDoc writes the fixture to a temp file and returns its path.
func writeTestDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := flow.WriteFile(testDoc(), path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func testOptions(input string) Options {
	return Options{
		Input:   input,
		Formats: []string{"svg", "dot"},
		Logger:  quietLogger(),
		Placer:  layout.LayeredPlacer{},
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(nil, nil, quietLogger())
	defer runner.Close()

	opts := testOptions(writeTestDoc(t))
	opts.Evaluate = true

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Stats.NodeCount != 2 {
		t.Errorf("NodeCount = %d, want 2", result.Stats.NodeCount)
	}
	if result.Registry == nil || result.Registry.Len() != 1 {
		t.Fatalf("Registry = %v", result.Registry)
	}
	if result.GraphHash == "" || result.LayoutHash == "" {
		t.Error("hashes should be set")
	}
	if result.GraphHash == result.LayoutHash {
		t.Error("layout must change the document hash")
	}

	// Layout annotated the document in place.
	n := result.Document.Root.Blocks[0].State.Node(1)
	if n.Layout.Width == 0 || n.Layout.Height == 0 {
		t.Error("node should be sized after layout")
	}

	// Evaluation covers the single scope.
	if len(result.Reports) != 1 {
		t.Fatalf("Reports = %d scopes, want 1", len(result.Reports))
	}
	for _, rep := range result.Reports {
		if rep.Nodes != 2 {
			t.Errorf("report nodes = %d, want 2", rep.Nodes)
		}
	}

	// Both artifacts rendered.
	if !strings.HasPrefix(string(result.Artifacts["svg"]), "<svg") {
		t.Error("svg artifact missing")
	}
	if !strings.HasPrefix(string(result.Artifacts["dot"]), "digraph") {
		t.Error("dot artifact missing")
	}
}

func TestExecuteCaching(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(fc, nil, quietLogger())
	defer runner.Close()

	input := writeTestDoc(t)
	opts := testOptions(input)
	opts.Evaluate = true

	first, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.ReportHit || first.CacheInfo.RenderHit {
		t.Errorf("first run should miss everywhere: %+v", first.CacheInfo)
	}

	second, err := runner.Execute(ctx, testOptionsWithEval(input))
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.ReportHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit everywhere: %+v", second.CacheInfo)
	}
	if second.Registry != nil {
		t.Error("cache-served layout should not rebuild the registry")
	}
	if second.LayoutHash != first.LayoutHash {
		t.Error("cached layout must hash identically")
	}
	if len(second.Reports) != len(first.Reports) {
		t.Errorf("cached reports = %d, want %d", len(second.Reports), len(first.Reports))
	}

	// Refresh bypasses cache reads.
	refreshOpts := testOptionsWithEval(input)
	refreshOpts.Refresh = true
	third, err := runner.Execute(ctx, refreshOpts)
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if third.CacheInfo.LayoutHit {
		t.Error("refresh run should bypass the layout cache")
	}
	if third.Registry == nil {
		t.Error("refresh run should rebuild the registry")
	}
}

func testOptionsWithEval(input string) Options {
	opts := testOptions(input)
	opts.Evaluate = true
	return opts
}

func TestExecuteDifferentSettingsMissCache(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(fc, nil, quietLogger())
	defer runner.Close()

	input := writeTestDoc(t)
	if _, err := runner.Execute(ctx, testOptions(input)); err != nil {
		t.Fatalf("first Execute: %v", err)
	}

	opts := testOptions(input)
	opts.Settings = layout.DefaultSettings()
	opts.Settings.RankSep = 80
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if result.CacheInfo.LayoutHit {
		t.Error("changed settings must not share a layout cache entry")
	}
}

func TestExecuteInlineDocument(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(nil, nil, quietLogger())

	data, err := flow.Marshal(testDoc())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	opts := Options{
		Document: data,
		Name:     "renamed",
		Formats:  []string{"dot"},
		Logger:   quietLogger(),
		Placer:   layout.LayeredPlacer{},
	}
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Document.Name != "renamed" {
		t.Errorf("Name = %q, want renamed", result.Document.Name)
	}
}

func TestExecuteValidation(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(nil, nil, quietLogger())

	// No input at all.
	_, err := runner.Execute(ctx, Options{Logger: quietLogger()})
	if errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Errorf("missing input error = %v", err)
	}

	// Unsupported format.
	opts := testOptions(writeTestDoc(t))
	opts.Formats = []string{"tiff"}
	if _, err := runner.Execute(ctx, opts); err == nil {
		t.Error("invalid format should fail")
	}
}

func TestLoadMissingFile(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(nil, nil, quietLogger())

	opts := Options{Input: filepath.Join(t.TempDir(), "absent.json"), Logger: quietLogger()}
	if _, err := runner.Load(ctx, opts); err == nil {
		t.Error("loading an absent file should fail")
	}
}
