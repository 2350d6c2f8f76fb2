// Package pipeline runs the load, layout, evaluate and render stages
// over a dataflow document, with content-hash caching between them.
//
// The stages are deterministic over their inputs, so each cached result
// is keyed by the hash of everything that can change it: layouts by
// (document hash, settings), reports and artifacts by the laid-out
// document hash.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Input:    "graph.json",
//	    Evaluate: true,
//	    Formats:  []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Stages can also run individually:
//
//	doc, err := runner.Load(ctx, opts)
//	doc, reg, err := runner.Layout(ctx, doc, opts)
//	reports, err := runner.Evaluate(ctx, doc, reg, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowscope/pkg/cache"
	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/eval"
	"github.com/matzehuels/flowscope/pkg/flow"
	"github.com/matzehuels/flowscope/pkg/layout"
	"github.com/matzehuels/flowscope/pkg/render"
)

// DefaultFormats is the artifact set rendered when none is requested.
var DefaultFormats = []string{render.FormatSVG}

// Options contains all configuration for one pipeline run. The struct
// serializes to JSON for API requests.
type Options struct {
	// Input is the path of the document to load. Document takes
	// precedence when both are set.
	Input string `json:"input,omitempty"`

	// Document is the raw document JSON, for callers that already hold
	// it (the API server does).
	Document []byte `json:"document,omitempty"`

	// Name overrides the document's own name in logs and stored records.
	Name string `json:"name,omitempty"`

	// Settings configures the layout pass. The zero value means
	// layout.DefaultSettings.
	Settings layout.Settings `json:"settings"`

	// Evaluate computes per-scope quality metrics after layout.
	Evaluate bool `json:"evaluate,omitempty"`

	// Formats selects the rendered artifacts. Empty means DefaultFormats.
	Formats []string `json:"formats,omitempty"`

	// Refresh bypasses cache reads (results are still written back).
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options, not serialized.
	Logger *log.Logger  `json:"-"`
	Placer layout.Placer `json:"-"`

	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the laid-out document.
	Document *flow.Graph

	// Registry holds the computed scope layouts. It is nil when the
	// layout stage was served from cache and nothing downstream needed
	// to recompute it.
	Registry *layout.Registry

	// GraphHash is the content hash of the input document.
	GraphHash string

	// LayoutHash is the content hash of the laid-out document.
	LayoutHash string

	// Reports maps scope IDs to metric reports; nil unless Evaluate was
	// requested.
	Reports map[string]eval.Report

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	ScopeCount int
	LoadTime   time.Duration
	LayoutTime time.Duration
	EvalTime   time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits per pipeline stage.
type CacheInfo struct {
	LayoutHit bool
	ReportHit bool
	RenderHit bool
}

// ValidateAndSetDefaults checks required fields and applies defaults for
// the full pipeline. Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := render.ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the fields the load stage needs.
func (o *Options) ValidateForLoad() error {
	if o.Input == "" && len(o.Document) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "input path or document is required")
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return nil
}

// SetLayoutDefaults fills in layout settings when unset.
func (o *Options) SetLayoutDefaults() {
	if (o.Settings == layout.Settings{}) {
		o.Settings = layout.DefaultSettings()
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// SetRenderDefaults fills in the artifact formats when unset.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = append([]string(nil), DefaultFormats...)
	}
}

// LayoutKeyOpts returns the cache key options for the layout stage.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		RankSep:             o.Settings.RankSep,
		NodeSep:             o.Settings.NodeSep,
		VerticalLayout:      o.Settings.VerticalLayout,
		OmitAccessNodes:     o.Settings.OmitAccessNodes,
		LargeGraphThreshold: o.Settings.LargeGraphThreshold,
	}
}

// ArtifactKeyOpts returns the cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format}
}

// countNodes returns the number of dataflow nodes across the document,
// for logging and hooks.
func countNodes(doc *flow.Graph) int {
	if doc == nil {
		return 0
	}
	return countRegionNodes(doc.Root)
}

func countRegionNodes(r *flow.Region) int {
	if r == nil {
		return 0
	}
	total := 0
	for _, b := range r.Blocks {
		switch b.Kind {
		case flow.BlockState:
			if b.State != nil {
				total += len(b.State.Nodes)
				for _, n := range b.State.Nodes {
					if n.Nested != nil {
						total += countRegionNodes(n.Nested)
					}
				}
			}
		case flow.BlockRegion, flow.BlockLoop:
			total += countRegionNodes(b.Body)
		case flow.BlockConditional:
			for _, br := range b.Branches {
				total += countRegionNodes(br.Body)
			}
		}
	}
	return total
}
