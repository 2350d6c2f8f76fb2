package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowscope/pkg/cache"
	"github.com/matzehuels/flowscope/pkg/eval"
	"github.com/matzehuels/flowscope/pkg/flow"
	"github.com/matzehuels/flowscope/pkg/layout"
	"github.com/matzehuels/flowscope/pkg/observability"
	"github.com/matzehuels/flowscope/pkg/render"
)

// Runner encapsulates pipeline execution with caching. Both CLI and API
// use it so caching logic lives in one place.
//
// The Runner is stateless except for the cache and logger; it does not
// store pipeline results. Multiple goroutines can safely share one
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → evaluate → render pipeline
// with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	doc, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Document = doc
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = countNodes(doc)

	if data, err := flow.Marshal(doc); err == nil {
		result.GraphHash = cache.Hash(data)
	}

	r.Logger.Info("loaded document",
		"name", r.docName(doc, opts),
		"nodes", result.Stats.NodeCount,
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	laidOut, reg, layoutHit, err := r.LayoutWithCacheInfo(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	result.Document = laidOut
	result.Registry = reg
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit
	if reg != nil {
		result.Stats.ScopeCount = reg.Len()
	}

	if data, err := flow.Marshal(laidOut); err == nil {
		result.LayoutHash = cache.Hash(data)
	}

	r.Logger.Info("computed layout",
		"scopes", result.Stats.ScopeCount,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Evaluate (optional)
	if opts.Evaluate {
		evalStart := time.Now()
		reports, reportHit, err := r.EvaluateWithCacheInfo(ctx, laidOut, reg, result.LayoutHash, opts)
		if err != nil {
			return nil, err
		}
		result.Reports = reports
		result.Stats.EvalTime = time.Since(evalStart)
		result.CacheInfo.ReportHit = reportHit

		r.Logger.Info("evaluated layout",
			"scopes", len(reports),
			"cached", reportHit,
			"duration", result.Stats.EvalTime)
	}

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, laidOut, result.LayoutHash, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads the document from opts.Document or opts.Input.
func (r *Runner) Load(ctx context.Context, opts Options) (*flow.Graph, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}

	source := opts.Input
	if len(opts.Document) > 0 {
		source = "inline"
	}
	observability.Pipeline().OnParseStart(ctx, source)
	start := time.Now()

	var doc *flow.Graph
	var err error
	if len(opts.Document) > 0 {
		doc, err = flow.Unmarshal(opts.Document)
	} else {
		doc, err = flow.ReadFile(opts.Input)
	}
	observability.Pipeline().OnParseComplete(ctx, source, countNodes(doc), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if opts.Name != "" {
		doc.Name = opts.Name
	}
	return doc, nil
}

// LayoutWithCacheInfo lays out the document with caching and returns
// cache hit info. On a cache hit the returned document is a fresh
// decode of the cached laid-out bytes and the registry is nil; on a
// miss the input document is laid out in place.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, doc *flow.Graph, opts Options) (*flow.Graph, *layout.Registry, bool, error) {
	opts.SetLayoutDefaults()
	r.applyLogger(&opts)

	data, err := flow.Marshal(doc)
	if err != nil {
		return nil, nil, false, err
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(data), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			cached, err := flow.Unmarshal(data)
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, nil, true, nil
			}
			// Corrupt entries fall through to recompute.
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	reg, err := r.runLayout(ctx, doc, opts)
	if err != nil {
		return nil, nil, false, err
	}

	if laidOut, err := flow.Marshal(doc); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, laidOut, cache.TTLLayout); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(laidOut))
		}
	}

	return doc, reg, false, nil
}

// Layout is a convenience wrapper that discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, doc *flow.Graph, opts Options) (*flow.Graph, *layout.Registry, error) {
	laidOut, reg, _, err := r.LayoutWithCacheInfo(ctx, doc, opts)
	return laidOut, reg, err
}

// runLayout executes a layout pass without cache involvement.
func (r *Runner) runLayout(ctx context.Context, doc *flow.Graph, opts Options) (*layout.Registry, error) {
	name := r.docName(doc, opts)
	observability.Pipeline().OnLayoutStart(ctx, name, countNodes(doc))
	start := time.Now()

	engineOpts := []layout.Option{layout.WithLogger(opts.Logger)}
	if opts.Placer != nil {
		engineOpts = append(engineOpts, layout.WithPlacer(opts.Placer))
	}
	engine := layout.New(opts.Settings, engineOpts...)

	reg, err := engine.Layout(ctx, doc)
	scopes := 0
	if reg != nil {
		scopes = reg.Len()
	}
	observability.Pipeline().OnLayoutComplete(ctx, name, scopes, time.Since(start), err)
	return reg, err
}

// EvaluateWithCacheInfo computes per-scope metric reports with caching.
// A nil registry is tolerated: when the report cache also misses, the
// layout is recomputed to obtain one.
func (r *Runner) EvaluateWithCacheInfo(ctx context.Context, doc *flow.Graph, reg *layout.Registry, layoutHash string, opts Options) (map[string]eval.Report, bool, error) {
	r.applyLogger(&opts)
	cacheKey := r.Keyer.ReportKey(layoutHash)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var reports map[string]eval.Report
			if err := json.Unmarshal(data, &reports); err == nil {
				observability.Cache().OnCacheHit(ctx, "report")
				return reports, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "report")
	}

	if reg == nil {
		// The layout stage was served from cache; rebuild the registry.
		// Positions are overwritten with identical values, so the
		// document stays consistent.
		var err error
		reg, err = r.runLayout(ctx, doc, opts)
		if err != nil {
			return nil, false, err
		}
	}

	name := r.docName(doc, opts)
	observability.Pipeline().OnEvaluateStart(ctx, name, reg.Len())
	start := time.Now()
	reports := eval.EvaluateScopes(reg)
	observability.Pipeline().OnEvaluateComplete(ctx, name, time.Since(start), nil)

	if data, err := json.Marshal(reports); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLReport); err == nil {
			observability.Cache().OnCacheSet(ctx, "report", len(data))
		}
	}

	return reports, false, nil
}

// Evaluate is a convenience wrapper that discards the cache hit info.
func (r *Runner) Evaluate(ctx context.Context, doc *flow.Graph, reg *layout.Registry, opts Options) (map[string]eval.Report, error) {
	data, err := flow.Marshal(doc)
	if err != nil {
		return nil, err
	}
	reports, _, err := r.EvaluateWithCacheInfo(ctx, doc, reg, cache.Hash(data), opts)
	return reports, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache
// hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, doc *flow.Graph, layoutHash string, opts Options) (map[string][]byte, bool, error) {
	opts.SetRenderDefaults()
	if err := render.ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// Try to serve every format from cache.
	allCached := true
	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := render.Render(doc, opts.Formats)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, doc *flow.Graph, opts Options) (map[string][]byte, error) {
	data, err := flow.Marshal(doc)
	if err != nil {
		return nil, err
	}
	artifacts, _, err := r.RenderWithCacheInfo(ctx, doc, cache.Hash(data), opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// docName returns the best available name for logs and hooks.
func (r *Runner) docName(doc *flow.Graph, opts Options) string {
	switch {
	case opts.Name != "":
		return opts.Name
	case doc != nil && doc.Name != "":
		return doc.Name
	default:
		return "unnamed"
	}
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
