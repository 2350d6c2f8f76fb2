// Package pkg provides the core libraries for Flowscope dataflow graph layout.
//
// # Overview
//
// Flowscope computes drawable layouts for hierarchical dataflow graph
// documents: nested regions of blocks whose nodes exchange data through
// typed connectors. The pkg directory is organized into five main areas:
//
//  1. [flow] - Document model (graphs, regions, blocks, nodes, geometry)
//  2. [layout] - Recursive region layouter and placement backends
//  3. [eval] - Layout quality metrics and report collection
//  4. [render] - Output formats (SVG, DOT, PNG)
//  5. [pipeline] - Orchestration (load → layout → evaluate → render)
//
// # Architecture
//
// The typical data flow through Flowscope:
//
//	Dataflow graph document (JSON)
//	         ↓
//	    [flow] package (decode + bounding boxes)
//	         ↓
//	    [layout] package (flatten scopes, place, route connectors)
//	         ↓
//	    [eval] package (score layout quality per scope)
//	         ↓
//	    [render] package (SVG/DOT/PNG output)
//
// # Quick Start
//
// Lay out a document and render it to SVG:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/flowscope/pkg/flow"
//	    "github.com/matzehuels/flowscope/pkg/layout"
//	    "github.com/matzehuels/flowscope/pkg/render"
//	)
//
//	// 1. Load the document
//	doc, _ := flow.ReadFile("graph.json")
//
//	// 2. Compute the layout
//	engine := layout.New(layout.DefaultSettings())
//	registry, _ := engine.Layout(context.Background(), doc)
//
//	// 3. Render to SVG
//	svg, _ := render.SVG(doc)
//	_ = registry
//
// # Main Packages
//
// ## Document Model
//
// [flow] - The hierarchical document model: a Graph owns a root Region,
// regions hold Blocks (states, conditionals, loops, nested regions) and
// Transitions, and state blocks hold Nodes wired through Connectors.
// Includes deterministic JSON serialization and bounding box computation.
//
// [geom] - Points, rectangles, distance and intersection helpers shared
// by layout and evaluation.
//
// ## Layout
//
// [layout] - The recursive region layouter. Each scope is flattened into
// a FlatGraph, placed by a pluggable Placer backend (Graphviz by default),
// and stitched back into global coordinates. Handles connector routing,
// hidden-node shortcut edges and node sizing.
//
// ## Evaluation
//
// [eval] - Geometric quality metrics per scope: edge bends, length
// statistics, orthogonality, density, symmetry, force-model tension and
// bundling distances. Reports collect into CSV-friendly stat tables.
//
// ## Output
//
// [render] - Viewable artifacts from laid-out documents: SVG (geometric
// drawing), DOT (structural Graphviz export) and PNG (rasterized DOT).
//
// ## Infrastructure
//
// [pipeline] - Complete layout pipeline (load → layout → evaluate →
// render) used by CLI and HTTP API. Ensures consistent behavior across
// all entry points, with content-addressed caching at every stage.
//
// [cache] - Cache interface with file, Redis, memory and null
// implementations, plus the key scheme for layouts, reports and
// artifacts.
//
// [store] - Persistence for finished layouts and evaluation reports,
// backed by MongoDB or in-process memory.
//
// [errors] - Coded errors with user-facing messages.
//
// [observability] - Process-wide hooks for pipeline, cache and store
// events.
//
// # Common Workflows
//
// Run the full pipeline with caching:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, _ := runner.Execute(ctx, pipeline.Options{
//	    Input:    "graph.json",
//	    Evaluate: true,
//	    Formats:  []string{"svg"},
//	})
//
// Score a single scope:
//
//	flat := layout.Flatten(scope)
//	report := eval.Evaluate(flat)
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/layout/...   # Specific package
//	go test -run Example       # Examples only
//
// [flow]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/flow
// [geom]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/geom
// [layout]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/layout
// [eval]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/eval
// [render]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/store
// [errors]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/observability
package pkg
