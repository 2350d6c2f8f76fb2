// Package eval computes aggregate quality metrics over finished layouts.
//
// All metrics are pure, read-only analyses of a scope's flat graph:
// nothing here mutates positions or depends on how the layout was
// produced. The metrics cover edge bends, edge length statistics,
// orthogonality, node density, symmetry, force-based tension and edge
// bundling distance, and exist to compare layout algorithms and settings
// against each other.
//
// A [StatsCollector] accumulates metric columns across repeated
// evaluations (one row per re-layout run) for CSV export.
package eval
