// Package layout computes 2D geometry for hierarchical dataflow graphs.
//
// The entry point is [Engine.Layout], which walks the nesting hierarchy
// bottom-up: leaf scopes are sized first, each scope is flattened into a
// [FlatGraph] and handed to a [Placer] (the placement primitive is a
// black box), and finished child layouts are rigidly offset into their
// parent's coordinate frame. Connector positions, hidden-node shortcut
// edges and final edge geometry are computed here as well.
//
// A layout pass mutates the graph's layout annotations in place and is
// idempotent: repeating a pass on an unchanged graph with unchanged
// settings reproduces identical geometry. Passes on the same graph must
// be serialized by the caller.
package layout
