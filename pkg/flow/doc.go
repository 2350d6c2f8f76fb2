// Package flow defines the hierarchical dataflow graph model.
//
// A graph is a tree of nested scopes: a control-flow region contains
// blocks (states, conditional blocks, loop regions, nested regions),
// states contain dataflow nodes and edges, and some dataflow nodes own a
// further nested region. Collapsible elements carry a collapsed flag;
// a collapsed element's children never participate in layout.
//
// Geometry computed by the layout packages is written back onto the model
// in place (node centers and extents, edge polylines, connector
// positions). Serialization round-trips unknown attributes so that layout
// annotation is additive, never destructive.
package flow
