// Package render turns laid-out dataflow documents into viewable
// artifacts.
//
// Rendering is strictly downstream of layout: every position it draws
// was computed by [pkg/layout] and is taken as-is. Three formats are
// supported:
//
//   - SVG: a direct geometric drawing of the computed layout. Blocks and
//     nodes become shapes at their stored positions, edges become
//     polylines through their stored points.
//   - DOT: a structural export of the document for inspection with
//     external Graphviz tooling. Positions are not included; DOT is for
//     looking at the graph, not the layout.
//   - PNG: the DOT export rasterized through Graphviz.
//
//	svg, err := render.SVG(doc)
//	dot := render.ToDOT(doc)
//	png, err := render.PNG(doc)
//
// [pkg/layout]: github.com/matzehuels/flowscope/pkg/layout
package render
