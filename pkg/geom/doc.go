// Package geom provides the 2D geometric primitives used by layout and
// evaluation: point/line/segment distances, segment intersection, and
// bounding-box computation over laid-out graphs.
//
// All functions are total: degenerate inputs (zero-length segments,
// coincident points, parallel or colinear lines) are handled by explicit
// branches and never produce NaN or Inf. Near-zero comparisons use a
// shared tolerance of 1e-9.
package geom
