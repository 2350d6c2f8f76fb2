package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/flow"
)

// ToDOT exports the document structure in Graphviz DOT format. Control
// flow becomes nested clusters, dataflow nodes keep their kind as a
// shape. Computed positions are deliberately omitted so the output stays
// a structural view.
func ToDOT(doc *flow.Graph) string {
	var buf bytes.Buffer
	name := doc.Name
	if name == "" {
		name = "G"
	}
	fmt.Fprintf(&buf, "digraph %q {\n", name)
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [fontsize=11, margin=\"0.1,0.05\"];\n\n")

	w := dotWriter{buf: &buf}
	w.region(doc.Root, "r")

	buf.WriteString("}\n")
	return buf.String()
}

type dotWriter struct {
	buf *bytes.Buffer
}

func (w *dotWriter) region(r *flow.Region, prefix string) {
	if r == nil {
		return
	}
	for _, b := range r.Blocks {
		w.block(b, fmt.Sprintf("%s_b%d", prefix, b.ID))
	}
	for _, t := range r.Edges {
		src := fmt.Sprintf("%s_b%d", prefix, t.Src)
		dst := fmt.Sprintf("%s_b%d", prefix, t.Dst)
		if t.Label != "" {
			fmt.Fprintf(w.buf, "  %q -> %q [label=%q, style=dashed];\n", src+"_anchor", dst+"_anchor", t.Label)
		} else {
			fmt.Fprintf(w.buf, "  %q -> %q [style=dashed];\n", src+"_anchor", dst+"_anchor")
		}
	}
}

func (w *dotWriter) block(b *flow.Block, id string) {
	fmt.Fprintf(w.buf, "  subgraph \"cluster_%s\" {\n", id)
	fmt.Fprintf(w.buf, "    label=%q;\n", b.Label)
	// Invisible anchor so transitions can target the cluster.
	fmt.Fprintf(w.buf, "    %q [shape=point, style=invis];\n", id+"_anchor")

	if !b.Collapsed {
		switch b.Kind {
		case flow.BlockState:
			if b.State != nil {
				w.state(b.State, id)
			}
		case flow.BlockRegion, flow.BlockLoop:
			if b.Body != nil {
				w.region(b.Body, id)
			}
		case flow.BlockConditional:
			for i, br := range b.Branches {
				if br.Body != nil {
					w.region(br.Body, fmt.Sprintf("%s_br%d", id, i))
				}
			}
		}
	}
	w.buf.WriteString("  }\n")
}

func (w *dotWriter) state(s *flow.State, prefix string) {
	for _, n := range s.Nodes {
		nid := fmt.Sprintf("%s_n%d", prefix, n.ID)
		fmt.Fprintf(w.buf, "    %q [label=%q, shape=%s];\n", nid, n.Label, nodeShape(n.Kind))
		if n.Kind == flow.NodeNested && n.Nested != nil && !n.Collapsed {
			fmt.Fprintf(w.buf, "  subgraph \"cluster_%s\" {\n", nid)
			w.region(n.Nested, nid)
			w.buf.WriteString("  }\n")
		}
	}
	for _, e := range s.Edges {
		src := fmt.Sprintf("%s_n%d", prefix, e.Src)
		dst := fmt.Sprintf("%s_n%d", prefix, e.Dst)
		attrs := ""
		if e.Data != "" {
			attrs = fmt.Sprintf(" [label=%q]", e.Data)
		}
		fmt.Fprintf(w.buf, "    %q -> %q%s;\n", src, dst, attrs)
	}
}

func nodeShape(k flow.NodeKind) string {
	switch k {
	case flow.NodeAccess:
		return "ellipse"
	case flow.NodeScopeEntry, flow.NodeScopeExit:
		return "trapezium"
	case flow.NodeReduce:
		return "invtriangle"
	case flow.NodeNested:
		return "box3d"
	case flow.NodeLibrary:
		return "folder"
	default:
		return "box"
	}
}

// PNG rasterizes the DOT export through Graphviz.
func PNG(doc *flow.Graph) ([]byte, error) {
	if doc == nil || doc.Root == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil document")
	}
	return renderDOT(ToDOT(doc), graphviz.PNG)
}

func renderDOT(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render DOT")
	}
	return buf.Bytes(), nil
}
