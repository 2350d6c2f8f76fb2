package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/flow"
	"github.com/matzehuels/flowscope/pkg/geom"
)

// Margin is the blank border drawn around the document bounds.
const Margin = 10.0

// SVG draws the laid-out document as a standalone SVG image. All
// positions come from the stored layout; nothing is recomputed.
func SVG(doc *flow.Graph) ([]byte, error) {
	if doc == nil || doc.Root == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil document")
	}

	bounds := doc.Root.Bounds()
	w := bounds.Width + 2*Margin
	h := bounds.Height + 2*Margin

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n", w, h, w, h)
	buf.WriteString(`<defs><marker id="arrow" markerWidth="8" markerHeight="8" refX="7" refY="3" orient="auto"><path d="M0,0 L7,3 L0,6 z"/></marker></defs>` + "\n")
	fmt.Fprintf(&buf, `<g transform="translate(%.1f,%.1f)" font-family="monospace" font-size="11">`+"\n", Margin, Margin)

	writeRegion(&buf, doc.Root)

	buf.WriteString("</g>\n</svg>\n")
	return buf.Bytes(), nil
}

func writeRegion(buf *bytes.Buffer, r *flow.Region) {
	for _, t := range r.Edges {
		writePolyline(buf, formatPoints(t.Points), "black", false)
		if t.Label != "" && len(t.Points) > 0 {
			mid := t.Points[len(t.Points)/2]
			fmt.Fprintf(buf, `<text x="%.1f" y="%.1f">%s</text>`+"\n", mid.X+4, mid.Y-4, escape(t.Label))
		}
	}
	for _, b := range r.Blocks {
		writeBlock(buf, b)
	}
}

func writeBlock(buf *bytes.Buffer, b *flow.Block) {
	x, y := b.Layout.X-b.Layout.Width/2, b.Layout.Y-b.Layout.Height/2
	dash := ""
	if b.Kind != flow.BlockState {
		dash = ` stroke-dasharray="6,3"`
	}
	fmt.Fprintf(buf, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="none" stroke="black"%s/>`+"\n",
		x, y, b.Layout.Width, b.Layout.Height, dash)
	if b.Label != "" {
		fmt.Fprintf(buf, `<text x="%.1f" y="%.1f">%s</text>`+"\n", x+4, y+14, escape(b.Label))
	}
	if b.Collapsed {
		return
	}

	switch b.Kind {
	case flow.BlockState:
		if b.State != nil {
			writeState(buf, b.State)
		}
	case flow.BlockRegion, flow.BlockLoop:
		if b.Body != nil {
			writeRegion(buf, b.Body)
		}
	case flow.BlockConditional:
		for _, br := range b.Branches {
			if br.Body != nil {
				writeRegion(buf, br.Body)
			}
		}
	}
}

func writeState(buf *bytes.Buffer, s *flow.State) {
	if s.Collapsed {
		return
	}
	for _, e := range s.Edges {
		// Summarized edges collapse into their bundle arrow and are not
		// drawn individually.
		if e.Summarized || len(e.Points) < 2 {
			continue
		}
		writePolyline(buf, formatPoints(e.Points), "black", e.Shortcut)
	}
	for _, n := range s.Nodes {
		if n.Layout.Width == 0 {
			continue // hidden node
		}
		writeNode(buf, n)
	}
}

func writeNode(buf *bytes.Buffer, n *flow.Node) {
	x, y := n.Layout.X-n.Layout.Width/2, n.Layout.Y-n.Layout.Height/2
	w, h := n.Layout.Width, n.Layout.Height

	switch n.Kind {
	case flow.NodeAccess:
		fmt.Fprintf(buf, `<ellipse cx="%.1f" cy="%.1f" rx="%.1f" ry="%.1f" fill="white" stroke="black"/>`+"\n",
			n.Layout.X, n.Layout.Y, w/2, h/2)
	case flow.NodeScopeEntry:
		// Trapezoid widening downward, the conventional scope-open shape.
		fmt.Fprintf(buf, `<polygon points="%.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f" fill="white" stroke="black"/>`+"\n",
			x+w*0.1, y, x+w*0.9, y, x+w, y+h, x, y+h)
	case flow.NodeScopeExit:
		fmt.Fprintf(buf, `<polygon points="%.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f" fill="white" stroke="black"/>`+"\n",
			x, y, x+w, y, x+w*0.9, y+h, x+w*0.1, y+h)
	case flow.NodeReduce:
		fmt.Fprintf(buf, `<polygon points="%.1f,%.1f %.1f,%.1f %.1f,%.1f" fill="white" stroke="black"/>`+"\n",
			x, y, x+w, y, n.Layout.X, y+h)
	case flow.NodeNested:
		fmt.Fprintf(buf, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="white" stroke="black"/>`+"\n", x, y, w, h)
		fmt.Fprintf(buf, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="none" stroke="black"/>`+"\n", x+3, y+3, w-6, h-6)
		if n.Nested != nil && !n.Collapsed {
			writeRegion(buf, n.Nested)
		}
	default:
		fmt.Fprintf(buf, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="4" fill="white" stroke="black"/>`+"\n", x, y, w, h)
	}

	if n.Label != "" && n.Kind != flow.NodeNested {
		fmt.Fprintf(buf, `<text x="%.1f" y="%.1f" text-anchor="middle">%s</text>`+"\n",
			n.Layout.X, n.Layout.Y+4, escape(n.Label))
	}
	for _, c := range n.In {
		writeConnector(buf, c)
	}
	for _, c := range n.Out {
		writeConnector(buf, c)
	}
}

func writeConnector(buf *bytes.Buffer, c *flow.Connector) {
	fmt.Fprintf(buf, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="lightgrey" stroke="black"/>`+"\n",
		c.X, c.Y, c.Width/2)
}

func writePolyline(buf *bytes.Buffer, points, stroke string, dashed bool) {
	if points == "" {
		return
	}
	dash := ""
	if dashed {
		dash = ` stroke-dasharray="4,2"`
	}
	fmt.Fprintf(buf, `<polyline points="%s" fill="none" stroke="%s" marker-end="url(#arrow)"%s/>`+"\n",
		points, stroke, dash)
}

func formatPoints(pts []geom.Point) string {
	if len(pts) < 2 {
		return ""
	}
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("%.1f,%.1f", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

func escape(s string) string {
	return svgEscaper.Replace(s)
}

var svgEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
