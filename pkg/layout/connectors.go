package layout

import (
	"sort"

	"github.com/matzehuels/flowscope/pkg/flow"
)

// positionConnectors computes initial connector geometry for a node with
// known center and extent: connectors are spaced evenly on the
// ConnectorPitch grid, centered under the node, along the top edge for
// inputs and the bottom edge for outputs.
func positionConnectors(n *flow.Node) {
	n.In = placeRow(n, n.InConnectors, flow.In)
	n.Out = placeRow(n, n.OutConnectors, flow.Out)
}

func placeRow(n *flow.Node, names []string, dir flow.Direction) []*flow.Connector {
	if len(names) == 0 {
		return nil
	}
	y := n.Layout.Y - n.Layout.Height/2
	if dir == flow.Out {
		y = n.Layout.Y + n.Layout.Height/2
	}
	span := ConnectorPitch * float64(len(names)-1)
	x := n.Layout.X - span/2

	conns := make([]*flow.Connector, len(names))
	for i, name := range names {
		conns[i] = &flow.Connector{
			Name:   name,
			Dir:    dir,
			X:      x + ConnectorPitch*float64(i),
			Y:      y,
			Width:  ConnectorSize,
			Height: ConnectorSize,
		}
	}
	return conns
}

// reorderInConnectors sorts a node's input connectors by the x-coordinate
// of each connector's edge source and reassigns the existing x slots in
// that order. Straight-ish edges entering a node with many inputs stop
// crossing each other. Must run after the surrounding graph has known
// positions.
func reorderInConnectors(st *flow.State, n *flow.Node) {
	if len(n.In) < 2 {
		return
	}

	slots := make([]float64, len(n.In))
	for i, c := range n.In {
		slots[i] = c.X
	}
	sort.Float64s(slots)

	keys := make(map[string]float64, len(n.In))
	for _, c := range n.In {
		keys[c.Name] = sourceX(st, n, c.Name)
	}

	sort.SliceStable(n.In, func(i, j int) bool {
		return keys[n.In[i].Name] < keys[n.In[j].Name]
	})
	for i, c := range n.In {
		c.X = slots[i]
	}
}

// sourceX resolves the x-coordinate an input connector's edge comes from:
// the matching out-connector of the source node when it has one, the
// source node's own center otherwise. Connectors without an edge keep
// their current position as the key.
func sourceX(st *flow.State, n *flow.Node, connector string) float64 {
	for _, e := range st.Edges {
		if e.Dst != n.ID || e.DstConnector != connector {
			continue
		}
		src := st.Node(e.Src)
		if src == nil {
			break
		}
		if e.SrcConnector != "" {
			if c := src.Connector(flow.Out, e.SrcConnector); c != nil {
				return c.X
			}
		}
		return src.Layout.X
	}
	if c := n.Connector(flow.In, connector); c != nil {
		return c.X
	}
	return n.Layout.X
}

// summarizeEdges marks the edge bundles of connector-heavy nodes so a
// renderer can draw them as a single arrow. A side is summarized when its
// connector count exceeds SummarizeThreshold.
func summarizeEdges(st *flow.State, n *flow.Node) {
	if len(n.InConnectors) > SummarizeThreshold {
		n.Summarized = true
		for _, e := range st.InEdges(n.ID) {
			e.Summarized = true
		}
	}
	if len(n.OutConnectors) > SummarizeThreshold {
		n.Summarized = true
		for _, e := range st.OutEdges(n.ID) {
			e.Summarized = true
		}
	}
}
