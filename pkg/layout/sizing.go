package layout

import (
	"fmt"

	"github.com/matzehuels/flowscope/pkg/flow"
	"github.com/matzehuels/flowscope/pkg/geom"
)

// labelWidth approximates rendered text width. Text measurement is owned
// by the drawing surface; a character-width constant is close enough for
// sizing.
func labelWidth(label string) float64 {
	return float64(len(label)) * CharWidth
}

// connectorMinWidth is the minimum node width needed to fit count
// connectors on the ConnectorPitch grid.
func connectorMinWidth(count int) float64 {
	if count == 0 {
		return 0
	}
	return 2*RowHeight*float64(count) - RowHeight
}

// nodeSize computes the extent of a dataflow node that is drawn as a
// leaf: either genuinely a leaf kind, or a collapsed element whose
// children are never laid out. The kind switch is exhaustive over the
// known node kinds; anything else aborts the pass.
func nodeSize(n *flow.Node) (w, h float64, err error) {
	w = max(labelWidth(n.Label)+RowHeight,
		connectorMinWidth(len(n.InConnectors)),
		connectorMinWidth(len(n.OutConnectors)))
	h = 6 * RowHeight

	switch n.Kind {
	case flow.NodeTasklet, flow.NodeLibrary, flow.NodeNested:
		// Boxed shapes keep the base extent.
	case flow.NodeAccess:
		// Circular: square off by trading height for width.
		mid := (w + h) / 2
		w, h = mid, mid
	case flow.NodeScopeEntry, flow.NodeScopeExit:
		// Hexagonal: wider, flatter.
		w *= 1.75
		h /= 1.75
	case flow.NodeReduce:
		// Triangular: width doubles, height follows the aspect.
		w *= 2
		h = w / 3
	default:
		return 0, 0, fmt.Errorf("size node %d: %w: %v", n.ID, flow.ErrUnknownKind, n.Kind)
	}
	return w, h, nil
}

// collapsedBlockSize computes the summary extent of a collapsed
// control-flow block from its labels alone.
func collapsedBlockSize(b *flow.Block) (w, h float64, err error) {
	w = labelWidth(b.Label) + 2*RowHeight
	h = 3 * RowHeight

	switch b.Kind {
	case flow.BlockState, flow.BlockRegion:
		// Label box only.
	case flow.BlockConditional:
		for _, br := range b.Branches {
			w += labelWidth(br.Condition) + BranchSpacing
		}
	case flow.BlockLoop:
		for _, clause := range []string{b.Init, b.Condition, b.Update} {
			if clause == "" {
				continue
			}
			w = max(w, labelWidth(clause)+2*RowHeight)
			h += ClauseHeight
		}
	default:
		return 0, 0, fmt.Errorf("size block %d: %w: %v", b.ID, flow.ErrUnknownKind, b.Kind)
	}
	return w, h, nil
}

// expandedBlockSize derives a block's extent from its recursively
// computed child bounds plus the scope margin, with loop clause rows
// added on top.
func expandedBlockSize(b *flow.Block, child geom.Rect) (w, h float64) {
	w = child.Width + 2*ScopeMargin
	h = child.Height + 2*ScopeMargin
	w = max(w, labelWidth(b.Label)+2*RowHeight)

	if b.Kind == flow.BlockLoop {
		for _, clause := range []string{b.Init, b.Condition, b.Update} {
			if clause != "" {
				h += ClauseHeight
			}
		}
	}
	return w, h
}

// clauseOffset is the extra vertical offset of a loop body below the
// block's top edge, making room for the clause labels.
func clauseOffset(b *flow.Block) float64 {
	if b.Kind != flow.BlockLoop {
		return 0
	}
	off := 0.0
	for _, clause := range []string{b.Init, b.Condition, b.Update} {
		if clause != "" {
			off += ClauseHeight
		}
	}
	return off
}
