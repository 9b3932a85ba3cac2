// Package report renders human-readable summaries of a layout pass.
package report

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"

	"github.com/matzehuels/nodegraph/pkg/layout"
	"github.com/matzehuels/nodegraph/pkg/model"
)

// WriteTree writes the flow tree of a laid-out graph: each block with its
// flow nodes and columns, the producer chains feeding every input port, and
// the block's data nodes in row order. Flow-free graphs list their components
// by layer instead.
func WriteTree(w io.Writer, g *model.Graph, res *layout.Result) error {
	root := tree.Root(fmt.Sprintf("%d nodes, %d basic blocks", g.NodeCount(), len(g.BasicBlocks)))

	for _, b := range res.Blocks {
		bt := tree.Root(fmt.Sprintf("block %d%s", b.Index, blockColor(g, b.Index)))
		for _, fid := range b.FlowNodeIDs {
			bt.Child(flowTree(g, b, fid))
		}
		if len(b.DataNodeIDs) > 0 {
			dt := tree.Root("data")
			for _, id := range b.DataNodeIDs {
				dt.Child(fmt.Sprintf("%s [col %d, row %d+%d]",
					label(g, id), b.Columns[id], b.StackOrder[id], b.LayersOccupied[id]))
			}
			bt.Child(dt)
		}
		root.Child(bt)
	}

	for i, c := range res.Components {
		ct := tree.Root(fmt.Sprintf("component %d", i))
		for li, layer := range c.Layers {
			ct.Child(fmt.Sprintf("layer %d: %s", li, strings.Join(layer, ", ")))
		}
		root.Child(ct)
	}

	_, err := fmt.Fprintln(w, root.String())
	return err
}

func flowTree(g *model.Graph, b layout.BlockResult, fid string) any {
	head := fmt.Sprintf("%s [col %d]", label(g, fid), b.Columns[fid])

	var ports []string
	byPort := make(map[string][]string)
	for _, c := range b.Chains {
		if c.TargetFlowID != fid {
			continue
		}
		if !slices.Contains(ports, c.TargetPort) {
			ports = append(ports, c.TargetPort)
		}
		byPort[c.TargetPort] = append(byPort[c.TargetPort],
			fmt.Sprintf("chain %d: %s", c.ChainID, strings.Join(c.Nodes, " <- ")))
	}
	if len(ports) == 0 {
		return head
	}

	ft := tree.Root(head)
	for _, port := range ports {
		name := port
		if name == "" {
			name = "(any)"
		}
		pt := tree.Root(name)
		for _, s := range byPort[port] {
			pt.Child(s)
		}
		ft.Child(pt)
	}
	return ft
}

func label(g *model.Graph, id string) string {
	if n, ok := g.Node(id); ok && n.Title != "" && n.Title != id {
		return fmt.Sprintf("%s (%s)", id, n.Title)
	}
	return id
}

func blockColor(g *model.Graph, index int) string {
	for _, b := range g.BasicBlocks {
		if b.Index == index && b.Color != "" {
			return " " + b.Color
		}
	}
	return ""
}
