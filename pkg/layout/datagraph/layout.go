package datagraph

import (
	"github.com/matzehuels/nodegraph/pkg/layout/params"
	"github.com/matzehuels/nodegraph/pkg/model"
)

// Layout positions every node of a flow-free graph and replaces
// g.BasicBlocks with one block per component. height estimates node heights;
// nil uses [params.EstimateHeight].
func Layout(g *model.Graph, p params.Params, height params.HeightFunc) []Component {
	if height == nil {
		height = params.EstimateHeight
	}
	comps := Components(g)
	slot := p.SlotWidth()
	left := p.InitialX

	g.BasicBlocks = nil
	for i, c := range comps {
		layers := c.Layers
		if len(layers) == 0 {
			layers = [][]string{nil}
		}

		tallest := 0.0
		for li, layer := range layers {
			x := left + p.BlockPadding + float64(li)*slot
			y := p.BlockPadding
			for _, id := range layer {
				n, ok := g.Node(id)
				if !ok {
					continue
				}
				n.Pos = &model.Point{X: x, Y: p.InitialY + y}
				y += height(g, id) + p.ComponentNodeGap
			}
			tallest = max(tallest, y)
		}

		width := float64(len(layers))*slot + 2*p.BlockPadding
		g.BasicBlocks = append(g.BasicBlocks, model.BasicBlock{
			Index:       i,
			Color:       p.Color(i),
			DataNodeIDs: append([]string(nil), c.Nodes...),
			X:           left,
			Y:           p.InitialY,
			Width:       width,
			Height:      tallest + p.BlockPadding,
		})
		left += width + p.BlockXSpacing
	}
	return comps
}
