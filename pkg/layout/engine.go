package layout

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodegraph/pkg/errors"
	"github.com/matzehuels/nodegraph/pkg/layout/block"
	"github.com/matzehuels/nodegraph/pkg/layout/chain"
	"github.com/matzehuels/nodegraph/pkg/layout/coords"
	"github.com/matzehuels/nodegraph/pkg/layout/datagraph"
	"github.com/matzehuels/nodegraph/pkg/layout/designate"
	"github.com/matzehuels/nodegraph/pkg/layout/params"
	"github.com/matzehuels/nodegraph/pkg/model"
	"github.com/matzehuels/nodegraph/pkg/observability"
)

// Engine runs layout passes. An Engine holds no per-pass state and may be
// reused; passes over the same graph must not run concurrently.
type Engine struct {
	Params params.Params
	Height params.HeightFunc
	Logger *log.Logger
}

// New returns an engine with the default height estimator.
// A nil logger discards output.
func New(p params.Params, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Engine{
		Params: p,
		Height: params.EstimateHeight,
		Logger: logger,
	}
}

// Layout positions every node of g and replaces g.BasicBlocks.
func (e *Engine) Layout(ctx context.Context, g *model.Graph) (res *Result, err error) {
	start := time.Now()
	hooks := observability.Layout()
	defer func() {
		hooks.OnLayoutComplete(ctx, time.Since(start), err)
	}()

	if err := e.Params.Validate(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "invalid block partition")
	}
	g.ResetLayout()

	height := e.Height
	if height == nil {
		height = params.EstimateHeight
	}

	if len(g.FlowNodeIDs()) == 0 {
		res = e.layoutDataOnly(ctx, g, height)
	} else {
		res, err = e.layoutBlocks(ctx, g, height)
		if err != nil {
			return nil, err
		}
	}

	if err := verifyPositions(g); err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)
	e.Logger.Debug("layout complete", "nodes", g.NodeCount(), "blocks", len(g.BasicBlocks), "duration", res.Duration)
	return res, nil
}

func (e *Engine) layoutDataOnly(ctx context.Context, g *model.Graph, height params.HeightFunc) *Result {
	comps := datagraph.Layout(g, e.Params, height)
	observability.Layout().OnLayoutStart(ctx, g.NodeCount(), len(comps))

	res := &Result{Components: comps, Debug: make(map[string]string)}
	for ci, c := range comps {
		for li, layer := range c.Layers {
			for _, id := range layer {
				res.Debug[id] = fmt.Sprintf("component %d, layer %d", ci, li)
			}
		}
		observability.Layout().OnBlockPlaced(ctx, ci, 0, len(c.Nodes))
	}
	return res
}

func (e *Engine) layoutBlocks(ctx context.Context, g *model.Graph, height params.HeightFunc) (*Result, error) {
	specs := ResolveBlocks(g)
	observability.Layout().OnLayoutStart(ctx, g.NodeCount(), len(specs))

	flows := make([][]string, len(specs))
	for i, s := range specs {
		flows[i] = s.FlowNodeIDs
	}
	assignment := designate.Assign(g, flows)
	enum := chain.NewEnumerator(g)

	res := &Result{Debug: make(map[string]string)}
	left := e.Params.InitialX
	for bi, spec := range specs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bctx := block.NewContext(g, bi, spec)
		bctx.Designated = assignment.Designated(bi)
		bctx.Skip = assignment.Skip(bi)
		bctx.NominalHeight = e.Params.NodeHeight
		bctx.Height = func(id string) float64 { return height(g, id) }

		infos := enum.Enumerate(bctx.FlowIDs, bctx.Skip.Has)
		bctx.Chains = chain.NewIndex(infos)

		if err := block.NewPlacer(bctx, e.Logger).PlaceAll(infos); err != nil {
			return nil, errors.Wrap(errors.ErrCodeUnplacedNode, err, "block %d", bi)
		}
		rows := bctx.ApplyChainBasedStackOrder()

		flowCols := coords.FlowColumns(bctx)
		dataCols := coords.DataColumns(bctx, flowCols)
		cols := make(map[string]int, len(flowCols)+len(dataCols))
		for id, c := range flowCols {
			cols[id] = c
		}
		for id, c := range dataCols {
			cols[id] = c
		}
		coords.Normalize(cols)

		bb := e.place(bctx, cols, left, height)
		g.BasicBlocks = append(g.BasicBlocks, bb)
		left += bb.Width + e.Params.BlockXSpacing

		res.Blocks = append(res.Blocks, BlockResult{
			Index:          bi,
			FlowNodeIDs:    bctx.FlowIDs,
			DataNodeIDs:    rows,
			Columns:        cols,
			StackOrder:     bctx.StackOrder,
			LayersOccupied: bctx.LayersOccupied,
			Chains:         infos,
		})
		explain(res.Debug, bctx, cols, dataCols)

		observability.Layout().OnBlockPlaced(ctx, bi, len(bctx.FlowIDs), len(rows))
		e.Logger.Debug("placed block",
			"block", bi,
			"flows", len(bctx.FlowIDs),
			"data", len(rows),
			"chains", len(infos),
			"rows", bctx.Rows())
	}
	e.stackSequences(g)
	return res, nil
}

// ResolveBlocks returns the blocks of one pass: g.Blocks in order, then one
// trailing block with every flow node no block lists. A graph without block
// specs yields a single block holding all flow nodes.
func ResolveBlocks(g *model.Graph) []model.BlockSpec {
	specs := make([]model.BlockSpec, 0, len(g.Blocks)+1)
	listed := make(model.IDSet)
	for _, b := range g.Blocks {
		specs = append(specs, b)
		for _, id := range b.FlowNodeIDs {
			listed.Add(id)
		}
	}
	var rest []string
	for _, id := range g.FlowNodeIDs() {
		if !listed.Has(id) {
			rest = append(rest, id)
		}
	}
	if len(rest) > 0 || len(specs) == 0 {
		specs = append(specs, model.BlockSpec{FlowNodeIDs: rest})
	}
	return specs
}

// place converts columns and row slots of one block to canvas positions and
// returns the block's bounding box.
func (e *Engine) place(bctx *block.Context, cols map[string]int, left float64, height params.HeightFunc) model.BasicBlock {
	p := e.Params
	g := bctx.Graph
	pad := p.BlockPadding
	slot := p.SlotWidth()
	top := p.InitialY

	flowBand := 0.0
	for _, id := range bctx.FlowIDs {
		flowBand = max(flowBand, height(g, id))
	}
	rowPitch := p.NodeHeight + p.DataStackGap

	maxCol := 0
	for _, c := range cols {
		maxCol = max(maxCol, c)
	}

	for _, id := range bctx.FlowIDs {
		setPos(g, id, left+pad+float64(cols[id])*slot, top+pad)
	}
	// Row slots give the order within a column; a node taller than its slots
	// pushes everything below it down.
	order := slices.Clone(bctx.DataNodesInOrder)
	slices.SortStableFunc(order, func(a, b string) int {
		return cmp.Compare(bctx.StackOrder[a], bctx.StackOrder[b])
	})
	dataTop := top + pad + flowBand + p.FlowToDataGap
	bottom := top + pad + flowBand
	colBottom := make(map[int]float64)
	for _, id := range order {
		col := cols[id]
		y := dataTop + float64(bctx.StackOrder[id])*rowPitch
		if b, ok := colBottom[col]; ok {
			y = max(y, b+p.DataStackGap)
		}
		setPos(g, id, left+pad+float64(col)*slot, y)
		colBottom[col] = y + height(g, id)
		bottom = max(bottom, colBottom[col])
	}

	return model.BasicBlock{
		Index:       bctx.Index,
		Color:       p.Color(bctx.Index),
		FlowNodeIDs: append([]string(nil), bctx.FlowIDs...),
		DataNodeIDs: append([]string(nil), bctx.DataNodesInOrder...),
		X:           left,
		Y:           top,
		Width:       float64(maxCol+1)*slot + 2*pad,
		Height:      bottom - top + pad,
	}
}

// stackSequences arranges blocks into sequences: blocks joined by a data edge
// share a row, left to right in block order, and unconnected sequences stack
// below each other BlockYSpacing apart.
func (e *Engine) stackSequences(g *model.Graph) {
	blocks := g.BasicBlocks
	owner := make(map[string]int)
	for i, b := range blocks {
		for _, id := range b.FlowNodeIDs {
			owner[id] = i
		}
		for _, id := range b.DataNodeIDs {
			owner[id] = i
		}
	}

	parent := make([]int, len(blocks))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for _, edge := range g.Edges() {
		a, okA := owner[edge.From]
		b, okB := owner[edge.To]
		if !okA || !okB {
			continue
		}
		// The lowest block index is the root, so sequences keep block order.
		if ra, rb := find(a), find(b); ra != rb {
			parent[max(ra, rb)] = min(ra, rb)
		}
	}

	p := e.Params
	top := p.InitialY
	for root := range blocks {
		if find(root) != root {
			continue
		}
		left, bottom := p.InitialX, top
		for i := range blocks {
			if find(i) != root {
				continue
			}
			b := &blocks[i]
			shiftBlock(g, b, left-b.X, top-b.Y)
			left += b.Width + p.BlockXSpacing
			bottom = max(bottom, b.Y+b.Height)
		}
		top = bottom + p.BlockYSpacing
	}
}

func shiftBlock(g *model.Graph, b *model.BasicBlock, dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	for _, ids := range [][]string{b.FlowNodeIDs, b.DataNodeIDs} {
		for _, id := range ids {
			if n, ok := g.Node(id); ok && n.Pos != nil {
				n.Pos.X += dx
				n.Pos.Y += dy
			}
		}
	}
	b.X += dx
	b.Y += dy
}

func setPos(g *model.Graph, id string, x, y float64) {
	if n, ok := g.Node(id); ok {
		n.Pos = &model.Point{X: x, Y: y}
	}
}

func verifyPositions(g *model.Graph) error {
	for _, n := range g.Nodes() {
		if n.Pos == nil {
			return errors.New(errors.ErrCodeUnplacedNode, "node %s has no position", n.ID).WithNode(n.ID)
		}
	}
	return nil
}
