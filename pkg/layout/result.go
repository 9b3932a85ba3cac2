package layout

import (
	"fmt"
	"time"

	"github.com/matzehuels/nodegraph/pkg/layout/block"
	"github.com/matzehuels/nodegraph/pkg/layout/chain"
	"github.com/matzehuels/nodegraph/pkg/layout/datagraph"
)

// Result describes how a pass arrived at the positions it wrote to the graph.
type Result struct {
	// Blocks is set for graphs with flow nodes, one entry per block.
	Blocks []BlockResult

	// Components is set for graphs without flow nodes.
	Components []datagraph.Component

	// Debug explains the column (and row) choice per node.
	Debug map[string]string

	Duration time.Duration
}

// BlockResult is the integer layout of one block.
type BlockResult struct {
	Index       int
	FlowNodeIDs []string
	// DataNodeIDs is in row order.
	DataNodeIDs []string

	// Columns are normalized so the leftmost node is in column 0.
	Columns        map[string]int
	StackOrder     map[string]int
	LayersOccupied map[string]int
	Chains         []chain.Info
}

// explain records per-node debug text for one block. dataCols holds the
// pre-normalization data columns so chain arithmetic reads naturally.
func explain(debug map[string]string, bctx *block.Context, cols, dataCols map[string]int) {
	for i, id := range bctx.FlowIDs {
		debug[id] = fmt.Sprintf("block %d: flow #%d, column %d", bctx.Index, i, cols[id])
	}
	for _, id := range bctx.DataNodesInOrder {
		row := fmt.Sprintf("row %d+%d", bctx.StackOrder[id], bctx.LayersOccupied[id])
		cid, ok := bctx.Chains.MinID(id)
		if !ok {
			debug[id] = fmt.Sprintf("block %d: unchained, column %d, %s", bctx.Index, cols[id], row)
			continue
		}
		pos := bctx.Chains.Position[chain.Membership{Node: id, ChainID: cid}]
		debug[id] = fmt.Sprintf("block %d: chain %d pos %d into %s (raw %d), column %d, %s",
			bctx.Index, cid, pos, bctx.Chains.Target[cid], dataCols[id], cols[id], row)
	}
}
