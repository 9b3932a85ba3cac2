// Package coords assigns integer columns to the nodes of one block.
//
// Flow nodes are leveled along their sequence, honoring required gaps. Chained
// data nodes sit left of their consumers: the node at position p of a chain
// into a flow node at column c wants column c-(p+1), and the leftmost wish
// over all its chains wins. Data nodes without a chain are leveled among
// themselves to the right of the last flow column.
package coords

import (
	"github.com/matzehuels/nodegraph/pkg/layout/block"
	"github.com/matzehuels/nodegraph/pkg/layout/chain"
	"github.com/matzehuels/nodegraph/pkg/layout/leveling"
)

// =============================================================================
// Flow Columns
// =============================================================================

// FlowColumns levels the block's flow nodes. Consecutive flow nodes are one
// column apart; a required gap forces at least its column count. Back edges
// introduced by gaps against the flow sequence are dropped.
func FlowColumns(ctx *block.Context) map[string]int {
	ids := ctx.FlowIDs
	order := make(map[string]int, len(ids))
	for i, id := range ids {
		order[id] = i
	}

	weights := make(map[block.Pair]int)
	link := func(from, to string, w int) {
		if from == to {
			return
		}
		if _, ok := order[from]; !ok {
			return
		}
		if _, ok := order[to]; !ok {
			return
		}
		key := block.Pair{From: from, To: to}
		if w > weights[key] {
			weights[key] = w
		}
	}
	for i := 1; i < len(ids); i++ {
		link(ids[i-1], ids[i], 1)
	}
	for pair, cols := range ctx.RequiredGaps {
		link(pair.From, pair.To, max(1, cols))
	}

	children, parents := adjacency(ids, func(id string) []string {
		var out []string
		for _, other := range ids {
			if _, ok := weights[block.Pair{From: id, To: other}]; ok {
				out = append(out, other)
			}
		}
		return out
	})

	return leveling.Resolve(ids, children, parents,
		func(p, c string) int { return weights[block.Pair{From: p, To: c}] },
		func(id string) int { return order[id] },
	)
}

// =============================================================================
// Data Columns
// =============================================================================

// DataColumns assigns columns to the block's placed data nodes given the flow
// columns of the same block.
func DataColumns(ctx *block.Context, flowCols map[string]int) map[string]int {
	cols := make(map[string]int, len(ctx.DataNodesInOrder))
	var loose []string
	for _, id := range ctx.DataNodesInOrder {
		if col, ok := chainedColumn(ctx.Chains, id, flowCols); ok {
			cols[id] = col
			continue
		}
		loose = append(loose, id)
	}
	if len(loose) == 0 {
		return cols
	}

	offset := 0
	if len(flowCols) > 0 {
		hi := 0
		for _, c := range flowCols {
			hi = max(hi, c)
		}
		offset = hi + 1
	}

	order := make(map[string]int, len(loose))
	for i, id := range loose {
		order[id] = i
	}
	children, parents := adjacency(loose, func(id string) []string {
		var out []string
		for _, e := range ctx.Graph.DataOut(id) {
			if _, ok := order[e.To]; ok {
				out = append(out, e.To)
			}
		}
		return out
	})
	levels := leveling.Resolve(loose, children, parents,
		func(string, string) int { return 1 },
		func(id string) int { return order[id] },
	)
	for _, id := range loose {
		cols[id] = offset + levels[id]
	}
	return cols
}

func chainedColumn(idx *chain.Index, id string, flowCols map[string]int) (int, bool) {
	best, found := 0, false
	for _, cid := range idx.IDsByNode[id] {
		fc, ok := flowCols[idx.Target[cid]]
		if !ok {
			continue
		}
		col := fc - (idx.Position[chain.Membership{Node: id, ChainID: cid}] + 1)
		if !found || col < best {
			best, found = col, true
		}
	}
	return best, found
}

// =============================================================================
// Helpers
// =============================================================================

// adjacency materializes children over ids, removes back edges and returns
// matching children and parents functions.
func adjacency(ids []string, next func(string) []string) (children, parents func(string) []string) {
	succ := make(map[string][]string, len(ids))
	for _, id := range ids {
		succ[id] = next(id)
	}
	raw := func(id string) []string { return succ[id] }
	back := leveling.BreakCycles(ids, raw)
	children = leveling.Without(raw, back)

	pred := make(map[string][]string, len(ids))
	for _, id := range ids {
		for _, c := range succ[id] {
			pred[c] = append(pred[c], id)
		}
	}
	parents = leveling.Without(func(id string) []string { return pred[id] }, leveling.Reverse(back))
	return children, parents
}

// Normalize shifts cols so the smallest column is 0.
func Normalize(cols map[string]int) {
	if len(cols) == 0 {
		return
	}
	lo := 0
	first := true
	for _, c := range cols {
		if first || c < lo {
			lo, first = c, false
		}
	}
	for id := range cols {
		cols[id] -= lo
	}
}
