package block

import (
	"cmp"
	"math"
	"slices"
)

// ApplyChainBasedStackOrder reassigns row slots for the placed data nodes.
//
// Nodes sort by smallest chain ID, chainless nodes last, discovery order
// breaking ties. Slots are handed out top to bottom: a node with two or more
// outgoing data edges starts one row lower to leave room for its branching
// wires, and a node taller than the nominal height occupies two rows.
// It returns the nodes in row order.
func (c *Context) ApplyChainBasedStackOrder() []string {
	discovery := make(map[string]int, len(c.DataNodesInOrder))
	for i, id := range c.DataNodesInOrder {
		discovery[id] = i
	}

	type key struct {
		unchained int
		chain     int
		order     int
	}
	keyOf := func(id string) key {
		if lo, ok := c.Chains.MinID(id); ok {
			return key{0, lo, discovery[id]}
		}
		return key{1, math.MaxInt, discovery[id]}
	}

	ordered := slices.Clone(c.DataNodesInOrder)
	slices.SortStableFunc(ordered, func(a, b string) int {
		ka, kb := keyOf(a), keyOf(b)
		return cmp.Or(
			cmp.Compare(ka.unchained, kb.unchained),
			cmp.Compare(ka.chain, kb.chain),
			cmp.Compare(ka.order, kb.order),
		)
	})

	cursor := 0
	for _, id := range ordered {
		start := cursor
		if c.Graph.OutDegree(id) >= 2 {
			start++
		}
		occupied := 1
		if c.height(id) > c.NominalHeight {
			occupied = 2
		}
		c.StackOrder[id] = start
		c.LayersOccupied[id] = occupied
		cursor = start + occupied
	}
	return ordered
}

// Rows returns the total number of row slots used by the block's data nodes.
func (c *Context) Rows() int {
	rows := 0
	for id, slot := range c.StackOrder {
		rows = max(rows, slot+max(1, c.LayersOccupied[id]))
	}
	return rows
}
