// Package block places the data nodes of one block and assigns their row slots.
//
// All state of one block's placement lives in a [Context] that the engine
// creates per block and passes to every stage: the placer fills the ordered
// data node list and stack order, and the coordinate assigner reads them.
package block

import (
	"github.com/matzehuels/nodegraph/pkg/layout/chain"
	"github.com/matzehuels/nodegraph/pkg/model"
)

// Pair is an ordered pair of flow node IDs.
type Pair struct {
	From, To string
}

// Context is the layout state of one block for one pass.
type Context struct {
	Graph *model.Graph
	Index int

	// FlowIDs is the block's flow sequence in appearance order.
	FlowIDs []string
	Flow    model.IDSet

	// Skip holds data nodes owned by other blocks.
	Skip model.IDSet
	// Designated holds data nodes the designation phase assigned to this block.
	Designated model.IDSet

	Chains *chain.Index

	// Placed and DataNodesInOrder are filled by the placer. StackOrder holds
	// discovery order after placement and row slots after ApplyChainBasedStackOrder.
	Placed           model.IDSet
	DataNodesInOrder []string
	StackOrder       map[string]int
	LayersOccupied   map[string]int

	// RequiredGaps is the minimum column distance between flow node pairs.
	RequiredGaps map[Pair]int

	// NominalHeight is the single-row node height; taller nodes take two rows.
	NominalHeight float64
	// Height estimates node heights. Nil treats every node as nominal.
	Height func(id string) float64

	members model.IDSet
}

// NewContext returns an empty context for block index of g.
func NewContext(g *model.Graph, index int, spec model.BlockSpec) *Context {
	ctx := &Context{
		Graph:          g,
		Index:          index,
		FlowIDs:        append([]string(nil), spec.FlowNodeIDs...),
		Flow:           model.NewIDSet(spec.FlowNodeIDs...),
		Skip:           make(model.IDSet),
		Designated:     make(model.IDSet),
		Chains:         chain.NewIndex(nil),
		Placed:         make(model.IDSet),
		StackOrder:     make(map[string]int),
		LayersOccupied: make(map[string]int),
		RequiredGaps:   make(map[Pair]int),
		members:        model.NewIDSet(spec.FlowNodeIDs...),
	}
	for _, gap := range spec.RequiredGaps {
		key := Pair{From: gap.From, To: gap.To}
		if gap.Columns > ctx.RequiredGaps[key] {
			ctx.RequiredGaps[key] = gap.Columns
		}
	}
	return ctx
}

// ShouldPlaceDataNode reports whether id is a pure data node designated to
// this block and not owned elsewhere.
func (c *Context) ShouldPlaceDataNode(id string) bool {
	return c.Graph.IsPureData(id) && c.Designated.Has(id) && !c.Skip.Has(id)
}

// BlockNodes returns the block's current node set: flow nodes plus placed
// data nodes. The set is live; callers must not modify it.
func (c *Context) BlockNodes() model.IDSet { return c.members }

func (c *Context) place(id string) {
	c.StackOrder[id] = c.Placed.Len()
	c.Placed.Add(id)
	c.members.Add(id)
	c.DataNodesInOrder = append(c.DataNodesInOrder, id)
}

func (c *Context) height(id string) float64 {
	if c.Height == nil {
		return c.NominalHeight
	}
	return c.Height(id)
}
