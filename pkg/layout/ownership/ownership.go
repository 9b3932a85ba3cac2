// Package ownership decides whether a data node belongs to a block.
//
// A data node may be consumed by flow nodes of several blocks. The resolver is
// a pure decision function: given a node and the node set a block has built
// so far, it returns a [Decision] with a [Reason] code, so placement code never
// branches on bare booleans and every rejection can be logged.
package ownership

import (
	"fmt"

	"github.com/matzehuels/nodegraph/pkg/model"
)

// Reason explains an ownership decision.
type Reason int

const (
	// SkipBoundaryNode: the node is owned by a preceding block.
	SkipBoundaryNode Reason = iota
	// NotPureDataNode: only pure data nodes are ever placed.
	NotPureDataNode
	// ConsumedByFlowNode: an outgoing edge reaches a flow node of the block.
	ConsumedByFlowNode
	// ConsumedByPlacedDataNode: an outgoing edge reaches a data node already in the block.
	ConsumedByPlacedDataNode
	// OrphanWithSourceInBlock: no consumers, but a producer is in the block.
	OrphanWithSourceInBlock
	// NotConsumedByBlock: nothing ties the node to the block.
	NotConsumedByBlock
)

var reasonNames = [...]string{
	SkipBoundaryNode:         "SKIP_BOUNDARY_NODE",
	NotPureDataNode:          "NOT_PURE_DATA_NODE",
	ConsumedByFlowNode:       "CONSUMED_BY_FLOW_NODE",
	ConsumedByPlacedDataNode: "CONSUMED_BY_PLACED_DATA_NODE",
	OrphanWithSourceInBlock:  "ORPHAN_WITH_SOURCE_IN_BLOCK",
	NotConsumedByBlock:       "NOT_CONSUMED_BY_BLOCK",
}

func (r Reason) String() string {
	if r >= 0 && int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// Decision is the resolver's verdict for one node and one block.
type Decision struct {
	ShouldPlace bool
	Reason      Reason
	Detail      string
}

// Topology is the read-only graph view the resolver needs.
type Topology interface {
	IsPureData(id string) bool
	DataOut(id string) []model.Edge
	DataIn(id string) []model.Edge
}

// Resolver applies the ownership rules for one block.
type Resolver struct {
	topo Topology
	flow model.IDSet
	skip model.IDSet
}

// NewResolver returns a resolver for a block whose flow nodes are flow and
// whose boundary (owned elsewhere) data nodes are skip.
func NewResolver(topo Topology, flow, skip model.IDSet) *Resolver {
	return &Resolver{topo: topo, flow: flow, skip: skip}
}

// Resolve decides whether id belongs to the block whose current node set is
// blockNodes. Rules apply in order:
//
//  1. boundary nodes are skipped
//  2. non-data nodes are rejected
//  3. a consumer in the block claims the node; flow consumers take precedence
//  4. a node without consumers is claimed by a producer in the block
//  5. otherwise the node is not placed
//
// A node that has consumers, none of them in the block, is never claimed
// through its producers.
func (r *Resolver) Resolve(id string, blockNodes model.IDSet) Decision {
	if r.skip.Has(id) {
		return Decision{Reason: SkipBoundaryNode, Detail: "owned by a preceding block"}
	}
	if !r.topo.IsPureData(id) {
		return Decision{Reason: NotPureDataNode, Detail: "not a pure data node"}
	}

	out := r.topo.DataOut(id)
	if len(out) > 0 {
		for _, e := range out {
			if blockNodes.Has(e.To) && r.flow.Has(e.To) {
				return Decision{
					ShouldPlace: true,
					Reason:      ConsumedByFlowNode,
					Detail:      fmt.Sprintf("consumed by flow node %s", e.To),
				}
			}
		}
		for _, e := range out {
			if blockNodes.Has(e.To) && !r.flow.Has(e.To) {
				return Decision{
					ShouldPlace: true,
					Reason:      ConsumedByPlacedDataNode,
					Detail:      fmt.Sprintf("consumed by placed data node %s", e.To),
				}
			}
		}
		return Decision{Reason: NotConsumedByBlock, Detail: "no consumer in block"}
	}

	in := r.topo.DataIn(id)
	for _, e := range in {
		if blockNodes.Has(e.From) {
			return Decision{
				ShouldPlace: true,
				Reason:      OrphanWithSourceInBlock,
				Detail:      fmt.Sprintf("no consumer; source %s is in block", e.From),
			}
		}
	}
	if len(in) == 0 {
		return Decision{Reason: NotConsumedByBlock, Detail: "neither incoming nor outgoing edge"}
	}
	return Decision{Reason: NotConsumedByBlock, Detail: "no consumer and no source in block"}
}
