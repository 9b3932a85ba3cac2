package block

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodegraph/pkg/layout/chain"
	"github.com/matzehuels/nodegraph/pkg/layout/ownership"
)

// ErrUnplacedDataNode is returned by [Placer.PlaceAll] when a designated data
// node ends up without a placement. The node would have no position.
var ErrUnplacedDataNode = errors.New("designated data node was not placed")

// Placer builds a block's ordered, deduplicated data node list.
type Placer struct {
	ctx      *Context
	resolver *ownership.Resolver
	logger   *log.Logger
}

// NewPlacer returns a placer for ctx. A nil logger discards output.
func NewPlacer(ctx *Context, logger *log.Logger) *Placer {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Placer{
		ctx:      ctx,
		resolver: ownership.NewResolver(ctx.Graph, ctx.Flow, ctx.Skip),
		logger:   logger,
	}
}

// PlaceAll places the block's data nodes in four passes:
//
//  1. chain instructions, one per chain ID, furthest producer first
//  2. a downstream sweep from flow nodes and placed nodes, gated by ownership
//  3. every designated node still missing, unconditionally
//  4. a check that no designated node is left unplaced
func (p *Placer) PlaceAll(instructions []chain.Info) error {
	for _, plan := range buildPlans(instructions) {
		p.executePlan(plan)
	}
	p.sweepDownstream()
	p.placeDesignated()
	return p.verify()
}

// buildPlans keeps the first instruction per chain ID. A chain without nodes
// falls back to its start node; one without either is dropped.
func buildPlans(instructions []chain.Info) [][]string {
	seen := make(map[int]bool)
	var plans [][]string
	for _, in := range instructions {
		if seen[in.ChainID] {
			continue
		}
		seen[in.ChainID] = true
		nodes := in.Nodes
		if len(nodes) == 0 && in.StartDataID != "" {
			nodes = []string{in.StartDataID}
		}
		if len(nodes) == 0 {
			continue
		}
		plans = append(plans, nodes)
	}
	return plans
}

// executePlan walks a chain from its furthest producer toward the consumer,
// so producers precede consumers in DataNodesInOrder.
func (p *Placer) executePlan(nodes []string) {
	for i := len(nodes) - 1; i >= 0; i-- {
		id := nodes[i]
		if p.ctx.Placed.Has(id) || !p.ctx.ShouldPlaceDataNode(id) {
			continue
		}
		p.ctx.place(id)
	}
}

func (p *Placer) sweepDownstream() {
	queue := append(slices.Clone(p.ctx.FlowIDs), p.ctx.DataNodesInOrder...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range p.ctx.Graph.DataOut(id) {
			target := e.To
			if p.ctx.Placed.Has(target) {
				continue
			}
			d := p.resolver.Resolve(target, p.ctx.BlockNodes())
			if !d.ShouldPlace {
				if d.Reason != ownership.NotPureDataNode {
					p.logger.Debug("ownership rejected", "block", p.ctx.Index, "node", target, "reason", d.Reason, "detail", d.Detail)
				}
				continue
			}
			if !p.ctx.ShouldPlaceDataNode(target) {
				continue
			}
			p.ctx.place(target)
			queue = append(queue, target)
		}
	}
}

func (p *Placer) placeDesignated() {
	for _, id := range p.ctx.Graph.DataNodeIDs() {
		if p.ctx.Designated.Has(id) && !p.ctx.Placed.Has(id) {
			p.logger.Debug("placing designated node", "block", p.ctx.Index, "node", id)
			p.ctx.place(id)
		}
	}
}

func (p *Placer) verify() error {
	var missing []string
	for _, id := range p.ctx.Designated.Sorted() {
		if !p.ctx.Placed.Has(id) {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: block %d: %s", ErrUnplacedDataNode, p.ctx.Index, strings.Join(missing, ", "))
	}
	return nil
}
