// Package designate assigns every pure data node to exactly one block before
// any block is placed.
//
// Blocks are visited in order. A block claims the upstream closure of the
// data nodes feeding its flow nodes, except nodes an earlier block already
// claimed: the first consuming block owns a shared producer, and later blocks
// treat it as a boundary. Data nodes that feed no flow node at all (output
// tails such as assembled results) join the block of a designated neighbor,
// consumers first. Whatever is left joins the last block, so the assignment
// is total.
package designate

import (
	"github.com/matzehuels/nodegraph/pkg/model"
)

// Assignment maps pure data nodes to block indexes.
type Assignment struct {
	owner  map[string]int
	blocks [][]string
	all    []string
}

// Assign designates the data nodes of g to the blocks whose flow nodes are
// listed in blocks. With no blocks every node stays undesignated.
func Assign(g *model.Graph, blocks [][]string) *Assignment {
	a := &Assignment{
		owner:  make(map[string]int),
		blocks: make([][]string, len(blocks)),
		all:    g.DataNodeIDs(),
	}
	if len(blocks) == 0 {
		return a
	}

	for bi, flows := range blocks {
		var queue []string
		for _, fid := range flows {
			for _, e := range g.DataIn(fid) {
				if g.IsPureData(e.From) {
					queue = append(queue, e.From)
				}
			}
		}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			if _, done := a.owner[id]; done {
				continue
			}
			a.owner[id] = bi
			for _, e := range g.DataIn(id) {
				if g.IsPureData(e.From) {
					queue = append(queue, e.From)
				}
			}
		}
	}

	for changed := true; changed; {
		changed = false
		for _, id := range a.all {
			if _, done := a.owner[id]; done {
				continue
			}
			if bi, ok := a.neighborBlock(g, id); ok {
				a.owner[id] = bi
				changed = true
			}
		}
	}

	last := len(blocks) - 1
	for _, id := range a.all {
		if _, done := a.owner[id]; !done {
			a.owner[id] = last
		}
	}

	for _, id := range a.all {
		bi := a.owner[id]
		a.blocks[bi] = append(a.blocks[bi], id)
	}
	return a
}

// neighborBlock returns the lowest block among designated data consumers of
// id, or failing that among designated data producers.
func (a *Assignment) neighborBlock(g *model.Graph, id string) (int, bool) {
	best, found := 0, false
	for _, e := range g.DataOut(id) {
		if bi, ok := a.owner[e.To]; ok && (!found || bi < best) {
			best, found = bi, true
		}
	}
	if found {
		return best, true
	}
	for _, e := range g.DataIn(id) {
		if bi, ok := a.owner[e.From]; ok && (!found || bi < best) {
			best, found = bi, true
		}
	}
	return best, found
}

// Block returns the block index owning id.
func (a *Assignment) Block(id string) (int, bool) {
	bi, ok := a.owner[id]
	return bi, ok
}

// Nodes returns the data nodes designated to block bi in declaration order.
func (a *Assignment) Nodes(bi int) []string {
	if bi < 0 || bi >= len(a.blocks) {
		return nil
	}
	return a.blocks[bi]
}

// Designated returns the data nodes of block bi as a set.
func (a *Assignment) Designated(bi int) model.IDSet {
	return model.NewIDSet(a.Nodes(bi)...)
}

// Skip returns the data nodes owned by any block other than bi.
func (a *Assignment) Skip(bi int) model.IDSet {
	s := make(model.IDSet)
	for id, owner := range a.owner {
		if owner != bi {
			s.Add(id)
		}
	}
	return s
}
