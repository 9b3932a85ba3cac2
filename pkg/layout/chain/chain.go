// Package chain enumerates the producer chains feeding flow-node input ports.
//
// A chain is a path of pure data nodes ending at one input port of a flow
// node, listed from the node nearest the consumer to the furthest upstream.
// Chains drive both placement order and data-node columns: a node at
// position p of a chain targeting a flow node in column c wants column
// c-(p+1).
package chain

import (
	"slices"

	"github.com/matzehuels/nodegraph/pkg/model"
)

// Info is one placement instruction.
type Info struct {
	ChainID      int
	StartDataID  string
	Nodes        []string
	TargetFlowID string
	TargetPort   string
}

// Enumerator hands out chain IDs that stay unique across all blocks of one
// layout pass.
type Enumerator struct {
	g    *model.Graph
	next int
}

// NewEnumerator returns an enumerator over g. Chain IDs start at 0.
func NewEnumerator(g *model.Graph) *Enumerator {
	return &Enumerator{g: g}
}

// Enumerate walks backward from every input port of every flow node in
// flowIDs (in that order) and returns one Info per producer path. Ports are
// visited in declared order, then undeclared ports by name.
//
// Nodes for which stop returns true are never entered; they belong to
// another block. Cycles are cut at the first repeated node of a path. A node
// reached again for the same port at an equal or shallower position is not
// expanded a second time: its upstream nodes already sit deeper than it.
func (e *Enumerator) Enumerate(flowIDs []string, stop func(id string) bool) []Info {
	if stop == nil {
		stop = func(string) bool { return false }
	}
	var out []Info
	for _, fid := range flowIDs {
		for _, port := range inputPorts(e.g, fid) {
			best := make(map[string]int)
			intoPort := func(edge model.Edge) bool { return edge.ToPort == port }
			for _, p := range producers(e.g, fid, intoPort, stop) {
				out = e.walk(out, []string{p}, fid, port, best, stop)
			}
		}
	}
	return out
}

func (e *Enumerator) walk(out []Info, path []string, fid, port string, best map[string]int, stop func(string) bool) []Info {
	last := path[len(path)-1]
	pos := len(path) - 1

	var next []string
	if b, seen := best[last]; !seen || pos > b {
		best[last] = pos
		for _, up := range producers(e.g, last, anyPort, stop) {
			if !slices.Contains(path, up) {
				next = append(next, up)
			}
		}
	}

	if len(next) == 0 {
		out = append(out, Info{
			ChainID:      e.next,
			StartDataID:  path[0],
			Nodes:        slices.Clone(path),
			TargetFlowID: fid,
			TargetPort:   port,
		})
		e.next++
		return out
	}
	for _, up := range next {
		out = e.walk(out, append(slices.Clip(path), up), fid, port, best, stop)
	}
	return out
}

func anyPort(model.Edge) bool { return true }

// producers returns distinct pure data sources of the edges into id accepted
// by match, in edge order.
func producers(g *model.Graph, id string, match func(model.Edge) bool, stop func(string) bool) []string {
	var out []string
	for _, e := range g.DataIn(id) {
		if !match(e) {
			continue
		}
		if !g.IsPureData(e.From) || stop(e.From) || slices.Contains(out, e.From) {
			continue
		}
		out = append(out, e.From)
	}
	return out
}

// inputPorts lists the ports of id that have incoming edges, declared ports
// first. Edges without a port name are grouped under one unnamed port.
func inputPorts(g *model.Graph, id string) []string {
	used := make(map[string]bool)
	for _, e := range g.DataIn(id) {
		used[e.ToPort] = true
	}
	var ports []string
	n, _ := g.Node(id)
	if n != nil {
		for _, p := range n.Inputs {
			if used[p] {
				ports = append(ports, p)
				delete(used, p)
			}
		}
	}
	var rest []string
	for p := range used {
		rest = append(rest, p)
	}
	slices.Sort(rest)
	return append(ports, rest...)
}
