// Package datagraph lays out graphs that contain no flow nodes.
//
// Without flow nodes there is no block partition, so each connected component
// of the data edges becomes a block. Inside a component, nodes are layered by
// repeated removal of zero in-degree nodes, layers run left to right, and
// nodes within a layer are stacked top to bottom by estimated height.
package datagraph

import (
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/matzehuels/nodegraph/pkg/model"
)

// Component is one connected subgraph of data edges.
type Component struct {
	// Nodes in declaration order.
	Nodes []string
	// Layers in left-to-right order. A residual cycle, if any, is the last layer.
	Layers [][]string
}

// Components partitions every node of g into connected components over the
// undirected view of its edges, then layers each component. Components are
// ordered by their first declared node.
func Components(g *model.Graph) []Component {
	ids := g.NodeIDs()
	if len(ids) == 0 {
		return nil
	}

	ug := simple.NewUndirectedGraph()
	for i := range ids {
		ug.AddNode(simple.Node(int64(i)))
	}
	for _, e := range g.Edges() {
		from, to := int64(g.Order(e.From)), int64(g.Order(e.To))
		if from == to {
			continue
		}
		ug.SetEdge(ug.NewEdge(simple.Node(from), simple.Node(to)))
	}

	var groups [][]int
	for _, cc := range topo.ConnectedComponents(ug) {
		idx := make([]int, len(cc))
		for i, n := range cc {
			idx[i] = int(n.ID())
		}
		slices.Sort(idx)
		groups = append(groups, idx)
	}
	slices.SortFunc(groups, func(a, b []int) int { return a[0] - b[0] })

	out := make([]Component, len(groups))
	for i, grp := range groups {
		nodes := make([]string, len(grp))
		for j, k := range grp {
			nodes[j] = ids[k]
		}
		out[i] = Component{Nodes: nodes, Layers: Layers(g, nodes)}
	}
	return out
}

// Layers computes topological layers of nodes over the edges among them.
// Each round takes every remaining node whose remaining in-degree is zero, in
// the order of nodes. Nodes left over in a cycle form one final layer.
func Layers(g *model.Graph, nodes []string) [][]string {
	member := model.NewIDSet(nodes...)
	indeg := make(map[string]int, len(nodes))
	for _, id := range nodes {
		for _, e := range g.DataIn(id) {
			if member.Has(e.From) {
				indeg[id]++
			}
		}
	}

	done := make(model.IDSet, len(nodes))
	var layers [][]string
	for done.Len() < len(nodes) {
		var layer []string
		for _, id := range nodes {
			if !done.Has(id) && indeg[id] == 0 {
				layer = append(layer, id)
			}
		}
		if len(layer) == 0 {
			var rest []string
			for _, id := range nodes {
				if !done.Has(id) {
					rest = append(rest, id)
				}
			}
			return append(layers, rest)
		}
		for _, id := range layer {
			done.Add(id)
			for _, e := range g.DataOut(id) {
				if member.Has(e.To) {
					indeg[e.To]--
				}
			}
		}
		layers = append(layers, layer)
	}
	return layers
}
