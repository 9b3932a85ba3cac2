package model

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrUnknownFlowNode is returned by [Graph.Validate] when a block lists a
	// flow node ID that is not in the graph.
	ErrUnknownFlowNode = errors.New("block references unknown flow node")

	// ErrNotFlowNode is returned by [Graph.Validate] when a block lists a node
	// that is not a flow node.
	ErrNotFlowNode = errors.New("block references a data node as flow node")

	// ErrFlowNodeInMultipleBlocks is returned by [Graph.Validate] when the same
	// flow node appears in more than one block.
	ErrFlowNodeInMultipleBlocks = errors.New("flow node listed in multiple blocks")
)

// Kind distinguishes control-flow steps from pure value producers.
type Kind int

const (
	// KindData is a pure data node: no flow ports, it only produces values.
	KindData Kind = iota
	// KindFlow is a control-flow step ordered by its block's flow sequence.
	KindFlow
)

// String returns "data" or "flow".
func (k Kind) String() string {
	if k == KindFlow {
		return "flow"
	}
	return "data"
}

// ParseKind converts "flow" or "data" to a Kind. Anything else is an error.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "flow":
		return KindFlow, nil
	case "data", "":
		return KindData, nil
	}
	return KindData, fmt.Errorf("unknown node kind %q", s)
}

// Point is a canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a vertex in the editor graph.
//
// Inputs and Outputs list declared data port names in display order. Height is
// an explicit render height; zero means "estimate from ports". Pos is written
// by the layout engine and is nil until a layout pass places the node.
type Node struct {
	ID      string
	Title   string
	Kind    Kind
	Inputs  []string
	Outputs []string
	Height  float64
	Pos     *Point
}

// IsFlow reports whether the node is a control-flow step.
func (n Node) IsFlow() bool { return n.Kind == KindFlow }

// Edge is a data edge from an output port of From to an input port of To.
// Flow sequencing is never expressed as an edge.
type Edge struct {
	From     string
	FromPort string
	To       string
	ToPort   string
}

// Gap is a required minimum column distance between two flow nodes.
type Gap struct {
	From    string
	To      string
	Columns int
}

// BlockSpec is an externally assigned partition of flow nodes laid out together.
// FlowNodeIDs is in appearance order.
type BlockSpec struct {
	FlowNodeIDs  []string
	RequiredGaps []Gap
}

// BasicBlock summarizes one laid-out block. The engine appends one per block.
type BasicBlock struct {
	Index       int
	Color       string
	FlowNodeIDs []string
	DataNodeIDs []string
	X, Y        float64
	Width       float64
	Height      float64
}

// Graph is the editor's node graph: nodes in declaration order, data edges
// with per-node in/out indexes, the flow-block partition, and layout output.
//
// The zero value is not usable; use [New]. Graph is not safe for concurrent
// use; callers serialize layout passes over a shared graph.
type Graph struct {
	nodes    map[string]*Node
	order    []string
	index    map[string]int
	edges    []Edge
	outgoing map[string][]Edge
	incoming map[string][]Edge

	// Blocks is the flow-node partition supplied by the editor.
	Blocks []BlockSpec

	// BasicBlocks is written by the layout engine.
	BasicBlocks []BasicBlock
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		index:    make(map[string]int),
		outgoing: make(map[string][]Edge),
		incoming: make(map[string][]Edge),
	}
}

// AddNode adds a node. The declaration order of nodes is preserved and used
// as the final tie-break everywhere in the layout.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
	}
	node := n
	g.nodes[n.ID] = &node
	g.index[n.ID] = len(g.order)
	g.order = append(g.order, n.ID)
	return nil
}

// AddEdge adds a data edge between two existing nodes.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSourceNode, e.From)
	}
	if _, ok := g.nodes[e.To]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTargetNode, e.To)
	}
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e)
	g.incoming[e.To] = append(g.incoming[e.To], e)
	return nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in declaration order. The pointers refer to the
// graph's own nodes.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// NodeIDs returns all node IDs in declaration order.
func (g *Graph) NodeIDs() []string { return slices.Clone(g.order) }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// DataIn returns the edges ending at id, in insertion order. Read-only.
func (g *Graph) DataIn(id string) []Edge { return g.incoming[id] }

// DataOut returns the edges starting at id, in insertion order. Read-only.
func (g *Graph) DataOut(id string) []Edge { return g.outgoing[id] }

// OutDegree returns the number of outgoing data edges of id.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// IsFlow reports whether id names a flow node.
func (g *Graph) IsFlow(id string) bool {
	n, ok := g.nodes[id]
	return ok && n.Kind == KindFlow
}

// IsPureData reports whether id names a pure data node.
func (g *Graph) IsPureData(id string) bool {
	n, ok := g.nodes[id]
	return ok && n.Kind == KindData
}

// Order returns the declaration index of id, or -1 if unknown.
func (g *Graph) Order(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	return -1
}

// FlowNodeIDs returns the IDs of all flow nodes in declaration order.
func (g *Graph) FlowNodeIDs() []string {
	var ids []string
	for _, id := range g.order {
		if g.nodes[id].Kind == KindFlow {
			ids = append(ids, id)
		}
	}
	return ids
}

// DataNodeIDs returns the IDs of all pure data nodes in declaration order.
func (g *Graph) DataNodeIDs() []string {
	var ids []string
	for _, id := range g.order {
		if g.nodes[id].Kind == KindData {
			ids = append(ids, id)
		}
	}
	return ids
}

// ResetLayout clears positions and basic blocks from a previous pass.
func (g *Graph) ResetLayout() {
	for _, n := range g.nodes {
		n.Pos = nil
	}
	g.BasicBlocks = nil
}

// Validate checks that every block references existing flow nodes and that no
// flow node belongs to two blocks. Edge endpoints are checked by AddEdge.
func (g *Graph) Validate() error {
	seen := make(map[string]int)
	for bi, b := range g.Blocks {
		for _, id := range b.FlowNodeIDs {
			n, ok := g.nodes[id]
			if !ok {
				return fmt.Errorf("%w: block %d: %s", ErrUnknownFlowNode, bi, id)
			}
			if n.Kind != KindFlow {
				return fmt.Errorf("%w: block %d: %s", ErrNotFlowNode, bi, id)
			}
			if prev, dup := seen[id]; dup {
				return fmt.Errorf("%w: %s in blocks %d and %d", ErrFlowNodeInMultipleBlocks, id, prev, bi)
			}
			seen[id] = bi
		}
		for _, gap := range b.RequiredGaps {
			for _, id := range []string{gap.From, gap.To} {
				if !g.IsFlow(id) {
					return fmt.Errorf("%w: block %d gap: %s", ErrUnknownFlowNode, bi, id)
				}
			}
		}
	}
	return nil
}
