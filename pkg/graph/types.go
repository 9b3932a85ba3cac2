package graph

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/nodegraph/pkg/errors"
	"github.com/matzehuels/nodegraph/pkg/model"
)

// =============================================================================
// Graph - Editor Graph Serialization
// =============================================================================

// Graph is the canonical serialization format for editor graphs.
// Used for files, API requests, and cache keys.
//
// Node order is significant: it is the declaration order the layout engine
// uses as its final tie-break.
type Graph struct {
	Nodes  []Node  `json:"nodes"`
	Edges  []Edge  `json:"edges"`
	Blocks []Block `json:"blocks,omitempty"`
}

// Node is a serialized graph node. Kind is "flow" or "data" (the default).
type Node struct {
	ID      string       `json:"id"`
	Title   string       `json:"title,omitempty"`
	Kind    string       `json:"kind,omitempty"`
	Inputs  []string     `json:"inputs,omitempty"`
	Outputs []string     `json:"outputs,omitempty"`
	Height  float64      `json:"height,omitempty"`
	Pos     *model.Point `json:"pos,omitempty"`
}

// Edge is a serialized data edge between ports.
type Edge struct {
	From     string `json:"from"`
	FromPort string `json:"from_port,omitempty"`
	To       string `json:"to"`
	ToPort   string `json:"to_port,omitempty"`
}

// Block is a serialized flow-node block with its required gaps.
type Block struct {
	Flows []string `json:"flows"`
	Gaps  []Gap    `json:"gaps,omitempty"`
}

// Gap is a minimum column distance between two flow nodes of a block.
type Gap struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Columns int    `json:"columns"`
}

// =============================================================================
// Conversion
// =============================================================================

// FromModel converts an in-memory graph to its serialized form, preserving
// declaration order. Positions are included when set.
func FromModel(g *model.Graph) Graph {
	out := Graph{
		Nodes: make([]Node, 0, g.NodeCount()),
		Edges: make([]Edge, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		sn := Node{
			ID:      n.ID,
			Title:   n.Title,
			Inputs:  n.Inputs,
			Outputs: n.Outputs,
			Height:  n.Height,
		}
		if n.IsFlow() {
			sn.Kind = n.Kind.String()
		}
		if n.Pos != nil {
			p := *n.Pos
			sn.Pos = &p
		}
		out.Nodes = append(out.Nodes, sn)
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, Edge(e))
	}
	for _, b := range g.Blocks {
		sb := Block{Flows: b.FlowNodeIDs}
		for _, gap := range b.RequiredGaps {
			sb.Gaps = append(sb.Gaps, Gap(gap))
		}
		out.Blocks = append(out.Blocks, sb)
	}
	return out
}

// ToModel validates a serialized graph and builds the in-memory graph.
// All failures carry the INVALID_GRAPH code.
func ToModel(sg Graph) (*model.Graph, error) {
	g := model.New()
	for _, n := range sg.Nodes {
		if err := errors.ValidateNodeID(n.ID); err != nil {
			return nil, err
		}
		kind, err := model.ParseKind(n.Kind)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "node %s", n.ID).WithNode(n.ID)
		}
		node := model.Node{
			ID:      n.ID,
			Title:   n.Title,
			Kind:    kind,
			Inputs:  n.Inputs,
			Outputs: n.Outputs,
			Height:  n.Height,
		}
		if n.Pos != nil {
			p := *n.Pos
			node.Pos = &p
		}
		if err := g.AddNode(node); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "add node")
		}
	}
	for i, e := range sg.Edges {
		if err := g.AddEdge(model.Edge(e)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "edge %d", i)
		}
	}
	for _, b := range sg.Blocks {
		spec := model.BlockSpec{FlowNodeIDs: b.Flows}
		for _, gap := range b.Gaps {
			spec.RequiredGaps = append(spec.RequiredGaps, model.Gap(gap))
		}
		g.Blocks = append(g.Blocks, spec)
	}
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "invalid blocks")
	}
	return g, nil
}

// UnmarshalGraph decodes JSON bytes into a serialized graph without building
// the model.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "unmarshal graph")
	}
	return g, nil
}

// Summary is a short human-readable description of g.
func Summary(g *model.Graph) string {
	return fmt.Sprintf("%d nodes (%d flow), %d edges, %d blocks",
		g.NodeCount(), len(g.FlowNodeIDs()), g.EdgeCount(), len(g.Blocks))
}
