// Package model provides the node graph consumed and annotated by the layout
// engine.
//
// # Overview
//
// A graph holds two kinds of nodes. Flow nodes ([KindFlow]) are control-flow
// steps; their order is given by the flow sequence of the block they belong
// to, never by edges. Pure data nodes ([KindData]) produce values consumed by
// input ports of flow nodes or of other data nodes. Every [Edge] is a data
// edge from an output port to an input port.
//
// Flow nodes are partitioned into blocks by the editor ([BlockSpec]). A block
// may also carry required column gaps between pairs of its flow nodes.
//
// # Basic Usage
//
//	g := model.New()
//	_ = g.AddNode(model.Node{ID: "start", Kind: model.KindFlow, Inputs: []string{"value"}})
//	_ = g.AddNode(model.Node{ID: "const", Kind: model.KindData, Outputs: []string{"out"}})
//	_ = g.AddEdge(model.Edge{From: "const", FromPort: "out", To: "start", ToPort: "value"})
//	g.Blocks = []model.BlockSpec{{FlowNodeIDs: []string{"start"}}}
//
// # Layout Output
//
// A layout pass writes [Node.Pos] on every node and replaces
// [Graph.BasicBlocks]. Nodes and edges are never created or removed by the
// engine.
//
// # Determinism
//
// Nodes and edges keep insertion order, and [Graph.Order] exposes the
// declaration index used as the last tie-break by every layout stage, so two
// passes over the same graph produce identical coordinates.
package model
