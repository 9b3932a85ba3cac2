// Package pkg provides the libraries behind nodegraph, a layout engine for
// visual-programming graphs.
//
// # Overview
//
// A graph mixes flow nodes, which form the program's control sequence, with
// data nodes that compute values for flow-node input ports. Flow nodes are
// partitioned into basic blocks. nodegraph places each block's flow nodes in
// a row and stacks the data nodes feeding that block underneath, so every
// producer sits left of the ports it feeds. The packages are organized as:
//
//  1. [model] - The in-memory graph: nodes, ports, edges, blocks
//  2. [layout] - The engine and its stages (leveling, ownership, chains, placement)
//  3. [graph] - JSON documents for graphs and computed layouts
//  4. [pipeline] - Cached layout and render runs shared by the CLI and API
//  5. [render] - Graphviz output pinned to computed positions
//  6. [cache], [errors], [observability] - Supporting infrastructure
//
// # Architecture
//
//	graph.json
//	    ↓
//	[graph] package (decode, validate)
//	    ↓
//	[layout] package (blocks → designation → chains → columns → coordinates)
//	    ↓
//	[pipeline] package (cache lookup / store)
//	    ↓
//	layout.json, SVG, PNG, DOT
//
// # Quick Start
//
//	g, _ := graph.ReadGraphFile("graph.json")
//	res, err := pipeline.NewRunner(nil, nil, nil).Run(ctx, g, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	_ = graph.WriteLayoutFile(res.Layout, "graph.layout.json")
package pkg
