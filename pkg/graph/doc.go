// Package graph provides serialization types for editor graphs and layouts.
//
// This package defines the canonical wire format for nodegraph data, used for
// JSON files, API requests and responses, and caching.
//
// # Architecture
//
// The package sits at the serialization boundary between the in-memory model
// and external formats:
//
//   - [Graph], [Layout]: Serialization types (this package)
//   - pkg/model.Graph: In-memory graph the layout engine mutates
//
// Use [FromModel]/[ToModel] and [ExportLayout]/[Layout.Apply] to convert
// between them.
//
// # Graph Serialization
//
// Graphs list nodes in declaration order, data edges between ports, and the
// flow-node blocks:
//
//	{
//	  "nodes": [
//	    {"id": "load", "kind": "flow", "inputs": ["file"]},
//	    {"id": "path", "outputs": ["value"]}
//	  ],
//	  "edges": [{"from": "path", "from_port": "value", "to": "load", "to_port": "file"}],
//	  "blocks": [{"flows": ["load"], "gaps": []}]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("etl.json")   // File → model
//	graph.WriteGraphFile(g, "out.json")       // model → File
//	data, _ := graph.MarshalGraph(g)          // model → []byte
//
// # Layout Serialization
//
//	l := graph.ExportLayout(g, res.Debug)     // after a layout pass
//	graph.WriteLayoutFile(l, "layout.json")
//	l.Apply(other)                            // positions → model
//
// # Validation
//
// [ToModel] rejects unsafe node IDs, unknown kinds, edges to unknown nodes,
// and invalid block partitions, all with the INVALID_GRAPH code.
package graph
