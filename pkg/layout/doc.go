// Package layout computes canvas positions for a node graph made of flow
// nodes (control-flow steps) and pure data nodes (values consumed by them).
//
// # Overview
//
// A layout pass mutates the graph in place: every node gets a Pos and one
// [model.BasicBlock] is appended per laid-out block. The pass is synchronous
// and deterministic; running it twice on the same graph yields identical
// coordinates.
//
// # Pipeline
//
// For graphs with flow nodes the [Engine] runs these stages:
//
//  1. Blocks: the graph's BlockSpecs in order, plus one trailing block for
//     flow nodes no BlockSpec lists
//  2. Designation: every pure data node is assigned to exactly one block
//     ([designate.Assign])
//  3. Chains: producer paths into every flow input port ([chain.Enumerator])
//  4. Placement: chain instructions, a downstream sweep gated by ownership
//     decisions, then a fallback for designated leftovers ([block.Placer])
//  5. Rows: chain-based stack order ([block.Context.ApplyChainBasedStackOrder])
//  6. Columns: flow nodes by weighted longest path, data nodes left of their
//     consumers ([coords.FlowColumns], [coords.DataColumns])
//  7. Geometry: columns and rows become pixels, blocks are laid out left to
//     right
//
// Graphs without flow nodes take the pure-data path instead: each connected
// component becomes one block with topological layers as columns
// ([datagraph.Layout]).
//
// # Usage
//
//	eng := layout.New(params.Defaults(), logger)
//	res, err := eng.Layout(ctx, g)
//	if err != nil {
//	    return err
//	}
//	for _, b := range g.BasicBlocks {
//	    fmt.Println(b.Index, b.X, b.Width)
//	}
//
// # Errors
//
// Malformed topology degrades silently: cycles are cut, empty chains are
// skipped and undecided nodes fall through to the fallback. Two failures are
// fatal: an invalid block partition (INVALID_GRAPH) and a node left without a
// position (UNPLACED_NODE).
package layout
