// Package render groups the output renderers for laid-out graphs.
//
// The [nodelink] subpackage exports DOT source and renders SVG and PNG with
// Graphviz, keeping every node at its computed position.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [nodelink]: github.com/matzehuels/nodegraph/pkg/render/nodelink
package render
