// Package nodelink renders laid-out node graphs as node-link diagrams.
//
// # Overview
//
// Nodes keep the coordinates the layout engine assigned: [ToDOT] pins them
// with neato's `pos="x,y!"` syntax, so Graphviz only draws and routes edges.
// Basic blocks appear as colored boxes behind their nodes.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering;
// no Graphviz installation is required.
package nodelink
