package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nodegraph/pkg/layout/params"
	"github.com/matzehuels/nodegraph/pkg/model"
)

// pointsPerInch is Graphviz's unit for node sizes.
const pointsPerInch = 72.0

// Options configures diagram generation. Zero sizes fall back to
// [params.Defaults].
type Options struct {
	NodeWidth  float64
	NodeHeight float64

	// Height estimates per-node heights; nil uses [params.EstimateHeight].
	Height params.HeightFunc

	// Detailed adds node kind and port counts to labels.
	Detailed bool
}

func (o Options) withDefaults() Options {
	d := params.Defaults()
	if o.NodeWidth <= 0 {
		o.NodeWidth = d.NodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = d.NodeHeight
	}
	if o.Height == nil {
		o.Height = params.EstimateHeight
	}
	return o
}

// ToDOT converts a graph to Graphviz DOT source for the neato engine.
//
// Positioned nodes are pinned at their layout coordinates (y flipped, since
// Graphviz grows upward) and each basic block becomes a translucent box drawn
// behind its nodes. Nodes without a position are left for neato to place.
// Data edges are thin; flow sequencing within a block is drawn bold.
func ToDOT(g *model.Graph, opts Options) string {
	opts = opts.withDefaults()

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=line;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, fixedsize=true];\n")
	buf.WriteString("  edge [color=\"#888888\", arrowsize=0.6];\n")
	buf.WriteString("\n")

	for _, b := range g.BasicBlocks {
		attrs := []string{
			`label=""`,
			`shape=box`,
			`style="rounded,filled"`,
			fmt.Sprintf("color=%q", b.Color),
			fmt.Sprintf("fillcolor=%q", translucent(b.Color)),
			fmt.Sprintf("width=%s", inches(b.Width)),
			fmt.Sprintf("height=%s", inches(b.Height)),
			fmt.Sprintf("pos=%q", pin(b.X+b.Width/2, b.Y+b.Height/2)),
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", blockID(b.Index), strings.Join(attrs, ", "))
	}
	if len(g.BasicBlocks) > 0 {
		buf.WriteString("\n")
	}

	for _, n := range g.Nodes() {
		h := opts.Height(g, n.ID)
		attrs := []string{
			fmt.Sprintf("label=%q", fmtLabel(*n, opts.Detailed)),
			fmt.Sprintf("width=%s", inches(opts.NodeWidth)),
			fmt.Sprintf("height=%s", inches(h)),
		}
		if n.IsFlow() {
			attrs = append(attrs, "penwidth=2", `fillcolor="#f2f2f2"`)
		}
		if n.Pos != nil {
			attrs = append(attrs, fmt.Sprintf("pos=%q", pin(n.Pos.X+opts.NodeWidth/2, n.Pos.Y+h/2)))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q [tooltip=%q];\n", e.From, e.To, e.FromPort+" -> "+e.ToPort)
	}
	for _, b := range g.BasicBlocks {
		for i := 1; i < len(b.FlowNodeIDs); i++ {
			fmt.Fprintf(&buf, "  %q -> %q [style=bold, color=\"#333333\"];\n", b.FlowNodeIDs[i-1], b.FlowNodeIDs[i])
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n model.Node, detailed bool) string {
	label := n.ID
	if n.Title != "" {
		label = n.Title
	}
	if !detailed {
		return label
	}
	return fmt.Sprintf("%s\n%s in:%d out:%d", label, n.Kind, len(n.Inputs), len(n.Outputs))
}

func blockID(i int) string { return "__block_" + strconv.Itoa(i) }

func inches(px float64) string {
	return strconv.FormatFloat(px/pointsPerInch, 'f', 3, 64)
}

func pin(x, y float64) string {
	return strconv.FormatFloat(x, 'f', 1, 64) + "," + strconv.FormatFloat(-y, 'f', 1, 64) + "!"
}

// translucent turns #rgb or #rrggbb into #rrggbb with a light alpha.
func translucent(c string) string {
	switch len(c) {
	case 4:
		return "#" + strings.Repeat(c[1:2], 2) + strings.Repeat(c[2:3], 2) + strings.Repeat(c[3:4], 2) + "33"
	case 7:
		return c + "33"
	}
	return c
}

// =============================================================================
// Rendering
// =============================================================================

// RenderSVG renders DOT source to SVG using the neato engine.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	data, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(data), nil
}

// RenderPNG renders DOT source to PNG using the neato engine.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
