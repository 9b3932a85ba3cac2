package pipeline

import (
	"context"

	"github.com/matzehuels/nodegraph/pkg/errors"
	"github.com/matzehuels/nodegraph/pkg/graph"
	"github.com/matzehuels/nodegraph/pkg/model"
	"github.com/matzehuels/nodegraph/pkg/render/nodelink"
)

// Render generates one output artifact for a laid-out graph. Nodes without a
// position are left to Graphviz.
func Render(ctx context.Context, g *model.Graph, opts Options) ([]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	if opts.Format == FormatJSON {
		return graph.MarshalLayout(graph.ExportLayout(g, nil))
	}

	dot := nodelink.ToDOT(g, nodelink.Options{
		NodeWidth:  opts.Params.NodeWidth,
		NodeHeight: opts.Params.NodeHeight,
		Height:     opts.Height,
	})

	var (
		data []byte
		err  error
	)
	switch opts.Format {
	case FormatDOT:
		data = []byte(dot)
	case FormatSVG:
		data, err = nodelink.RenderSVG(ctx, dot)
	case FormatPNG:
		data, err = nodelink.RenderPNG(ctx, dot)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", opts.Format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", opts.Format)
	}
	return data, nil
}
