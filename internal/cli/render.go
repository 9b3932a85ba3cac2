package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodegraph/pkg/graph"
	"github.com/matzehuels/nodegraph/pkg/pipeline"
)

// renderCommand lays out a graph and draws it with Graphviz.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags  runFlags
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render a laid-out graph to SVG, PNG, DOT, or JSON",
		Long: `Render a laid-out graph to SVG, PNG, DOT, or JSON.

Nodes are drawn at their computed positions with basic blocks as tinted
boxes behind them. Rendering goes through the layout cache, so repeated
renders of an unchanged graph skip the layout pass.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			opts := c.options(cfg)
			opts.Format = strings.ToLower(format)
			if err := opts.ValidateForRender(); err != nil {
				return err
			}
			if output == "" {
				output = defaultOutput(input, opts.Format)
			}

			g, err := graph.ReadGraphFile(input)
			if err != nil {
				return loadErr("graph", input, err)
			}
			runner, err := c.newRunner(cmd.Context(), cfg.Cache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			spinner := c.spin(cmd.Context(), "Rendering...")
			res, err := runner.Run(cmd.Context(), g, opts)
			var data []byte
			var cached bool
			if err == nil {
				data, cached, err = runner.RenderWithCacheInfo(cmd.Context(), g, opts)
			}
			spinner.Stop()
			if err != nil {
				c.printError("Render failed")
				return err
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write output %s: %w", output, err)
			}
			c.printSuccess("Rendered %s", opts.Format)
			c.printFile(output)
			c.printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.BlockCount, res.Stats.LayoutTime, res.CacheHit && cached)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatSVG, "output format: "+strings.Join(pipeline.ValidFormats, ", "))

	return cmd
}
