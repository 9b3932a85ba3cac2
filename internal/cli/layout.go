package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodegraph/internal/config"
	"github.com/matzehuels/nodegraph/pkg/graph"
	"github.com/matzehuels/nodegraph/pkg/pipeline"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  runFlags
		output string
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute node positions for a graph document",
		Long: `Compute node positions for a graph document.

The layout command reads a graph.json document and writes a layout.json with
the position of every node and the bounds of every basic block. Geometry comes
from the [layout] section of --config.

Results are cached locally, or in Redis with --redis, keyed by graph content
and geometry. With --watch the layout is recomputed whenever the graph or the
config file changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if output == "" {
				output = defaultOutput(input, "layout.json")
			}
			if watch {
				return c.watchLayout(cmd.Context(), input, output, flags)
			}
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), cfg.Cache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			if err := c.runLayout(cmd.Context(), runner, cfg, input, output); err != nil {
				return err
			}
			c.printNewline()
			c.printNextStep("Render", appName+" render "+input)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "recompute when the graph or config changes")

	return cmd
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, runner *pipeline.Runner, cfg *config.Config, input, output string) error {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return loadErr("graph", input, err)
	}

	spinner := c.spin(ctx, "Computing layout...")
	res, err := runner.Run(ctx, g, c.options(cfg))
	spinner.Stop()
	if spinner.Cancelled() {
		return ctx.Err()
	}
	if err != nil {
		c.printError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}

	if err := graph.WriteLayoutFile(res.Layout, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	c.printSuccess("Layout complete")
	c.printFile(output)
	c.printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.BlockCount, res.Stats.LayoutTime, res.CacheHit)
	return nil
}

// watchLayout runs the layout once and again after every change to the graph
// or config file, until ctx is cancelled. Failed runs are reported and
// watching continues.
func (c *CLI) watchLayout(ctx context.Context, input, output string, flags runFlags) error {
	cfg, err := flags.load()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	paths := []string{input}
	if flags.config != "" {
		paths = append(paths, flags.config)
	}
	changed := make(chan string, 1)
	stop, err := config.WatchFiles(paths, func(path string) {
		select {
		case changed <- path:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer stop()

	if err := c.runLayout(ctx, runner, cfg, input, output); err != nil {
		c.printWarning("%v", err)
	}
	c.printInfo("Watching %d file(s), press Ctrl+C to stop", len(paths))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path := <-changed:
			c.Logger.Debug("file changed", "path", path)
			if flags.config != "" {
				next, err := flags.load()
				if err != nil {
					c.printWarning("keeping previous config: %v", err)
					continue
				}
				cfg = next
			}
			if err := c.runLayout(ctx, runner, cfg, input, output); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.printWarning("%v", err)
			}
		}
	}
}
