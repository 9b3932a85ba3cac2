package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodegraph/pkg/graph"
	"github.com/matzehuels/nodegraph/pkg/layout"
	"github.com/matzehuels/nodegraph/pkg/report"
)

// treeCommand prints how a layout pass arranged each block. It always runs
// the engine directly since the cache stores positions, not the derivation.
func (c *CLI) treeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "tree [graph.json]",
		Short: "Print blocks, producer chains, and data rows of a layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := runFlags{config: configPath}
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			g, err := graph.ReadGraphFile(args[0])
			if err != nil {
				return loadErr("graph", args[0], err)
			}

			prog := newProgress(c.Logger)
			res, err := layout.New(cfg.Layout, c.Logger).Layout(cmd.Context(), g)
			if err != nil {
				return fmt.Errorf("compute layout: %w", err)
			}
			prog.done("layout computed", "nodes", g.NodeCount())

			return report.WriteTree(c.Out, g, res)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (.toml or .yaml)")
	return cmd
}
