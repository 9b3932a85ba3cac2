// Package cli implements the nodegraph command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodegraph/internal/config"
	"github.com/matzehuels/nodegraph/pkg/buildinfo"
	"github.com/matzehuels/nodegraph/pkg/cache"
	"github.com/matzehuels/nodegraph/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "nodegraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command results; Err receives logs and progress.
	Out io.Writer
	Err io.Writer
}

// New creates a new CLI instance logging to w and printing results to stdout.
func New(w io.Writer, level log.Level) *CLI {
	w = &syncWriter{w: w}
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
		Err:    w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "nodegraph lays out node-graph editor documents",
		Long:         `nodegraph computes positions for the nodes of a visual-programming graph: flow nodes in a row per basic block, the data nodes feeding them stacked underneath.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.Out)

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Flags
// =============================================================================

// runFlags are the flags shared by every command that runs the pipeline.
type runFlags struct {
	config  string
	noCache bool
	redis   string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "config file (.toml or .yaml)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&f.redis, "redis", "", "redis URL for a shared layout cache")
}

// load reads the config file and applies flag overrides on top of it.
func (f *runFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, err
	}
	if f.noCache {
		cfg.Cache.Disabled = true
	}
	if f.redis != "" {
		cfg.Cache.RedisURL = f.redis
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// options builds pipeline options from the configuration.
func (c *CLI) options(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		Params:         cfg.Layout,
		AssertAssigned: cfg.AssertAssigned,
		Logger:         c.Logger,
	}
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the cache cfg selects.
func (c *CLI) newRunner(ctx context.Context, cfg config.CacheConfig) (*pipeline.Runner, error) {
	store, err := newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if cfg.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, cfg.Prefix)
	}
	return pipeline.NewRunner(store, keyer, c.Logger), nil
}

// newCache picks the backend: nothing when disabled, Redis when a URL is
// set, otherwise files under the cache directory.
func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	if cfg.Disabled {
		return cache.NewNullCache(), nil
	}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, "")
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	dir := cfg.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/nodegraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// defaultOutput derives an output path next to input: graph.json -> graph.<suffix>.
func defaultOutput(input, suffix string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + suffix
}

// loadErr wraps err with the file it came from.
func loadErr(kind, path string, err error) error {
	return fmt.Errorf("load %s %s: %w", kind, path, err)
}
