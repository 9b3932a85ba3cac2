package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodegraph/internal/api"
	"github.com/matzehuels/nodegraph/internal/config"
	"github.com/matzehuels/nodegraph/internal/metrics"
	"github.com/matzehuels/nodegraph/pkg/errors"
)

const shutdownTimeout = 10 * time.Second

// serveCommand runs the layout HTTP service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags runFlags
		addr  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layouts over HTTP",
		Long: `Serve layouts over HTTP.

POST a graph document to /v1/layout for positions or to /v1/render for an
image. Prometheus metrics are exposed at /metrics. The config file is watched
and layout geometry changes apply to the next request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			loader, err := config.NewLoader(flags.config)
			if err != nil {
				return err
			}
			cfg := loader.Config()
			cacheCfg := cfg.Cache
			if flags.noCache {
				cacheCfg.Disabled = true
			}
			if flags.redis != "" {
				if err := errors.ValidateRedisURL(flags.redis); err != nil {
					return err
				}
				cacheCfg.RedisURL = flags.redis
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			loader.OnChange(func(*config.Config) { c.Logger.Info("config reloaded", "path", flags.config) })
			loader.OnError(func(err error) { c.Logger.Warn("config reload failed", "error", err) })
			stop, err := loader.Watch()
			if err != nil {
				return err
			}
			defer stop()

			runner, err := c.newRunner(ctx, cacheCfg)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			metrics.Install()
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.New(runner, loader, c.Logger),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return c.serve(ctx, srv)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

// serve runs srv until ctx is cancelled, then drains open requests.
func (c *CLI) serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
