package cli

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Truthmedia123/weddingreplit-sub000/internal/server"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/observability"
)

// serveCommand creates the command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the invitation HTTP API",
		Long: `Run the invitation HTTP API.

The server renders invitations on POST /api/invitations and serves each
result once from GET /api/downloads/{token}/{format}. Expired downloads are
released by a background sweeper.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.bindFlags(cmd, map[string]string{
				"server.addr":      "addr",
				"server.base_url":  "base-url",
				"delivery.backend": "backend",
				"render.workers":   "workers",
			}); err != nil {
				return err
			}
			return c.runServe(cmd.Context())
		},
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().String("base-url", "", "public origin for RSVP links and download URLs")
	cmd.Flags().String("backend", "", "delivery store: memory, redis, sqlite or mongo")
	cmd.Flags().Int("workers", 0, "concurrent render workers (default: number of CPUs)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	hooks := observability.NewLogHooks(c.Logger)
	observability.SetGenerationHooks(hooks)
	observability.SetDeliveryHooks(hooks)
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	store, err := c.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	svc := c.newService(cfg, store)
	defer func() {
		if err := svc.Close(); err != nil {
			c.Logger.Warn("close delivery store", "err", err)
		}
	}()

	gen, err := c.newGenerator(cfg, svc)
	if err != nil {
		return err
	}
	c.Logger.Info("catalog loaded", "templates", gen.Catalog().Len(), "backend", cfg.Delivery.Backend)
	if cfg.Server.BaseURL == "" {
		c.Logger.Warn("no base URL configured; invitations will omit RSVP QR codes")
	}

	srv := server.New(gen,
		server.WithBaseURL(cfg.Server.BaseURL),
		server.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		server.WithLogger(c.Logger),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		svc.RunSweeper(gctx, cfg.Delivery.SweepInterval)
		return nil
	})
	g.Go(func() error {
		return srv.Run(gctx, cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	})
	return g.Wait()
}
