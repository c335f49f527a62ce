// Package cli implements the invitekit command-line interface.
//
// # Commands
//
//   - serve: run the HTTP API with a background delivery sweeper
//   - render: render one invitation locally and write its files
//   - templates: list the catalog or show one template
//   - cache: inspect or clear the remote asset cache
//   - completion: generate shell completion scripts
//
// # Configuration
//
// Every command reads the same settings: built-in defaults, then the file
// named by --config, then INVITEKIT_* environment variables, then flags.
// See internal/config for the keys.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Truthmedia123/weddingreplit-sub000/internal/config"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/assets"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/buildinfo"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/catalog"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/compose"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/delivery"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/delivery/mongo"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/delivery/redis"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/delivery/sqlite"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/fonts"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/httputil"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "invitekit"

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
	Logger     *log.Logger
	v          *viper.Viper
	configPath string
}

// New creates a CLI that logs to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		v:      config.New(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "invitekit renders wedding invitations and serves them as one-time downloads",
		Long:          `invitekit renders wedding invitations from a catalog of templates into PNG, JPG, PDF and social formats, and hands them out through single-use, expiring download links.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (yaml, toml or json)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.templatesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// bindFlags ties command flags to config keys so a flag wins over file and
// environment values when set. Commands bind when they run, since several
// commands share keys.
func (c *CLI) bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, flag := range keys {
		if err := c.v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("bind --%s: %w", flag, err)
		}
	}
	return nil
}

// loadConfig resolves the effective configuration.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.v, c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil && c.Logger.GetLevel() > lvl {
		c.Logger.SetLevel(lvl)
	}
	return cfg, nil
}

// =============================================================================
// Component Factories
// =============================================================================

// loadCatalog reads the configured catalog or the built-in one.
func loadCatalog(cfg config.Config) (*catalog.Registry, error) {
	if cfg.Catalog.Path == "" {
		return catalog.LoadDefault()
	}
	return catalog.LoadFile(cfg.Catalog.Path)
}

// assetCacheTTL bounds how long downloaded artwork is reused.
const assetCacheTTL = 7 * 24 * time.Hour

// newAssetCache opens the disk cache for remote assets.
func newAssetCache(cfg config.Config) (*httputil.Cache, error) {
	return httputil.NewCache(cfg.Assets.CacheDir, assetCacheTTL)
}

// newGenerator builds the rendering stack over svc.
func (c *CLI) newGenerator(cfg config.Config, svc *delivery.Service) (*pipeline.Generator, error) {
	reg, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	fontReg, err := fonts.New(cfg.Fonts.Dir, fonts.WithLogger(c.Logger))
	if err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}

	assetOpts := []assets.Option{assets.WithLogger(c.Logger)}
	if cache, err := newAssetCache(cfg); err != nil {
		c.Logger.Warn("asset cache disabled", "err", err)
		assetOpts = append(assetOpts, assets.WithFetcher(httputil.NewFetcher(nil)))
	} else {
		assetOpts = append(assetOpts, assets.WithFetcher(httputil.NewFetcher(cache.Namespace("assets:"))))
	}
	loader := assets.NewLoader(cfg.Assets.Dir, assetOpts...)

	composer := compose.New(fontReg, loader, compose.WithLogger(c.Logger))
	return pipeline.NewGenerator(reg, composer, svc,
		pipeline.WithBaseURL(cfg.Server.BaseURL),
		pipeline.WithWorkers(cfg.Render.Workers),
		pipeline.WithLogger(c.Logger),
	), nil
}

// openStore connects the configured delivery backend.
func (c *CLI) openStore(ctx context.Context, cfg config.Config) (delivery.Store, error) {
	c.Logger.Debug("opening delivery store", "backend", cfg.Delivery.Backend)
	var (
		store delivery.Store
		err   error
	)
	switch cfg.Delivery.Backend {
	case config.BackendMemory:
		return delivery.NewMemoryStore(), nil
	case config.BackendSQLite:
		var s *sqlite.Store
		s, err = sqlite.Open(cfg.SQLite.Path)
		store = s
	case config.BackendRedis:
		var s *redis.Store
		s, err = redis.NewStore(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		store = s
	case config.BackendMongo:
		var s *mongo.Store
		s, err = mongo.NewStore(ctx, mongo.Config{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
		store = s
	default:
		return nil, fmt.Errorf("unknown delivery backend %q", cfg.Delivery.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Delivery.Backend, err)
	}
	return store, nil
}

// newService wraps store with the configured lifetimes.
func (c *CLI) newService(cfg config.Config, store delivery.Store) *delivery.Service {
	return delivery.NewService(store,
		delivery.WithTTL(cfg.Delivery.TTL),
		delivery.WithRetention(cfg.Delivery.Retention),
		delivery.WithLogger(c.Logger),
	)
}
