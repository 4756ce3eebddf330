package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gogpu/ogimage/internal/cache"
	"github.com/gogpu/ogimage/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP rendering service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.Server.Addr = addr
			}
			return c.runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context) error {
	reg, err := c.registry()
	if err != nil {
		return err
	}
	store, err := c.cacheStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	sc := c.cfg.Server
	rc := c.cfg.Render
	opts := []server.Option{
		server.WithCache(store),
		server.WithLogger(c.slogger()),
	}
	if c.cfg.Fetch.Enabled {
		opts = append(opts, server.WithFetcher(c.fetcher()))
	}
	srv := server.New(server.Config{
		Addr:         sc.Addr,
		Timeout:      sc.Timeout.Duration,
		MaxBodyBytes: sc.MaxBodyBytes,
		Width:        rc.Width,
		Height:       rc.Height,
		Format:       rc.Format,
		Quality:      rc.Quality,
		MaxWidth:     rc.MaxWidth,
		MaxHeight:    rc.MaxHeight,
		CacheTTL:     c.cfg.Cache.TTL.Duration,
	}, reg, opts...)

	c.Logger.Info("starting server", "addr", sc.Addr, "cache", c.cfg.Cache.Backend,
		"fonts", len(reg.Resources()))
	return srv.ListenAndServe(ctx)
}

func (c *CLI) cacheStore(ctx context.Context) (cache.Store, error) {
	cc := c.cfg.Cache
	switch cc.Backend {
	case "redis":
		return cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     cc.Redis.Addr,
			Password: cc.Redis.Password,
			DB:       cc.Redis.DB,
			Prefix:   cc.Redis.Prefix,
		})
	case "none":
		return cache.Null{}, nil
	default:
		return cache.NewMemory(cc.MaxBytes), nil
	}
}

// slogger adapts the CLI logger for packages that take a *slog.Logger.
func (c *CLI) slogger() *slog.Logger { return slog.New(c.Logger) }
