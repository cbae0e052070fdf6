package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/peviz/internal/server"
	"github.com/matzehuels/peviz/pkg/cache"
	"github.com/matzehuels/peviz/pkg/pipeline"
)

// serveCommand creates the HTTP server command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		redisURL string
		cacheTTL time.Duration
		timeout  time.Duration
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the visualization pipeline over HTTP",
		Long: `Serve the visualization pipeline over HTTP.

Artifacts are cached in Redis when --redis-url (or server.redis_url in the
config file) is set, otherwise in the local file cache. Prometheus metrics are
exposed at /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			set := cmd.Flags().Changed
			if !set("addr") {
				addr = c.Config.Server.Addr
			}
			if !set("redis-url") {
				redisURL = c.Config.Server.RedisURL
			}
			if !set("cache-ttl") {
				cacheTTL = c.Config.Server.CacheTTL.Duration
			}
			return c.runServe(cmd.Context(), addr, redisURL, cacheTTL, timeout, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisURL, "redis-url", "", "Redis URL for the artifact cache (e.g. redis://localhost:6379/0)")
	cmd.Flags().DurationVar(&cacheTTL, "cache-ttl", cache.ServerTTL, "artifact cache TTL")
	cmd.Flags().DurationVar(&timeout, "timeout", server.DefaultRequestTimeout, "per-request timeout")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, redisURL string, cacheTTL, timeout time.Duration, noCache bool) error {
	logger := loggerFromContext(ctx)

	var store cache.Cache
	var err error
	switch {
	case noCache:
		store = cache.NewNullCache()
	case redisURL != "":
		store, err = cache.NewRedisCache(ctx, redisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("using redis cache", "ttl", cacheTTL)
	default:
		store, err = newCache(false)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
	}

	// Scope keys so several deployments can share one Redis.
	runner := pipeline.NewRunner(store, cache.NewScopedKeyer(nil, appName+":"), c.fontLoader(), logger)
	runner.TTL = cacheTTL

	srv := server.New(runner, logger,
		server.WithTimeout(timeout),
		server.WithConstants(c.Config.Layout),
	)
	srv.Metrics().Install()

	printSuccess("Serving on %s", addr)
	printKeyValue("font", runner.Fonts.Source().Name())
	printKeyValue("metrics", addr+"/metrics")
	return srv.ListenAndServe(ctx, addr)
}
