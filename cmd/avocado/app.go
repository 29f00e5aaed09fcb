package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"avocado/internal/cache"
	"avocado/internal/config"
	"avocado/internal/diag"
	"avocado/internal/httpjson"
	"avocado/internal/market"
	"avocado/internal/model"
	"avocado/internal/pools"
	"avocado/internal/price"
	"avocado/internal/storage"
	"avocado/internal/storage/postgres"
	"avocado/internal/storage/sqlite"
	"avocado/internal/subgraph"
)

// app holds the components shared by the subcommands.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	sink    diag.Sink
	backend cache.Backend
	// archive is set when the cache backend also stores pool snapshots.
	archive storage.PoolSink

	pools  *pools.Provider
	prices *price.Provider
	market *market.Provider

	closers []func()
}

// setup loads config, builds the logger and wires every provider over the
// configured cache backend. The returned context is cancelled on SIGINT or
// SIGTERM.
func setup(cmd *cobra.Command) (context.Context, *app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{cfg: cfg, logger: logger, sink: diag.Zap(logger)}
	a.closers = append(a.closers, stop, func() { _ = logger.Sync() })

	if err := a.openBackend(ctx); err != nil {
		a.close()
		return nil, nil, err
	}
	if err := a.buildProviders(); err != nil {
		a.close()
		return nil, nil, err
	}

	logger.Info("avocado start",
		zap.String("command", cmd.Name()),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.String("subgraph_url", cfg.SubgraphURL),
		zap.Int("page_size", cfg.PageSize),
	)
	return ctx, a, nil
}

func (a *app) openBackend(ctx context.Context) error {
	switch a.cfg.CacheBackend {
	case "memory":
		a.backend = cache.NewMemory()
	case "file":
		backend, err := cache.NewFile(a.cfg.CacheDir)
		if err != nil {
			return fmt.Errorf("open file cache: %w", err)
		}
		a.backend = backend
	case "redis":
		client, err := cache.DialRedis(ctx, a.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.backend = cache.NewRedis(client, price.CacheTTL)
	case "postgres":
		store, err := postgres.NewStore(ctx, a.cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		a.backend = store
		a.archive = store
	case "sqlite":
		store, err := sqlite.Open(a.cfg.SQLitePath)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { _ = store.Close() })
		a.backend = store
		a.archive = store
	default:
		return fmt.Errorf("unknown cache backend %q", a.cfg.CacheBackend)
	}
	return nil
}

func (a *app) buildProviders() error {
	client := httpjson.New(httpjson.Options{
		Timeout:    a.cfg.HTTPTimeout,
		MaxRetries: a.cfg.MaxRetries,
		BaseDelay:  a.cfg.RetryBackoff,
	})

	priceCache, err := cache.New[[]model.MarketCoin](a.backend, cache.Options{TTL: price.CacheTTL, Sink: a.sink})
	if err != nil {
		return err
	}
	a.prices, err = price.NewProvider(client, price.Options{
		BaseURL: a.cfg.CoinGeckoURL,
		Cache:   priceCache,
		Logger:  a.logger,
		Sink:    a.sink,
	})
	if err != nil {
		return err
	}

	a.market, err = market.NewProvider(client, market.Options{
		CoinGeckoURL: a.cfg.CoinGeckoURL,
		FearGreedURL: a.cfg.FearGreedURL,
		Logger:       a.logger,
		Sink:         a.sink,
	})
	if err != nil {
		return err
	}

	graph, err := subgraph.NewClient(client, a.cfg.SubgraphURL, nil)
	if err != nil {
		return err
	}
	poolCache, err := cache.New[[]model.Pool](a.backend, cache.Options{
		TTL:    pools.CacheTTL,
		Prefix: pools.CachePrefix,
		Sink:   a.sink,
	})
	if err != nil {
		return err
	}
	a.pools, err = pools.NewProvider(graph, pools.Options{
		Cache:    poolCache,
		PageSize: a.cfg.PageSize,
		Archive:  a.archive,
		Logger:   a.logger,
		Sink:     a.sink,
	})
	return err
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
