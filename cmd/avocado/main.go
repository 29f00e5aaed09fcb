package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "avocado",
		Short:        "Uniswap V3 liquidity pool analytics",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("subgraph-url", "", "Uniswap V3 subgraph endpoint")
	flags.String("coingecko-url", "", "CoinGecko API base URL")
	flags.String("feargreed-url", "", "alternative.me API base URL")
	flags.Duration("http-timeout", 15*time.Second, "timeout per HTTP request")
	flags.Int("max-retries", 2, "retries on transport errors, 429 and 5xx")
	flags.Duration("retry-backoff", 250*time.Millisecond, "initial retry backoff")
	flags.String("cache-backend", "memory", "cache backend (memory, file, redis, postgres, sqlite)")
	flags.String("cache-dir", "./data/cache", "directory for the file cache backend")
	flags.String("redis-url", "", "redis address or redis:// URL")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.String("sqlite-path", "./data/avocado.db", "SQLite database path")
	flags.Int("page-size", 20, "pools per page")

	root.AddCommand(newPoolsCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newPoolCmd())
	root.AddCommand(newPricesCmd())
	root.AddCommand(newMarketCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
