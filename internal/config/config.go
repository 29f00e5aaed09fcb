package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"avocado/internal/market"
	"avocado/internal/price"
	"avocado/internal/subgraph"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	SubgraphURL   string
	CoinGeckoURL  string
	FearGreedURL  string
	HTTPTimeout   time.Duration
	MaxRetries    int
	RetryBackoff  time.Duration
	CacheBackend  string
	CacheDir      string
	RedisURL      string
	PGDSN         string
	SQLitePath    string
	RPCURL        string
	PageSize      int
	PriceInterval time.Duration
	PoolInterval  time.Duration
	Symbols       []string
	Out           string
	Addr          string
	LogLevel      string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AVOCADO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("subgraph-url", subgraph.DefaultURL)
	v.SetDefault("coingecko-url", price.DefaultBaseURL)
	v.SetDefault("feargreed-url", market.DefaultFearGreedURL)
	v.SetDefault("http-timeout", 15*time.Second)
	v.SetDefault("max-retries", 2)
	v.SetDefault("retry-backoff", 250*time.Millisecond)
	v.SetDefault("cache-backend", "memory")
	v.SetDefault("cache-dir", "./data/cache")
	v.SetDefault("sqlite-path", "./data/avocado.db")
	v.SetDefault("page-size", 20)
	v.SetDefault("price-interval", 2*time.Minute)
	v.SetDefault("pool-interval", 30*time.Second)
	v.SetDefault("addr", ":8080")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		SubgraphURL:   v.GetString("subgraph-url"),
		CoinGeckoURL:  v.GetString("coingecko-url"),
		FearGreedURL:  v.GetString("feargreed-url"),
		HTTPTimeout:   v.GetDuration("http-timeout"),
		MaxRetries:    v.GetInt("max-retries"),
		RetryBackoff:  v.GetDuration("retry-backoff"),
		CacheBackend:  strings.ToLower(strings.TrimSpace(v.GetString("cache-backend"))),
		CacheDir:      v.GetString("cache-dir"),
		RedisURL:      v.GetString("redis-url"),
		PGDSN:         v.GetString("pg-dsn"),
		SQLitePath:    v.GetString("sqlite-path"),
		RPCURL:        v.GetString("rpc"),
		PageSize:      v.GetInt("page-size"),
		PriceInterval: v.GetDuration("price-interval"),
		PoolInterval:  v.GetDuration("pool-interval"),
		Symbols:       getStringSlice(v, "symbols"),
		Out:           v.GetString("out"),
		Addr:          v.GetString("addr"),
		LogLevel:      v.GetString("log-level"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a component.
func (c Config) Validate() error {
	switch c.CacheBackend {
	case "memory", "file", "redis", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown cache backend %q", c.CacheBackend)
	}
	if c.CacheBackend == "redis" && c.RedisURL == "" {
		return fmt.Errorf("redis-url is required for the redis cache backend")
	}
	if c.CacheBackend == "postgres" && c.PGDSN == "" {
		return fmt.Errorf("pg-dsn is required for the postgres cache backend")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page-size must be positive, got %d", c.PageSize)
	}
	if c.PriceInterval <= 0 || c.PoolInterval <= 0 {
		return fmt.Errorf("poll intervals must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max-retries must not be negative")
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
