package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CacheBackend != "memory" || cfg.PageSize != 20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.PriceInterval != 2*time.Minute || cfg.PoolInterval != 30*time.Second {
		t.Fatalf("unexpected intervals: %s %s", cfg.PriceInterval, cfg.PoolInterval)
	}
	if cfg.HTTPTimeout != 15*time.Second || cfg.MaxRetries != 2 {
		t.Fatalf("unexpected http settings: %s %d", cfg.HTTPTimeout, cfg.MaxRetries)
	}
	if cfg.SubgraphURL == "" || cfg.CoinGeckoURL == "" || cfg.FearGreedURL == "" {
		t.Fatalf("expected default urls: %+v", cfg)
	}
}

func TestLoadFlagsAndEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("AVOCADO_PAGE_SIZE", "50")
	t.Setenv("AVOCADO_REDIS_URL", "redis://localhost:6379/0")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("cache-backend", "memory", "")
	flags.StringSlice("symbols", nil, "")
	if err := flags.Parse([]string{"--cache-backend=Redis", "--symbols=eth, usdc"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CacheBackend != "redis" {
		t.Fatalf("cache backend = %q", cfg.CacheBackend)
	}
	if cfg.PageSize != 50 {
		t.Fatalf("page size = %d", cfg.PageSize)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Fatalf("redis url = %q", cfg.RedisURL)
	}
	if !reflect.DeepEqual(cfg.Symbols, []string{"eth", "usdc"}) {
		t.Fatalf("symbols = %v", cfg.Symbols)
	}
}

func TestLoadConfigFile(t *testing.T) {
	chdirTemp(t)
	path := filepath.Join(t.TempDir(), "avocado.yaml")
	content := "cache-backend: sqlite\nsqlite-path: /tmp/x.db\npool-interval: 1m\nsymbols:\n  - WETH\n  - WBTC\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CacheBackend != "sqlite" || cfg.SQLitePath != "/tmp/x.db" {
		t.Fatalf("unexpected storage config: %+v", cfg)
	}
	if cfg.PoolInterval != time.Minute {
		t.Fatalf("pool interval = %s", cfg.PoolInterval)
	}
	if !reflect.DeepEqual(cfg.Symbols, []string{"WETH", "WBTC"}) {
		t.Fatalf("symbols = %v", cfg.Symbols)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	chdirTemp(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	chdirTemp(t)
	base, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	cases := map[string]func(*Config){
		"unknown backend":  func(c *Config) { c.CacheBackend = "etcd" },
		"redis no url":     func(c *Config) { c.CacheBackend = "redis" },
		"postgres no dsn":  func(c *Config) { c.CacheBackend = "postgres" },
		"zero page size":   func(c *Config) { c.PageSize = 0 },
		"zero interval":    func(c *Config) { c.PoolInterval = 0 },
		"negative retries": func(c *Config) { c.MaxRetries = -1 },
	}
	for name, mutate := range cases {
		cfg := base
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestSplitAndClean(t *testing.T) {
	got := splitAndClean(" a, ,b ,")
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("splitAndClean = %v", got)
	}
	if splitAndClean("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}
