// Package market fetches market-wide sentiment and size metrics.
package market

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"avocado/internal/diag"
	"avocado/internal/httpjson"
	"avocado/internal/model"
)

const (
	DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"
	DefaultFearGreedURL = "https://api.alternative.me"

	neutralIndex = 50
)

// Metrics summarizes the market. Index values range from 0 to 100.
type Metrics struct {
	DefiMarketCap      float64 `json:"defiMarketCap"`
	DefiVolume24h      float64 `json:"defiVolume24h"`
	FearGreedIndex     int     `json:"fearGreedIndex"`
	AltcoinSeasonIndex int     `json:"altcoinSeasonIndex"`
	CryptoMarketCap    float64 `json:"cryptoMarketCap"`
	CryptoVolume24h    float64 `json:"cryptoVolume24h"`
}

// DefaultMetrics is reported before the first successful fetch.
func DefaultMetrics() Metrics {
	return Metrics{FearGreedIndex: neutralIndex, AltcoinSeasonIndex: neutralIndex}
}

// Result is the outcome of one Fetch.
type Result struct {
	Metrics Metrics
	Source  model.Source
	Err     error
}

// Options configures a Provider.
type Options struct {
	CoinGeckoURL string
	FearGreedURL string
	Tracer       trace.Tracer
	Logger       *zap.Logger
	Sink         diag.Sink
}

// Provider fetches Metrics and remembers the last successful value.
type Provider struct {
	client       *httpjson.Client
	coingeckoURL string
	fearGreedURL string
	tracer       trace.Tracer
	logger       *zap.Logger
	sink         diag.Sink

	mu   sync.Mutex
	last Metrics
}

func NewProvider(client *httpjson.Client, opts Options) (*Provider, error) {
	if client == nil {
		return nil, errors.New("http client is required")
	}
	p := &Provider{
		client:       client,
		coingeckoURL: strings.TrimRight(opts.CoinGeckoURL, "/"),
		fearGreedURL: strings.TrimRight(opts.FearGreedURL, "/"),
		tracer:       opts.Tracer,
		logger:       opts.Logger,
		sink:         diag.OrNop(opts.Sink),
		last:         DefaultMetrics(),
	}
	if p.coingeckoURL == "" {
		p.coingeckoURL = DefaultCoinGeckoURL
	}
	if p.fearGreedURL == "" {
		p.fearGreedURL = DefaultFearGreedURL
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer("avocado/market")
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p, nil
}

type globalResponse struct {
	Data struct {
		TotalMarketCap      map[string]float64 `json:"total_market_cap"`
		TotalVolume         map[string]float64 `json:"total_volume"`
		MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
	} `json:"data"`
}

type fearGreedResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
	} `json:"data"`
}

// Fetch queries the global, fear & greed and DeFi category endpoints
// concurrently. Any failure returns the last good metrics.
func (p *Provider) Fetch(ctx context.Context) Result {
	ctx, span := p.tracer.Start(ctx, "market.fetch")
	defer span.End()

	var (
		global    globalResponse
		fearGreed fearGreedResponse
		defi      []model.MarketCoin
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := p.client.GetJSON(gctx, p.coingeckoURL+"/global", &global); err != nil {
			return fmt.Errorf("fetch global: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := p.client.GetJSON(gctx, p.fearGreedURL+"/fng/", &fearGreed); err != nil {
			return fmt.Errorf("fetch fear and greed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		url := p.coingeckoURL + "/coins/markets?vs_currency=usd&category=decentralized-finance-defi&order=market_cap_desc&per_page=100&page=1"
		if err := p.client.GetJSON(gctx, url, &defi); err != nil {
			return fmt.Errorf("fetch defi markets: %w", err)
		}
		return nil
	})

	err := g.Wait()
	var metrics Metrics
	if err == nil {
		metrics, err = combine(global, fearGreed, defi)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "market fetch")
		p.logger.Warn("market fetch failed, keeping last metrics", zap.Error(err))
		p.sink.Report(diag.Event{Component: "market", Op: "fetch", Err: err})
		return Result{Metrics: p.lastMetrics(), Source: model.SourceFallback, Err: err}
	}

	p.mu.Lock()
	p.last = metrics
	p.mu.Unlock()
	return Result{Metrics: metrics, Source: model.SourceFresh}
}

func (p *Provider) lastMetrics() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func combine(global globalResponse, fearGreed fearGreedResponse, defi []model.MarketCoin) (Metrics, error) {
	if len(fearGreed.Data) == 0 {
		return Metrics{}, errors.New("fear and greed response has no rows")
	}
	fg, err := strconv.Atoi(strings.TrimSpace(fearGreed.Data[0].Value))
	if err != nil {
		return Metrics{}, fmt.Errorf("parse fear and greed value: %w", err)
	}

	var m Metrics
	for _, coin := range defi {
		m.DefiMarketCap += coin.MarketCap
		m.DefiVolume24h += coin.TotalVolume
	}
	m.FearGreedIndex = fg
	m.AltcoinSeasonIndex = AltcoinSeasonIndex(global.Data.MarketCapPercentage["btc"])
	m.CryptoMarketCap = global.Data.TotalMarketCap["usd"]
	m.CryptoVolume24h = global.Data.TotalVolume["usd"]
	return m, nil
}

// AltcoinSeasonIndex derives a 0..100 index from BTC dominance.
func AltcoinSeasonIndex(btcDominance float64) int {
	return int(math.Round(math.Max(0, math.Min(100, 100-btcDominance))))
}
