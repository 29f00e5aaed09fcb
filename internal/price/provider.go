// Package price fetches token market prices with a TTL cache and a static
// fallback table for when the market-data API is unavailable.
package price

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"avocado/internal/cache"
	"avocado/internal/diag"
	"avocado/internal/httpjson"
	"avocado/internal/model"
)

const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	CacheKey       = "coingecko_prices"
	CacheTTL       = 5 * time.Minute
	PollInterval   = 2 * time.Minute
)

// Result is the outcome of one Fetch.
type Result struct {
	Prices map[string]model.TokenPrice
	Source model.Source
	Err    error
}

// Options configures a Provider.
type Options struct {
	BaseURL string
	Cache   *cache.Store[[]model.MarketCoin]
	Tracer  trace.Tracer
	Logger  *zap.Logger
	Sink    diag.Sink
}

// Provider resolves token symbols to market prices.
type Provider struct {
	client  *httpjson.Client
	baseURL string
	cache   *cache.Store[[]model.MarketCoin]
	tracer  trace.Tracer
	logger  *zap.Logger
	sink    diag.Sink
}

func NewProvider(client *httpjson.Client, opts Options) (*Provider, error) {
	if client == nil {
		return nil, errors.New("http client is required")
	}
	if opts.Cache == nil {
		return nil, errors.New("price cache is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("avocado/price")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		client:  client,
		baseURL: baseURL,
		cache:   opts.Cache,
		tracer:  tracer,
		logger:  logger,
		sink:    diag.OrNop(opts.Sink),
	}, nil
}

// Fetch returns prices keyed by uppercase symbol. A valid cache entry is
// returned whole regardless of which symbols were requested. Network or
// decode failures yield fallback prices for the known requested symbols.
func (p *Provider) Fetch(ctx context.Context, symbols []string) Result {
	requested := normalizeSymbols(symbols)
	if len(requested) == 0 {
		return Result{Prices: map[string]model.TokenPrice{}, Source: model.SourceFresh}
	}

	if coins, ok := p.cache.Get(ctx, CacheKey); ok && len(coins) > 0 {
		return Result{Prices: expand(coins), Source: model.SourceCached}
	}

	ids := idsFor(requested)
	if len(ids) == 0 {
		return Result{Prices: map[string]model.TokenPrice{}, Source: model.SourceFresh}
	}

	coins, err := p.fetchMarkets(ctx, ids)
	if err != nil {
		p.logger.Warn("price fetch failed, using fallback", zap.Int("symbols", len(requested)), zap.Error(err))
		p.sink.Report(diag.Event{Component: "price", Op: "fetch", Key: CacheKey, Err: err})
		return Result{Prices: Fallback(requested), Source: model.SourceFallback, Err: err}
	}

	p.cache.Set(ctx, CacheKey, coins)
	return Result{Prices: expand(coins), Source: model.SourceFresh}
}

func (p *Provider) fetchMarkets(ctx context.Context, ids []string) ([]model.MarketCoin, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-markets")
	defer span.End()
	span.SetAttributes(attribute.Int("coingecko.ids", len(ids)))

	url := fmt.Sprintf("%s/coins/markets?vs_currency=usd&ids=%s&order=market_cap_desc&per_page=50&page=1&sparkline=false&price_change_percentage=24h",
		p.baseURL, strings.Join(ids, ","))

	var coins []model.MarketCoin
	if err := p.client.GetJSON(ctx, url, &coins); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch markets")
		return nil, fmt.Errorf("fetch markets: %w", err)
	}
	return coins, nil
}

// Fallback builds static prices for the known symbols in symbols. Unknown
// symbols are omitted.
func Fallback(symbols []string) map[string]model.TokenPrice {
	out := make(map[string]model.TokenPrice)
	for _, symbol := range symbols {
		upper := strings.ToUpper(strings.TrimSpace(symbol))
		quote, ok := fallbackQuotes[upper]
		if !ok {
			continue
		}
		id, ok := symbolToID[upper]
		if !ok {
			id = strings.ToLower(upper)
		}
		out[upper] = model.TokenPrice{
			ID:           id,
			Symbol:       strings.ToLower(upper),
			Name:         upper,
			Price:        quote.price,
			Change24hPct: quote.change,
			MarketCap:    quote.price * 1_000_000,
			Volume24h:    quote.price * 100_000,
		}
	}
	return out
}

// expand keys each record under every symbol mapping to its id and under its
// own uppercase symbol.
func expand(coins []model.MarketCoin) map[string]model.TokenPrice {
	out := make(map[string]model.TokenPrice, len(coins))
	for _, coin := range coins {
		price := model.TokenPriceFromCoin(coin)
		for _, symbol := range SymbolsFor(coin.ID) {
			out[symbol] = price
		}
		if own := strings.ToUpper(coin.Symbol); own != "" {
			if _, taken := out[own]; !taken {
				out[own] = price
			}
		}
	}
	return out
}

func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		upper := strings.ToUpper(strings.TrimSpace(symbol))
		if upper == "" {
			continue
		}
		if _, ok := seen[upper]; ok {
			continue
		}
		seen[upper] = struct{}{}
		out = append(out, upper)
	}
	return out
}

func idsFor(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	var ids []string
	for _, symbol := range symbols {
		id, ok := symbolToID[symbol]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
