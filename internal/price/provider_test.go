package price

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"avocado/internal/cache"
	"avocado/internal/diag"
	"avocado/internal/httpjson"
	"avocado/internal/model"
)

const marketsBody = `[
	{"id":"ethereum","symbol":"eth","name":"Ethereum","current_price":3000.5,"price_change_percentage_24h":1.5,"market_cap":360000000000,"total_volume":12000000000},
	{"id":"usd-coin","symbol":"usdc","name":"USDC","current_price":1,"price_change_percentage_24h":0,"market_cap":33000000000,"total_volume":5000000000}
]`

type testEnv struct {
	provider *Provider
	calls    *int32
	lastURL  *atomic.Value
	recorder *diag.Recorder
	now      *time.Time
}

func newTestEnv(t *testing.T, status int, body string) testEnv {
	t.Helper()
	var calls int32
	lastURL := &atomic.Value{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		lastURL.Store(r.URL.String())
		if r.URL.Path != "/coins/markets" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	now := time.UnixMilli(1700000000000)
	rec := &diag.Recorder{}
	store, err := cache.New[[]model.MarketCoin](cache.NewMemory(), cache.Options{
		TTL:  CacheTTL,
		Now:  func() time.Time { return now },
		Sink: rec,
	})
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	provider, err := NewProvider(httpjson.New(httpjson.Options{Timeout: time.Second}), Options{
		BaseURL: srv.URL,
		Cache:   store,
		Sink:    rec,
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return testEnv{provider: provider, calls: &calls, lastURL: lastURL, recorder: rec, now: &now}
}

func TestFetchEmptySymbolsMakesNoCall(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, marketsBody)
	res := env.provider.Fetch(context.Background(), nil)
	if len(res.Prices) != 0 || res.Source != model.SourceFresh {
		t.Fatalf("unexpected result: %+v", res)
	}
	if atomic.LoadInt32(env.calls) != 0 {
		t.Fatalf("expected no network call")
	}
}

func TestFetchUnknownSymbolsMakesNoCall(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, marketsBody)
	res := env.provider.Fetch(context.Background(), []string{"PEPE", "SHIB"})
	if len(res.Prices) != 0 {
		t.Fatalf("expected empty prices, got %v", res.Prices)
	}
	if atomic.LoadInt32(env.calls) != 0 {
		t.Fatalf("expected no network call")
	}
}

func TestFetchExpandsIDsToSymbols(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, marketsBody)
	res := env.provider.Fetch(context.Background(), []string{"weth", "USDC", "ETH"})
	if res.Source != model.SourceFresh || res.Err != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	for _, symbol := range []string{"ETH", "WETH"} {
		if got := res.Prices[symbol]; got.ID != "ethereum" || got.Price != 3000.5 {
			t.Fatalf("%s: unexpected price %+v", symbol, got)
		}
	}
	if res.Prices["USDC"].Price != 1 {
		t.Fatalf("unexpected USDC price %+v", res.Prices["USDC"])
	}

	url := env.lastURL.Load().(string)
	want := "/coins/markets?vs_currency=usd&ids=ethereum,usd-coin&order=market_cap_desc&per_page=50&page=1&sparkline=false&price_change_percentage=24h"
	if url != want {
		t.Fatalf("unexpected url:\n%s\n%s", url, want)
	}
}

func TestFetchCacheHitReturnsWholeList(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, marketsBody)
	ctx := context.Background()
	env.provider.Fetch(ctx, []string{"WETH", "USDC"})

	res := env.provider.Fetch(ctx, []string{"DAI"})
	if res.Source != model.SourceCached {
		t.Fatalf("expected cached source, got %s", res.Source)
	}
	if _, ok := res.Prices["USDC"]; !ok {
		t.Fatalf("cache hit should return the whole cached list, got %v", res.Prices)
	}
	if _, ok := res.Prices["DAI"]; ok {
		t.Fatalf("DAI was never fetched")
	}
	if atomic.LoadInt32(env.calls) != 1 {
		t.Fatalf("expected exactly one network call, got %d", *env.calls)
	}
}

func TestFetchCacheExpires(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, marketsBody)
	ctx := context.Background()
	env.provider.Fetch(ctx, []string{"WETH"})
	*env.now = env.now.Add(CacheTTL)

	res := env.provider.Fetch(ctx, []string{"WETH"})
	if res.Source != model.SourceFresh {
		t.Fatalf("expected fresh fetch after TTL, got %s", res.Source)
	}
	if atomic.LoadInt32(env.calls) != 2 {
		t.Fatalf("expected two network calls, got %d", *env.calls)
	}
}

func TestFetchFallbackOnServerError(t *testing.T) {
	env := newTestEnv(t, http.StatusTooManyRequests, `{"status":{"error_code":429}}`)
	res := env.provider.Fetch(context.Background(), []string{"WETH", "USDC", "PEPE"})
	if res.Source != model.SourceFallback || res.Err == nil {
		t.Fatalf("expected fallback with error, got %+v", res)
	}
	if len(res.Prices) != 2 {
		t.Fatalf("expected two fallback prices, got %v", res.Prices)
	}
	weth := res.Prices["WETH"]
	if weth.Price != 3201.45 || weth.Change24hPct != 2.34 || weth.ID != "ethereum" || weth.Symbol != "weth" {
		t.Fatalf("unexpected WETH fallback %+v", weth)
	}
	if weth.MarketCap != 3201.45*1_000_000 || weth.Volume24h != 3201.45*100_000 {
		t.Fatalf("unexpected WETH fallback depth %+v", weth)
	}
	if res.Prices["USDC"].Price != 1.0001 {
		t.Fatalf("unexpected USDC fallback %+v", res.Prices["USDC"])
	}

	events := env.recorder.Events()
	if len(events) != 1 || events[0].Component != "price" {
		t.Fatalf("expected one price event, got %+v", events)
	}

	// fallback results are never cached
	if _, ok := env.provider.cache.Get(context.Background(), CacheKey); ok {
		t.Fatalf("fallback must not be cached")
	}
}

func TestFetchFallbackOnMalformedBody(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, `{"not":"a list"}`)
	res := env.provider.Fetch(context.Background(), []string{"DAI"})
	if res.Source != model.SourceFallback || res.Prices["DAI"].Price != 1.0002 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestFetchFallbackOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	rec := &diag.Recorder{}
	store, err := cache.New[[]model.MarketCoin](cache.NewMemory(), cache.Options{TTL: CacheTTL, Sink: rec})
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	provider, err := NewProvider(httpjson.New(httpjson.Options{Timeout: time.Second}), Options{
		BaseURL: url,
		Cache:   store,
		Sink:    rec,
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	res := provider.Fetch(context.Background(), []string{"WETH", "USDC"})
	if res.Source != model.SourceFallback || res.Err == nil {
		t.Fatalf("expected fallback with error, got %+v", res)
	}
	weth, usdc := 3201.45, 1.0001
	want := map[string]model.TokenPrice{
		"WETH": {ID: "ethereum", Symbol: "weth", Name: "WETH", Price: weth, Change24hPct: 2.34,
			MarketCap: weth * 1_000_000, Volume24h: weth * 100_000},
		"USDC": {ID: "usd-coin", Symbol: "usdc", Name: "USDC", Price: usdc, Change24hPct: 0.01,
			MarketCap: usdc * 1_000_000, Volume24h: usdc * 100_000},
	}
	if !reflect.DeepEqual(res.Prices, want) {
		t.Fatalf("fallback prices mismatch:\n got %+v\nwant %+v", res.Prices, want)
	}
	if len(rec.Events()) != 1 {
		t.Fatalf("expected one diag event, got %+v", rec.Events())
	}
}

func TestSymbolsFor(t *testing.T) {
	got := SymbolsFor("ethereum")
	if len(got) != 2 || got[0] != "ETH" || got[1] != "WETH" {
		t.Fatalf("unexpected symbols %v", got)
	}
	if _, ok := IDFor("SNX"); !ok {
		t.Fatalf("expected SNX to be supported")
	}
}
