package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"avocado/internal/market"
	"avocado/internal/model"
	"avocado/internal/poller"
	"avocado/internal/pools"
	"avocado/internal/price"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testNow = time.Unix(1700000000, 0)

type fakePools struct {
	calls int32
	res   pools.Result
}

func (f *fakePools) Current(context.Context) pools.Result {
	atomic.AddInt32(&f.calls, 1)
	return f.res
}

type fakePrices struct {
	mu      sync.Mutex
	symbols [][]string
}

func (f *fakePrices) Fetch(_ context.Context, symbols []string) price.Result {
	f.mu.Lock()
	f.symbols = append(f.symbols, symbols)
	f.mu.Unlock()
	return price.Result{Prices: price.Fallback(symbols), Source: model.SourceFallback, Err: errors.New("rate limited")}
}

func (f *fakePrices) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.symbols)
}

type fakeMarket struct{}

func (fakeMarket) Fetch(context.Context) market.Result {
	return market.Result{Metrics: market.Metrics{FearGreedIndex: 70, AltcoinSeasonIndex: 40}, Source: model.SourceFresh}
}

func newService(t *testing.T, sched poller.Scheduler) (*Service, *fakePools, *fakePrices) {
	t.Helper()
	fp := &fakePools{res: pools.Result{Pools: pools.Fixture(testNow), Source: model.SourceFallback, Err: errors.New("subgraph down")}}
	pr := &fakePrices{}
	svc, err := NewService(fp, pr, Options{
		Market:    fakeMarket{},
		Scheduler: sched,
		Now:       func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, fp, pr
}

func TestRefreshJoinsPricesBySymbol(t *testing.T) {
	svc, _, pr := newService(t, &poller.ManualScheduler{})
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	state := svc.State()
	if state.PoolSource != model.SourceFallback || state.PoolError != "subgraph down" {
		t.Fatalf("unexpected pool source %s %q", state.PoolSource, state.PoolError)
	}
	if state.PriceSource != model.SourceFallback || state.PriceError == "" {
		t.Fatalf("unexpected price source %s", state.PriceSource)
	}
	if state.Market.FearGreedIndex != 70 {
		t.Fatalf("unexpected market %+v", state.Market)
	}
	if len(state.Pools) != 8 {
		t.Fatalf("expected 8 pool views, got %d", len(state.Pools))
	}

	top := state.Pools[0]
	if top.Pair != "USDC/WETH" || top.TVL != "$445.68M" || top.FeeTier != "0.05%" || top.FeeCategory != "green" {
		t.Fatalf("unexpected top view %+v", top)
	}
	if top.Token0Price == nil || top.Token0Price.Price != 1.0001 || top.Token1Price == nil || top.Token1Price.Price != 3201.45 {
		t.Fatalf("prices not joined: %+v %+v", top.Token0Price, top.Token1Price)
	}
	if top.Fees24h != "$637.72K" {
		t.Fatalf("unexpected fees %s", top.Fees24h)
	}

	want := []string{"USDC", "WETH", "WBTC", "DAI", "USDT", "UNI", "LINK", "AAVE", "YFI"}
	got := pr.symbols[0]
	if len(got) != len(want) {
		t.Fatalf("unexpected symbols %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("symbol %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestSetFiltersRebuildsWithoutFetching(t *testing.T) {
	svc, fp, _ := newService(t, &poller.ManualScheduler{})
	ctx := context.Background()
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	svc.SetFilters(model.Filters{FeeTiers: []string{"3000"}, SortBy: model.SortAPR, SortDirection: model.SortDesc})
	state := svc.State()
	if len(state.Pools) != 6 || state.Pools[0].Pair != "WETH/USDT" {
		t.Fatalf("unexpected filtered views: %d first=%v", len(state.Pools), state.Pools)
	}
	if atomic.LoadInt32(&fp.calls) != 1 {
		t.Fatalf("SetFilters must not fetch")
	}
}

func TestRefreshPricesSkipsWithoutPools(t *testing.T) {
	svc, _, pr := newService(t, &poller.ManualScheduler{})
	if err := svc.RefreshPrices(context.Background()); err != nil {
		t.Fatalf("refresh prices: %v", err)
	}
	if pr.count() != 0 {
		t.Fatalf("expected no price fetch without symbols")
	}
}

func TestStartStopPollers(t *testing.T) {
	sched := &poller.ManualScheduler{}
	svc, fp, pr := newService(t, sched)

	svc.Start(context.Background())
	waitFor(t, func() bool { return pr.count() >= 1 && atomic.LoadInt32(&fp.calls) >= 1 })

	sched.Tick(testNow)
	waitFor(t, func() bool { return atomic.LoadInt32(&fp.calls) >= 2 && pr.count() >= 2 })

	svc.Stop()
	calls := atomic.LoadInt32(&fp.calls)
	sched.Tick(testNow)
	if atomic.LoadInt32(&fp.calls) != calls {
		t.Fatalf("pollers should be stopped")
	}

	intervals := sched.Intervals()
	if len(intervals) != 2 || intervals[0] != pools.PollInterval || intervals[1] != price.PollInterval {
		t.Fatalf("unexpected intervals %v", intervals)
	}
}

func TestStateIsACopy(t *testing.T) {
	svc, _, _ := newService(t, &poller.ManualScheduler{})
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	state := svc.State()
	state.Pools[0].Pair = "mutated"
	delete(state.Prices, "WETH")
	again := svc.State()
	if again.Pools[0].Pair == "mutated" {
		t.Fatalf("State pools must be a copy")
	}
	if _, ok := again.Prices["WETH"]; !ok {
		t.Fatalf("State prices must be a copy")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
