// Package dashboard composes pool listings, token prices and market metrics
// into one state refreshed by two pollers.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"avocado/internal/market"
	"avocado/internal/model"
	"avocado/internal/poller"
	"avocado/internal/pools"
	"avocado/internal/price"
)

// PoolSource provides the current pool list.
type PoolSource interface {
	Current(ctx context.Context) pools.Result
}

// PriceSource resolves token prices.
type PriceSource interface {
	Fetch(ctx context.Context, symbols []string) price.Result
}

// MarketSource provides market metrics.
type MarketSource interface {
	Fetch(ctx context.Context) market.Result
}

// State is a consistent snapshot of the dashboard.
type State struct {
	Pools        []PoolView                  `json:"pools"`
	PoolSource   model.Source                `json:"poolSource"`
	PoolError    string                      `json:"poolError,omitempty"`
	Prices       map[string]model.TokenPrice `json:"prices"`
	PriceSource  model.Source                `json:"priceSource"`
	PriceError   string                      `json:"priceError,omitempty"`
	Market       market.Metrics              `json:"market"`
	MarketSource model.Source                `json:"marketSource"`
	Filters      model.Filters               `json:"filters"`
	UpdatedAt    time.Time                   `json:"updatedAt"`
}

// Options configures a Service.
type Options struct {
	Market        MarketSource
	PriceInterval time.Duration
	PoolInterval  time.Duration
	Scheduler     poller.Scheduler
	Now           func() time.Time
	Logger        *zap.Logger
}

// Service owns the dashboard state and its pollers.
type Service struct {
	pools  PoolSource
	prices PriceSource
	market MarketSource
	now    func() time.Time
	logger *zap.Logger

	pricePoller *poller.Poller
	poolPoller  *poller.Poller

	mu       sync.Mutex
	filters  model.Filters
	rawPools []model.Pool
	state    State
}

func NewService(poolSource PoolSource, priceSource PriceSource, opts Options) (*Service, error) {
	if poolSource == nil || priceSource == nil {
		return nil, errors.New("pool and price sources are required")
	}
	s := &Service{
		pools:   poolSource,
		prices:  priceSource,
		market:  opts.Market,
		now:     opts.Now,
		logger:  opts.Logger,
		filters: model.DefaultFilters(),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.state = State{
		Prices:  map[string]model.TokenPrice{},
		Filters: s.filters,
		Market:  market.DefaultMetrics(),
	}

	priceInterval := opts.PriceInterval
	if priceInterval <= 0 {
		priceInterval = price.PollInterval
	}
	poolInterval := opts.PoolInterval
	if poolInterval <= 0 {
		poolInterval = pools.PollInterval
	}

	var err error
	s.pricePoller, err = poller.New("prices", priceInterval, s.pollPrices, opts.Scheduler, s.logger)
	if err != nil {
		return nil, err
	}
	s.poolPoller, err = poller.New("pools", poolInterval, s.pollPools, opts.Scheduler, s.logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Refresh reloads pools and market metrics concurrently, then the prices of
// the resulting token set.
func (s *Service) Refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.RefreshPools(gctx) })
	if s.market != nil {
		g.Go(func() error { return s.RefreshMarket(gctx) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return s.RefreshPrices(ctx)
}

// RefreshPools reloads the pool list. Provider failures are absorbed into
// the state; only context cancellation is returned.
func (s *Service) RefreshPools(ctx context.Context) error {
	res := s.pools.Current(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawPools = res.Pools
	s.state.PoolSource = res.Source
	s.state.PoolError = errString(res.Err)
	s.rebuildLocked()
	return nil
}

// RefreshPrices fetches prices for the current token set. It does nothing
// while no pools are loaded.
func (s *Service) RefreshPrices(ctx context.Context) error {
	s.mu.Lock()
	symbols := Symbols(s.rawPools)
	s.mu.Unlock()
	if len(symbols) == 0 {
		return nil
	}

	res := s.prices.Fetch(ctx, symbols)
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Prices = res.Prices
	s.state.PriceSource = res.Source
	s.state.PriceError = errString(res.Err)
	s.rebuildLocked()
	return nil
}

// RefreshMarket reloads market metrics.
func (s *Service) RefreshMarket(ctx context.Context) error {
	if s.market == nil {
		return nil
	}
	res := s.market.Fetch(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Market = res.Metrics
	s.state.MarketSource = res.Source
	return nil
}

// SetFilters replaces the filters and rebuilds the view without fetching.
func (s *Service) SetFilters(filters model.Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = filters
	s.rebuildLocked()
}

// State returns a copy of the current state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.state
	out.Pools = append([]PoolView(nil), s.state.Pools...)
	out.Prices = make(map[string]model.TokenPrice, len(s.state.Prices))
	for k, v := range s.state.Prices {
		out.Prices[k] = v
	}
	return out
}

// Start launches the price and pool pollers.
func (s *Service) Start(ctx context.Context) {
	s.poolPoller.Start(ctx)
	s.pricePoller.Start(ctx)
}

// Stop stops both pollers and waits for them.
func (s *Service) Stop() {
	s.pricePoller.Stop()
	s.poolPoller.Stop()
}

func (s *Service) pollPools(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.RefreshPools(gctx) })
	g.Go(func() error { return s.RefreshMarket(gctx) })
	if err := g.Wait(); err != nil {
		return err
	}

	// Prices poll on their own interval; fetch once as soon as symbols exist.
	s.mu.Lock()
	pending := s.state.PriceSource == ""
	s.mu.Unlock()
	if pending {
		return s.RefreshPrices(ctx)
	}
	return nil
}

func (s *Service) pollPrices(ctx context.Context) error {
	return s.RefreshPrices(ctx)
}

func (s *Service) rebuildLocked() {
	s.state.Filters = s.filters
	s.state.Pools = BuildViews(s.rawPools, s.state.Prices, s.filters, s.now())
	s.state.UpdatedAt = s.now()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
