// Package pools fetches pool listings from the indexing service with a
// short-lived cache, incremental paging and a static fallback.
package pools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"avocado/internal/analytics"
	"avocado/internal/cache"
	"avocado/internal/diag"
	"avocado/internal/model"
	"avocado/internal/storage"
	"avocado/internal/subgraph"
)

const (
	DefaultPageSize = 20
	CurrentKey      = "uniswap_pools"
	CachePrefix     = "pool_cache_"
	CacheTTL        = 30 * time.Second
	PollInterval    = 30 * time.Second

	currentBatchSize = 50
)

// ErrNotFound is returned when neither the service nor the fallback knows a pool.
var ErrNotFound = errors.New("pool not found")

// Subgraph is the query surface the provider depends on.
type Subgraph interface {
	TopPools(ctx context.Context, req subgraph.PageRequest) ([]model.Pool, error)
	SearchPools(ctx context.Context, term string) ([]model.Pool, error)
	Pool(ctx context.Context, id string) (model.Pool, bool, error)
}

// Result is the outcome of an unpaged fetch.
type Result struct {
	Pools  []model.Pool
	Source model.Source
	Err    error
}

// Page is the accumulated state after a paged fetch.
type Page struct {
	Pools   []model.Pool
	HasMore bool
	Page    int
	Source  model.Source
	Err     error
}

// Options configures a Provider.
type Options struct {
	Cache    *cache.Store[[]model.Pool]
	PageSize int
	Now      func() time.Time
	Archive  storage.PoolSink
	Logger   *zap.Logger
	Sink     diag.Sink
}

// Provider owns the pager state for one listing view.
type Provider struct {
	client   Subgraph
	cache    *cache.Store[[]model.Pool]
	pageSize int
	now      func() time.Time
	archive  storage.PoolSink
	logger   *zap.Logger
	sink     diag.Sink

	mu      sync.Mutex
	filters model.Filters
	pools   []model.Pool
	page    int
	hasMore bool

	// fromFixture marks pools as the fallback list, which a later page replaces.
	fromFixture bool
}

func NewProvider(client Subgraph, opts Options) (*Provider, error) {
	if client == nil {
		return nil, errors.New("subgraph client is required")
	}
	if opts.Cache == nil {
		return nil, errors.New("pool cache is required")
	}
	p := &Provider{
		client:   client,
		cache:    opts.Cache,
		pageSize: opts.PageSize,
		now:      opts.Now,
		archive:  opts.Archive,
		logger:   opts.Logger,
		sink:     diag.OrNop(opts.Sink),
		filters:  model.DefaultFilters(),
		hasMore:  true,
	}
	if p.pageSize <= 0 {
		p.pageSize = DefaultPageSize
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p, nil
}

// FetchPage loads one page for filters. With reset it starts over at page 0
// and replaces the accumulated list; otherwise the page is appended.
func (p *Provider) FetchPage(ctx context.Context, filters model.Filters, reset bool) Page {
	p.mu.Lock()
	if reset {
		p.filters = filters
		p.pools = nil
		p.page = 0
		p.fromFixture = false
	}
	current := p.page
	p.mu.Unlock()

	pools, err := p.client.TopPools(ctx, subgraph.PageRequest{
		First:   p.pageSize,
		Skip:    current * p.pageSize,
		Filters: filters,
	})
	if err == nil {
		err = checkPlaceholders(pools)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.report("fetch-page", err)
		if len(p.pools) == 0 {
			p.pools = analytics.Apply(p.fallback(), filters)
			p.fromFixture = true
		}
		p.hasMore = false
		return p.snapshot(model.SourceFallback, err)
	}

	if reset || p.fromFixture {
		p.pools = pools
	} else {
		p.pools = append(p.pools, pools...)
	}
	p.fromFixture = false
	p.hasMore = len(pools) == p.pageSize
	p.page = current + 1
	return p.snapshot(model.SourceFresh, nil)
}

// LoadMore fetches the next page with the current filters. It is a no-op
// once the last page was short.
func (p *Provider) LoadMore(ctx context.Context) Page {
	p.mu.Lock()
	if !p.hasMore {
		snap := p.snapshot(model.SourceFresh, nil)
		p.mu.Unlock()
		return snap
	}
	filters := p.filters
	p.mu.Unlock()
	return p.FetchPage(ctx, filters, false)
}

// Refresh reloads the first page with the current filters.
func (p *Provider) Refresh(ctx context.Context) Page {
	p.mu.Lock()
	filters := p.filters
	p.mu.Unlock()
	return p.FetchPage(ctx, filters, true)
}

// State returns the accumulated pager state without fetching.
func (p *Provider) State() Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot(model.SourceCached, nil)
}

func (p *Provider) snapshot(source model.Source, err error) Page {
	out := make([]model.Pool, len(p.pools))
	copy(out, p.pools)
	return Page{Pools: out, HasMore: p.hasMore, Page: p.page, Source: source, Err: err}
}

// Current returns the full current pool list, served from the cache while
// it is fresh. Only successful fetches are cached.
func (p *Provider) Current(ctx context.Context) Result {
	if pools, ok := p.cache.Get(ctx, CurrentKey); ok {
		return Result{Pools: pools, Source: model.SourceCached}
	}

	pools, err := p.client.TopPools(ctx, subgraph.PageRequest{
		First:   currentBatchSize,
		Filters: model.DefaultFilters(),
	})
	if err == nil {
		err = checkPlaceholders(pools)
	}
	if err != nil {
		p.report("fetch-current", err)
		return Result{Pools: p.fallback(), Source: model.SourceFallback, Err: err}
	}

	p.cache.Set(ctx, CurrentKey, pools)
	p.archivePools(ctx, pools)
	return Result{Pools: pools, Source: model.SourceFresh}
}

// Search looks up pools by token symbol or name. A blank term returns an
// empty result without a query.
func (p *Provider) Search(ctx context.Context, term string) Result {
	term = strings.TrimSpace(term)
	if term == "" {
		return Result{Pools: []model.Pool{}, Source: model.SourceFresh}
	}

	pools, err := p.client.SearchPools(ctx, term)
	if err == nil {
		err = checkPlaceholders(pools)
	}
	if err != nil {
		p.report("search", err)
		matches := analytics.Apply(p.fallback(), model.Filters{Search: term})
		return Result{Pools: matches, Source: model.SourceFallback, Err: err}
	}
	return Result{Pools: pools, Source: model.SourceFresh}
}

// Pool returns one pool with up to 30 daily snapshots.
func (p *Provider) Pool(ctx context.Context, id string) (model.Pool, model.Source, error) {
	id = strings.TrimSpace(id)
	if !common.IsHexAddress(id) {
		return model.Pool{}, "", fmt.Errorf("invalid pool id %q", id)
	}

	pool, ok, err := p.client.Pool(ctx, id)
	if err == nil && ok {
		return pool, model.SourceFresh, nil
	}
	if err != nil {
		p.report("pool", err)
	}
	if pool, found := FixturePool(p.now(), id); found {
		return pool, model.SourceFallback, nil
	}
	if err != nil {
		return model.Pool{}, "", fmt.Errorf("%w: %s: %v", ErrNotFound, id, err)
	}
	return model.Pool{}, "", fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (p *Provider) fallback() []model.Pool {
	return Fixture(p.now())
}

func (p *Provider) archivePools(ctx context.Context, pools []model.Pool) {
	if p.archive == nil || len(pools) == 0 {
		return
	}
	if err := p.archive.PutPools(ctx, p.now().Unix(), pools); err != nil {
		p.report("archive", err)
	}
}

func (p *Provider) report(op string, err error) {
	p.logger.Warn("pool fetch degraded", zap.String("op", op), zap.Error(err))
	p.sink.Report(diag.Event{Component: "pools", Op: op, Err: err})
}
