package subgraph

import (
	"context"
	"strings"

	"avocado/internal/model"
)

// PageRequest selects one page of pools.
type PageRequest struct {
	First   int
	Skip    int
	Filters model.Filters
}

// TopPools returns one page of pools matching the request filters.
func (c *Client) TopPools(ctx context.Context, req PageRequest) ([]model.Pool, error) {
	vars := map[string]any{
		"first":          req.First,
		"skip":           req.Skip,
		"orderBy":        OrderBy(req.Filters.SortBy),
		"orderDirection": OrderDirection(req.Filters.SortDirection),
		"where":          Where(req.Filters),
	}
	var out struct {
		Pools []model.Pool `json:"pools"`
	}
	if err := c.Query(ctx, "top-pools", topPoolsQuery, vars, &out); err != nil {
		return nil, err
	}
	return out.Pools, nil
}

// SearchPools returns up to 20 pools whose tokens match term.
func (c *Client) SearchPools(ctx context.Context, term string) ([]model.Pool, error) {
	var out struct {
		Pools []model.Pool `json:"pools"`
	}
	vars := map[string]any{"searchTerm": term}
	if err := c.Query(ctx, "search-pools", searchPoolsQuery, vars, &out); err != nil {
		return nil, err
	}
	return out.Pools, nil
}

// Pool returns the pool with id. The second result is false when the
// service does not know the pool.
func (c *Client) Pool(ctx context.Context, id string) (model.Pool, bool, error) {
	var out struct {
		Pool *model.Pool `json:"pool"`
	}
	vars := map[string]any{"id": strings.ToLower(id)}
	if err := c.Query(ctx, "pool", poolByIDQuery, vars, &out); err != nil {
		return model.Pool{}, false, err
	}
	if out.Pool == nil {
		return model.Pool{}, false, nil
	}
	return *out.Pool, true, nil
}
