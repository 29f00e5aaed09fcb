package server

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"avocado/internal/analytics"
	"avocado/internal/dashboard"
	"avocado/internal/model"
	"avocado/internal/pools"
)

// ListPools returns the current pool list filtered and sorted by the query
// parameters search, minTVL, maxTVL, feeTiers, sortBy and sortDirection.
func (h *Handler) ListPools(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-pools")
	defer span.End()

	filters, err := parseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.pools.Current(ctx)
	prices := h.prices.Fetch(ctx, dashboard.Symbols(res.Pools))
	views := dashboard.BuildViews(res.Pools, prices.Prices, filters, h.now())
	span.SetAttributes(
		attribute.String("pools.source", string(res.Source)),
		attribute.Int("pools.count", len(views)),
	)

	c.JSON(http.StatusOK, gin.H{
		"pools":       views,
		"source":      res.Source,
		"error":       errString(res.Err),
		"priceSource": prices.Source,
		"filters":     filters,
	})
}

// GetPool returns one pool with its history. With live=true and an RPC
// reader configured, on-chain state is attached.
func (h *Handler) GetPool(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-pool")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("pool.id", id))

	pool, source, err := h.pools.Pool(ctx, id)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, pools.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	body := gin.H{
		"pool":         pool,
		"source":       source,
		"apr":          analytics.EstimateAPR(pool),
		"history":      analytics.HistoricalAPR(pool, len(pool.PoolDayData)),
		"fees24h":      analytics.Fees24h(pool),
		"volumeChange": analytics.VolumeChange(pool),
	}

	if live, _ := strconv.ParseBool(c.Query("live")); live {
		if h.live == nil {
			body["liveError"] = "live reads are not configured"
		} else if state, err := h.live.ReadPool(ctx, pool.ID); err != nil {
			h.logger.Warn("live pool read failed", zap.String("pool", pool.ID), zap.Error(err))
			body["liveError"] = err.Error()
		} else {
			body["live"] = state
		}
	}

	c.JSON(http.StatusOK, body)
}

// SearchPools matches pools by token symbol or name.
func (h *Handler) SearchPools(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.search-pools")
	defer span.End()

	term := c.Query("q")
	span.SetAttributes(attribute.String("search.term", term))

	res := h.pools.Search(ctx, term)
	c.JSON(http.StatusOK, gin.H{
		"pools":  dashboard.BuildViews(res.Pools, nil, model.DefaultFilters(), h.now()),
		"source": res.Source,
		"error":  errString(res.Err),
	})
}

func (h *Handler) GetDashboard(c *gin.Context) {
	if h.dashboard == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dashboard is not running"})
		return
	}
	c.JSON(http.StatusOK, h.dashboard.State())
}

func parseFilters(c *gin.Context) (model.Filters, error) {
	filters := model.DefaultFilters()
	filters.Search = strings.TrimSpace(c.Query("search"))

	var err error
	if filters.MinTVL, err = parseAmount(c, "minTVL"); err != nil {
		return model.Filters{}, err
	}
	if filters.MaxTVL, err = parseAmount(c, "maxTVL"); err != nil {
		return model.Filters{}, err
	}
	if raw := c.Query("feeTiers"); raw != "" {
		for _, tier := range strings.Split(raw, ",") {
			tier = strings.TrimSpace(tier)
			if tier == "" {
				continue
			}
			if !model.FeeTier(tier).Known() {
				return model.Filters{}, errors.New("invalid fee tier: " + tier)
			}
			filters.FeeTiers = append(filters.FeeTiers, tier)
		}
	}
	if filters.SortBy, err = model.ParseSortField(c.Query("sortBy")); err != nil {
		return model.Filters{}, err
	}
	if filters.SortDirection, err = model.ParseSortDirection(c.Query("sortDirection")); err != nil {
		return model.Filters{}, err
	}
	if err := filters.Validate(); err != nil {
		return model.Filters{}, err
	}
	return filters, nil
}

func parseAmount(c *gin.Context, key string) (float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, errors.New("invalid " + key + ": " + raw)
	}
	return v, nil
}
