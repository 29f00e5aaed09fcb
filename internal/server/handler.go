// Package server exposes pools, prices and market metrics as a JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"avocado/internal/dashboard"
	"avocado/internal/dex"
	"avocado/internal/market"
	"avocado/internal/model"
	"avocado/internal/pools"
	"avocado/internal/price"
)

// PoolService is the pool surface the API depends on.
type PoolService interface {
	Current(ctx context.Context) pools.Result
	Search(ctx context.Context, term string) pools.Result
	Pool(ctx context.Context, id string) (model.Pool, model.Source, error)
}

type PriceService interface {
	Fetch(ctx context.Context, symbols []string) price.Result
}

type MarketService interface {
	Fetch(ctx context.Context) market.Result
}

// PoolReader reads live pool state from chain.
type PoolReader interface {
	ReadPool(ctx context.Context, address string) (dex.PoolState, error)
}

// StateSource provides the polled dashboard state.
type StateSource interface {
	State() dashboard.State
}

// Options carries the optional dependencies of a Handler.
type Options struct {
	Market    MarketService
	Live      PoolReader
	Dashboard StateSource
	Tracer    trace.Tracer
	Now       func() time.Time
	Logger    *zap.Logger
}

type Handler struct {
	pools     PoolService
	prices    PriceService
	market    MarketService
	live      PoolReader
	dashboard StateSource
	tracer    trace.Tracer
	now       func() time.Time
	logger    *zap.Logger
}

func New(poolService PoolService, priceService PriceService, opts Options) (*Handler, error) {
	if poolService == nil || priceService == nil {
		return nil, errors.New("pool and price services are required")
	}
	h := &Handler{
		pools:     poolService,
		prices:    priceService,
		market:    opts.Market,
		live:      opts.Live,
		dashboard: opts.Dashboard,
		tracer:    opts.Tracer,
		now:       opts.Now,
		logger:    opts.Logger,
	}
	if h.tracer == nil {
		h.tracer = otel.Tracer("avocado/server")
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h, nil
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.Health)
	r.GET("/api/pools", h.ListPools)
	r.GET("/api/pools/:id", h.GetPool)
	r.GET("/api/search", h.SearchPools)
	r.GET("/api/prices", h.GetPrices)
	r.GET("/api/market", h.GetMarket)
	r.GET("/api/dashboard", h.GetDashboard)
}

// NewRouter builds a gin engine with recovery, request logging and the API routes.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
