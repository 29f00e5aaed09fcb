package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetPrices resolves the comma-separated symbols query parameter.
func (h *Handler) GetPrices(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-prices")
	defer span.End()

	var symbols []string
	for _, s := range strings.Split(c.Query("symbols"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}
	span.SetAttributes(attribute.Int("prices.requested", len(symbols)))

	res := h.prices.Fetch(ctx, symbols)
	c.JSON(http.StatusOK, gin.H{
		"prices": res.Prices,
		"source": res.Source,
		"error":  errString(res.Err),
	})
}

func (h *Handler) GetMarket(c *gin.Context) {
	if h.market == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market metrics unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-market")
	defer span.End()

	res := h.market.Fetch(ctx)
	c.JSON(http.StatusOK, gin.H{
		"market": res.Metrics,
		"source": res.Source,
		"error":  errString(res.Err),
	})
}
