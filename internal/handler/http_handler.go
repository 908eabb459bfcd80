package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/fetcher"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/model"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/provider"
	"go.uber.org/zap"
)

const serviceName = "price-fetch-service"

// PriceService is the part of service.PriceFetchService the handler uses
type PriceService interface {
	FetchHop(ctx context.Context, hop provider.Hop) (*model.HopPrice, error)
	GetQuote(ctx context.Context) (*model.Quote, error)
	Providers() []model.ProviderList
	Health(ctx context.Context) error
}

// HTTPHandler handles HTTP requests
type HTTPHandler struct {
	priceService PriceService
	logger       *zap.Logger
}

// NewHTTPHandler creates a new HTTPHandler
func NewHTTPHandler(priceService PriceService, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		priceService: priceService,
		logger:       logger,
	}
}

// SetupRoutes configures the HTTP routes
func (h *HTTPHandler) SetupRoutes(r *gin.Engine) {
	// Health check
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)

	// Price endpoints
	api := r.Group("/api")
	{
		price := api.Group("/price")
		{
			price.GET("", h.GetQuote)
			price.GET("/first-hop", h.hopHandler(provider.FirstHop))
			price.GET("/second-hop", h.hopHandler(provider.SecondHop))
		}
		api.GET("/providers", h.GetProviders)
	}
}

// Health returns the health status
func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}

// Ready reports ready once the quote cache answers
func (h *HTTPHandler) Ready(c *gin.Context) {
	if err := h.priceService.Health(c.Request.Context()); err != nil {
		h.logger.Warn("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"service": serviceName,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"service": serviceName,
	})
}

// GetQuote returns the composed price of both hops
func (h *HTTPHandler) GetQuote(c *gin.Context) {
	quote, err := h.priceService.GetQuote(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get quote", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, quote)
}

// hopHandler fetches a fresh price for one hop, bypassing the quote cache
func (h *HTTPHandler) hopHandler(hop provider.Hop) gin.HandlerFunc {
	return func(c *gin.Context) {
		price, err := h.priceService.FetchHop(c.Request.Context(), hop)
		if err != nil {
			h.logger.Error("Failed to fetch hop price", zap.String("hop", string(hop)), zap.Error(err))
			c.JSON(statusFor(err), gin.H{"error": err.Error(), "hop": hop})
			return
		}

		c.JSON(http.StatusOK, price)
	}
}

// GetProviders lists both provider lists with their cursors
func (h *HTTPHandler) GetProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.priceService.Providers()})
}

func statusFor(err error) int {
	if fetcher.IsExhausted(err) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
