package repository

import (
	"context"
	"time"

	"github.com/patteeraL/movra/services/price-fetch-service/internal/model"
)

// QuoteRepository defines the interface for quote storage operations
type QuoteRepository interface {
	// SaveQuote stores the latest quote for its pair with TTL
	SaveQuote(ctx context.Context, quote *model.Quote, ttl time.Duration) error

	// GetQuote retrieves the cached quote for a pair
	// Returns nil, nil if not found or expired (cache miss)
	GetQuote(ctx context.Context, pair string) (*model.Quote, error)

	// Health checks if the repository is healthy
	Health(ctx context.Context) error
}

// ErrInvalidTTL is returned when a quote would be stored without a lifetime
type ErrInvalidTTL struct {
	TTL time.Duration
}

func (e ErrInvalidTTL) Error() string {
	return "quote ttl must be positive, got " + e.TTL.String()
}
