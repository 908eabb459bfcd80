package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/model"
	"github.com/redis/go-redis/v9"
)

// Key prefix for Redis
const quoteKeyPrefix = "quote:"

// RedisRepository implements QuoteRepository using Redis
type RedisRepository struct {
	client redis.Cmdable
}

// NewRedisRepository creates a new Redis-backed repository
func NewRedisRepository(client redis.Cmdable) *RedisRepository {
	return &RedisRepository{
		client: client,
	}
}

// quoteKey generates the Redis key for a pair's latest quote
func quoteKey(pair string) string {
	return quoteKeyPrefix + pair
}

// SaveQuote stores the latest quote with TTL
func (r *RedisRepository) SaveQuote(ctx context.Context, quote *model.Quote, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL{TTL: ttl}
	}

	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	if err := r.client.Set(ctx, quoteKey(quote.Pair), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}

	return nil
}

// GetQuote retrieves the cached quote for a pair
func (r *RedisRepository) GetQuote(ctx context.Context, pair string) (*model.Quote, error) {
	key := quoteKey(pair)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	var quote model.Quote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote: %w", err)
	}

	if quote.Expired(time.Now()) {
		_ = r.client.Del(ctx, key)
		return nil, nil
	}

	return &quote, nil
}

// Health checks if Redis is healthy
func (r *RedisRepository) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
