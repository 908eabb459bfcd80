package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/config"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/events"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/fetcher"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/metrics"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/model"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/provider"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// PriceFetchService owns both provider lists, their rotation cursors and
// the rotators that walk them. There is one per process.
type PriceFetchService struct {
	config     *config.Config
	registry   *provider.Registry
	rotators   map[provider.Hop]*fetcher.Rotator
	hopLocks   map[provider.Hop]*sync.Mutex
	repository repository.QuoteRepository
	publisher  events.QuotePublisher
	quotes     singleflight.Group
	lifetime   context.Context
	stop       context.CancelFunc
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewPriceFetchService creates a new PriceFetchService with dependency injection.
// Both rotators share priceFetcher, and with it the fetch gate.
func NewPriceFetchService(
	cfg *config.Config,
	registry *provider.Registry,
	priceFetcher fetcher.PriceFetcher,
	quoteRepo repository.QuoteRepository,
	publisher events.QuotePublisher,
	logger *zap.Logger,
	m *metrics.Metrics,
) *PriceFetchService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	lifetime, stop := context.WithCancel(context.Background())
	s := &PriceFetchService{
		lifetime:   lifetime,
		stop:       stop,
		config:     cfg,
		registry:   registry,
		rotators:   make(map[provider.Hop]*fetcher.Rotator),
		hopLocks:   make(map[provider.Hop]*sync.Mutex),
		repository: quoteRepo,
		publisher:  publisher,
		logger:     logger,
		metrics:    m,
	}

	for _, hop := range []provider.Hop{provider.FirstHop, provider.SecondHop} {
		s.rotators[hop] = fetcher.NewRotator(hop, registry.Providers(hop), priceFetcher, logger, m)
		s.hopLocks[hop] = &sync.Mutex{}
	}

	return s
}

// FetchFirstHopPrice fetches the base currency price in the intermediate currency
func (s *PriceFetchService) FetchFirstHopPrice(ctx context.Context) (float64, error) {
	hp, err := s.FetchHop(ctx, provider.FirstHop)
	if err != nil {
		return 0, err
	}
	return hp.Price.InexactFloat64(), nil
}

// FetchSecondHopPrice fetches the intermediate currency price in the target currency
func (s *PriceFetchService) FetchSecondHopPrice(ctx context.Context) (float64, error) {
	hp, err := s.FetchHop(ctx, provider.SecondHop)
	if err != nil {
		return 0, err
	}
	return hp.Price.InexactFloat64(), nil
}

// FetchHop rotates through a hop's providers starting at its cursor. On
// success the stored cursor points at the provider that answered; on
// failure it is left where it was.
func (s *PriceFetchService) FetchHop(ctx context.Context, hop provider.Hop) (*model.HopPrice, error) {
	rotator, ok := s.rotators[hop]
	if !ok {
		return nil, fmt.Errorf("unknown hop %q", hop)
	}

	lock := s.hopLocks[hop]
	lock.Lock()
	defer lock.Unlock()

	cursor := s.registry.Cursor(hop)
	price, err := rotator.Rotate(ctx, &cursor)
	s.registry.SetCursor(hop, cursor)
	if err != nil {
		return nil, err
	}

	hp := &model.HopPrice{
		Hop:       hop,
		Pair:      s.pairFor(hop),
		Price:     decimal.NewFromFloat(price),
		Cursor:    cursor,
		FetchedAt: time.Now().UTC(),
	}
	if providers := s.registry.Providers(hop); cursor < len(providers) {
		hp.Provider = providers[cursor].Name()
	}
	return hp, nil
}

// GetQuote returns the cached quote for the composed pair or fetches both
// hops and composes a new one. Concurrent misses share a single fetch.
func (s *PriceFetchService) GetQuote(ctx context.Context) (*model.Quote, error) {
	start := time.Now()
	pair := model.ComposePair(s.config.FirstHopPair, s.config.SecondHopPair)

	cached, err := s.repository.GetQuote(ctx, pair)
	if err != nil {
		s.logger.Warn("Cache lookup failed", zap.Error(err))
		// Continue to fetch from providers
	}

	if cached != nil {
		s.metrics.RecordCacheHit()
		s.metrics.RecordQuoteRequest("success", time.Since(start).Seconds(), true)
		s.logger.Debug("Quote cache hit",
			zap.String("pair", pair),
			zap.String("quoteId", cached.QuoteID),
		)
		return cached, nil
	}
	s.metrics.RecordCacheMiss()

	// The shared fetch outlives any single caller; only Shutdown cancels it
	ch := s.quotes.DoChan(pair, func() (interface{}, error) {
		work, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()
		stop := context.AfterFunc(s.lifetime, cancel)
		defer stop()

		return s.composeQuote(work, pair)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		s.metrics.RecordQuoteRequest("cancelled", time.Since(start).Seconds(), false)
		return nil, ctx.Err()
	case res = <-ch:
	}

	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		s.metrics.RecordQuoteRequest("failure", time.Since(start).Seconds(), false)
		return nil, err
	}

	s.metrics.RecordQuoteRequest("success", time.Since(start).Seconds(), false)
	if shared {
		s.logger.Debug("Quote shared with concurrent request", zap.String("pair", pair))
	}
	return v.(*model.Quote), nil
}

func (s *PriceFetchService) composeQuote(ctx context.Context, pair string) (*model.Quote, error) {
	first, err := s.FetchHop(ctx, provider.FirstHop)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s price: %w", provider.FirstHop, err)
	}

	second, err := s.FetchHop(ctx, provider.SecondHop)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s price: %w", provider.SecondHop, err)
	}

	now := time.Now().UTC()
	quote := &model.Quote{
		QuoteID:   uuid.New().String(),
		Pair:      pair,
		Price:     first.Price.Mul(second.Price),
		FirstHop:  *first,
		SecondHop: *second,
		FetchedAt: now,
		ExpiresAt: now.Add(s.config.QuoteCacheTTL),
	}
	s.metrics.RecordQuoteGenerated()

	if err := s.repository.SaveQuote(ctx, quote, s.config.QuoteCacheTTL); err != nil {
		s.logger.Warn("Failed to cache quote", zap.Error(err))
		// Don't fail the request, just log
	}

	if err := s.publisher.PublishQuote(ctx, quote); err != nil {
		s.metrics.RecordQuoteEvent("failed")
		s.logger.Warn("Failed to publish quote event", zap.String("quoteId", quote.QuoteID), zap.Error(err))
	} else {
		s.metrics.RecordQuoteEvent("published")
	}

	s.logger.Info("Composed quote",
		zap.String("quoteId", quote.QuoteID),
		zap.String("pair", pair),
		zap.String("price", quote.Price.String()),
		zap.String("firstHopProvider", first.Provider),
		zap.String("secondHopProvider", second.Provider),
	)

	return quote, nil
}

// Providers returns both provider lists with their cursors
func (s *PriceFetchService) Providers() []model.ProviderList {
	hops := []provider.Hop{provider.FirstHop, provider.SecondHop}
	lists := make([]model.ProviderList, 0, len(hops))
	for _, hop := range hops {
		lists = append(lists, model.ProviderList{
			Hop:       hop,
			Pair:      s.pairFor(hop),
			Cursor:    s.registry.Cursor(hop),
			Providers: s.registry.Providers(hop),
		})
	}
	return lists
}

// Shutdown aborts quote fetches still in flight
func (s *PriceFetchService) Shutdown() {
	s.stop()
}

// Health checks if the service is healthy
func (s *PriceFetchService) Health(ctx context.Context) error {
	return s.repository.Health(ctx)
}

func (s *PriceFetchService) pairFor(hop provider.Hop) string {
	if hop == provider.FirstHop {
		return s.config.FirstHopPair
	}
	return s.config.SecondHopPair
}
