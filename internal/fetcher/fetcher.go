// Package fetcher runs single price fetches against a provider and rotates
// through a provider list until one of them answers.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/metrics"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/provider"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/scraper"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/transport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/patteeraL/movra/services/price-fetch-service/internal/fetcher"

// PriceFetcher performs one fetch attempt against one provider
type PriceFetcher interface {
	Fetch(ctx context.Context, d provider.Descriptor) (float64, error)
}

// Fetcher fetches a price over a raw HTTP/1.1 connection
type Fetcher struct {
	dialer     transport.Dialer
	gate       *Gate
	retryPause time.Duration
	logger     *zap.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// NewFetcher creates a Fetcher. Every Fetcher sharing gate is serialized with
// the others. A non-positive retryPause uses transport.DefaultRetryPause.
func NewFetcher(
	dialer transport.Dialer,
	gate *Gate,
	retryPause time.Duration,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Fetcher {
	if gate == nil {
		gate = NewGate()
	}
	if retryPause <= 0 {
		retryPause = transport.DefaultRetryPause
	}
	return &Fetcher{
		dialer:     dialer,
		gate:       gate,
		retryPause: retryPause,
		logger:     logger,
		metrics:    m,
		tracer:     otel.Tracer(tracerName),
	}
}

// Fetch holds the gate for the whole attempt: connect, send, scrape, close.
// It returns a positive, finite price or an error describing the failure.
func (f *Fetcher) Fetch(ctx context.Context, d provider.Descriptor) (float64, error) {
	start := time.Now()

	ctx, span := f.tracer.Start(ctx, "fetcher.Fetch", trace.WithAttributes(
		attribute.String("provider.domain", d.Domain),
		attribute.String("provider.path", d.APIPath),
		attribute.Int("provider.port", d.EffectivePort()),
	))
	defer span.End()

	price, err := f.fetchGated(ctx, d)
	duration := time.Since(start).Seconds()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		f.metrics.RecordProviderRequest(d.Name(), "failure", duration)
		f.metrics.RecordProviderError(d.Name(), errorType(err))
		return 0, err
	}

	span.SetAttributes(attribute.Float64("price", price))
	f.metrics.RecordProviderRequest(d.Name(), "success", duration)
	return price, nil
}

func (f *Fetcher) fetchGated(ctx context.Context, d provider.Descriptor) (float64, error) {
	if err := f.gate.Acquire(ctx); err != nil {
		return 0, err
	}
	defer f.gate.Release()

	logger := f.logger.With(
		zap.String("fetchId", uuid.New().String()),
		zap.String("provider", d.Name()),
	)
	return f.fetch(ctx, d, logger)
}

func (f *Fetcher) fetch(ctx context.Context, d provider.Descriptor, logger *zap.Logger) (float64, error) {
	logger.Debug("Connecting to provider", zap.String("address", d.Address()))

	conn, err := f.dialer.Dial(ctx, d.Domain, d.EffectivePort())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, err
	}
	defer conn.Close()

	// Unblocks a pending read when the caller gives up
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	transport.SendRequest(conn, transport.BuildRequest(d), logger)

	lines := transport.NewLineReader(conn, backoff.NewConstantBackOff(f.retryPause))
	res, err := scraper.Scrape(ctx, lines, d.PriceKey, d.Offset)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		if errors.Is(err, transport.ErrConnectionClosed) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", transport.ErrConnectionClosed, err)
	}

	if !res.Parsed || !(res.Price > 0) || math.IsInf(res.Price, 0) {
		logger.Warn("No price in provider response",
			zap.Bool("keyMatched", res.Matched),
			zap.String("priceKey", d.PriceKey),
			zap.Int("bodyBytes", len(res.Body)),
		)
		return 0, ErrNoPriceFound{Domain: d.Domain, PriceKey: d.PriceKey, Matched: res.Matched}
	}

	logger.Debug("Fetched price", zap.Float64("price", res.Price))
	return res.Price, nil
}

// errorType labels a fetch failure for metrics
func errorType(err error) string {
	var (
		unavailable transport.ErrNetworkUnavailable
		connect     transport.ErrConnectFailed
		noPrice     ErrNoPriceFound
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.As(err, &unavailable):
		return "network_unavailable"
	case errors.As(err, &connect):
		return "connect_failed"
	case errors.As(err, &noPrice):
		return "no_price"
	case errors.Is(err, transport.ErrConnectionClosed):
		return "connection_closed"
	default:
		return "recv"
	}
}
