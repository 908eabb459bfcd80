package fetcher

import (
	"context"
	"errors"

	"github.com/patteeraL/movra/services/price-fetch-service/internal/metrics"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/provider"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Rotator walks one hop's provider list, starting at the last known good
// provider, until a fetch succeeds or every provider has been tried once.
type Rotator struct {
	hop       provider.Hop
	providers []provider.Descriptor
	fetcher   PriceFetcher
	logger    *zap.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// NewRotator creates a Rotator over a fixed provider list
func NewRotator(
	hop provider.Hop,
	providers []provider.Descriptor,
	fetcher PriceFetcher,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Rotator {
	list := make([]provider.Descriptor, len(providers))
	copy(list, providers)

	return &Rotator{
		hop:       hop,
		providers: list,
		fetcher:   fetcher,
		logger:    logger.With(zap.String("hop", string(hop))),
		metrics:   m,
		tracer:    otel.Tracer(tracerName),
	}
}

// Hop returns the leg this rotator serves
func (r *Rotator) Hop() provider.Hop {
	return r.hop
}

// Rotate fetches a price starting at *cursor.
//
// On success *cursor points at the provider that answered. When all
// providers fail, *cursor is back at its starting value and the error is
// ErrProviderExhausted. A cursor outside the list starts from 0. If ctx ends
// mid rotation, *cursor is restored and ctx's error is returned.
func (r *Rotator) Rotate(ctx context.Context, cursor *int) (float64, error) {
	n := len(r.providers)

	ctx, span := r.tracer.Start(ctx, "fetcher.Rotate", trace.WithAttributes(
		attribute.String("hop", string(r.hop)),
		attribute.Int("providers", n),
	))
	defer span.End()

	if n == 0 {
		err := ErrProviderExhausted{Hop: r.hop}
		r.fail(span, err, "exhausted")
		return 0, err
	}

	if *cursor < 0 || *cursor >= n {
		r.logger.Warn("Cursor out of range, starting from first provider", zap.Int("cursor", *cursor))
		*cursor = 0
	}
	start := *cursor

	attempts := 0
	for {
		d := r.providers[*cursor]
		attempts++

		price, err := r.fetcher.Fetch(ctx, d)
		if err == nil {
			span.SetAttributes(
				attribute.Int("attempts", attempts),
				attribute.String("provider.domain", d.Domain),
			)
			r.metrics.RecordRotation(string(r.hop), "success", price)
			r.logger.Info("Fetched price",
				zap.String("provider", d.Name()),
				zap.Int("cursor", *cursor),
				zap.Int("attempts", attempts),
				zap.Float64("price", price),
			)
			return price, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			*cursor = start
			r.fail(span, ctxErr, "cancelled")
			return 0, ctxErr
		}

		r.logger.Warn("Provider failed, trying next",
			zap.String("provider", d.Name()),
			zap.Int("cursor", *cursor),
			zap.Error(err),
		)

		*cursor = (*cursor + 1) % n
		if *cursor == start {
			exhausted := ErrProviderExhausted{Hop: r.hop, Attempts: attempts, Last: err}
			r.fail(span, exhausted, "exhausted")
			r.logger.Error("All providers failed", zap.Int("attempts", attempts), zap.Error(err))
			return 0, exhausted
		}
	}
}

func (r *Rotator) fail(span trace.Span, err error, status string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	r.metrics.RecordRotation(string(r.hop), status, 0)
}

// IsExhausted reports whether err means every provider of a hop failed
func IsExhausted(err error) bool {
	var exhausted ErrProviderExhausted
	return errors.As(err, &exhausted)
}
