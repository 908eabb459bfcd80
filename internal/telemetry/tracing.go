// Package telemetry installs the OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// TracingConfig selects where spans go
type TracingConfig struct {
	Enabled     bool
	JaegerURL   string
	ServiceName string
	Environment string
}

// InitTracing installs a Jaeger-backed tracer provider when enabled. The
// returned shutdown flushes pending spans; it is a no-op when disabled.
func InitTracing(cfg TracingConfig, logger *zap.Logger) (func(context.Context) error, error) {
	if !cfg.Enabled || cfg.JaegerURL == "" {
		logger.Info("Tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerURL)))
	if err != nil {
		return nil, fmt.Errorf("create jaeger exporter: %w", err)
	}

	tp := NewTracerProvider(exporter, cfg.ServiceName, cfg.Environment)
	otel.SetTracerProvider(tp)

	logger.Info("Tracing enabled", zap.String("jaegerUrl", cfg.JaegerURL))
	return tp.Shutdown, nil
}

// NewTracerProvider batches spans from the named service to exporter
func NewTracerProvider(exporter sdktrace.SpanExporter, serviceName, environment string) *sdktrace.TracerProvider {
	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("deployment.environment", environment),
	)
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
}
