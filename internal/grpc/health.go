// Package grpc keeps the standard gRPC health service in step with the
// price fetch service's readiness.
package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name the health status is published under
const ServiceName = "price_fetch_service"

const defaultCheckTimeout = 2 * time.Second

// HealthChecker reports whether the service can answer requests
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthReporter polls a HealthChecker and publishes the result
type HealthReporter struct {
	server   *health.Server
	checker  HealthChecker
	interval time.Duration
	logger   *zap.Logger
	last     grpc_health_v1.HealthCheckResponse_ServingStatus
}

// NewHealthReporter creates a reporter for server
func NewHealthReporter(server *health.Server, checker HealthChecker, interval time.Duration, logger *zap.Logger) *HealthReporter {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthReporter{
		server:   server,
		checker:  checker,
		interval: interval,
		logger:   logger,
		last:     grpc_health_v1.HealthCheckResponse_UNKNOWN,
	}
}

// Check runs one health check and publishes the status
func (r *HealthReporter) Check(ctx context.Context) grpc_health_v1.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, defaultCheckTimeout)
	defer cancel()

	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err := r.checker.Health(ctx); err != nil {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		if r.last != status {
			r.logger.Warn("Service not serving", zap.Error(err))
		}
	} else if r.last != status {
		r.logger.Info("Service serving")
	}

	r.last = status
	r.server.SetServingStatus(ServiceName, status)
	r.server.SetServingStatus("", status)
	return status
}

// Run checks on every interval until ctx ends, then marks everything not serving
func (r *HealthReporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			r.server.Shutdown()
			return
		case <-ticker.C:
			r.Check(ctx)
		}
	}
}
