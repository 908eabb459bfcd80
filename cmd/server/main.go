package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/config"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/events"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/fetcher"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/handler"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/metrics"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/provider"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/repository"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/service"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/telemetry"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpchealth "github.com/patteeraL/movra/services/price-fetch-service/internal/grpc"
)

const serviceName = "price-fetch-service"

func main() {
	// .env is optional
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg)
	defer logger.Sync()

	logger.Info("Starting Price Fetch Service",
		zap.String("environment", cfg.Environment),
		zap.Int("httpPort", cfg.HTTPPort),
		zap.Int("grpcPort", cfg.GRPCPort),
	)

	// Cancelled on shutdown; aborts in-flight fetches between line reads
	rootCtx, stopFetches := context.WithCancel(context.Background())
	defer stopFetches()

	shutdownTracing, err := telemetry.InitTracing(telemetry.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		JaegerURL:   cfg.JaegerURL,
		ServiceName: serviceName,
		Environment: cfg.Environment,
	}, logger)
	if err != nil {
		logger.Warn("Tracing setup failed, continuing without traces", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}

	// Setup Redis client
	redisClient := setupRedis(cfg, logger)

	// Local provider for running without internet access
	simulated := setupSimulatedProvider(cfg, logger)

	// Setup provider registry; provider strings are read exactly once, here
	registry := provider.NewRegistry(cfg.FirstHopProvider, cfg.SecondHopProvider, logger)

	// Setup metrics
	appMetrics := metrics.NewMetrics("price_fetch_service", prometheus.DefaultRegisterer)

	// One gate for the whole process
	priceFetcher := fetcher.NewFetcher(transport.NewNetDialer(), fetcher.NewGate(), cfg.RetryPause, logger, appMetrics)

	publisher := setupPublisher(cfg, logger)

	// Create price service with dependency injection
	priceService := service.NewPriceFetchService(
		cfg,
		registry,
		priceFetcher,
		repository.NewRedisRepository(redisClient),
		publisher,
		logger,
		appMetrics,
	)

	// Setup Gin router
	router := setupRouter(cfg, logger, priceService)

	// Create HTTP server
	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context { return rootCtx },
	}

	// Create gRPC server
	grpcServer, healthReporter := setupGRPCServer(priceService, logger)
	go healthReporter.Run(rootCtx)

	// Start servers
	startServers(cfg, httpServer, grpcServer, logger)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down servers...")

	stopFetches()
	priceService.Shutdown()

	// Graceful shutdown
	shutdownServers(httpServer, grpcServer, redisClient, publisher, simulated, shutdownTracing, logger)

	logger.Info("Servers stopped")
}

func setupLogger(cfg *config.Config) *zap.Logger {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}

	return logger
}

func setupRedis(cfg *config.Config, logger *zap.Logger) *redis.Client {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Warn("Redis connection failed, quotes will not be cached", zap.Error(err))
	} else {
		logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
	}

	return redisClient
}

// setupSimulatedProvider starts the local endpoint and points every hop
// without its own provider string at it
func setupSimulatedProvider(cfg *config.Config, logger *zap.Logger) *provider.SimulatedEndpoint {
	if !cfg.SimulatedProviderEnabled {
		return nil
	}

	simCfg := provider.DefaultSimulatedConfig()
	simCfg.MaxDrift = cfg.SimulatedMaxDrift
	simulated := provider.NewSimulatedEndpoint(simCfg, logger)
	if err := simulated.Start(); err != nil {
		logger.Warn("Simulated provider unavailable", zap.Error(err))
		return nil
	}

	if cfg.FirstHopProvider == "" {
		cfg.FirstHopProvider = simulated.Descriptor(provider.FirstHop).String()
	}
	if cfg.SecondHopProvider == "" {
		cfg.SecondHopProvider = simulated.Descriptor(provider.SecondHop).String()
	}
	return simulated
}

func setupPublisher(cfg *config.Config, logger *zap.Logger) events.QuotePublisher {
	if !cfg.EventsEnabled() {
		logger.Info("Quote events disabled, no Kafka brokers configured")
		return events.NopPublisher{}
	}

	logger.Info("Publishing quote events",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopicQuote),
	)
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicQuote)
}

func setupRouter(cfg *config.Config, logger *zap.Logger, priceService *service.PriceFetchService) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// Setup HTTP handler
	httpHandler := handler.NewHTTPHandler(priceService, logger)
	httpHandler.SetupRoutes(router)

	// Metrics endpoint
	if cfg.MetricsEnabled {
		router.GET(cfg.MetricsEndpoint, gin.WrapH(promhttp.Handler()))
	}

	return router
}

func setupGRPCServer(priceService *service.PriceFetchService, logger *zap.Logger) (*grpc.Server, *grpchealth.HealthReporter) {
	grpcServer := grpc.NewServer()

	// Register health check service
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	reporter := grpchealth.NewHealthReporter(healthServer, priceService, 10*time.Second, logger)

	// Enable reflection for debugging (disable in production if needed)
	reflection.Register(grpcServer)

	return grpcServer, reporter
}

func startServers(cfg *config.Config, httpServer *http.Server, grpcServer *grpc.Server, logger *zap.Logger) {
	// Start HTTP server
	go func() {
		logger.Info("Starting HTTP server", zap.Int("port", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Start gRPC server
	go func() {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
		if err != nil {
			logger.Fatal("Failed to listen for gRPC", zap.Error(err))
		}

		logger.Info("Starting gRPC server", zap.Int("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()
}

func shutdownServers(
	httpServer *http.Server,
	grpcServer *grpc.Server,
	redisClient *redis.Client,
	publisher events.QuotePublisher,
	simulated *provider.SimulatedEndpoint,
	shutdownTracing func(context.Context) error,
	logger *zap.Logger,
) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Gracefully stop gRPC server
	grpcServer.GracefulStop()

	if simulated != nil {
		if err := simulated.Close(ctx); err != nil {
			logger.Error("Simulated provider shutdown error", zap.Error(err))
		}
	}

	if err := publisher.Close(); err != nil {
		logger.Error("Quote publisher close error", zap.Error(err))
	}

	// Close Redis connection
	if err := redisClient.Close(); err != nil {
		logger.Error("Redis close error", zap.Error(err))
	}

	if err := shutdownTracing(ctx); err != nil {
		logger.Error("Tracing shutdown error", zap.Error(err))
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
		)
	}
}
