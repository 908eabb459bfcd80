package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the price fetch service
type Config struct {
	// Server ports
	HTTPPort int `env:"HTTP_PORT" env-default:"8082"`
	GRPCPort int `env:"GRPC_PORT" env-default:"9092"`

	// Redis connection
	RedisAddr string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" env-default:"0"`

	// Observability
	JaegerURL       string `env:"JAEGER_URL" env-default:"http://localhost:14268/api/traces"`
	TracingEnabled  bool   `env:"TRACING_ENABLED" env-default:"false"`
	MetricsEnabled  bool   `env:"METRICS_ENABLED" env-default:"true"`
	MetricsEndpoint string `env:"METRICS_ENDPOINT" env-default:"/metrics"`

	// Environment
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`

	// Quote caching
	QuoteCacheTTL time.Duration `env:"QUOTE_CACHE_TTL" env-default:"60s"`

	// Provider configuration: domain,priceKey,apiPath,offset[,port]
	FirstHopProvider  string `env:"FIRST_HOP_PROVIDER"`
	SecondHopProvider string `env:"SECOND_HOP_PROVIDER"`

	// Pair labels for the two legs
	FirstHopPair  string `env:"FIRST_HOP_PAIR" env-default:"YAC/BTC"`
	SecondHopPair string `env:"SECOND_HOP_PAIR" env-default:"BTC/USD"`

	// Pause after a transient receive condition
	RetryPause time.Duration `env:"RETRY_PAUSE" env-default:"10ms"`

	// Local simulated provider, injected for any hop without a provider string
	SimulatedProviderEnabled bool    `env:"SIMULATED_PROVIDER_ENABLED" env-default:"false"`
	SimulatedMaxDrift        float64 `env:"SIMULATED_MAX_DRIFT" env-default:"0.02"`

	// Quote events; disabled when no brokers are set
	KafkaBrokers    []string `env:"KAFKA_BROKERS" env-separator:","`
	KafkaTopicQuote string   `env:"KAFKA_TOPIC_QUOTES" env-default:"price.quotes"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// EventsEnabled reports whether quote events should be published
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
