package provider

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// baseRates are the undrifted prices served by the simulated endpoint
var baseRates = map[Hop]float64{
	FirstHop:  0.00000850, // YAC priced in BTC
	SecondHop: 615.12,     // BTC priced in USD
}

const (
	simulatedFirstHopPath  = "/api/1/ticker/yac_btc"
	simulatedSecondHopPath = "/api/v1/ticker/btc_usd"
)

// SimulatedConfig configures the simulated price endpoint
type SimulatedConfig struct {
	// ListenAddr is the local address to bind (default 127.0.0.1:0)
	ListenAddr string

	// MaxDrift is the maximum random drift percentage (default 2%)
	MaxDrift float64

	// DriftInterval is how often prices drift (default 5 seconds)
	DriftInterval time.Duration

	// Seed for random number generator (0 for current time)
	Seed int64
}

// DefaultSimulatedConfig returns default configuration
func DefaultSimulatedConfig() SimulatedConfig {
	return SimulatedConfig{
		ListenAddr:    "127.0.0.1:0",
		MaxDrift:      0.02,
		DriftInterval: 5 * time.Second,
		Seed:          0,
	}
}

// SimulatedEndpoint is a local plain-HTTP server that answers like the
// built-in ticker providers, with drifting prices. It lets the service run
// without internet access.
type SimulatedEndpoint struct {
	config       SimulatedConfig
	logger       *zap.Logger
	rng          *rand.Rand
	mu           sync.Mutex
	currentDrift map[Hop]float64
	lastDrift    time.Time

	listener net.Listener
	server   *http.Server
}

// NewSimulatedEndpoint creates a simulated endpoint; call Start to serve
func NewSimulatedEndpoint(config SimulatedConfig, logger *zap.Logger) *SimulatedEndpoint {
	if config.ListenAddr == "" {
		config.ListenAddr = "127.0.0.1:0"
	}
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &SimulatedEndpoint{
		config:       config,
		logger:       logger,
		rng:          rand.New(rand.NewSource(seed)),
		currentDrift: make(map[Hop]float64),
	}
}

// Start binds the listener and serves in the background
func (s *SimulatedEndpoint) Start() error {
	lis, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen for simulated provider: %w", err)
	}
	s.listener = lis

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET(simulatedFirstHopPath, s.firstHopTicker)
	router.GET(simulatedSecondHopPath, s.secondHopTicker)

	s.server = &http.Server{
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Simulated provider stopped", zap.Error(err))
		}
	}()

	s.logger.Info("Simulated provider listening", zap.String("addr", lis.Addr().String()))
	return nil
}

// Close stops the server
func (s *SimulatedEndpoint) Close(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Descriptor returns a descriptor that scrapes this endpoint for a hop
func (s *SimulatedEndpoint) Descriptor(hop Hop) Descriptor {
	host, portStr, _ := net.SplitHostPort(s.listener.Addr().String())
	port, _ := strconv.Atoi(portStr)

	d := Descriptor{Domain: host, Port: port}
	switch hop {
	case FirstHop:
		d.PriceKey = "last"
		d.APIPath = simulatedFirstHopPath
		d.Offset = defaultCharacterOffset
	case SecondHop:
		d.PriceKey = "USD"
		d.APIPath = simulatedSecondHopPath
		d.Offset = unusualCharacterOffset
	}
	return d
}

// Price returns the current drifted price for a hop
func (s *SimulatedEndpoint) Price(hop Hop) float64 {
	s.updateDriftIfNeeded()

	s.mu.Lock()
	defer s.mu.Unlock()
	return baseRates[hop] * (1 + s.currentDrift[hop])
}

// firstHopTicker answers in the bter ticker shape: "last":"<price>"
func (s *SimulatedEndpoint) firstHopTicker(c *gin.Context) {
	price := strconv.FormatFloat(s.Price(FirstHop), 'f', 8, 64)
	c.Header("Connection", "close")
	c.String(http.StatusOK, `{"result":"true","last":"%s","vol_yac":"0","vol_btc":"0"}`, price)
}

// secondHopTicker answers in the bitcoinvenezuela shape: "USD":<price>
func (s *SimulatedEndpoint) secondHopTicker(c *gin.Context) {
	price := strconv.FormatFloat(s.Price(SecondHop), 'f', 2, 64)
	c.Header("Connection", "close")
	c.String(http.StatusOK, `{"BTC":{"USD":%s}}`, price)
}

// updateDriftIfNeeded updates price drift if enough time has passed
func (s *SimulatedEndpoint) updateDriftIfNeeded() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.lastDrift) < s.config.DriftInterval {
		return
	}

	for hop := range baseRates {
		// Random drift between -MaxDrift and +MaxDrift
		s.currentDrift[hop] = (s.rng.Float64()*2 - 1) * s.config.MaxDrift
	}

	s.lastDrift = time.Now()
}

// SetDrift manually sets drift for a hop (useful for testing)
func (s *SimulatedEndpoint) SetDrift(hop Hop, drift float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentDrift[hop] = drift
	s.lastDrift = time.Now()
}

// ResetDrift resets all drift to zero
func (s *SimulatedEndpoint) ResetDrift() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentDrift = make(map[Hop]float64)
	s.lastDrift = time.Now()
}
