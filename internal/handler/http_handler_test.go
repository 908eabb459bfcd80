package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/fetcher"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/model"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockPriceService implements PriceService for testing
type MockPriceService struct {
	FetchHopFunc  func(ctx context.Context, hop provider.Hop) (*model.HopPrice, error)
	GetQuoteFunc  func(ctx context.Context) (*model.Quote, error)
	ProvidersFunc func() []model.ProviderList
	HealthFunc    func(ctx context.Context) error
}

func (m *MockPriceService) FetchHop(ctx context.Context, hop provider.Hop) (*model.HopPrice, error) {
	if m.FetchHopFunc != nil {
		return m.FetchHopFunc(ctx, hop)
	}
	return &model.HopPrice{Hop: hop, Price: decimal.RequireFromString("1.5"), Provider: "mock"}, nil
}

func (m *MockPriceService) GetQuote(ctx context.Context) (*model.Quote, error) {
	if m.GetQuoteFunc != nil {
		return m.GetQuoteFunc(ctx)
	}
	return &model.Quote{QuoteID: "q-1", Pair: "YAC/USD", Price: decimal.RequireFromString("0.00522852")}, nil
}

func (m *MockPriceService) Providers() []model.ProviderList {
	if m.ProvidersFunc != nil {
		return m.ProvidersFunc()
	}
	return []model.ProviderList{
		{Hop: provider.FirstHop, Providers: provider.DefaultProviders(provider.FirstHop)},
		{Hop: provider.SecondHop, Providers: provider.DefaultProviders(provider.SecondHop)},
	}
}

func (m *MockPriceService) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

func newTestRouter(svc PriceService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHTTPHandler(svc, zap.NewNop()).SetupRoutes(r)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := get(newTestRouter(&MockPriceService{}), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestReady_RepositoryDown(t *testing.T) {
	svc := &MockPriceService{HealthFunc: func(ctx context.Context) error {
		return errors.New("redis unavailable")
	}}

	w := get(newTestRouter(svc), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = get(newTestRouter(&MockPriceService{}), "/ready")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetQuote(t *testing.T) {
	w := get(newTestRouter(&MockPriceService{}), "/api/price")
	require.Equal(t, http.StatusOK, w.Code)

	var quote model.Quote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))
	assert.Equal(t, "q-1", quote.QuoteID)
	assert.True(t, decimal.RequireFromString("0.00522852").Equal(quote.Price))
}

func TestGetQuote_Exhausted(t *testing.T) {
	svc := &MockPriceService{GetQuoteFunc: func(ctx context.Context) (*model.Quote, error) {
		return nil, fetcher.ErrProviderExhausted{Hop: provider.FirstHop, Attempts: 2}
	}}

	w := get(newTestRouter(svc), "/api/price")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "first_hop")
}

func TestGetQuote_OtherError(t *testing.T) {
	svc := &MockPriceService{GetQuoteFunc: func(ctx context.Context) (*model.Quote, error) {
		return nil, context.Canceled
	}}

	w := get(newTestRouter(svc), "/api/price")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHopRoutes(t *testing.T) {
	var hops []provider.Hop
	svc := &MockPriceService{FetchHopFunc: func(ctx context.Context, hop provider.Hop) (*model.HopPrice, error) {
		hops = append(hops, hop)
		return &model.HopPrice{Hop: hop, Price: decimal.RequireFromString("615.12")}, nil
	}}
	r := newTestRouter(svc)

	w := get(r, "/api/price/first-hop")
	assert.Equal(t, http.StatusOK, w.Code)
	w = get(r, "/api/price/second-hop")
	assert.Equal(t, http.StatusOK, w.Code)

	var hp model.HopPrice
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hp))
	assert.Equal(t, provider.SecondHop, hp.Hop)
	assert.Equal(t, []provider.Hop{provider.FirstHop, provider.SecondHop}, hops)
}

func TestGetProviders(t *testing.T) {
	w := get(newTestRouter(&MockPriceService{}), "/api/providers")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Providers []model.ProviderList `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Providers, 2)
	assert.Equal(t, "data.bter.com", body.Providers[0].Providers[0].Domain)
}
