package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/model"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockWriter implements MessageWriter for testing
type MockWriter struct {
	Messages []kafka.Message
	Err      error
	Closed   bool
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockWriter) Close() error {
	m.Closed = true
	return nil
}

func TestKafkaPublisher_PublishQuote(t *testing.T) {
	w := &MockWriter{}
	p := NewKafkaPublisherWithWriter(w)

	q := &model.Quote{
		QuoteID:   "q-1",
		Pair:      "YAC/USD",
		Price:     decimal.RequireFromString("0.00522852"),
		FetchedAt: time.Now(),
	}
	require.NoError(t, p.PublishQuote(context.Background(), q))
	require.Len(t, w.Messages, 1)

	msg := w.Messages[0]
	assert.Equal(t, "YAC/USD", string(msg.Key))

	var event QuoteEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, EventTypeQuoteGenerated, event.EventType)
	assert.Equal(t, "q-1", event.Quote.QuoteID)
	assert.True(t, q.Price.Equal(event.Quote.Price))
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := &MockWriter{Err: errors.New("broker down")}
	p := NewKafkaPublisherWithWriter(w)

	err := p.PublishQuote(context.Background(), &model.Quote{QuoteID: "q-2", Pair: "YAC/USD"})
	assert.ErrorContains(t, err, "q-2")
	assert.ErrorIs(t, err, w.Err)
}

func TestKafkaPublisher_Close(t *testing.T) {
	w := &MockWriter{}
	require.NoError(t, NewKafkaPublisherWithWriter(w).Close())
	assert.True(t, w.Closed)
}
