// Package events publishes freshly composed quotes to Kafka.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/patteeraL/movra/services/price-fetch-service/internal/model"
	"github.com/segmentio/kafka-go"
)

// QuoteEvent is the message body published for every new quote
type QuoteEvent struct {
	EventType string       `json:"eventType"`
	Quote     *model.Quote `json:"quote"`
	Timestamp time.Time    `json:"timestamp"`
}

// EventTypeQuoteGenerated marks a freshly composed quote
const EventTypeQuoteGenerated = "quote.generated"

// QuotePublisher publishes quote events
type QuotePublisher interface {
	PublishQuote(ctx context.Context, quote *model.Quote) error
	Close() error
}

// MessageWriter is the part of kafka.Writer the publisher uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes quote events to a Kafka topic
type KafkaPublisher struct {
	writer MessageWriter
}

// NewKafkaPublisher creates a publisher for topic on brokers
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	})
}

// NewKafkaPublisherWithWriter wraps an existing writer
func NewKafkaPublisherWithWriter(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// PublishQuote publishes one quote keyed by its pair
func (k *KafkaPublisher) PublishQuote(ctx context.Context, quote *model.Quote) error {
	event := QuoteEvent{
		EventType: EventTypeQuoteGenerated,
		Quote:     quote,
		Timestamp: time.Now().UTC(),
	}

	msg, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal quote event: %w", err)
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(quote.Pair),
		Value: msg,
		Time:  event.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to publish quote %s: %w", quote.QuoteID, err)
	}
	return nil
}

// Close flushes and closes the writer
func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

// NopPublisher drops every event; used when no brokers are configured
type NopPublisher struct{}

func (NopPublisher) PublishQuote(context.Context, *model.Quote) error { return nil }

func (NopPublisher) Close() error { return nil }
