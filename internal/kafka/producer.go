package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tradeforge/position-service/internal/models"
)

// Producer publishes position snapshots to Kafka.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a producer for the position updates topic.
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer, topic: topic}
}

// PublishPositionUpdated publishes the position snapshot keyed by instrument.
func (p *Producer) PublishPositionUpdated(ctx context.Context, pos *models.Position) error {
	event := models.PositionEvent{
		EventType:  models.EventPositionUpdated,
		Instrument: pos.Instrument,
		Position:   pos,
		Timestamp:  time.Now(),
	}
	return p.publish(ctx, pos.Instrument, event)
}

func (p *Producer) publish(ctx context.Context, key string, event interface{}) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close shuts down the producer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
