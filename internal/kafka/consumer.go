package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tradeforge/position-service/internal/metrics"
	"github.com/tradeforge/position-service/internal/models"
)

// Reader abstracts the Kafka reader so tests can feed messages directly.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// TradeApplier is the slice of the service the consumer drives.
type TradeApplier interface {
	RegisterTrade(ctx context.Context, t *models.Trade)
	AmendTrade(ctx context.Context, id int64, newQuantity *int64, newPrice *decimal.Decimal)
	CancelTrade(ctx context.Context, id int64)
}

// Consumer applies trade lifecycle events from Kafka to the ledger service.
type Consumer struct {
	reader  Reader
	applier TradeApplier
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

// NewConsumer creates a consumer reading trade events from the given topic.
func NewConsumer(brokers []string, topic, groupID string, applier TradeApplier, m *metrics.Metrics, log logrus.FieldLogger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})
	return NewConsumerWithReader(reader, applier, m, log)
}

// NewConsumerWithReader wires a consumer onto an existing reader.
func NewConsumerWithReader(reader Reader, applier TradeApplier, m *metrics.Metrics, log logrus.FieldLogger) *Consumer {
	return &Consumer{
		reader:  reader,
		applier: applier,
		metrics: m,
		log:     log,
	}
}

// Start consumes messages until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info("starting trade event consumer")

	for {
		select {
		case <-ctx.Done():
			c.log.Info("trade event consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return c.reader.Close()
				}
				c.log.WithError(err).Error("error reading message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.metrics.EventsDropped.Inc()
				c.log.WithError(err).Error("error processing message")
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single trade event.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event models.TradeEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal trade event: %w", err)
	}

	switch event.EventType {
	case models.EventTradeCreated:
		if event.Trade == nil {
			return fmt.Errorf("%s event without trade payload", event.EventType)
		}
		c.applier.RegisterTrade(ctx, event.Trade)
	case models.EventTradeAmended:
		c.applier.AmendTrade(ctx, event.TradeID, event.NewQuantity, event.NewPrice)
	case models.EventTradeCancelled:
		c.applier.CancelTrade(ctx, event.TradeID)
	default:
		return fmt.Errorf("unknown event type: %s", event.EventType)
	}

	c.metrics.EventsConsumed.WithLabelValues(event.EventType).Inc()
	return nil
}
