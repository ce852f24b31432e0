package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Recorder interface {
	RecordOrder(ctx context.Context, event OrderEvent) error
}

const defaultRetryDelay = time.Second

type Consumer struct {
	Reader MessageReader
	Stats  Recorder
	Log    *zap.SugaredLogger
	// RetryDelay is the pause after a failed read.
	RetryDelay time.Duration
}

func NewConsumer(reader MessageReader, stats Recorder, log *zap.SugaredLogger) *Consumer {
	return &Consumer{Reader: reader, Stats: stats, Log: log, RetryDelay: defaultRetryDelay}
}

func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
}

// Start consumes until ctx is cancelled. Undecodable or failing messages are
// logged and skipped.
func (c *Consumer) Start(ctx context.Context) error {
	c.Log.Infow("order event consumer started")
	for {
		message, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.Log.Infow("order event consumer stopped")
				return nil
			}
			c.Log.Errorw("read message", "error", err, "retry_in", c.RetryDelay)
			select {
			case <-ctx.Done():
				c.Log.Infow("order event consumer stopped")
				return nil
			case <-time.After(c.RetryDelay):
			}
			continue
		}

		if err := c.Handle(ctx, message); err != nil {
			c.Log.Errorw("handle message", "offset", message.Offset, "partition", message.Partition, "error", err)
		}
	}
}

func (c *Consumer) Handle(ctx context.Context, message kafka.Message) error {
	var event OrderEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("decode order event: %w", err)
	}

	if event.Type != TypeOrderPlaced {
		return nil
	}

	if err := c.Stats.RecordOrder(ctx, event); err != nil {
		return err
	}

	c.Log.Debugw("order event recorded", "order_id", event.OrderID, "restaurant_id", event.RestaurantID)
	return nil
}
