package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const TypeOrderPlaced = "order.placed"

type OrderEvent struct {
	Type         string          `json:"type"`
	OrderID      uuid.UUID       `json:"orderId"`
	RestaurantID uuid.UUID       `json:"restaurantId"`
	CustomerID   uuid.UUID       `json:"customerId"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	ItemCount    int             `json:"itemCount"`
	PlacedAt     time.Time       `json:"placedAt"`
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	Writer MessageWriter
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{Writer: writer}
}

// NewWriter builds a writer for topic that hashes keys, so events of one
// restaurant stay on one partition.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, event OrderEvent) error {
	event.Type = TypeOrderPlaced

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RestaurantID.String()),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}

	return nil
}

// NopPublisher drops events; used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, OrderEvent) error {
	return nil
}
