// Package events publishes message-created notifications to Kafka for
// downstream consumers (search indexing, notification fan-out). Publishing
// is fire-and-forget from the chat flow's point of view; a broker outage
// never blocks a send.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"marketplace-chat/internal/models"

	"github.com/segmentio/kafka-go"
)

type MessageCreatedEvent struct {
	Type      string               `json:"type"`
	Message   models.MessageRecord `json:"message"`
	EmittedAt time.Time            `json:"emittedAt"`
}

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// MessageCreated publishes the record keyed by chat ID, so all events of one
// chat land on the same partition in order.
func (p *Publisher) MessageCreated(ctx context.Context, record models.MessageRecord) error {
	payload, err := json.Marshal(MessageCreatedEvent{
		Type:      "chat.message.created",
		Message:   record,
		EmittedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("event marshal failed: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(record.ChatID), 10)),
		Value: payload,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
