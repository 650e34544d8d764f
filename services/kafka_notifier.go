package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/washwala/laundry-api/logging"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes lifecycle events to a Kafka topic keyed by order id
type KafkaNotifier struct {
	writer messageWriter
	log    *slog.Logger
}

func NewKafkaNotifier(brokers []string, topic string, log *slog.Logger) *KafkaNotifier {
	log = logging.OrDiscard(log).With("component", "kafka_notifier", "topic", topic)
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		// WriteMessages returns before the broker acks; failures reach Completion
		Async: true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Error("failed to publish events", "count", len(messages), "error", err)
			}
		},
	}
	return &KafkaNotifier{writer: writer, log: log}
}

func (k *KafkaNotifier) Notify(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.OrderID), 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
