package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/praneshkm/evconv/internal/event"
)

// KafkaSink publishes events as JSON messages keyed by message_id, so
// duplicates land in the same partition and compact away downstream.
type KafkaSink struct {
	writer *kafka.Writer
}

// ParseBrokers parses a comma-separated broker list and trims whitespace.
func ParseBrokers(brokers string) []string {
	if brokers == "" {
		return nil
	}
	list := strings.Split(brokers, ",")
	for i := range list {
		list[i] = strings.TrimSpace(list[i])
	}
	return list
}

// NewKafkaSink creates a sink writing to topic on the given brokers.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka sink: brokers cannot be empty")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka sink: topic cannot be empty")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaSink{writer: w}, nil
}

func (s *KafkaSink) Publish(ctx context.Context, messageID string, ev *event.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", messageID, err)
	}
	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(messageID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publish event %s: %w", messageID, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
