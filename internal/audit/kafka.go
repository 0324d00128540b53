package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes entries keyed by entity id so that the events of one
// entity keep their order within a partition.
type KafkaSink struct{ w messageWriter }

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 2 * time.Second,
	}}
}

func (s *KafkaSink) Record(ctx context.Context, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	return s.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.EntityID),
		Value: b,
		Time:  e.CreatedAt,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(e.Action)},
		},
	})
}

func (s *KafkaSink) Close() error { return s.w.Close() }
