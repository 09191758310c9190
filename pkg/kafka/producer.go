package kafka

import (
	"context"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

const batchTimeoutMillis = 100 // Batch timeout in milliseconds

// Producer wraps a kafka.Writer for JSON payloads. The bridge itself only
// consumes; the producer exists for the traffic generator and for tests.
type Producer struct {
	ctx    context.Context
	writer *kafkago.Writer
}

// NewProducer creates a new Kafka producer against the given brokers.
func NewProducer(ctx context.Context, brokers []string) *Producer {
	w := kafkago.NewWriter(kafkago.WriterConfig{
		Brokers:      brokers,
		Balancer:     &kafkago.LeastBytes{},
		BatchTimeout: batchTimeoutMillis * time.Millisecond,
		RequiredAcks: int(kafkago.RequireAll),
	})
	return &Producer{ctx: ctx, writer: w}
}

// Publish marshals value as JSON and sends it to topic.
func (p *Producer) Publish(topic string, value map[string]any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("json marshal failed: %w", err)
	}

	msg := kafkago.Message{
		Topic: topic,
		Value: payload,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(p.ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Close shuts down the writer cleanly.
func (p *Producer) Close() error { return p.writer.Close() }
