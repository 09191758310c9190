package kafka

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	ck "github.com/confluentinc/confluent-kafka-go/kafka"
)

const (
	// Every topic in the marketplace log has exactly one partition.
	Partition = 0

	watermarkTimeoutMs = 10_000
)

// PartitionReader is the capability the bridge needs from the log: manual
// partition assignment, watermark queries and sequential timeout reads.
// The live ingestor holds one long-lived reader; every export opens and
// tears down its own, so the two never share broker state.
type PartitionReader interface {
	// Assign seeks the reader to the given offset per topic and starts
	// consumption there. It replaces any previous assignment.
	Assign(offsets map[string]int64) error

	// Watermarks returns the earliest available and the current end offset
	// of the topic's single partition.
	Watermarks(topic string) (low, high int64, err error)

	// Read returns the next record, or (nil, nil) when no record arrived
	// within the timeout. A negative timeout blocks indefinitely.
	Read(timeout time.Duration) (*Message, error)

	Close() error
}

// Factory opens a fresh PartitionReader. Exports create and close readers
// freely through it without touching ingestion state.
type Factory func() (PartitionReader, error)

// Reader implements PartitionReader on top of the Confluent consumer.
type Reader struct {
	c *ck.Consumer
}

// NewReader creates a manually-assigned consumer. The group id is required
// by the client but never used: the bridge neither joins consumer groups
// nor commits offsets.
func NewReader(brokers []string, groupID string) (*Reader, error) {
	cm := &ck.ConfigMap{
		"bootstrap.servers":  strings.Join(brokers, ","),
		"group.id":           groupID,
		"enable.auto.commit": false,
	}
	c, err := ck.NewConsumer(cm)
	if err != nil {
		return nil, fmt.Errorf("create consumer: %w", err)
	}
	return &Reader{c: c}, nil
}

// NewFactory returns a Factory producing independent readers against the
// same brokers, one per export request.
func NewFactory(brokers []string, groupID string) Factory {
	return func() (PartitionReader, error) {
		return NewReader(brokers, groupID)
	}
}

func (r *Reader) Assign(offsets map[string]int64) error {
	parts := make([]ck.TopicPartition, 0, len(offsets))
	for topic, offset := range offsets {
		t := topic
		parts = append(parts, ck.TopicPartition{
			Topic:     &t,
			Partition: Partition,
			Offset:    ck.Offset(offset),
		})
	}
	if err := r.c.Assign(parts); err != nil {
		return fmt.Errorf("assign partitions: %w", err)
	}
	return nil
}

func (r *Reader) Watermarks(topic string) (int64, int64, error) {
	low, high, err := r.c.QueryWatermarkOffsets(topic, Partition, watermarkTimeoutMs)
	if err != nil {
		return 0, 0, fmt.Errorf("query watermarks for %s: %w", topic, err)
	}
	return low, high, nil
}

func (r *Reader) Read(timeout time.Duration) (*Message, error) {
	msg, err := r.c.ReadMessage(timeout)
	if err != nil {
		var ke ck.Error
		if errors.As(err, &ke) {
			if ke.Code() == ck.ErrTimedOut {
				return nil, nil
			}
			// Transient broker hiccups surface as retriable errors; only a
			// fatal one ends the read loop.
			if !ke.IsFatal() {
				log.Printf("[Kafka] transient read error: %v", ke)
				return nil, nil
			}
		}
		return nil, err
	}
	return &Message{
		Topic:     *msg.TopicPartition.Topic,
		Partition: int(msg.TopicPartition.Partition),
		Offset:    int64(msg.TopicPartition.Offset),
		Time:      msg.Timestamp,
		Value:     msg.Value,
	}, nil
}

func (r *Reader) Close() error { return r.c.Close() }
