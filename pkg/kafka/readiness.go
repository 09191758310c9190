package kafka

import (
	"context"
	"fmt"
	"log"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

const dialRetryInterval = 1 * time.Second

// WaitForBroker blocks until at least one broker accepts connections or the
// timeout elapses. The bridge has no value without the log, so callers treat
// a timeout as fatal.
func WaitForBroker(ctx context.Context, brokers []string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		for _, addr := range brokers {
			conn, err := kafkago.DialContext(ctx, "tcp", addr)
			if err == nil {
				conn.Close()
				return nil
			}
			log.Printf("[Kafka] broker %s not reachable yet: %v", addr, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("no broker reachable within %v: %w", timeout, ctx.Err())
		case <-time.After(dialRetryInterval):
		}
	}
}
