package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kafbridge/kafbridge/pkg/broadcast"
	"github.com/kafbridge/kafbridge/pkg/history"
	"github.com/kafbridge/kafbridge/pkg/kafka"
)

// readPollInterval bounds each blocking read so the loop can observe
// context cancellation between records.
const readPollInterval = 1 * time.Second

// Ingestor is the single long-running reader that multiplexes every topic
// partition, feeds the history buffers and fans accepted messages out
// through the hub.
type Ingestor struct {
	reader kafka.PartitionReader
	store  *history.Store
	hub    *broadcast.Hub
	depth  int
}

func New(reader kafka.PartitionReader, store *history.Store, hub *broadcast.Hub, depth int) *Ingestor {
	if depth <= 0 {
		depth = history.DefaultCapacity
	}
	return &Ingestor{reader: reader, store: store, hub: hub, depth: depth}
}

// Hydrate positions the reader so that the first records consumed are the
// last depth messages of every topic. Two phases: record each topic's end
// offset, then assign all topics at max(low, end-depth). The low watermark
// clamp keeps the seek inside the log after truncation; for a log starting
// at offset 0 it equals the plain max(0, end-depth).
//
// Must complete before the broadcast or status surface is served, so the
// buffers are pre-populated before live tailing begins.
func (i *Ingestor) Hydrate() error {
	offsets := make(map[string]int64, len(i.store.Topics()))
	for _, topic := range i.store.Topics() {
		low, high, err := i.reader.Watermarks(topic)
		if err != nil {
			return fmt.Errorf("hydrate %s: %w", topic, err)
		}
		start := high - int64(i.depth)
		if start < low {
			start = low
		}
		offsets[topic] = start
		log.Printf("[Ingest] %s: log end %d, tailing from %d", topic, high, start)
	}
	if err := i.reader.Assign(offsets); err != nil {
		return fmt.Errorf("hydrate assign: %w", err)
	}
	return nil
}

// Run consumes records until the context is canceled or the reader fails.
// Decode failures and filtered records never end the loop; a reader error
// does, permanently for the process lifetime. The caller decides whether
// that stops anything beyond ingestion.
func (i *Ingestor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := i.reader.Read(readPollInterval)
		if err != nil {
			return fmt.Errorf("ingestion reader failed: %w", err)
		}
		if msg == nil {
			continue
		}

		decoded, err := kafka.Decode(msg)
		if err != nil {
			log.Printf("[Ingest] %v", err)
			continue
		}
		if !kafka.StatusOK(decoded.Value) {
			continue
		}

		buf := i.store.Buffer(decoded.Topic)
		if buf == nil {
			// Only assigned topics reach here; an unknown one means the
			// assignment and the store disagree.
			log.Printf("[Ingest] record for unassigned topic %s dropped", decoded.Topic)
			continue
		}
		buf.Append(decoded)
		i.hub.Publish(decoded)
	}
}
