package history

import (
	"sync"

	"github.com/kafbridge/kafbridge/pkg/kafka"
)

// DefaultCapacity matches the tail depth the marketplace UI replays on
// connect.
const DefaultCapacity = 100

// Buffer keeps the most recent accepted messages of one topic in arrival
// order. Single writer (the ingestor), concurrent snapshot readers.
type Buffer struct {
	mu       sync.RWMutex
	capacity int
	messages []*kafka.DecodedMessage
	total    int
}

// NewBuffer constructs a buffer with bounded capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity}
}

// Append stores the message, evicting the oldest when capacity is exceeded.
func (b *Buffer) Append(msg *kafka.DecodedMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
	if len(b.messages) > b.capacity {
		b.messages = b.messages[len(b.messages)-b.capacity:]
	}
	b.total++
}

// Snapshot returns a copy of the buffered messages in arrival order.
func (b *Buffer) Snapshot() []*kafka.DecodedMessage {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snapshot := make([]*kafka.DecodedMessage, len(b.messages))
	copy(snapshot, b.messages)
	return snapshot
}

// Len returns the current number of buffered messages.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.messages)
}

// Last returns the most recently buffered message, or nil when empty.
func (b *Buffer) Last() *kafka.DecodedMessage {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.messages) == 0 {
		return nil
	}
	return b.messages[len(b.messages)-1]
}

// Total returns the number of messages ever appended, evicted or not.
func (b *Buffer) Total() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total
}
