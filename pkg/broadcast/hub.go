package broadcast

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/kafbridge/kafbridge/pkg/history"
	"github.com/kafbridge/kafbridge/pkg/kafka"
)

// subscriberQueueSize bounds each subscriber's outbound queue. It must hold
// at least one snapshot batch per topic plus live headroom.
const subscriberQueueSize = 256

// Event is one frame on a subscriber's queue: either a snapshot batch
// (Batch non-nil, sent once per non-empty topic on connect) or a single
// live message.
type Event struct {
	Topic   string
	Batch   []*kafka.DecodedMessage
	Message *kafka.DecodedMessage
}

// Subscriber is one connected client. Events arrive on a buffered channel
// so a slow client never stalls ingestion; frames it cannot keep up with
// are dropped for that client only.
type Subscriber struct {
	ch      chan Event
	dropped atomic.Int64
}

// Events returns the subscriber's frame stream. It is closed on
// Unsubscribe.
func (s *Subscriber) Events() <-chan Event { return s.ch }

// Dropped returns how many frames were discarded because the subscriber's
// queue was full.
func (s *Subscriber) Dropped() int64 { return s.dropped.Load() }

// Hub fans ingested messages out to every subscriber and replays the
// current history snapshot to each newly connected one.
type Hub struct {
	store *history.Store

	mu   sync.RWMutex
	subs map[*Subscriber]struct{}
}

func NewHub(store *history.Store) *Hub {
	return &Hub{store: store, subs: make(map[*Subscriber]struct{})}
}

// Publish delivers msg to every current subscriber. Per-topic order follows
// call order; a saturated subscriber loses the frame rather than blocking
// the caller.
func (h *Hub) Publish(msg *kafka.DecodedMessage) {
	ev := Event{Topic: msg.Topic, Message: msg}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			if sub.dropped.Add(1) == 1 {
				log.Printf("[Broadcast] slow subscriber, dropping frames on %s", msg.Topic)
			}
		}
	}
}

// Subscribe registers a new client. Its queue is pre-loaded with one
// snapshot batch per non-empty topic before any live message can reach it.
// A message ingested while the snapshot is being taken may show up in both
// the batch and the live stream; the client state converges either way.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{ch: make(chan Event, subscriberQueueSize)}

	for _, topic := range h.store.Topics() {
		snapshot := h.store.Buffer(topic).Snapshot()
		if len(snapshot) == 0 {
			continue
		}
		sub.ch <- Event{Topic: topic, Batch: snapshot}
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes the client and closes its queue. Safe to call once
// per subscriber.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	h.mu.Unlock()
	if ok {
		close(sub.ch)
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
