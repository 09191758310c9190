package history

import "github.com/kafbridge/kafbridge/pkg/kafka"

// Store owns one Buffer per topic. It is built once at process start and
// never mutated afterwards, so the map itself needs no locking; each buffer
// synchronizes its own access.
type Store struct {
	topics  []string
	buffers map[string]*Buffer
}

// TopicStatus is the per-topic answer of the status query. LastMessage is
// the newest buffered envelope, or the empty string when the buffer is
// empty, matching the wire format the management UI expects.
type TopicStatus struct {
	Messages    int `json:"messages"`
	LastMessage any `json:"last_message"`
}

// NewStore creates one buffer of the given capacity per topic.
func NewStore(topics []string, capacity int) *Store {
	buffers := make(map[string]*Buffer, len(topics))
	for _, topic := range topics {
		buffers[topic] = NewBuffer(capacity)
	}
	return &Store{topics: topics, buffers: buffers}
}

// Buffer returns the buffer for topic, or nil for an unknown topic.
func (s *Store) Buffer(topic string) *Buffer {
	return s.buffers[topic]
}

// Topics returns the topic names the store was built with, in order.
func (s *Store) Topics() []string {
	out := make([]string, len(s.topics))
	copy(out, s.topics)
	return out
}

// Status reports buffered message count and last message per topic.
func (s *Store) Status() map[string]TopicStatus {
	status := make(map[string]TopicStatus, len(s.topics))
	for _, topic := range s.topics {
		buf := s.buffers[topic]
		st := TopicStatus{Messages: buf.Len(), LastMessage: ""}
		if last := buf.Last(); last != nil {
			st.LastMessage = last
		}
		status[topic] = st
	}
	return status
}
