package kafka

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const httpOKStatus = 200

var json = jsoniter.ConfigFastest

// Message is a raw record as delivered by the broker: opaque payload plus
// the per-topic offset and broker-assigned timestamp.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Time      time.Time
	Value     []byte
}

// DecodedMessage is the envelope handed to history buffers, subscribers and
// exports. Timestamp is broker time in milliseconds, matching what the
// marketplace UI expects on the wire.
type DecodedMessage struct {
	Topic     string         `json:"topic"`
	Timestamp int64          `json:"timestamp"`
	Value     map[string]any `json:"value"`
}

// Decode parses the message payload as a JSON object. A payload that is not
// well-formed JSON, or not an object, yields an error and no envelope.
func Decode(m *Message) (*DecodedMessage, error) {
	value := make(map[string]any)
	if err := json.Unmarshal(m.Value, &value); err != nil {
		return nil, fmt.Errorf("decode payload on %s at offset %d: %w", m.Topic, m.Offset, err)
	}
	return &DecodedMessage{
		Topic:     m.Topic,
		Timestamp: m.Time.UnixMilli(),
		Value:     value,
	}, nil
}

// StatusOK reports whether the payload passes the http_code filter: either
// no http_code field at all, or http_code == 200. Anything else marks a
// failed marketplace request that must never be stored or broadcast.
func StatusOK(value map[string]any) bool {
	raw, ok := value["http_code"]
	if !ok {
		return true
	}
	switch code := raw.(type) {
	case float64:
		return int(code) == httpOKStatus
	case int:
		return code == httpOKStatus
	case int64:
		return code == int64(httpOKStatus)
	default:
		// Non-numeric http_code means a malformed producer; treat as failed.
		return false
	}
}
