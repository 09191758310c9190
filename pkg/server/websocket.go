package server

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/kafbridge/kafbridge/pkg/broadcast"
	"github.com/kafbridge/kafbridge/pkg/kafka"
)

var upgrader = websocket.Upgrader{
	// The HTTP surface is already world-readable behind permissive CORS;
	// the socket follows the same policy.
	CheckOrigin: func(*http.Request) bool { return true },
}

// snapshotFrame is the initial per-topic batch replayed to a client right
// after it connects.
type snapshotFrame struct {
	Topic    string                  `json:"topic"`
	Messages []*kafka.DecodedMessage `json:"messages"`
}

// handleWS upgrades the connection, replays the current history snapshot
// per topic and then streams live messages until either side closes.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Server] websocket upgrade failed: %v", err)
		return
	}

	sub := s.hub.Subscribe()
	defer s.hub.Unsubscribe(sub)

	// Drain client frames only to notice disconnects; the protocol is
	// strictly server-to-client.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	defer conn.Close()
	for {
		select {
		case <-done:
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev broadcast.Event) error {
	var frame any
	if ev.Batch != nil {
		frame = snapshotFrame{Topic: ev.Topic, Messages: ev.Batch}
	} else {
		frame = ev.Message
	}
	b, err := json.Marshal(frame)
	if err != nil {
		log.Printf("[Server] websocket encode failed on %s: %v", ev.Topic, err)
		return nil
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}
