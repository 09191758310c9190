package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/kafbridge/kafbridge/pkg/broadcast"
	"github.com/kafbridge/kafbridge/pkg/export"
	"github.com/kafbridge/kafbridge/pkg/history"
	"github.com/kafbridge/kafbridge/pkg/topics"
)

const shutdownGrace = 5 * time.Second

var json = jsoniter.ConfigFastest

// Exporter is the slice of pkg/export the HTTP surface needs.
type Exporter interface {
	Export(ctx context.Context, topic, credential string) (*export.Artifact, error)
	Registry() *export.Registry
	Dir() string
}

// Server is the HTTP/WebSocket surface of the bridge: status and topic
// queries, export requests, artifact retrieval and the live subscription
// endpoint.
type Server struct {
	store    *history.Store
	hub      *broadcast.Hub
	exporter Exporter
	srv      *http.Server
	lis      net.Listener
}

func New(store *history.Store, hub *broadcast.Hub, exporter Exporter) *Server {
	mux := http.NewServeMux()
	s := &Server{store: store, hub: hub, exporter: exporter, srv: &http.Server{Handler: cors(mux)}}
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/topics", s.handleTopics)
	mux.HandleFunc("/exports", s.handleExports)
	mux.HandleFunc("/export/data/", s.handleExport)
	mux.HandleFunc("/data/", s.handleData)
	mux.HandleFunc("/ws", s.handleWS)
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ListenAndServe serves until the context is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()

	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(b)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.store.Status())
}

func (s *Server) handleTopics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, topics.Known())
}

func (s *Server) handleExports(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.exporter.Registry().List())
}

// handleExport runs a bounded export for the topic in the path, scoped to
// the bearer credential when one is supplied. The response is always a
// structured 200 body (url or error), preserving the original client
// contract.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimPrefix(r.URL.Path, "/export/data/")

	credential := ""
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.Split(auth, " ")
		credential = parts[len(parts)-1]
	}

	artifact, err := s.exporter.Export(r.Context(), topic, credential)
	switch {
	case errors.Is(err, export.ErrUnknownTopic):
		writeJSON(w, map[string]string{"error": "unknown topic"})
	case err != nil:
		writeJSON(w, map[string]string{"error": "failed with: " + err.Error()})
	default:
		writeJSON(w, map[string]string{"url": artifact.URL})
	}
}

// handleData serves a previously generated artifact as an attachment.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/data/")
	if name == "" || name != path.Base(name) {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	http.ServeFile(w, r, path.Join(s.exporter.Dir(), name))
}
