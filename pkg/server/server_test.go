package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kafbridge/kafbridge/pkg/broadcast"
	"github.com/kafbridge/kafbridge/pkg/export"
	"github.com/kafbridge/kafbridge/pkg/history"
	"github.com/kafbridge/kafbridge/pkg/kafka"
	"github.com/kafbridge/kafbridge/pkg/topics"
)

// stubExporter records export calls and serves canned results.
type stubExporter struct {
	dir        string
	registry   *export.Registry
	lastTopic  string
	lastToken  string
	artifact   *export.Artifact
	err        error
	exportCall int
}

func (s *stubExporter) Export(_ context.Context, topic, credential string) (*export.Artifact, error) {
	s.exportCall++
	s.lastTopic = topic
	s.lastToken = credential
	if !topics.IsKnown(topic) {
		return nil, export.ErrUnknownTopic
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.artifact, nil
}

func (s *stubExporter) Registry() *export.Registry { return s.registry }
func (s *stubExporter) Dir() string                { return s.dir }

func newTestServer(t *testing.T) (*Server, *stubExporter, *history.Store, *broadcast.Hub) {
	t.Helper()
	store := history.NewStore(topics.Known(), 100)
	hub := broadcast.NewHub(store)
	stub := &stubExporter{
		dir:      t.TempDir(),
		registry: export.NewRegistry(),
		artifact: &export.Artifact{Name: "profit_1_abc.csv", URL: "data/profit_1_abc.csv"},
	}
	return New(store, hub, stub), stub, store, hub
}

func getJSON(t *testing.T, handler http.Handler, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s: status %d", path, rec.Code)
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("GET %s: invalid JSON %q: %v", path, rec.Body.String(), err)
		}
	}
	return rec
}

func TestTopicsEndpoint(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	var got []string
	getJSON(t, srv.Handler(), "/topics", &got)

	if len(got) != 13 {
		t.Errorf("Expected 13 topics, got %d", len(got))
	}
	if got[0] != "addOffer" {
		t.Errorf("Expected contract order, got %v", got[:1])
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv, _, store, _ := newTestServer(t)
	store.Buffer("profit").Append(&kafka.DecodedMessage{
		Topic: "profit", Timestamp: 5, Value: map[string]any{"profit": 1.0},
	})

	var got map[string]struct {
		Messages    int `json:"messages"`
		LastMessage any `json:"last_message"`
	}
	getJSON(t, srv.Handler(), "/status", &got)

	if got["profit"].Messages != 1 {
		t.Errorf("Expected 1 buffered message on profit, got %d", got["profit"].Messages)
	}
	if got["addOffer"].LastMessage != "" {
		t.Errorf("Expected empty-string last message for empty topic, got %v", got["addOffer"].LastMessage)
	}
}

func TestExportEndpoint(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv, stub, _, _ := newTestServer(t)

		req := httptest.NewRequest(http.MethodGet, "/export/data/profit", nil)
		req.Header.Set("Authorization", "Bearer the-token")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		var got map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("Invalid JSON response: %v", err)
		}
		if got["url"] != "data/profit_1_abc.csv" {
			t.Errorf("Expected artifact url, got %v", got)
		}
		if stub.lastTopic != "profit" || stub.lastToken != "the-token" {
			t.Errorf("Exporter called with topic=%s credential=%s", stub.lastTopic, stub.lastToken)
		}
	})

	t.Run("NoCredential", func(t *testing.T) {
		srv, stub, _, _ := newTestServer(t)

		getJSON(t, srv.Handler(), "/export/data/profit", nil)
		if stub.lastToken != "" {
			t.Errorf("Expected empty credential, got %q", stub.lastToken)
		}
	})

	t.Run("UnknownTopic", func(t *testing.T) {
		srv, _, _, _ := newTestServer(t)

		var got map[string]string
		getJSON(t, srv.Handler(), "/export/data/not-a-topic", &got)
		if got["error"] != "unknown topic" {
			t.Errorf("Expected unknown topic error, got %v", got)
		}
	})

	t.Run("ExportFailure", func(t *testing.T) {
		srv, stub, _, _ := newTestServer(t)
		stub.err = os.ErrDeadlineExceeded

		var got map[string]string
		getJSON(t, srv.Handler(), "/export/data/profit", &got)
		if got["error"] == "" {
			t.Errorf("Expected structured error, got %v", got)
		}
	})
}

func TestDataEndpoint(t *testing.T) {
	srv, stub, _, _ := newTestServer(t)
	content := "a,b\n1,2\n"
	if err := os.WriteFile(filepath.Join(stub.dir, "profit_1_abc.csv"), []byte(content), 0600); err != nil {
		t.Fatalf("Failed to seed artifact: %v", err)
	}

	t.Run("ServesArtifact", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/data/profit_1_abc.csv", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		if rec.Body.String() != content {
			t.Errorf("Wrong artifact body: %q", rec.Body.String())
		}
		if rec.Header().Get("Content-Disposition") == "" {
			t.Errorf("Expected attachment disposition")
		}
	})

	t.Run("RejectsTraversal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/data/..%2fconfig.yaml", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			t.Errorf("Path traversal must not be served")
		}
	})

	t.Run("MissingArtifact", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/data/nope.csv", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})
}

func TestExportsListing(t *testing.T) {
	srv, stub, _, _ := newTestServer(t)
	stub.registry.Add(export.Artifact{Name: "a.csv", URL: "data/a.csv", Created: time.Now()})

	var got []map[string]any
	getJSON(t, srv.Handler(), "/exports", &got)
	if len(got) != 1 || got[0]["name"] != "a.csv" {
		t.Errorf("Unexpected listing %v", got)
	}
}

func TestCORSHeaders(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/topics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204 preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Expected permissive CORS")
	}
}
