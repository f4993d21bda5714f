package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/praneshkm/evconv/internal/config"
	"github.com/praneshkm/evconv/internal/convert"
	"github.com/praneshkm/evconv/internal/engine"
	"github.com/praneshkm/evconv/internal/sink"
)

func testHandler(t *testing.T, defsYAML string) http.Handler {
	t.Helper()
	path := filepath.Join(t.TempDir(), "defs.yaml")
	if err := os.WriteFile(path, []byte(defsYAML), 0o644); err != nil {
		t.Fatalf("write definitions: %v", err)
	}
	loader, err := config.NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader error: %v", err)
	}
	cfg := loader.Config()
	conv, err := convert.NewEngine(cfg.Definitions, cfg.DropUnmatched)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	proc := engine.New(ctx, conv, &sink.LogSink{Log: slog.Default()}, cfg.Engine)
	t.Cleanup(func() {
		cancel()
		proc.Shutdown()
	})
	return New(proc, loader)
}

func TestIngestNotification(t *testing.T) {
	h := testHandler(t, `
definitions:
  - event_type: compute.instance.*
    traits:
      host:
        fields: payload.host
`)

	body := `{
		"event_type": "compute.instance.create.start",
		"message_id": "m-1",
		"publisher_id": "compute.host-1",
		"timestamp": "2013-08-08 21:06:37.803826",
		"payload": {"host": "host-1"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/notifications", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		MessageID string `json:"message_id"`
		Dropped   bool   `json:"dropped"`
		Event     *struct {
			EventType string `json:"event_type"`
		} `json:"event"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.MessageID != "m-1" || res.Dropped || res.Event == nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Event.EventType != "compute.instance.create.start" {
		t.Errorf("event type = %q", res.Event.EventType)
	}
}

func TestIngestNotification_RequiresEventType(t *testing.T) {
	h := testHandler(t, "")
	req := httptest.NewRequest(http.MethodPost, "/v1/notifications",
		strings.NewReader(`{"message_id": "m-1"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestIngestNotification_AssignsMessageID(t *testing.T) {
	h := testHandler(t, "")
	req := httptest.NewRequest(http.MethodPost, "/v1/notifications",
		strings.NewReader(`{"event_type": "x.y"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		MessageID string `json:"message_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.MessageID == "" {
		t.Error("no message_id assigned")
	}
}

func TestIngestNotification_ConversionErrorIs422(t *testing.T) {
	h := testHandler(t, `
definitions:
  - event_type: "*"
    traits:
      size:
        type: int
        fields: payload.size
`)
	req := httptest.NewRequest(http.MethodPost, "/v1/notifications",
		strings.NewReader(`{"event_type": "x.y", "message_id": "m-1", "payload": {"size": "huge"}}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422; body: %s", rec.Code, rec.Body.String())
	}
}

func TestListDefinitions(t *testing.T) {
	h := testHandler(t, `
definitions:
  - event_type: image.*
    traits: {}
`)
	req := httptest.NewRequest(http.MethodGet, "/v1/definitions", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res struct {
		Rules       int               `json:"rules"`
		Definitions []json.RawMessage `json:"definitions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Definitions) != 1 {
		t.Errorf("got %d definitions, want 1", len(res.Definitions))
	}
	// Declared rule plus the synthesized catch-all.
	if res.Rules != 2 {
		t.Errorf("rules = %d, want 2", res.Rules)
	}
}

func TestHealthz(t *testing.T) {
	h := testHandler(t, "")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
