package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iProv-Casey/elevenlabs-examples/internal/bridge"
	"github.com/iProv-Casey/elevenlabs-examples/internal/config"
	"github.com/iProv-Casey/elevenlabs-examples/internal/metrics"
)

func testServer(t *testing.T, mutate func(*config.Config)) *HTTPServer {
	t.Helper()

	cfg := config.Default()
	cfg.ElevenLabs.AgentID = "agent_123"
	cfg.ElevenLabs.APIKey = "key"
	if mutate != nil {
		mutate(cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewMetrics(prometheus.NewRegistry())
	supervisor := bridge.NewSupervisor(logger, m, nil, cfg.ElevenLabs, 2*time.Second)

	return NewHTTPServer(cfg, logger, supervisor, m)
}

func TestHandleHealth(t *testing.T) {
	srv := testServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}

	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
	if body["active_calls"] != float64(0) {
		t.Errorf("Expected 0 active calls, got %v", body["active_calls"])
	}
}

func TestHandleTwiML(t *testing.T) {
	srv := testServer(t, func(c *config.Config) {
		c.Twilio.PublicHost = "bridge.example.com"
	})

	form := url.Values{}
	form.Set("From", "+15551234567")
	req := httptest.NewRequest(http.MethodPost, "/twiml?client_id=acme",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	srv.handleTwiML(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/xml" {
		t.Errorf("Expected text/xml, got %q", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "<Connect>") {
		t.Errorf("Expected Connect verb in document: %s", body)
	}
	if !strings.Contains(body, "wss://bridge.example.com/media-stream") {
		t.Errorf("Expected stream URL in document: %s", body)
	}
	if !strings.Contains(body, "caller_id=%2B15551234567") {
		t.Errorf("Expected caller parameter in stream URL: %s", body)
	}
	if !strings.Contains(body, "client_id=acme") {
		t.Errorf("Expected client parameter in stream URL: %s", body)
	}
}

func TestHandleTwiMLFallsBackToRequestHost(t *testing.T) {
	srv := testServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/twiml", nil)
	req.Host = "fallback.example.com"

	rec := httptest.NewRecorder()
	srv.handleTwiML(rec, req)

	if !strings.Contains(rec.Body.String(), "wss://fallback.example.com/media-stream") {
		t.Errorf("Expected request host in stream URL: %s", rec.Body.String())
	}
}
