package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iProv-Casey/elevenlabs-examples/internal/bridge"
	"github.com/iProv-Casey/elevenlabs-examples/internal/config"
	"github.com/iProv-Casey/elevenlabs-examples/internal/metrics"
)

// HTTPServer hosts all HTTP surfaces of the service
type HTTPServer struct {
	server     *http.Server
	logger     *slog.Logger
	config     *config.Config
	supervisor *bridge.Supervisor
	metrics    *metrics.Metrics

	startTime time.Time
}

// NewHTTPServer creates the HTTP server and wires up all routes
func NewHTTPServer(cfg *config.Config, logger *slog.Logger,
	supervisor *bridge.Supervisor, m *metrics.Metrics) *HTTPServer {

	h := &HTTPServer{
		logger:     logger,
		config:     cfg,
		supervisor: supervisor,
		metrics:    m,
		startTime:  time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port),
		Handler:     mux,
		IdleTimeout: 60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	// Health check endpoint
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))

	// Call-redirect webhook answered with a TwiML connect document
	mux.HandleFunc("/twiml", h.withMetrics("/twiml", h.handleTwiML))

	// Media stream WebSocket endpoint. Registered without the metrics
	// wrapper: the upgrade needs the raw ResponseWriter (http.Hijacker).
	mux.HandleFunc("/media-stream", h.supervisor.HandleMediaStream)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: 200}

		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// handleHealth returns the readiness payload
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"active_calls":   h.supervisor.ActiveCalls(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Warn("failed to encode health response",
			slog.String("error", err.Error()),
		)
	}
}

// Start starts the HTTP server. Listener bind failures surface on the
// returned channel so the caller can treat them as fatal.
func (h *HTTPServer) Start() <-chan error {
	h.logger.Info("starting HTTP server",
		slog.String("address", h.server.Addr),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("stopping HTTP server")

	if err := h.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	return nil
}
