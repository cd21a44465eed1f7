package server

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/twilio/twilio-go/twiml"

	"github.com/iProv-Casey/elevenlabs-examples/internal/bridge"
)

// handleTwiML answers an inbound-call notification with a document that
// redirects the call's media into the bridge WebSocket endpoint. The
// caller number and an optional client tag ride along as query parameters
// on the stream URL so the bridge captures them at connection accept.
func (h *HTTPServer) handleTwiML(w http.ResponseWriter, r *http.Request) {
	host := h.config.Twilio.PublicHost
	if host == "" {
		host = r.Host
	}

	streamURL := url.URL{
		Scheme: "wss",
		Host:   host,
		Path:   "/media-stream",
	}

	query := url.Values{}

	// Twilio posts call details form-encoded; From is the caller number.
	if from := r.FormValue("From"); from != "" {
		query.Set(bridge.CallerIDParam, from)
	}

	if client := r.URL.Query().Get(bridge.ClientIDParam); client != "" {
		query.Set(bridge.ClientIDParam, client)
	}

	streamURL.RawQuery = query.Encode()

	connect := &twiml.VoiceConnect{
		InnerElements: []twiml.Element{
			&twiml.VoiceStream{Url: streamURL.String()},
		},
	}

	doc, err := twiml.Voice([]twiml.Element{connect})
	if err != nil {
		h.logger.Error("failed to render connect document",
			slog.String("error", err.Error()),
		)
		http.Error(w, "failed to render response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	if _, err := w.Write([]byte(doc)); err != nil {
		h.logger.Warn("failed to write connect document",
			slog.String("error", err.Error()),
		)
	}
}
