package bridge

import (
	"log/slog"

	"github.com/iProv-Casey/elevenlabs-examples/internal/metrics"
	"github.com/iProv-Casey/elevenlabs-examples/internal/protocol"
)

// agentLeg drives the receive loop of the outbound ElevenLabs connection.
// It owns that connection's reads; relayed audio and clear frames go to
// the caller leg's connection.
type agentLeg struct {
	session *Session
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// run processes agent messages until the connection closes or errors, then
// marks the outbound leg closed. The supervisor closes the caller leg in
// response; this loop never blocks on it.
func (l *agentLeg) run() {
	defer l.session.CloseAgentLeg()

	for {
		data, err := l.session.agent.ReadMessage()
		if err != nil {
			if l.session.Phase() < PhaseClosing {
				l.logger.Info("agent connection closed",
					slog.String("stream_sid", l.session.StreamSID()),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		l.handle(data)
	}
}

// handle dispatches one agent message by its type discriminator. A message
// that fails to parse or translate is dropped; the connection continues.
func (l *agentLeg) handle(data []byte) {
	msg, err := protocol.ParseElevenLabsMessage(data)
	if err != nil {
		l.metrics.TranslateErrors.WithLabelValues(metrics.LegAgent).Inc()
		l.logger.Warn("dropping unparseable agent message",
			slog.String("error", err.Error()),
		)
		return
	}

	switch msg.Type {
	case protocol.ElevenLabsTypeInitMetadata:
		l.logger.Debug("conversation initiation acknowledged")

	case protocol.ElevenLabsTypeAudio:
		l.handleAudio(msg)

	case protocol.ElevenLabsTypeInterruption:
		l.handleInterruption()

	case protocol.ElevenLabsTypePing:
		l.handlePing(msg)

	case protocol.ElevenLabsTypeAgentResponse:
		if msg.AgentResponseEvent != nil {
			l.logger.Debug("agent response",
				slog.String("text", msg.AgentResponseEvent.AgentResponse),
			)
		}

	case protocol.ElevenLabsTypeUserTranscript:
		if msg.UserTranscriptEvent != nil {
			l.logger.Debug("user transcript",
				slog.String("text", msg.UserTranscriptEvent.UserTranscript),
			)
		}

	default:
		l.metrics.UnhandledMessages.WithLabelValues(metrics.LegAgent).Inc()
		l.logger.Warn("unhandled agent message type",
			slog.String("type", msg.Type),
		)
	}
}

func (l *agentLeg) handleAudio(msg *protocol.ElevenLabsMessage) {
	// Agent audio before the start event has no destination address:
	// without a stream identifier Twilio cannot route the frame, so the
	// chunk is dropped rather than buffered.
	streamSID := l.session.StreamSID()
	if streamSID == "" {
		l.metrics.FramesDropped.WithLabelValues(metrics.DropReasonNoStreamSID).Inc()
		l.logger.Debug("dropping agent audio, stream not started")
		return
	}

	frame, err := protocol.ElevenLabsAudioToTwilioMedia(streamSID, msg)
	if err != nil {
		l.metrics.TranslateErrors.WithLabelValues(metrics.LegAgent).Inc()
		l.logger.Warn("dropping agent audio",
			slog.String("error", err.Error()),
		)
		return
	}

	if err := l.session.WriteToCaller(frame); err != nil {
		l.logger.Debug("caller write failed",
			slog.String("error", err.Error()),
		)
		return
	}

	l.metrics.FramesToCaller.Inc()
}

func (l *agentLeg) handleInterruption() {
	streamSID := l.session.StreamSID()
	if streamSID == "" {
		l.logger.Debug("interruption before stream start, nothing to clear")
		return
	}

	if err := l.session.WriteToCaller(protocol.ClearFrame(streamSID)); err != nil {
		l.logger.Debug("caller write failed",
			slog.String("error", err.Error()),
		)
		return
	}

	l.metrics.ClearsSent.Inc()
	l.logger.Info("barge-in, cleared caller playback buffer",
		slog.String("stream_sid", streamSID),
	)
}

// handlePing answers immediately from the receive loop so the pong is
// never queued behind other sends.
func (l *agentLeg) handlePing(msg *protocol.ElevenLabsMessage) {
	pong, err := protocol.PongFor(msg)
	if err != nil {
		l.metrics.TranslateErrors.WithLabelValues(metrics.LegAgent).Inc()
		l.logger.Warn("dropping malformed ping",
			slog.String("error", err.Error()),
		)
		return
	}

	if err := l.session.WriteToAgent(pong); err != nil {
		l.logger.Debug("pong write failed",
			slog.String("error", err.Error()),
		)
		return
	}

	l.metrics.PingsAnswered.Inc()
}
