package bridge

import (
	"log/slog"

	"github.com/iProv-Casey/elevenlabs-examples/internal/metrics"
	"github.com/iProv-Casey/elevenlabs-examples/internal/protocol"
)

// callerLeg drives the receive loop of the inbound Twilio connection. It
// owns that connection's reads; its only writes go to the agent leg.
type callerLeg struct {
	session *Session
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// run processes inbound frames until the connection closes or errors, then
// closes the agent leg so the call never leaves an orphaned leg behind.
func (l *callerLeg) run() {
	defer func() {
		l.session.CloseAgentLeg()
		l.session.CloseCallerLeg()
	}()

	for {
		data, err := l.session.caller.ReadMessage()
		if err != nil {
			if l.session.Phase() < PhaseClosing {
				l.logger.Info("telephony connection closed",
					slog.String("stream_sid", l.session.StreamSID()),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		l.handle(data)
	}
}

// handle dispatches one inbound frame by its event discriminator. A frame
// that fails to parse or translate is dropped; the connection continues.
func (l *callerLeg) handle(data []byte) {
	msg, err := protocol.ParseTwilioMessage(data)
	if err != nil {
		l.metrics.TranslateErrors.WithLabelValues(metrics.LegCaller).Inc()
		l.logger.Warn("dropping unparseable telephony frame",
			slog.String("error", err.Error()),
		)
		return
	}

	switch msg.Event {
	case protocol.TwilioEventConnected:
		l.logger.Debug("telephony socket connected")

	case protocol.TwilioEventStart:
		l.handleStart(msg)

	case protocol.TwilioEventMedia:
		l.handleMedia(msg)

	case protocol.TwilioEventStop:
		l.logger.Info("stream stopped by telephony side",
			slog.String("stream_sid", l.session.StreamSID()),
		)
		l.session.CloseAgentLeg()

	case protocol.TwilioEventMark:
		l.logger.Debug("mark acknowledged",
			slog.String("stream_sid", l.session.StreamSID()),
		)

	default:
		l.metrics.UnhandledMessages.WithLabelValues(metrics.LegCaller).Inc()
		l.logger.Warn("unhandled telephony event",
			slog.String("event", msg.Event),
		)
	}
}

func (l *callerLeg) handleStart(msg *protocol.TwilioMessage) {
	if msg.Start == nil {
		l.metrics.TranslateErrors.WithLabelValues(metrics.LegCaller).Inc()
		l.logger.Warn("start event missing start section")
		return
	}

	if err := l.session.StartStream(msg.Start.StreamSID, msg.Start.CallSID); err != nil {
		// Duplicate start is unexpected but non-fatal.
		l.logger.Warn("ignoring start event",
			slog.String("stream_sid", msg.Start.StreamSID),
			slog.String("error", err.Error()),
		)
		return
	}

	l.logger.Info("stream started",
		slog.String("stream_sid", msg.Start.StreamSID),
		slog.String("call_sid", msg.Start.CallSID),
	)
}

func (l *callerLeg) handleMedia(msg *protocol.TwilioMessage) {
	// Live audio has no value once stale: if the agent socket is not
	// open yet (or anymore), the chunk is dropped, never buffered.
	if !l.session.AgentOpen() {
		l.metrics.FramesDropped.WithLabelValues(metrics.DropReasonOutboundClosed).Inc()
		l.logger.Debug("dropping caller audio, agent connection not open")
		return
	}

	chunk, err := protocol.TwilioMediaToUserAudio(msg)
	if err != nil {
		l.metrics.TranslateErrors.WithLabelValues(metrics.LegCaller).Inc()
		l.logger.Warn("dropping caller audio",
			slog.String("error", err.Error()),
		)
		return
	}

	if err := l.session.WriteToAgent(chunk); err != nil {
		l.logger.Debug("agent write failed",
			slog.String("error", err.Error()),
		)
		return
	}

	l.metrics.FramesToAgent.Inc()
}
