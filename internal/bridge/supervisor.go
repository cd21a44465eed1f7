package bridge

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iProv-Casey/elevenlabs-examples/internal/config"
	"github.com/iProv-Casey/elevenlabs-examples/internal/metrics"
	"github.com/iProv-Casey/elevenlabs-examples/internal/protocol"
)

// Routing parameter names expected on the inbound request. Both are
// optional; absent values become "unknown".
const (
	CallerIDParam = "caller_id"
	ClientIDParam = "client_id"

	unknownValue = "unknown"
)

// Call setup failure stage label values
const (
	setupStageSignedURL  = "signed_url"
	setupStageDial       = "dial"
	setupStageInitiation = "initiation"
)

// CredentialFetcher obtains a one-time signed WebSocket URL for the agent
// connection. Implemented by the elevenlabs package; faked in tests.
type CredentialFetcher interface {
	SignedURL(ctx context.Context) (string, error)
}

// Supervisor accepts inbound media stream connections and runs one bridged
// call per connection. It keeps a registry of live sessions for monitoring
// and shutdown; sessions share no state with each other.
type Supervisor struct {
	logger   *slog.Logger
	metrics  *metrics.Metrics
	creds    CredentialFetcher
	cfg      config.ElevenLabsConfig
	upgrader websocket.Upgrader
	dialer   *websocket.Dialer

	setupTimeout time.Duration

	mu       sync.RWMutex
	sessions map[*Session]struct{}
}

// NewSupervisor creates a new bridge supervisor
func NewSupervisor(logger *slog.Logger, m *metrics.Metrics, creds CredentialFetcher,
	cfg config.ElevenLabsConfig, setupTimeout time.Duration) *Supervisor {

	return &Supervisor{
		logger:  logger,
		metrics: m,
		creds:   creds,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: setupTimeout,
		},
		setupTimeout: setupTimeout,
		sessions:     make(map[*Session]struct{}),
	}
}

// HandleMediaStream upgrades an inbound connection and bridges it to a
// fresh agent conversation. It returns when both legs are closed.
func (s *Supervisor) HandleMediaStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		return
	}

	params := routingParams(r)
	session := NewSession(conn, params)
	s.register(session)
	defer s.unregister(session)

	s.metrics.CallsAccepted.Inc()
	s.metrics.ActiveCalls.Inc()
	defer s.metrics.ActiveCalls.Dec()

	s.logger.Info("call accepted",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("caller_id", params[CallerIDParam]),
		slog.String("client_id", params[ClientIDParam]),
	)

	if !s.connectAgent(session) {
		// Fatal for this call only: close the inbound connection and
		// do not retry.
		session.CloseCallerLeg()
		return
	}

	agent := &agentLeg{session: session, logger: s.logger, metrics: s.metrics}
	agentDone := make(chan struct{})
	go func() {
		defer close(agentDone)
		agent.run()
		// Symmetric teardown: once the agent leg is down, the caller
		// leg is closed too so its receive loop unblocks.
		session.CloseCallerLeg()
	}()

	caller := &callerLeg{session: session, logger: s.logger, metrics: s.metrics}
	caller.run()

	<-agentDone

	s.metrics.CallsCompleted.Inc()
	s.metrics.CallDuration.Observe(time.Since(session.AcceptedAt).Seconds())
	s.logger.Info("call finished",
		slog.String("stream_sid", session.StreamSID()),
		slog.String("call_sid", session.CallSID()),
		slog.String("phase", session.Phase().String()),
		slog.Duration("duration", time.Since(session.AcceptedAt)),
	)
}

// connectAgent fetches the signed URL, dials the agent socket and sends the
// one-time initiation message. Reports whether the call can be bridged.
func (s *Supervisor) connectAgent(session *Session) bool {
	// The inbound request context dies with the HTTP handler chain, so
	// setup runs under its own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), s.setupTimeout)
	defer cancel()

	signedURL, err := s.creds.SignedURL(ctx)
	if err != nil {
		s.metrics.CallSetupFailures.WithLabelValues(setupStageSignedURL).Inc()
		s.logger.Error("signed URL fetch failed",
			slog.String("error", err.Error()),
		)
		return false
	}

	conn, resp, err := s.dialer.DialContext(ctx, signedURL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		s.metrics.CallSetupFailures.WithLabelValues(setupStageDial).Inc()
		s.logger.Error("agent dial failed",
			slog.String("error", err.Error()),
		)
		return false
	}

	session.AttachAgentConn(conn)

	// Exactly one initiation message, before any audio is forwarded.
	if err := session.WriteToAgent(s.initiationMessage(session)); err != nil {
		s.metrics.CallSetupFailures.WithLabelValues(setupStageInitiation).Inc()
		s.logger.Error("initiation send failed",
			slog.String("error", err.Error()),
		)
		session.CloseAgentLeg()
		return false
	}

	return true
}

// initiationMessage builds the session-configuration message from the
// parameters captured at accept time and the configured overrides.
func (s *Supervisor) initiationMessage(session *Session) *protocol.InitiationMessage {
	msg := &protocol.InitiationMessage{
		Type:             protocol.ElevenLabsTypeInitClientData,
		DynamicVariables: session.CustomParameters,
	}

	agent := &protocol.AgentOverride{
		FirstMessage: s.cfg.FirstMessage,
		Language:     s.cfg.Language,
	}
	if s.cfg.Prompt != "" {
		agent.Prompt = &protocol.PromptOverride{Prompt: s.cfg.Prompt}
	}

	if agent.Prompt != nil || agent.FirstMessage != "" || agent.Language != "" {
		msg.ConversationConfigOverride = &protocol.ConversationConfigOverride{
			Agent: agent,
		}
	}

	return msg
}

// ActiveCalls returns the number of currently bridged calls
func (s *Supervisor) ActiveCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CloseAll force-closes every live session. Used during shutdown; the
// per-call handlers observe their connections closing and unwind normally.
func (s *Supervisor) CloseAll() {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	if len(sessions) > 0 {
		s.logger.Info("closing active calls",
			slog.Int("count", len(sessions)),
		)
	}

	for _, session := range sessions {
		session.CloseAgentLeg()
		session.CloseCallerLeg()
	}
}

func (s *Supervisor) register(session *Session) {
	s.mu.Lock()
	s.sessions[session] = struct{}{}
	s.mu.Unlock()
}

func (s *Supervisor) unregister(session *Session) {
	s.mu.Lock()
	delete(s.sessions, session)
	s.mu.Unlock()
}

// routingParams captures the optional routing parameters from the inbound
// request, substituting "unknown" for anything absent.
func routingParams(r *http.Request) map[string]string {
	query := r.URL.Query()

	params := map[string]string{
		CallerIDParam: unknownValue,
		ClientIDParam: unknownValue,
	}

	if v := query.Get(CallerIDParam); v != "" {
		params[CallerIDParam] = v
	}

	if v := query.Get(ClientIDParam); v != "" {
		params[ClientIDParam] = v
	}

	return params
}
