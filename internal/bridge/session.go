package bridge

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Phase is the lifecycle state of a bridged call. Transitions only move
// forward: Connecting -> AwaitingStart -> Active -> Closing -> Closed, with
// Closing reachable from any earlier phase by either leg.
type Phase int

const (
	PhaseConnecting Phase = iota
	PhaseAwaitingStart
	PhaseActive
	PhaseClosing
	PhaseClosed
)

// String returns the phase name for logging
func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseAwaitingStart:
		return "awaiting_start"
	case PhaseActive:
		return "active"
	case PhaseClosing:
		return "closing"
	case PhaseClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// Session is the state shared by the two legs of one bridged call. The
// stream identifier is written once by the caller leg and read per audio
// chunk by the agent leg, so all mutable fields sit behind one mutex.
type Session struct {
	// CustomParameters is captured once from the inbound request at
	// accept time and is immutable afterwards. Missing routing
	// parameters are already substituted with "unknown".
	CustomParameters map[string]string

	// AcceptedAt is when the inbound connection was upgraded.
	AcceptedAt time.Time

	mu        sync.RWMutex
	streamSID string
	callSID   string
	phase     Phase
	caller    *wsConn
	agent     *wsConn
}

// NewSession creates the session for a freshly accepted inbound connection.
func NewSession(callerConn *websocket.Conn, params map[string]string) *Session {
	return &Session{
		CustomParameters: params,
		AcceptedAt:       time.Now(),
		phase:            PhaseConnecting,
		caller:           newWSConn(callerConn),
	}
}

// Phase returns the current lifecycle phase
func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// StreamSID returns the stream identifier, or "" before the start event
func (s *Session) StreamSID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streamSID
}

// CallSID returns the call identifier, or "" before the start event
func (s *Session) CallSID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.callSID
}

// AttachAgentConn installs the outbound connection once it is dialed and
// moves the call to AwaitingStart.
func (s *Session) AttachAgentConn(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.agent = newWSConn(conn)
	if s.phase == PhaseConnecting {
		s.phase = PhaseAwaitingStart
	}
}

// StartStream records the identifiers from the telephony start event and
// activates the call. The stream identifier is set at most once; a second
// start event is rejected and must be treated as a non-fatal no-op.
func (s *Session) StartStream(streamSID, callSID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamSID != "" {
		return fmt.Errorf("stream %s already started", s.streamSID)
	}

	if s.phase != PhaseConnecting && s.phase != PhaseAwaitingStart {
		return fmt.Errorf("start event received in phase %s", s.phase)
	}

	s.streamSID = streamSID
	s.callSID = callSID
	s.phase = PhaseActive

	return nil
}

// AgentOpen reports whether the outbound leg is attached and writable.
func (s *Session) AgentOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agent != nil && s.agent.IsOpen()
}

// WriteToAgent sends one JSON message on the outbound leg.
func (s *Session) WriteToAgent(v any) error {
	s.mu.RLock()
	conn := s.agent
	s.mu.RUnlock()

	if conn == nil {
		return errConnClosed
	}

	return conn.WriteJSON(v)
}

// WriteToCaller sends one JSON message on the inbound leg.
func (s *Session) WriteToCaller(v any) error {
	s.mu.RLock()
	conn := s.caller
	s.mu.RUnlock()

	return conn.WriteJSON(v)
}

// CloseAgentLeg closes the outbound connection if it is open. Never blocks
// on the caller leg.
func (s *Session) CloseAgentLeg() {
	s.mu.RLock()
	conn := s.agent
	s.mu.RUnlock()

	if conn != nil {
		conn.Close()
	}

	s.advanceOnClose()
}

// CloseCallerLeg closes the inbound connection. Never blocks on the agent
// leg.
func (s *Session) CloseCallerLeg() {
	s.mu.RLock()
	conn := s.caller
	s.mu.RUnlock()

	conn.Close()

	s.advanceOnClose()
}

// advanceOnClose moves the phase to Closing when the first leg goes down
// and to Closed once both are down.
func (s *Session) advanceOnClose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase < PhaseClosing {
		s.phase = PhaseClosing
	}

	callerClosed := !s.caller.IsOpen()
	agentClosed := s.agent == nil || !s.agent.IsOpen()
	if callerClosed && agentClosed {
		s.phase = PhaseClosed
	}
}
