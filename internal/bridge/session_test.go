package bridge

import (
	"testing"
)

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase    Phase
		expected string
	}{
		{PhaseConnecting, "connecting"},
		{PhaseAwaitingStart, "awaiting_start"},
		{PhaseActive, "active"},
		{PhaseClosing, "closing"},
		{PhaseClosed, "closed"},
		{Phase(99), "unknown(99)"},
	}

	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.expected {
			t.Errorf("Phase(%d).String() = %q, expected %q", int(tt.phase), got, tt.expected)
		}
	}
}

func TestStartStreamSetOnce(t *testing.T) {
	session := &Session{phase: PhaseAwaitingStart}

	if err := session.StartStream("MZ123", "CA456"); err != nil {
		t.Fatalf("First start failed: %v", err)
	}

	if session.StreamSID() != "MZ123" {
		t.Errorf("Expected stream MZ123, got %q", session.StreamSID())
	}
	if session.CallSID() != "CA456" {
		t.Errorf("Expected call CA456, got %q", session.CallSID())
	}
	if session.Phase() != PhaseActive {
		t.Errorf("Expected phase active, got %s", session.Phase())
	}

	// A second start must be rejected without changing anything.
	if err := session.StartStream("MZ999", "CA999"); err == nil {
		t.Fatalf("Expected error for duplicate start")
	}
	if session.StreamSID() != "MZ123" {
		t.Errorf("Duplicate start changed stream sid to %q", session.StreamSID())
	}
}

func TestStartStreamRejectedWhileClosing(t *testing.T) {
	session := &Session{phase: PhaseClosing}

	if err := session.StartStream("MZ123", "CA456"); err == nil {
		t.Fatalf("Expected error for start while closing")
	}
	if session.StreamSID() != "" {
		t.Errorf("Stream sid set despite rejected start: %q", session.StreamSID())
	}
}

func TestStartStreamAllowedWhileConnecting(t *testing.T) {
	// The start event can legitimately race ahead of the agent connect.
	session := &Session{phase: PhaseConnecting}

	if err := session.StartStream("MZ123", "CA456"); err != nil {
		t.Fatalf("Start while connecting failed: %v", err)
	}
	if session.Phase() != PhaseActive {
		t.Errorf("Expected phase active, got %s", session.Phase())
	}
}

func TestAgentOpenBeforeAttach(t *testing.T) {
	session := &Session{phase: PhaseConnecting}

	if session.AgentOpen() {
		t.Errorf("AgentOpen should be false before the outbound leg attaches")
	}

	if err := session.WriteToAgent(struct{}{}); err == nil {
		t.Errorf("WriteToAgent should fail before the outbound leg attaches")
	}
}
