package protocol

import (
	"encoding/json"
	"fmt"
)

// ElevenLabs Conversational AI message type discriminators
const (
	ElevenLabsTypeInitMetadata   = "conversation_initiation_metadata"
	ElevenLabsTypeAudio          = "audio"
	ElevenLabsTypeInterruption   = "interruption"
	ElevenLabsTypePing           = "ping"
	ElevenLabsTypeAgentResponse  = "agent_response"
	ElevenLabsTypeUserTranscript = "user_transcript"

	// Client-to-server message types
	ElevenLabsTypeInitClientData = "conversation_initiation_client_data"
	ElevenLabsTypePong           = "pong"
)

// ElevenLabsMessage represents a single server message on the Conversational
// AI WebSocket. Only the section matching the Type discriminator is populated.
type ElevenLabsMessage struct {
	Type                string               `json:"type"`
	AudioEvent          *AudioEvent          `json:"audio_event,omitempty"`
	Audio               *AudioChunk          `json:"audio,omitempty"`
	PingEvent           *PingEvent           `json:"ping_event,omitempty"`
	InterruptionEvent   *InterruptionEvent   `json:"interruption_event,omitempty"`
	AgentResponseEvent  *AgentResponseEvent  `json:"agent_response_event,omitempty"`
	UserTranscriptEvent *UserTranscriptEvent `json:"user_transcript_event,omitempty"`
}

// AudioEvent carries a base64-encoded chunk of synthesized agent audio.
type AudioEvent struct {
	AudioBase64 string          `json:"audio_base_64"`
	EventID     json.RawMessage `json:"event_id,omitempty"`
}

// AudioChunk is the alternative audio envelope some agent versions emit.
type AudioChunk struct {
	Chunk string `json:"chunk"`
}

// PingEvent is a liveness probe that must be answered with a pong echoing
// the same event identifier. The identifier is kept as raw JSON so numeric
// and string forms both survive the echo unchanged.
type PingEvent struct {
	EventID json.RawMessage `json:"event_id"`
	PingMS  float64         `json:"ping_ms,omitempty"`
}

// InterruptionEvent signals caller barge-in over synthesized playback.
type InterruptionEvent struct {
	EventID json.RawMessage `json:"event_id,omitempty"`
	Reason  string          `json:"reason,omitempty"`
}

// AgentResponseEvent carries the text of an agent utterance.
type AgentResponseEvent struct {
	AgentResponse string `json:"agent_response"`
}

// UserTranscriptEvent carries the transcript of caller speech.
type UserTranscriptEvent struct {
	UserTranscript string `json:"user_transcript"`
}

// AudioPayload extracts the base64 audio from a server audio message.
// The audio_event envelope is preferred; the legacy audio.chunk field is
// the fallback. First non-empty wins.
func (m *ElevenLabsMessage) AudioPayload() string {
	if m.AudioEvent != nil && m.AudioEvent.AudioBase64 != "" {
		return m.AudioEvent.AudioBase64
	}

	if m.Audio != nil {
		return m.Audio.Chunk
	}

	return ""
}

// ParseElevenLabsMessage parses one server message from the agent socket.
// A message without a type discriminator is rejected.
func ParseElevenLabsMessage(data []byte) (*ElevenLabsMessage, error) {
	var msg ElevenLabsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse agent message: %w", err)
	}

	if msg.Type == "" {
		return nil, fmt.Errorf("agent message missing type discriminator")
	}

	return &msg, nil
}

// InitiationMessage is the single session-configuration message sent on the
// agent socket immediately after connect, before any audio is forwarded.
type InitiationMessage struct {
	Type                       string                      `json:"type"`
	DynamicVariables           map[string]string           `json:"dynamic_variables,omitempty"`
	ConversationConfigOverride *ConversationConfigOverride `json:"conversation_config_override,omitempty"`
}

// ConversationConfigOverride adjusts the agent's configured behavior for
// one conversation.
type ConversationConfigOverride struct {
	Agent *AgentOverride `json:"agent,omitempty"`
}

// AgentOverride carries per-conversation agent settings.
type AgentOverride struct {
	Prompt       *PromptOverride `json:"prompt,omitempty"`
	FirstMessage string          `json:"first_message,omitempty"`
	Language     string          `json:"language,omitempty"`
}

// PromptOverride replaces the agent's system prompt.
type PromptOverride struct {
	Prompt string `json:"prompt"`
}

// UserAudioChunk is the envelope for caller audio forwarded to the agent.
type UserAudioChunk struct {
	UserAudioChunk string `json:"user_audio_chunk"`
}

// Pong answers a ping, echoing its event identifier verbatim.
type Pong struct {
	Type    string          `json:"type"`
	EventID json.RawMessage `json:"event_id,omitempty"`
}
