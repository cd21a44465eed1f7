package protocol

import (
	"encoding/json"
	"fmt"
)

// Twilio Media Streams event discriminators
const (
	TwilioEventConnected = "connected"
	TwilioEventStart     = "start"
	TwilioEventMedia     = "media"
	TwilioEventStop      = "stop"
	TwilioEventMark      = "mark"
	TwilioEventClear     = "clear"
)

// TwilioMessage represents a single frame on the Twilio Media Streams
// WebSocket. Only the section matching the Event discriminator is populated.
type TwilioMessage struct {
	Event     string       `json:"event"`
	StreamSID string       `json:"streamSid,omitempty"`
	Start     *TwilioStart `json:"start,omitempty"`
	Media     *TwilioMedia `json:"media,omitempty"`
	Stop      *TwilioStop  `json:"stop,omitempty"`
	Mark      *TwilioMark  `json:"mark,omitempty"`
}

// TwilioStart carries the metadata Twilio sends once when the media stream
// begins, including the stream identifier used to address audio back to
// the call and any <Parameter> tags from the TwiML document.
type TwilioStart struct {
	StreamSID        string             `json:"streamSid"`
	CallSID          string             `json:"callSid"`
	AccountSID       string             `json:"accountSid,omitempty"`
	Tracks           []string           `json:"tracks,omitempty"`
	CustomParameters map[string]string  `json:"customParameters,omitempty"`
	MediaFormat      *TwilioMediaFormat `json:"mediaFormat,omitempty"`
}

// TwilioMediaFormat describes the audio encoding of the stream
// (mu-law, 8kHz, mono for phone calls).
type TwilioMediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

// TwilioMedia carries one base64-encoded audio chunk.
type TwilioMedia struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"`
}

// TwilioStop is sent by Twilio when the stream ends.
type TwilioStop struct {
	AccountSID string `json:"accountSid,omitempty"`
	CallSID    string `json:"callSid,omitempty"`
}

// TwilioMark acknowledges a previously sent mark frame.
type TwilioMark struct {
	Name string `json:"name"`
}

// ParseTwilioMessage parses one Twilio Media Streams frame.
// A frame without an event discriminator is rejected.
func ParseTwilioMessage(data []byte) (*TwilioMessage, error) {
	var msg TwilioMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse telephony frame: %w", err)
	}

	if msg.Event == "" {
		return nil, fmt.Errorf("telephony frame missing event discriminator")
	}

	return &msg, nil
}
