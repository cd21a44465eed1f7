package protocol

import "fmt"

// Translation between the two envelopes is a pure payload re-wrap: both
// sides carry base64 audio, only the surrounding field names differ. No
// decoding or re-encoding of the audio bytes happens here.

// TwilioMediaToUserAudio converts an inbound media frame into the chunk
// envelope the agent socket accepts.
func TwilioMediaToUserAudio(msg *TwilioMessage) (*UserAudioChunk, error) {
	if msg.Media == nil || msg.Media.Payload == "" {
		return nil, fmt.Errorf("media frame has no payload")
	}

	return &UserAudioChunk{UserAudioChunk: msg.Media.Payload}, nil
}

// ElevenLabsAudioToTwilioMedia converts a server audio message into the
// media frame Twilio expects, addressed by stream identifier.
func ElevenLabsAudioToTwilioMedia(streamSID string, msg *ElevenLabsMessage) (*TwilioMessage, error) {
	if streamSID == "" {
		return nil, fmt.Errorf("stream identifier not set")
	}

	payload := msg.AudioPayload()
	if payload == "" {
		return nil, fmt.Errorf("agent audio message has no payload")
	}

	return &TwilioMessage{
		Event:     TwilioEventMedia,
		StreamSID: streamSID,
		Media:     &TwilioMedia{Payload: payload},
	}, nil
}

// ClearFrame builds the frame that tells Twilio to discard any audio it
// has queued for playback (barge-in).
func ClearFrame(streamSID string) *TwilioMessage {
	return &TwilioMessage{
		Event:     TwilioEventClear,
		StreamSID: streamSID,
	}
}

// PongFor builds the pong reply for a ping message, echoing the event
// identifier byte-for-byte.
func PongFor(msg *ElevenLabsMessage) (*Pong, error) {
	if msg.PingEvent == nil {
		return nil, fmt.Errorf("ping message has no ping_event")
	}

	return &Pong{
		Type:    ElevenLabsTypePong,
		EventID: msg.PingEvent.EventID,
	}, nil
}
