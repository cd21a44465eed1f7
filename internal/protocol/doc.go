// Package protocol defines the wire schemas for both legs of a bridged call:
// Twilio Media Streams frames on the telephony side and ElevenLabs
// Conversational AI messages on the agent side, plus the stateless
// translation functions between them.
package protocol
