// Package bridge implements the per-call relay between a Twilio Media
// Streams connection and an ElevenLabs Conversational AI connection.
// Each call gets one Session shared by two receive loops, one per leg;
// closing either leg tears down the other.
package bridge
