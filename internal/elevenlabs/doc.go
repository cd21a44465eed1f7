// Package elevenlabs implements the one-shot authenticated exchange of the
// static agent credentials for a signed Conversational AI WebSocket URL.
package elevenlabs
