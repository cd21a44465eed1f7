// Package server implements the HTTP listener: the media stream WebSocket
// endpoint, the TwiML call-redirect webhook, the health check and the
// Prometheus metrics endpoint.
package server
