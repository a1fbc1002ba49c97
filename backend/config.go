// Package backend provides a mock chat backend speaking the streamed chat
// protocol: a JSON request {"message": ...} answered by an SSE stream of
// {"token": ...} events terminated by {"end": true}.
package backend

import "time"

// Config is the backend server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// TokenDelay is the pause before each streamed token, simulating
	// generation latency. Zero streams as fast as possible.
	TokenDelay time.Duration

	// Responder produces the reply tokens for a message. Defaults to
	// EchoResponder.
	Responder Responder
}
