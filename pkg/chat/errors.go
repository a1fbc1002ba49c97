package chat

import "errors"

var (
	// ErrNoBody indicates a response that carried no readable body.
	ErrNoBody = errors.New("no response body")

	// ErrUnexpectedStatus indicates a non-2xx response from the backend.
	ErrUnexpectedStatus = errors.New("backend returned status")

	// ErrSessionStarted is returned when Run is called more than once.
	ErrSessionStarted = errors.New("session already started")
)
