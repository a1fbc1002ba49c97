// Package chat implements the client side of a streamed chat exchange: it
// posts a user message to the backend and applies the SSE response to a
// single assistant message through a Sink.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/papercomputeco/ssechat/pkg/logger"
)

// StreamPath is the backend route serving streamed replies.
const StreamPath = "/chat/stream"

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config is the configuration for a Client.
type Config struct {
	// Endpoint is the backend base URL (e.g. "http://localhost:8000").
	Endpoint string

	// Sink receives the assistant message notifications. Required.
	Sink Sink

	// HTTPClient performs requests. Defaults to an *http.Client with no
	// timeout; cancellation is driven by the context given to Session.Run.
	HTTPClient Doer

	// IDs allocates message identifiers. Defaults to UUIDGenerator.
	IDs IDGenerator

	// Logger defaults to a no-op logger.
	Logger *slog.Logger
}

// Client creates chat sessions against a single backend.
type Client struct {
	url    string
	sink   Sink
	doer   Doer
	ids    IDGenerator
	logger *slog.Logger
}

// NewClient validates c and returns a Client.
func NewClient(c Config) (*Client, error) {
	if c.Endpoint == "" {
		return nil, errors.New("chat client requires an endpoint")
	}
	if c.Sink == nil {
		return nil, errors.New("chat client requires a sink")
	}

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	if c.IDs == nil {
		c.IDs = UUIDGenerator{}
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	return &Client{
		url:    strings.TrimSuffix(c.Endpoint, "/") + StreamPath,
		sink:   c.Sink,
		doer:   c.HTTPClient,
		ids:    c.IDs,
		logger: c.Logger,
	}, nil
}

// NewSession allocates identifiers for the user message and for the
// assistant reply, and returns a session in the running state. Nothing is sent
// until Run is called.
func (c *Client) NewSession(message string) *Session {
	userID := c.ids.NewID()
	id := c.ids.NewID()

	return newSession(c, userID, id, message)
}

// Send creates a session for message and runs it to completion.
// The returned error is the transport failure, if any; it has already been
// reported to the Sink.
func (c *Client) Send(ctx context.Context, message string) (*Session, error) {
	s := c.NewSession(message)
	return s, s.Run(ctx)
}
