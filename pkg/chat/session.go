package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/papercomputeco/ssechat/pkg/sse"
)

const (
	readBufferSize = 32 * 1024

	// errorBodyLimit caps how much of a failed response is quoted in errors.
	errorBodyLimit = 4 * 1024
)

// State is the lifecycle state of a Session.
type State int32

const (
	StateRunning State = iota
	StateCompleted
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// request is the JSON body posted to the backend.
type request struct {
	Message string `json:"message"`
}

// Session is one request/response exchange streaming into a single assistant
// message. A session runs on the caller's goroutine and owns its Splitter, so
// it needs no locking; only State is safe to read from other goroutines.
type Session struct {
	client  *Client
	userID  string
	id      string
	message string

	splitter *sse.Splitter
	logger   *slog.Logger

	started atomic.Bool
	state   atomic.Int32
	tokens  int
	err     error
}

func newSession(c *Client, userID, id, message string) *Session {
	return &Session{
		client:   c,
		userID:   userID,
		id:       id,
		message:  message,
		splitter: sse.NewSplitter(),
		logger:   c.logger.With("message_id", id),
	}
}

// ID returns the assistant message identifier notifications are keyed by.
func (s *Session) ID() string { return s.id }

// UserID returns the identifier allocated for the user's message.
func (s *Session) UserID() string { return s.userID }

// Message returns the user message being sent.
func (s *Session) Message() string { return s.message }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// Tokens returns how many token events were applied. Valid once Run returns.
func (s *Session) Tokens() int { return s.tokens }

// Err returns the transport failure that errored the session, if any. Valid
// once Run returns.
func (s *Session) Err() error { return s.err }

// Run posts the message and streams the reply into the Sink until the backend
// sends an end event, closes the stream, or the transport fails. Cancelling
// ctx aborts the pending request or read and errors the session.
func (s *Session) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrSessionStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	body, err := s.open(ctx)
	if err != nil {
		return s.fail(err)
	}

	return s.stream(body, cancel)
}

// open sends the request and returns the response body of a successful reply.
func (s *Session) open(ctx context.Context) (io.ReadCloser, error) {
	payload, err := json.Marshal(request{Message: s.message})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	s.logger.Debug("sending chat request",
		"url", s.client.url,
		"message_length", len(s.message),
	)

	resp, err := s.client.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending chat request: %w", err)
	}

	if resp.Body == nil {
		return nil, ErrNoBody
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return resp.Body, nil
}

// stream reads body to the end, applying each decoded event. cancel aborts
// the underlying request once the end event is seen.
func (s *Session) stream(body io.ReadCloser, cancel context.CancelFunc) error {
	buf := make([]byte, readBufferSize)

	for {
		n, err := body.Read(buf)
		if n > 0 && s.apply(buf[:n]) {
			cancel()
			_ = body.Close()
			s.complete()
			return nil
		}

		if errors.Is(err, io.EOF) {
			_ = body.Close()
			if rest := s.splitter.Buffered(); rest != "" {
				s.logger.Debug("discarding unterminated event at end of stream",
					"bytes", len(rest),
				)
			}
			s.complete()
			return nil
		}

		if err != nil {
			_ = body.Close()
			return s.fail(fmt.Errorf("reading stream: %w", err))
		}
	}
}

// apply feeds chunk through the splitter and decoder. It returns true once
// the end event is seen; later blocks in the same chunk are not applied.
func (s *Session) apply(chunk []byte) bool {
	for block := range s.splitter.Feed(chunk) {
		sig := sse.Decode(block)

		switch sig.Kind {
		case sse.SignalToken:
			s.client.sink.Append(s.id, sig.Token)
			s.tokens++
		case sse.SignalEnd:
			return true
		case sse.SignalMalformed:
			s.logger.Debug("skipping malformed event",
				"error", sig.Err,
				"raw", sig.Raw,
			)
		}
	}

	return false
}

func (s *Session) complete() {
	if !s.state.CompareAndSwap(int32(StateRunning), int32(StateCompleted)) {
		return
	}

	s.logger.Debug("chat stream completed", "tokens", s.tokens)
	s.client.sink.MarkComplete(s.id)
}

func (s *Session) fail(err error) error {
	if !s.state.CompareAndSwap(int32(StateRunning), int32(StateErrored)) {
		return err
	}

	s.err = err
	s.logger.Error("chat stream failed",
		"error", err,
		"tokens", s.tokens,
	)
	s.client.sink.MarkError(s.id, err.Error())
	return err
}
