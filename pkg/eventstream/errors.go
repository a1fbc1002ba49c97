package eventstream

import "errors"

var (
	// ErrNilMessageEvent is returned when Publish is given a nil event.
	ErrNilMessageEvent = errors.New("nil message event")

	// ErrMissingMessageID is returned for events that cannot be keyed.
	ErrMissingMessageID = errors.New("message event has no message id")

	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("publisher closed")
)

// Validate reports whether event can be published.
func Validate(event *MessageEvent) error {
	if event == nil {
		return ErrNilMessageEvent
	}
	if event.MessageID == "" {
		return ErrMissingMessageID
	}
	return nil
}
