// Package eventstream defines transport-neutral events mirroring the
// mutations of streamed chat messages, and the Publisher interface that ships
// them to an event stream backend.
package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeMessageAppended is emitted for every text fragment appended to
	// a message.
	EventTypeMessageAppended = "ssechat.message.appended"

	// EventTypeMessageCompleted is emitted once a message finished streaming.
	EventTypeMessageCompleted = "ssechat.message.completed"

	// EventTypeMessageErrored is emitted once a message failed to stream.
	EventTypeMessageErrored = "ssechat.message.errored"
)

// MessageEvent is a single mutation of a streamed message.
type MessageEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	// MessageID is the message the mutation applies to. Publishers use it as
	// the partition key so per-message order survives transport.
	MessageID string `json:"message_id"`

	// Sequence numbers the events of one message starting at 1.
	Sequence uint64 `json:"sequence"`

	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}
