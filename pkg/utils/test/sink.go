// Package testutils provides shared fixtures for ssechat tests.
package testutils

import "sync"

// Notification kinds recorded by RecordingSink.
const (
	KindAppend   = "append"
	KindComplete = "complete"
	KindError    = "error"
)

// Notification is one call received by a RecordingSink. Text holds the
// appended text or the error description.
type Notification struct {
	Kind string
	ID   string
	Text string
}

// RecordingSink records every notification in arrival order. It satisfies
// chat.Sink.
type RecordingSink struct {
	mu     sync.Mutex
	events []Notification
}

func (r *RecordingSink) Append(id, text string) {
	r.record(Notification{Kind: KindAppend, ID: id, Text: text})
}

func (r *RecordingSink) MarkComplete(id string) {
	r.record(Notification{Kind: KindComplete, ID: id})
}

func (r *RecordingSink) MarkError(id, description string) {
	r.record(Notification{Kind: KindError, ID: id, Text: description})
}

func (r *RecordingSink) record(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, n)
}

// Events returns a copy of every notification received so far.
func (r *RecordingSink) Events() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.events...)
}

// ForID returns the notifications for one message id, in order.
func (r *RecordingSink) ForID(id string) []Notification {
	var out []Notification
	for _, n := range r.Events() {
		if n.ID == id {
			out = append(out, n)
		}
	}
	return out
}

// Text concatenates the appended text for id.
func (r *RecordingSink) Text(id string) string {
	var text string
	for _, n := range r.ForID(id) {
		if n.Kind == KindAppend {
			text += n.Text
		}
	}
	return text
}
