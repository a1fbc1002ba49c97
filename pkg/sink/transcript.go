// Package sink provides chat.Sink implementations: an in-memory transcript,
// a terminal renderer, an event stream mirror and a fan-out combinator.
package sink

import (
	"strings"
	"sync"

	"github.com/papercomputeco/ssechat/pkg/chat"
)

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a snapshot of one transcript entry.
type Message struct {
	ID    string
	Role  Role
	Text  string
	State chat.State

	// Error is the failure description of an errored assistant message.
	Error string
}

type entry struct {
	role  Role
	text  strings.Builder
	state chat.State
	err   string
}

// Transcript keeps every message of the process lifetime in memory, in the
// order they were first seen. It is safe for concurrent use.
type Transcript struct {
	mu       sync.RWMutex
	order    []string
	messages map[string]*entry
}

var _ chat.Sink = (*Transcript)(nil)

// NewTranscript returns an empty Transcript.
func NewTranscript() *Transcript {
	return &Transcript{messages: make(map[string]*entry)}
}

// AddUser records a user message.
func (t *Transcript) AddUser(id, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entry(id, RoleUser)
	e.text.WriteString(text)
	e.state = chat.StateCompleted
}

// Append adds text to an assistant message, creating it on first use.
// Text for a message that already completed or errored is dropped.
func (t *Transcript) Append(id, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entry(id, RoleAssistant)
	if e.state != chat.StateRunning {
		return
	}
	e.text.WriteString(text)
}

func (t *Transcript) MarkComplete(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entry(id, RoleAssistant)
	if e.state == chat.StateRunning {
		e.state = chat.StateCompleted
	}
}

// MarkError keeps the text streamed so far and records the failure.
func (t *Transcript) MarkError(id, description string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entry(id, RoleAssistant)
	if e.state == chat.StateRunning {
		e.state = chat.StateErrored
		e.err = description
	}
}

// Get returns a snapshot of the message with the given id.
func (t *Transcript) Get(id string) (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.messages[id]
	if !ok {
		return Message{}, false
	}
	return e.snapshot(id), true
}

// Messages returns snapshots of all messages in order.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Message, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.messages[id].snapshot(id))
	}
	return out
}

// entry returns the entry for id, creating it with role. Callers hold mu.
func (t *Transcript) entry(id string, role Role) *entry {
	e, ok := t.messages[id]
	if !ok {
		e = &entry{role: role, state: chat.StateRunning}
		t.messages[id] = e
		t.order = append(t.order, id)
	}
	return e
}

func (e *entry) snapshot(id string) Message {
	return Message{
		ID:    id,
		Role:  e.role,
		Text:  e.text.String(),
		State: e.state,
		Error: e.err,
	}
}
