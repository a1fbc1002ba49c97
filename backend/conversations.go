package backend

import (
	"slices"
	"sync"
)

const (
	defaultConversationID = "default"

	messageTypeHuman = "human"
	messageTypeAI    = "ai"
)

// HistoryMessage is one message of a conversation.
type HistoryMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// conversations keeps conversation histories in memory for the lifetime of
// the server.
type conversations struct {
	mu   sync.RWMutex
	byID map[string][]HistoryMessage
}

func newConversations() *conversations {
	return &conversations{byID: make(map[string][]HistoryMessage)}
}

func (c *conversations) append(id string, msgs ...HistoryMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[id] = append(c.byID[id], msgs...)
}

// history returns a copy of the conversation, or nil if it does not exist.
func (c *conversations) history(id string) []HistoryMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.byID[id])
}

// remove deletes the conversation and reports whether it existed.
func (c *conversations) remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.byID[id]
	delete(c.byID, id)
	return ok
}

// ids returns the conversation ids in sorted order.
func (c *conversations) ids() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.byID))
	for id := range c.byID {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
