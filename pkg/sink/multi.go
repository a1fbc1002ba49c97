package sink

import "github.com/papercomputeco/ssechat/pkg/chat"

// multi fans out every notification to several sinks in order.
type multi []chat.Sink

// Multi returns a chat.Sink that forwards each notification to all sinks,
// in the order given.
func Multi(sinks ...chat.Sink) chat.Sink {
	return multi(sinks)
}

func (m multi) Append(id, text string) {
	for _, s := range m {
		s.Append(id, text)
	}
}

func (m multi) MarkComplete(id string) {
	for _, s := range m {
		s.MarkComplete(id)
	}
}

func (m multi) MarkError(id, description string) {
	for _, s := range m {
		s.MarkError(id, description)
	}
}
