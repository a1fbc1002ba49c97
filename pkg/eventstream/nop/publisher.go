// Package nop provides the publisher behind eventstream.provider = "nop".
package nop

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/papercomputeco/ssechat/pkg/eventstream"
)

// Publisher validates and counts message events, then drops them.
type Publisher struct {
	published atomic.Uint64
	closeOnce sync.Once
	closed    atomic.Bool
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(_ context.Context, event *eventstream.MessageEvent) error {
	if p.closed.Load() {
		return eventstream.ErrPublisherClosed
	}
	if err := eventstream.Validate(event); err != nil {
		return err
	}
	p.published.Add(1)
	return nil
}

// Published is the number of events accepted so far.
func (p *Publisher) Published() uint64 {
	return p.published.Load()
}

func (p *Publisher) Close() error {
	p.closeOnce.Do(func() { p.closed.Store(true) })
	return nil
}
