package eventstream

import "context"

// Publisher ships message events to an event stream backend. Events of one
// message must be delivered in the order Publish was called for them.
type Publisher interface {
	Publish(ctx context.Context, event *MessageEvent) error
	Close() error
}
