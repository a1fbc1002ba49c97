package sink

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/ssechat/pkg/chat"
	"github.com/papercomputeco/ssechat/pkg/eventstream"
)

const defaultPublishTimeout = 5 * time.Second

// Publishing mirrors sink notifications as eventstream.MessageEvents. Events
// of one message carry increasing sequence numbers starting at 1. Publish
// failures are logged and never interrupt the stream.
type Publishing struct {
	publisher eventstream.Publisher
	logger    *slog.Logger
	timeout   time.Duration
	now       func() time.Time

	mu  sync.Mutex
	seq map[string]uint64
}

var _ chat.Sink = (*Publishing)(nil)

// NewPublishing returns a sink that publishes to p.
func NewPublishing(p eventstream.Publisher, logger *slog.Logger) *Publishing {
	return &Publishing{
		publisher: p,
		logger:    logger,
		timeout:   defaultPublishTimeout,
		now:       time.Now,
		seq:       make(map[string]uint64),
	}
}

func (p *Publishing) Append(id, text string) {
	p.publish(&eventstream.MessageEvent{
		EventType: eventstream.EventTypeMessageAppended,
		MessageID: id,
		Text:      text,
	}, false)
}

func (p *Publishing) MarkComplete(id string) {
	p.publish(&eventstream.MessageEvent{
		EventType: eventstream.EventTypeMessageCompleted,
		MessageID: id,
	}, true)
}

func (p *Publishing) MarkError(id, description string) {
	p.publish(&eventstream.MessageEvent{
		EventType: eventstream.EventTypeMessageErrored,
		MessageID: id,
		Error:     description,
	}, true)
}

func (p *Publishing) publish(event *eventstream.MessageEvent, final bool) {
	p.mu.Lock()
	p.seq[event.MessageID]++
	event.Sequence = p.seq[event.MessageID]
	if final {
		delete(p.seq, event.MessageID)
	}
	p.mu.Unlock()

	event.SchemaVersion = eventstream.SchemaVersionV1
	event.EventID = uuid.NewString()
	event.EmittedAt = p.now().UTC()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.Warn("failed to publish message event",
			"message_id", event.MessageID,
			"event_type", event.EventType,
			"error", err,
		)
	}
}
