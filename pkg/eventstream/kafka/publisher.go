// Package kafka publishes message events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/ssechat/pkg/eventstream"
)

// eventTypeHeader carries the event type so consumers can filter without
// decoding the value.
const eventTypeHeader = "event_type"

// DefaultBatchTimeout bounds how long a Publish waits for more messages to
// fill a batch. kafka-go's own default of 1s holds every synchronous Publish
// for a full second.
const DefaultBatchTimeout = 10 * time.Millisecond

// Config configures a Kafka Publisher.
type Config struct {
	// Brokers are the bootstrap broker addresses (host:port).
	Brokers []string

	// Topic receives all message events.
	Topic string

	// Async makes Publish return without waiting for broker acknowledgement.
	Async bool

	// BatchTimeout defaults to DefaultBatchTimeout.
	BatchTimeout time.Duration
}

// messageWriter is the subset of *kafkago.Writer used by the Publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes message events to Kafka, keyed by message id so that all
// events of one message land on the same partition in order.
type Publisher struct {
	writer messageWriter
}

// NewPublisher creates a Publisher for the given brokers and topic.
func NewPublisher(c Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if c.Topic == "" {
		return nil, errors.New("kafka publisher requires a topic")
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = DefaultBatchTimeout
	}

	return &Publisher{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(c.Brokers...),
			Topic:                  c.Topic,
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			Async:                  c.Async,
			BatchTimeout:           c.BatchTimeout,
			AllowAutoTopicCreation: true,
		},
	}, nil
}

// Publish encodes event as JSON and writes it to the topic.
func (p *Publisher) Publish(ctx context.Context, event *eventstream.MessageEvent) error {
	if err := eventstream.Validate(event); err != nil {
		return err
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding message event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.MessageID),
		Value: value,
		Headers: []kafkago.Header{
			{Key: eventTypeHeader, Value: []byte(event.EventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing message event: %w", err)
	}

	return nil
}

// Close flushes pending writes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
