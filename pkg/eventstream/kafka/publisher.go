// Package kafka publishes answer events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/gridiron/pkg/eventstream"
)

// ErrNoBrokers is returned when no broker address is configured.
var ErrNoBrokers = errors.New("kafka publisher requires at least one broker")

// Writer is the subset of *kafkago.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config configures a Kafka publisher.
type Config struct {
	Brokers []string
	Topic   string
	Logger  *slog.Logger
}

// Publisher writes one JSON message per answer, keyed by actor so a user's
// answers stay ordered within a partition.
type Publisher struct {
	writer Writer
	topic  string
	logger *slog.Logger
}

// NewPublisher creates a publisher backed by a kafka-go Writer.
func NewPublisher(c Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, ErrNoBrokers
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return NewPublisherWithWriter(w, c.Topic, c.Logger), nil
}

// NewPublisherWithWriter creates a publisher over an existing writer.
func NewPublisherWithWriter(w Writer, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{
		writer: w,
		topic:  topic,
		logger: logger,
	}
}

// PublishAnswer serializes event and writes it to the topic.
func (p *Publisher) PublishAnswer(ctx context.Context, event *eventstream.AnswerRecordedEvent) error {
	if event == nil {
		return eventstream.ErrNilAnswerEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling answer event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.Source.ActorID),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: topic %s: %v", eventstream.ErrPublishFailed, p.topic, err)
	}

	p.logger.Debug("published answer event",
		"topic", p.topic,
		"event_id", event.EventID,
		"bytes", len(value),
	)
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
