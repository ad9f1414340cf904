package nop

import (
	"context"

	"github.com/papercomputeco/gridiron/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishAnswer validates input and otherwise does nothing.
func (p *Publisher) PublishAnswer(_ context.Context, event *eventstream.AnswerRecordedEvent) error {
	if event == nil {
		return eventstream.ErrNilAnswerEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
