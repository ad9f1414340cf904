package agent

import (
	"context"
	"time"

	"github.com/papercomputeco/gridiron/pkg/llm"
)

// EventType discriminates stream events.
type EventType string

const (
	EventDelta EventType = "delta"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// Event is one element of an answer stream. Delta events carry Text. The
// terminal Done event carries StopReason and FullText, which equals the
// concatenation of every delta. The terminal Error event carries Err.
type Event struct {
	Type       EventType
	Text       string
	StopReason string
	FullText   string
	ToolsUsed  []string
	Err        error
}

const streamBuffer = 16

// Stream runs the loop in the background and returns its events. The
// channel yields zero or more deltas followed by exactly one Done or Error
// event and is then closed. Cancelling ctx stops the loop; the terminal
// event may then be dropped if nobody is reading.
func (a *Agent) Stream(ctx context.Context, in Input) <-chan Event {
	events := make(chan Event, streamBuffer)

	go func() {
		defer close(events)
		started := time.Now()

		send := func(e Event) error {
			select {
			case events <- e:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		answer, err := a.run(ctx, in, func(c llm.StreamChunk) error {
			if c.Text == "" {
				return nil
			}
			return send(Event{Type: EventDelta, Text: c.Text})
		})
		if err != nil {
			_ = send(Event{Type: EventError, Err: err})
			return
		}

		a.record(in, answer, true, started)
		_ = send(Event{
			Type:       EventDone,
			StopReason: answer.StopReason,
			FullText:   answer.Text,
			ToolsUsed:  answer.ToolsUsed,
		})
	}()

	return events
}
