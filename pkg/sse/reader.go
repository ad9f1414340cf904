package sse

import (
	"bufio"
	"io"
	"strings"
)

// Reader parses SSE events from a byte stream.
type Reader struct {
	scanner *bufio.Scanner

	// current accumulates fields for the event being built.
	current *Event
	hasData bool
}

// NewReader returns a Reader over src.
func NewReader(src io.Reader) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &Reader{
		scanner: scanner,
		current: &Event{},
	}
}

// Next returns the next event. It blocks until a blank line completes an
// event and returns nil, nil when the source is exhausted.
func (r *Reader) Next() (*Event, error) {
	for r.scanner.Scan() {
		raw := r.scanner.Text()

		if raw == "" {
			if r.hasData {
				ev := r.current
				r.reset()
				return ev, nil
			}
			// Keep-alive or leading blank line.
			continue
		}

		if strings.HasPrefix(raw, ":") {
			continue
		}

		r.parseLine(raw)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// A stream may end without a trailing blank line.
	if r.hasData {
		ev := r.current
		r.reset()
		return ev, nil
	}

	return nil, nil
}

// All reads every remaining event.
func (r *Reader) All() ([]Event, error) {
	var events []Event
	for {
		ev, err := r.Next()
		if err != nil {
			return events, err
		}
		if ev == nil {
			return events, nil
		}
		events = append(events, *ev)
	}
}

// parseLine accumulates one "field:value" line. A single space after the
// colon is stripped.
func (r *Reader) parseLine(line string) {
	field, value, ok := strings.Cut(line, ":")
	if ok {
		value = strings.TrimPrefix(value, " ")
	}

	switch field {
	case "data":
		if r.hasData && r.current.Data != "" {
			r.current.Data += "\n"
		}
		r.current.Data += value
		r.hasData = true
	case "event":
		r.current.Type = value
		r.hasData = true
	case "id":
		r.current.ID = value
		r.hasData = true
	default:
		// retry and unknown fields are ignored.
	}
}

func (r *Reader) reset() {
	r.current = &Event{}
	r.hasData = false
}
