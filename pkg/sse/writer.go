package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

type flusher interface {
	Flush() error
}

// Writer frames events onto w, flushing after each one when w supports it.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer over w. A *bufio.Writer, such as the one fiber
// hands to a body stream writer, is flushed after every event.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteJSON writes one event whose data is the JSON encoding of v.
func (w *Writer) WriteJSON(eventType string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", eventType, err)
	}
	return w.Write(Event{Type: eventType, Data: string(data)})
}

// Write writes one event. Multi-line data is split across data fields.
func (w *Writer) Write(ev Event) error {
	var b strings.Builder
	if ev.ID != "" {
		b.WriteString("id: " + ev.ID + "\n")
	}
	if ev.Type != "" {
		b.WriteString("event: " + ev.Type + "\n")
	}
	for line := range strings.SplitSeq(ev.Data, "\n") {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")

	if _, err := io.WriteString(w.w, b.String()); err != nil {
		return err
	}
	if f, ok := w.w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
