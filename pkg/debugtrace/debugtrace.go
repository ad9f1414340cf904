// Package debugtrace records tool inputs and outputs for a single request.
//
// A Trace travels in the request's context. Tools append to it while the
// answer is produced, and the HTTP layer returns it when the caller asked
// for debug output. Requests never share a trace.
package debugtrace

import (
	"context"
	"sync"
	"time"
)

// Phase marks whether an entry records what a tool received or returned.
type Phase string

const (
	PhaseInput  Phase = "INPUT"
	PhaseOutput Phase = "OUTPUT"
)

// Entry is one traced tool event.
type Entry struct {
	Tool      string `json:"tool"`
	Phase     Phase  `json:"phase"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

// Trace is a concurrency-safe list of entries.
type Trace struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

// New returns an empty trace.
func New() *Trace {
	return &Trace{now: time.Now}
}

// Add appends an entry stamped with the current time.
func (t *Trace) Add(tool string, phase Phase, data any) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, Entry{
		Tool:      tool,
		Phase:     phase,
		Data:      data,
		Timestamp: t.now().UTC().Format(time.RFC3339Nano),
	})
}

// Entries returns a copy of the recorded entries in insertion order.
func (t *Trace) Entries() []Entry {
	if t == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

type contextKey struct{}

// WithTrace returns a context carrying t.
func WithTrace(ctx context.Context, t *Trace) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext returns the trace carried by ctx, or nil. A nil *Trace is
// safe to Add to.
func FromContext(ctx context.Context) *Trace {
	t, _ := ctx.Value(contextKey{}).(*Trace)
	return t
}

// Record adds an entry to the trace carried by ctx, if any.
func Record(ctx context.Context, tool string, phase Phase, data any) {
	FromContext(ctx).Add(tool, phase, data)
}
