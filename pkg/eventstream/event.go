package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeAnswerRecorded is emitted after an answered prompt has been
	// written to conversational memory.
	EventTypeAnswerRecorded = "gridiron.answer.recorded"
)

// AnswerRecordedEvent is a transport-neutral event payload for a completed
// question and answer.
type AnswerRecordedEvent struct {
	SchemaVersion int           `json:"schema_version"`
	EventType     string        `json:"event_type"`
	EventID       string        `json:"event_id"`
	EmittedAt     time.Time     `json:"emitted_at"`
	Source        EventSource   `json:"source"`
	RequestMeta   AnswerMeta    `json:"request_meta"`
	Memory        MemoryMeta    `json:"memory"`
	Answer        AnswerPayload `json:"answer"`
}

// EventSource identifies who asked and which model answered.
type EventSource struct {
	ActorID   string `json:"actor_id"`
	SessionID string `json:"session_id"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
}

// AnswerMeta captures request lifecycle metadata for the event.
type AnswerMeta struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	Streaming   bool      `json:"streaming"`
	StopReason  string    `json:"stop_reason,omitempty"`
	ToolsUsed   []string  `json:"tools_used,omitempty"`
}

// MemoryMeta reports the outcome of the memory write.
type MemoryMeta struct {
	Recorded bool   `json:"recorded"`
	EventID  string `json:"event_id,omitempty"`
}

// AnswerPayload is the question and answer text.
type AnswerPayload struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// NewAnswerRecordedEvent stamps a new event with an ID, type and schema
// version.
func NewAnswerRecordedEvent(now time.Time) *AnswerRecordedEvent {
	return &AnswerRecordedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeAnswerRecorded,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     now.UTC(),
	}
}
