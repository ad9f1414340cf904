package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gridiron/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals AnswerRecordedEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0).UTC()
		event := eventstream.NewAnswerRecordedEvent(now)
		event.Source = eventstream.EventSource{
			ActorID:   "alice",
			SessionID: "session-1",
			Provider:  "bedrock",
			Model:     "claude",
		}
		event.RequestMeta = eventstream.AnswerMeta{
			StartedAt:   now.Add(-2 * time.Second),
			CompletedAt: now,
			DurationMs:  2000,
			Streaming:   true,
			StopReason:  "end_turn",
			ToolsUsed:   []string{"rag_search"},
		}
		event.Memory = eventstream.MemoryMeta{Recorded: true, EventID: "mem-1"}
		event.Answer = eventstream.AnswerPayload{Prompt: "Who wins?", Response: "The Bills."}

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKey("request_meta"))
		Expect(got).To(HaveKey("memory"))
		Expect(got).To(HaveKey("answer"))
	})

	It("stamps new events with a unique id", func() {
		a := eventstream.NewAnswerRecordedEvent(time.Now())
		b := eventstream.NewAnswerRecordedEvent(time.Now())
		Expect(a.EventID).To(HavePrefix("evt_"))
		Expect(a.EventID).NotTo(Equal(b.EventID))
		Expect(a.EventType).To(Equal(eventstream.EventTypeAnswerRecorded))
		Expect(a.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
	})

	It("provides ErrNilAnswerEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilAnswerEvent).To(MatchError("nil answer event"))
	})
})
