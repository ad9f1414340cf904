package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gridiron/pkg/eventstream"
	"github.com/papercomputeco/gridiron/pkg/logger"
	"github.com/papercomputeco/gridiron/pkg/memory"
	testutils "github.com/papercomputeco/gridiron/pkg/utils/test"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.AnswerRecordedEvent
	err    error
}

func (r *recordingPublisher) PublishAnswer(_ context.Context, e *eventstream.AnswerRecordedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) published() []*eventstream.AnswerRecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*eventstream.AnswerRecordedEvent(nil), r.events...)
}

// newTestPool creates a worker pool backed by a mock memory driver.
// Callers should "wp.Close()" to drain enqueued jobs before asserting state.
func newTestPool(driver *testutils.MockMemoryDriver, publisher eventstream.Publisher) *Pool {
	client := memory.NewClient(memory.ClientConfig{
		Driver: driver,
		Logger: logger.Nop(),
	})

	wp, err := NewPool(&Config{
		Memory:    client,
		Publisher: publisher,
		Logger:    logger.Nop(),
	})
	Expect(err).NotTo(HaveOccurred())
	return wp
}

func testJob(prompt, answer string) Job {
	start := time.Unix(1735689600, 0)
	return Job{
		ActorID:     "alice",
		SessionID:   "session-1",
		Prompt:      prompt,
		Answer:      answer,
		Provider:    "mock",
		Model:       "mock-model",
		StopReason:  "end_turn",
		ToolsUsed:   []string{"rag_search"},
		StartedAt:   start,
		CompletedAt: start.Add(1500 * time.Millisecond),
	}
}

var _ = Describe("Worker Pool", func() {
	var (
		driver    *testutils.MockMemoryDriver
		publisher *recordingPublisher
		wp        *Pool
	)

	BeforeEach(func() {
		driver = testutils.NewMockMemoryDriver()
		publisher = &recordingPublisher{}
		wp = newTestPool(driver, publisher)
		DeferCleanup(wp.Close)
	})

	Describe("Enqueue", func() {
		It("returns true when the queue has capacity", func() {
			Expect(wp.Enqueue(testJob("q", "a"))).To(BeTrue())
			wp.Close()
		})

		It("returns false once closed", func() {
			wp.Close()
			Expect(wp.Enqueue(testJob("q", "a"))).To(BeFalse())
		})

		It("tolerates repeated Close", func() {
			wp.Close()
			wp.Close()
		})
	})

	Describe("recording", func() {
		It("appends the USER then ASSISTANT turn", func() {
			wp.Enqueue(testJob("Who wins?", "The Bills."))
			wp.Close()

			calls := driver.AppendCalls()
			Expect(calls).To(HaveLen(1))
			Expect(calls[0].ActorID).To(Equal("alice"))
			Expect(calls[0].SessionID).To(Equal("session-1"))
			Expect(calls[0].Turns).To(HaveLen(2))
			Expect(calls[0].Turns[0].Role).To(Equal(memory.RoleUser))
			Expect(calls[0].Turns[0].Content).To(Equal("Who wins?"))
			Expect(calls[0].Turns[1].Role).To(Equal(memory.RoleAssistant))
			Expect(calls[0].Turns[1].Content).To(Equal("The Bills."))
		})

		It("publishes an event describing the answer", func() {
			wp.Enqueue(testJob("Who wins?", "The Bills."))
			wp.Close()

			events := publisher.published()
			Expect(events).To(HaveLen(1))
			Expect(events[0].Memory.Recorded).To(BeTrue())
			Expect(events[0].Memory.EventID).To(Equal("mock-event"))
			Expect(events[0].RequestMeta.DurationMs).To(Equal(int64(1500)))
			Expect(events[0].Answer.Prompt).To(Equal("Who wins?"))
		})

		It("still publishes when the memory write fails", func() {
			driver.FailAppend = true
			wp.Enqueue(testJob("q", "a"))
			wp.Close()

			events := publisher.published()
			Expect(events).To(HaveLen(1))
			Expect(events[0].Memory.Recorded).To(BeFalse())
		})

		It("absorbs publish failures", func() {
			publisher.err = errors.New("broker down")
			wp.Enqueue(testJob("q", "a"))
			wp.Close()
			Expect(driver.AppendCalls()).To(HaveLen(1))
		})

		It("records every job in a burst", func() {
			for range 20 {
				Expect(wp.Enqueue(testJob("q", "a"))).To(BeTrue())
			}
			wp.Close()
			Expect(driver.AppendCalls()).To(HaveLen(20))
		})

		It("appends a session's turns in enqueue order", func() {
			for i := range 30 {
				Expect(wp.Enqueue(testJob(fmt.Sprintf("q%d", i), "a"))).To(BeTrue())
			}
			wp.Close()

			calls := driver.AppendCalls()
			Expect(calls).To(HaveLen(30))
			for i, call := range calls {
				Expect(call.Turns[0].Content).To(Equal(fmt.Sprintf("q%d", i)))
			}
		})

		It("keeps per-session order while spreading sessions across workers", func() {
			for i := range 10 {
				for _, session := range []string{"s1", "s2", "s3", "s4"} {
					job := testJob(fmt.Sprintf("%s-%d", session, i), "a")
					job.SessionID = session
					Expect(wp.Enqueue(job)).To(BeTrue())
				}
			}
			wp.Close()

			seen := map[string]int{}
			for _, call := range driver.AppendCalls() {
				Expect(call.Turns[0].Content).To(Equal(fmt.Sprintf("%s-%d", call.SessionID, seen[call.SessionID])))
				seen[call.SessionID]++
			}
			Expect(seen).To(HaveLen(4))
		})
	})

	It("gives every worker a queue when QueueSize is below NumWorkers", func() {
		small, err := NewPool(&Config{
			Memory:     memory.NewClient(memory.ClientConfig{Driver: driver, Logger: logger.Nop()}),
			NumWorkers: 4,
			QueueSize:  1,
			Logger:     logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(small.queues).To(HaveLen(4))
		for _, q := range small.queues {
			Expect(cap(q)).To(Equal(1))
		}
		small.Close()
	})

	It("skips memory when disabled", func() {
		disabled, err := NewPool(&Config{
			Memory: memory.NewClient(memory.ClientConfig{Logger: logger.Nop()}),
			Logger: logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		disabled.Enqueue(testJob("q", "a"))
		disabled.Close()
	})
})
