package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gridiron/api"
	"github.com/papercomputeco/gridiron/api/mcp"
	"github.com/papercomputeco/gridiron/pkg/agent"
	"github.com/papercomputeco/gridiron/pkg/debugtrace"
	"github.com/papercomputeco/gridiron/pkg/llm"
	"github.com/papercomputeco/gridiron/pkg/logger"
	"github.com/papercomputeco/gridiron/pkg/sse"
	"github.com/papercomputeco/gridiron/pkg/worker"
	testutils "github.com/papercomputeco/gridiron/pkg/utils/test"
)

type lookupTools struct{}

func (lookupTools) Definitions() []llm.ToolDefinition {
	return []llm.ToolDefinition{{Name: "rag_search", Description: "search"}}
}

func (lookupTools) Call(ctx context.Context, name string, input map[string]any) (string, error) {
	debugtrace.Record(ctx, name, debugtrace.PhaseInput, input)
	debugtrace.Record(ctx, name, debugtrace.PhaseOutput, "Found 0 relevant results:")
	return "Found 0 relevant results:", nil
}

type jobSink struct {
	jobs chan worker.Job
}

func (s *jobSink) Enqueue(job worker.Job) bool {
	s.jobs <- job
	return true
}

func post(server *api.Server, body string) *http.Response {
	req := httptest.NewRequest(http.MethodPost, "/invocations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := server.App().Test(req, -1)
	Expect(err).NotTo(HaveOccurred())
	return resp
}

func decode[T any](resp *http.Response) T {
	var out T
	defer resp.Body.Close()
	Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
	return out
}

var _ = Describe("Server", func() {
	var (
		model  *testutils.MockProvider
		sink   *jobSink
		server *api.Server
	)

	BeforeEach(func() {
		model = testutils.NewMockProvider()
		sink = &jobSink{jobs: make(chan worker.Job, 4)}

		a := agent.New(agent.Config{
			Provider: model,
			Tools:    lookupTools{},
			Recorder: sink,
			Model:    "mock-model",
			Logger:   logger.Nop(),
		})

		mcpServer, err := mcp.NewServer(mcp.Config{Tools: lookupTools{}, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())

		server = api.NewServer(api.Config{ListenAddr: ":0"}, a, mcpServer, logger.Nop())
	})

	Describe("GET /ping", func() {
		It("reports healthy with the current time", func() {
			before := time.Now().Unix()
			resp, err := server.App().Test(httptest.NewRequest(http.MethodGet, "/ping", nil), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			body := decode[api.PingResponse](resp)
			Expect(body.Status).To(Equal("Healthy"))
			Expect(body.TimeOfLastUpdate).To(BeNumerically(">=", before))
		})
	})

	Describe("POST /invocations", func() {
		It("rejects a missing prompt", func() {
			resp := post(server, `{"debug":true}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(decode[api.ErrorResponse](resp)).To(Equal(api.ErrorResponse{
				Success: false,
				Error:   api.MissingPromptMessage,
			}))
			Expect(model.RequestCount()).To(Equal(0))
		})

		It("rejects malformed JSON the same way", func() {
			resp := post(server, `{"prompt":`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(decode[api.ErrorResponse](resp).Error).To(Equal(api.MissingPromptMessage))
		})

		It("answers with the default identities", func() {
			model.Responses = append(model.Responses, testutils.TextResponse("The Bills."))

			resp := post(server, `{"prompt":"Who wins?"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			body := decode[api.InvocationResponse](resp)
			Expect(body.Success).To(BeTrue())
			Expect(body.Prompt).To(Equal("Who wins?"))
			Expect(body.Response).To(Equal("The Bills."))
			Expect(body.Timestamp).To(BeNumerically(">", 0))
			Expect(body.Debug).To(BeEmpty())

			var job worker.Job
			Eventually(sink.jobs).Should(Receive(&job))
			Expect(job.ActorID).To(Equal(api.DefaultActorID))
			Expect(job.SessionID).To(MatchRegexp(`^session-\d+$`))
		})

		It("passes through caller identities", func() {
			model.Responses = append(model.Responses, testutils.TextResponse("ok"))

			resp := post(server, `{"prompt":"q","actorId":"alice","sessionId":"s-42"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var job worker.Job
			Eventually(sink.jobs).Should(Receive(&job))
			Expect(job.ActorID).To(Equal("alice"))
			Expect(job.SessionID).To(Equal("s-42"))
		})

		It("returns the tool trace when debug is requested", func() {
			model.Responses = append(model.Responses,
				testutils.ToolUseResponse("t1", "rag_search", map[string]any{"query": "Bills"}),
				testutils.TextResponse("Nothing found."),
			)

			body := decode[api.InvocationResponse](post(server, `{"prompt":"q","debug":true}`))
			Expect(body.Debug).To(HaveLen(2))
			Expect(body.Debug[0].Tool).To(Equal("rag_search"))
			Expect(body.Debug[0].Phase).To(Equal(debugtrace.PhaseInput))
			Expect(body.Debug[1].Phase).To(Equal(debugtrace.PhaseOutput))
		})

		It("returns 500 when the model fails", func() {
			model.Err = errors.New("throttled")

			resp := post(server, `{"prompt":"q"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			body := decode[api.ErrorResponse](resp)
			Expect(body.Success).To(BeFalse())
			Expect(body.Error).To(ContainSubstring(agent.ErrModelInvocationFailed.Error()))
		})

		Context("when streaming", func() {
			readEvents := func(resp *http.Response) []sse.Event {
				defer resp.Body.Close()
				Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/event-stream"))
				events, err := sse.NewReader(resp.Body).All()
				Expect(err).NotTo(HaveOccurred())
				return events
			}

			It("emits deltas and one done event", func() {
				model.Responses = append(model.Responses, testutils.TextResponse("Bills by three."))

				events := readEvents(post(server, `{"prompt":"q","stream":true}`))
				Expect(len(events)).To(BeNumerically(">=", 2))

				var text strings.Builder
				for _, ev := range events[:len(events)-1] {
					Expect(ev.Type).To(Equal("delta"))
					var d api.DeltaEvent
					Expect(json.Unmarshal([]byte(ev.Data), &d)).To(Succeed())
					text.WriteString(d.Text)
				}

				last := events[len(events)-1]
				Expect(last.Type).To(Equal("done"))
				var done api.DoneEvent
				Expect(json.Unmarshal([]byte(last.Data), &done)).To(Succeed())
				Expect(done.FullText).To(Equal(text.String()))
				Expect(done.FullText).To(Equal("Bills by three."))
				Expect(done.StopReason).To(Equal(llm.StopEndTurn))
			})

			It("includes the trace in the done event when debug is requested", func() {
				model.Responses = append(model.Responses,
					testutils.ToolUseResponse("t1", "rag_search", map[string]any{"query": "Bills"}),
					testutils.TextResponse("Done."),
				)

				events := readEvents(post(server, `{"prompt":"q","stream":true,"debug":true}`))
				var done api.DoneEvent
				Expect(json.Unmarshal([]byte(events[len(events)-1].Data), &done)).To(Succeed())
				Expect(done.Debug).To(HaveLen(2))
			})

			It("ends with an error event when the model fails", func() {
				model.Err = errors.New("throttled")

				events := readEvents(post(server, `{"prompt":"q","stream":true}`))
				Expect(events).To(HaveLen(1))
				Expect(events[0].Type).To(Equal("error"))
				Expect(events[0].Data).To(ContainSubstring("throttled"))
			})
		})
	})

	Describe("/mcp", func() {
		It("is mounted", func() {
			req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("ping"))
			req.Header.Set("Content-Type", "text/plain")
			resp, err := server.App().Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			_, _ = io.Copy(io.Discard, resp.Body)
			Expect(resp.StatusCode).NotTo(Equal(http.StatusNotFound))
		})
	})
})
