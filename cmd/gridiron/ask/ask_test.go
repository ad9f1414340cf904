package askcmder_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gridiron/api"
	askcmder "github.com/papercomputeco/gridiron/cmd/gridiron/ask"
)

type upstream struct {
	mu       sync.Mutex
	received api.InvocationRequest
	path     string
	status   int
	body     string
}

func (u *upstream) handler(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)

	u.mu.Lock()
	_ = json.Unmarshal(raw, &u.received)
	u.path = r.URL.Path
	status, body := u.status, u.body
	u.mu.Unlock()

	if status == http.StatusOK {
		w.Header().Set("Content-Type", "text/event-stream")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (u *upstream) request() (api.InvocationRequest, string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.received, u.path
}

var _ = Describe("Ask", func() {
	var (
		ctx    context.Context
		up     *upstream
		server *httptest.Server
	)

	BeforeEach(func() {
		ctx = context.Background()
		up = &upstream{status: http.StatusOK}
		server = httptest.NewServer(http.HandlerFunc(up.handler))
		DeferCleanup(server.Close)
	})

	It("streams deltas and returns the done event", func() {
		up.body = "event: delta\ndata: {\"text\":\"Bills \"}\n\n" +
			"event: delta\ndata: {\"text\":\"by three.\"}\n\n" +
			"event: done\ndata: {\"stopReason\":\"end_turn\",\"fullText\":\"Bills by three.\"}\n\n"

		var deltas []string
		done, err := askcmder.Ask(ctx, server.Client(), server.URL, api.InvocationRequest{
			Prompt:  "Who wins?",
			ActorID: "alice",
		}, func(s string) { deltas = append(deltas, s) })
		Expect(err).NotTo(HaveOccurred())

		Expect(deltas).To(Equal([]string{"Bills ", "by three."}))
		Expect(done.FullText).To(Equal("Bills by three."))
		Expect(done.StopReason).To(Equal("end_turn"))

		received, path := up.request()
		Expect(path).To(Equal("/invocations"))
		Expect(received.Stream).To(BeTrue())
		Expect(received.Prompt).To(Equal("Who wins?"))
		Expect(received.ActorID).To(Equal("alice"))
	})

	It("returns the error event as an error", func() {
		up.body = "event: error\ndata: {\"success\":false,\"error\":\"model throttled\"}\n\n"

		_, err := askcmder.Ask(ctx, server.Client(), server.URL, api.InvocationRequest{Prompt: "q"}, nil)
		Expect(err).To(MatchError(ContainSubstring("model throttled")))
	})

	It("reports a truncated stream", func() {
		up.body = "event: delta\ndata: {\"text\":\"partial\"}\n\n"

		_, err := askcmder.Ask(ctx, server.Client(), server.URL, api.InvocationRequest{Prompt: "q"}, nil)
		Expect(err).To(MatchError(askcmder.ErrStreamIncomplete))
	})

	It("surfaces validation errors", func() {
		up.status = http.StatusBadRequest
		up.body = `{"success":false,"error":"Missing prompt in request body"}`

		_, err := askcmder.Ask(ctx, server.Client(), server.URL, api.InvocationRequest{}, nil)
		Expect(err).To(MatchError(ContainSubstring("HTTP 400")))
		Expect(err).To(MatchError(ContainSubstring(api.MissingPromptMessage)))
	})
})
