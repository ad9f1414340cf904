package adapters_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gridiron/pkg/adapters"
	"github.com/papercomputeco/gridiron/pkg/debugtrace"
	"github.com/papercomputeco/gridiron/pkg/llm"
	"github.com/papercomputeco/gridiron/pkg/logger"
)

type echoTool struct {
	name string
	err  error
}

func (t echoTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{Name: t.name, Description: "echo"}
}

func (t echoTool) Call(_ context.Context, input map[string]any) (string, error) {
	if t.err != nil {
		return "", t.err
	}
	s, _ := input["text"].(string)
	return "echo: " + s, nil
}

var _ = Describe("Registry", func() {
	var (
		ctx      context.Context
		trace    *debugtrace.Trace
		registry *adapters.Registry
	)

	BeforeEach(func() {
		trace = debugtrace.New()
		ctx = debugtrace.WithTrace(context.Background(), trace)
		registry = adapters.NewRegistry(logger.Nop(),
			echoTool{name: "zeta"},
			echoTool{name: "alpha"},
			echoTool{name: "broken", err: errors.New("boom")},
		)
	})

	It("lists definitions sorted by name", func() {
		Expect(registry.Names()).To(Equal([]string{"alpha", "broken", "zeta"}))
	})

	It("traces input and output of a call", func() {
		out, err := registry.Call(ctx, "alpha", map[string]any{"text": "hi"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("echo: hi"))

		entries := trace.Entries()
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Tool).To(Equal("alpha"))
		Expect(entries[0].Phase).To(Equal(debugtrace.PhaseInput))
		Expect(entries[1].Phase).To(Equal(debugtrace.PhaseOutput))
		Expect(entries[1].Data).To(Equal("echo: hi"))
	})

	It("traces failures as error output", func() {
		_, err := registry.Call(ctx, "broken", nil)
		Expect(err).To(MatchError("boom"))

		entries := trace.Entries()
		Expect(entries).To(HaveLen(2))
		Expect(entries[1].Data).To(Equal("Error: boom"))
	})

	It("rejects unknown tools", func() {
		_, err := registry.Call(ctx, "missing", nil)
		Expect(errors.Is(err, adapters.ErrUnknownTool)).To(BeTrue())
		Expect(trace.Entries()).To(BeEmpty())
	})

	It("works without a trace in context", func() {
		_, err := registry.Call(context.Background(), "alpha", nil)
		Expect(err).NotTo(HaveOccurred())
	})

	It("registers the five default tools", func() {
		r := adapters.NewDefaultRegistry(adapters.Sources{Logger: logger.Nop()})
		Expect(r.Names()).To(Equal([]string{
			adapters.MatchupName,
			adapters.PlayerStatsName,
			adapters.RAGSearchName,
			adapters.TeamComparisonName,
			adapters.WikipediaSearchName,
		}))
	})
})
