package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gridiron/pkg/logger"
)

// decodeLines parses every JSON record written to buf.
func decodeLines(buf *bytes.Buffer) []map[string]any {
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		Expect(json.Unmarshal([]byte(line), &rec)).To(Succeed())
		records = append(records, rec)
	}
	return records
}

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("writes text records by default", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf))
			l.Info("answer recorded", "actor_id", "alice")

			Expect(buf.String()).To(ContainSubstring("answer recorded"))
			Expect(buf.String()).To(ContainSubstring("actor_id=alice"))
		})

		It("drops debug records at the default level", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf))
			l.Debug("tool input", "tool", "espn_matchup")

			Expect(buf.String()).To(BeEmpty())
		})

		It("keeps debug records in debug mode", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithDebug(true))
			l.Debug("tool input", "tool", "espn_matchup")

			Expect(buf.String()).To(ContainSubstring("espn_matchup"))
		})

		It("writes service records as JSON", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.Info("invocation complete", "session_id", "session-1", "duration_ms", 812)

			records := decodeLines(&buf)
			Expect(records).To(HaveLen(1))
			Expect(records[0]["msg"]).To(Equal("invocation complete"))
			Expect(records[0]["session_id"]).To(Equal("session-1"))
			Expect(records[0]["duration_ms"]).To(BeNumerically("==", 812))
		})

		It("adds the call site when source is enabled", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithSource(true))
			l.Info("ingest started")

			Expect(decodeLines(&buf)[0]).To(HaveKey(slog.SourceKey))
		})

		It("renders console records with charmbracelet/log", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true))
			l.Info("gridiron ready", "listen", ":8080")

			Expect(buf.String()).To(ContainSubstring("gridiron ready"))
			Expect(buf.String()).To(ContainSubstring(":8080"))
		})

		It("copies each record to every writer", func() {
			var stdout, file bytes.Buffer
			l := logger.New(logger.WithWriters(&stdout, &file))
			l.Warn("memory disabled")

			Expect(stdout.String()).To(ContainSubstring("memory disabled"))
			Expect(file.String()).To(Equal(stdout.String()))
		})
	})

	Describe("Nop", func() {
		It("reports every level as disabled", func() {
			h := logger.Nop().Handler()
			for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
				Expect(h.Enabled(context.Background(), level)).To(BeFalse())
			}
		})

		It("accepts derived loggers", func() {
			Expect(func() {
				l := logger.Nop().With("actor_id", "alice").WithGroup("tool")
				l.Error("call failed", "name", "wikipedia_search")
			}).NotTo(Panic())
		})
	})

	Describe("Multi", func() {
		var (
			service, console bytes.Buffer
			multi            *slog.Logger
		)

		BeforeEach(func() {
			service.Reset()
			console.Reset()
			multi = logger.Multi(
				logger.New(logger.WithWriter(&service), logger.WithJSON(true)),
				logger.New(logger.WithWriter(&console), logger.WithPretty(true), logger.WithDebug(true)),
			)
		})

		It("sends info records to the service and console loggers", func() {
			multi.Info("gridiron ready", "tools", 5)

			Expect(decodeLines(&service)[0]["tools"]).To(BeNumerically("==", 5))
			Expect(console.String()).To(ContainSubstring("gridiron ready"))
		})

		It("honors each logger's own level", func() {
			multi.Debug("tool output", "tool", "rag_search")

			Expect(service.String()).To(BeEmpty())
			Expect(console.String()).To(ContainSubstring("rag_search"))
		})

		It("reports enabled when any logger accepts the level", func() {
			Expect(multi.Handler().Enabled(context.Background(), slog.LevelDebug)).To(BeTrue())
			Expect(logger.Multi(logger.Nop()).Handler().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
		})

		It("binds attributes on every child", func() {
			multi.With("tool", "rag_search", "top_k", 8).Info("tool called")

			rec := decodeLines(&service)[0]
			Expect(rec["tool"]).To(Equal("rag_search"))
			Expect(rec["top_k"]).To(BeNumerically("==", 8))
			Expect(rec["msg"]).To(Equal("tool called"))
			Expect(console.String()).To(ContainSubstring("rag_search"))
		})

		It("nests grouped attributes on every child", func() {
			multi.WithGroup("invocation").Info("done", "stop_reason", "end_turn")

			group, ok := decodeLines(&service)[0]["invocation"].(map[string]any)
			Expect(ok).To(BeTrue(), "expected an 'invocation' group in JSON output")
			Expect(group["stop_reason"]).To(Equal("end_turn"))
		})
	})
})
