package sse

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reader", func() {
	It("parses a single event", func() {
		r := NewReader(strings.NewReader("data: hello world\n\n"))

		ev, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Data).To(Equal("hello world"))
		Expect(ev.Type).To(BeEmpty())

		ev, err = r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev).To(BeNil())
	})

	It("parses event type and id", func() {
		r := NewReader(strings.NewReader("id: 7\nevent: delta\ndata: {\"text\":\"hi\"}\n\n"))

		ev, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Type).To(Equal("delta"))
		Expect(ev.ID).To(Equal("7"))
		Expect(ev.Data).To(Equal(`{"text":"hi"}`))
	})

	It("joins multiple data lines with newline", func() {
		r := NewReader(strings.NewReader("data: line1\ndata: line2\n\n"))

		ev, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Data).To(Equal("line1\nline2"))
	})

	It("ignores comments and keep-alive blank lines", func() {
		r := NewReader(strings.NewReader("\n\n: ping\ndata: a\n\n: ping\n\ndata: b\n\n"))

		events, err := r.All()
		Expect(err).NotTo(HaveOccurred())
		Expect(events).To(HaveLen(2))
		Expect(events[0].Data).To(Equal("a"))
		Expect(events[1].Data).To(Equal("b"))
	})

	It("handles data with no space after the colon", func() {
		ev, err := NewReader(strings.NewReader("data:compact\n\n")).Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Data).To(Equal("compact"))
	})

	It("yields an event when the stream ends without a trailing blank line", func() {
		ev, err := NewReader(strings.NewReader("event: done\ndata: {}")).Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Type).To(Equal("done"))
	})

	It("returns nil on empty input", func() {
		ev, err := NewReader(strings.NewReader("")).Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev).To(BeNil())
	})

	It("ignores unknown fields", func() {
		ev, err := NewReader(strings.NewReader("retry: 1000\nfoo: bar\ndata: x\n\n")).Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Data).To(Equal("x"))
	})
})
