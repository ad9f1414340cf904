package sse

import (
	"bufio"
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Writer", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	It("frames a JSON event", func() {
		Expect(NewWriter(buf).WriteJSON("delta", map[string]string{"text": "Bills "})).To(Succeed())
		Expect(buf.String()).To(Equal("event: delta\ndata: {\"text\":\"Bills \"}\n\n"))
	})

	It("splits multi-line data across fields", func() {
		Expect(NewWriter(buf).Write(Event{Data: "a\nb"})).To(Succeed())
		Expect(buf.String()).To(Equal("data: a\ndata: b\n\n"))
	})

	It("flushes buffered writers after each event", func() {
		bw := bufio.NewWriter(buf)
		Expect(NewWriter(bw).WriteJSON("done", map[string]string{})).To(Succeed())
		Expect(buf.String()).To(Equal("event: done\ndata: {}\n\n"))
	})

	It("round-trips through the reader", func() {
		w := NewWriter(buf)
		Expect(w.WriteJSON("delta", map[string]string{"text": "one"})).To(Succeed())
		Expect(w.Write(Event{Type: "done", ID: "2", Data: "multi\nline"})).To(Succeed())

		events, err := NewReader(buf).All()
		Expect(err).NotTo(HaveOccurred())
		Expect(events).To(Equal([]Event{
			{Type: "delta", Data: `{"text":"one"}`},
			{Type: "done", ID: "2", Data: "multi\nline"},
		}))
	})
})
