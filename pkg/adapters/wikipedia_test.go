package adapters_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gridiron/pkg/adapters"
)

type wikiFake struct {
	mu       sync.Mutex
	searches []string
	titles   []string
	results  string
	extract  string
}

func (f *wikiFake) handler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	w.Header().Set("Content-Type", "application/json")

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case q.Get("list") == "search":
		f.searches = append(f.searches, q.Get("srsearch"))
		_, _ = io.WriteString(w, `{"query":{"search":[`+f.results+`]}}`)
	case q.Get("prop") == "extracts":
		f.titles = append(f.titles, q.Get("titles"))
		_, _ = io.WriteString(w, `{"query":{"pages":{"123":{"title":"x","extract":"`+f.extract+`"}}}}`)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

var _ = Describe("wikipedia_search", func() {
	var (
		ctx    context.Context
		fake   *wikiFake
		server *httptest.Server
		tool   *adapters.WikipediaSearch
	)

	BeforeEach(func() {
		ctx = context.Background()
		fake = &wikiFake{
			results: `{"title":"Josh Allen (quarterback)"},{"title":"Josh Allen"}`,
			extract: "Joshua Patrick Allen is an American football quarterback.",
		}
		server = httptest.NewServer(http.HandlerFunc(fake.handler))
		DeferCleanup(server.Close)
		tool = adapters.NewWikipediaSearch(server.URL+"/w/api.php", newFetcher(0))
	})

	It("returns the intro of the top hit with a source link", func() {
		out, err := tool.Call(ctx, map[string]any{"query": "Josh Allen"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("📚 Wikipedia: Josh Allen (quarterback)\n\n" +
			"Joshua Patrick Allen is an American football quarterback.\n\n" +
			"Source: " + server.URL + "/wiki/Josh_Allen_%28quarterback%29"))

		Expect(fake.searches).To(Equal([]string{"Josh Allen NFL"}))
		Expect(fake.titles).To(Equal([]string{"Josh Allen (quarterback)"}))
	})

	It("truncates long extracts", func() {
		fake.extract = strings.Repeat("a", adapters.ExtractLimit+10)
		out, err := tool.Call(ctx, map[string]any{"query": "Bills"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring(strings.Repeat("a", adapters.ExtractLimit) + "...\n\n"))
		Expect(out).NotTo(ContainSubstring(strings.Repeat("a", adapters.ExtractLimit+1)))
	})

	It("reports when nothing is found", func() {
		fake.results = ""
		out, err := tool.Call(ctx, map[string]any{"query": "zzzz"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(`No Wikipedia articles found for "zzzz".`))
		Expect(fake.titles).To(BeEmpty())
	})

	It("turns upstream failures into text", func() {
		server.Close()
		out, err := tool.Call(ctx, map[string]any{"query": "Bills"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HavePrefix(`Wikipedia search failed for "Bills"`))
	})
})
