package vector_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gridiron/pkg/vector"
)

var _ = Describe("FormatVector", func() {
	It("renders a bracketed comma-separated list", func() {
		Expect(vector.FormatVector([]float32{0.5, -1, 0.125})).To(Equal("[0.5,-1,0.125]"))
	})

	It("renders an empty vector", func() {
		Expect(vector.FormatVector(nil)).To(Equal("[]"))
	})

	It("parses its own output", func() {
		v := []float32{0.1, 0.2, 0.3, -0.0004}
		parsed, err := vector.ParseVector(vector.FormatVector(v))
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed).To(Equal(v))
	})
})

var _ = Describe("ParseVector", func() {
	It("tolerates whitespace", func() {
		v, err := vector.ParseVector(" [1, 2 ,3] ")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal([]float32{1, 2, 3}))
	})

	It("rejects missing brackets", func() {
		_, err := vector.ParseVector("1,2,3")
		Expect(err).To(HaveOccurred())
	})

	It("rejects non-numeric elements", func() {
		_, err := vector.ParseVector("[1,two,3]")
		Expect(err).To(MatchError(ContainSubstring("element 1")))
	})
})

var _ = Describe("CosineDistance", func() {
	It("is zero for identical directions", func() {
		Expect(vector.CosineDistance([]float32{1, 2, 3}, []float32{2, 4, 6})).To(BeNumerically("~", 0, 1e-9))
	})

	It("is one for orthogonal vectors", func() {
		Expect(vector.CosineDistance([]float32{1, 0}, []float32{0, 1})).To(BeNumerically("~", 1, 1e-9))
	})

	It("is two for opposite vectors", func() {
		Expect(vector.CosineDistance([]float32{1, 0}, []float32{-1, 0})).To(BeNumerically("~", 2, 1e-9))
	})

	It("treats mismatched or zero vectors as unrelated", func() {
		Expect(vector.CosineDistance([]float32{1}, []float32{1, 0})).To(Equal(1.0))
		Expect(vector.CosineDistance([]float32{0, 0}, []float32{1, 0})).To(Equal(1.0))
	})
})

var _ = Describe("SortByDistance", func() {
	It("orders ascending and truncates to k", func() {
		results := []vector.Result{
			{Chunk: vector.Chunk{ID: "c"}, Distance: 0.9},
			{Chunk: vector.Chunk{ID: "a"}, Distance: 0.1},
			{Chunk: vector.Chunk{ID: "b"}, Distance: 0.4},
		}

		sorted := vector.SortByDistance(results, 2)
		Expect(sorted).To(HaveLen(2))
		Expect(sorted[0].ID).To(Equal("a"))
		Expect(sorted[1].ID).To(Equal("b"))
	})
})

var _ = Describe("ValidateChunk", func() {
	It("accepts a chunk of the configured width", func() {
		Expect(vector.ValidateChunk(vector.Chunk{Category: "c", Text: "t", Embedding: []float32{1, 2}}, 2)).To(Succeed())
	})

	It("rejects a wrong-width vector as a schema mismatch", func() {
		err := vector.ValidateChunk(vector.Chunk{Category: "c", Text: "t", Embedding: []float32{1}}, 2)
		Expect(err).To(MatchError(vector.ErrSchemaMismatch))
	})

	It("rejects empty text and overlong categories", func() {
		Expect(vector.ValidateChunk(vector.Chunk{Embedding: []float32{1}}, 1)).To(MatchError(vector.ErrInvalidChunk))

		long := vector.Chunk{Category: strings.Repeat("x", 256), Text: "t", Embedding: []float32{1}}
		Expect(vector.ValidateChunk(long, 1)).To(MatchError(vector.ErrInvalidChunk))
	})
})

var _ = Describe("WriteEach", func() {
	chunks := func() []vector.Chunk {
		return []vector.Chunk{
			{Category: "a", Text: "one", Embedding: []float32{1, 0}},
			{Category: "b", Text: "two", Embedding: []float32{1}},
			{Category: "c", Text: "three", Embedding: []float32{0, 1}},
			{Category: "d", Text: "four", Embedding: []float32{1, 1}},
		}
	}

	It("isolates validation and write failures per record", func() {
		var written []string
		res := vector.WriteEach(context.Background(), chunks(), 2, func(_ context.Context, c vector.Chunk) error {
			if c.Category == "c" {
				return errors.New("duplicate key")
			}
			written = append(written, c.Category)
			return nil
		})

		Expect(res.Written).To(Equal(2))
		Expect(written).To(Equal([]string{"a", "d"}))
		Expect(res.Failures).To(HaveLen(2))
		Expect(res.Failures[0].Index).To(Equal(1))
		Expect(res.Failures[0].Err).To(MatchError(vector.ErrSchemaMismatch))
		Expect(res.Failures[1].Category).To(Equal("c"))
		Expect(res.Failures[1].Error()).To(Equal("c: duplicate key"))
	})

	It("fails the remainder when the context is canceled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0

		res := vector.WriteEach(ctx, chunks(), 2, func(_ context.Context, _ vector.Chunk) error {
			calls++
			cancel()
			return nil
		})

		Expect(calls).To(Equal(1))
		Expect(res.Written).To(Equal(1))
		Expect(res.Failures).To(HaveLen(3))
		Expect(res.Failures[2].Err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("TopK", func() {
	It("defaults a non-positive k", func() {
		Expect(vector.TopK(0)).To(Equal(vector.DefaultTopK))
		Expect(vector.TopK(-3)).To(Equal(vector.DefaultTopK))
	})

	It("keeps k within bounds", func() {
		Expect(vector.TopK(12)).To(Equal(12))
	})

	It("caps k at MaxTopK", func() {
		Expect(vector.TopK(1 << 30)).To(Equal(vector.MaxTopK))
	})
})
