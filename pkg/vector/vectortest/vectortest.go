// Package vectortest holds shared Ginkgo specs every vector.Driver must pass.
package vectortest

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gridiron/pkg/vector"
)

// Dimensions is the vector width used by the shared specs.
const Dimensions = 4

// Chunk builds a chunk with the given category, text and embedding.
func Chunk(category, text string, embedding ...float32) vector.Chunk {
	return vector.Chunk{Category: category, Text: text, Embedding: embedding}
}

// Fixture is a small corpus with well separated embeddings.
func Fixture() []vector.Chunk {
	return []vector.Chunk{
		Chunk("AFC Playoffs - Chiefs", "Chiefs host the divisional round at Arrowhead.", 1, 0, 0, 0),
		Chunk("NFC Playoffs - Eagles", "Eagles lean on a top-five rushing attack.", 0, 1, 0, 0),
		Chunk("Injury Report - Bills", "Bills list two starters as questionable.", 0, 0, 1, 0),
		Chunk("Super Bowl Storylines", "Storylines entering Super Bowl week.", 0, 0, 0, 1),
		Chunk("Wild Card - Packers", "Packers upset on the road in the wild card round.", 0.9, 0.1, 0, 0),
	}
}

// DriverBehavior registers the shared specs. newDriver must return an empty
// store configured for Dimensions; it runs before every spec.
func DriverBehavior(newDriver func() vector.Driver) bool {
	return Describe("vector.Driver behavior", func() {
		var (
			driver vector.Driver
			ctx    context.Context
		)

		BeforeEach(func() {
			ctx = context.Background()
			driver = nil
			driver = newDriver()
		})

		AfterEach(func() {
			if driver != nil {
				Expect(driver.Close()).To(Succeed())
			}
		})

		Describe("UpsertMany", func() {
			It("writes every valid chunk", func() {
				res, err := driver.UpsertMany(ctx, Fixture())
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Written).To(Equal(5))
				Expect(res.Failures).To(BeEmpty())

				n, err := driver.Count(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(n).To(Equal(int64(5)))
			})

			It("reports a wrong-width vector per record without aborting the batch", func() {
				chunks := Fixture()
				chunks[1].Embedding = []float32{1, 2, 3}

				res, err := driver.UpsertMany(ctx, chunks)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Written).To(Equal(4))
				Expect(res.Failures).To(HaveLen(1))
				Expect(res.Failures[0].Index).To(Equal(1))
				Expect(res.Failures[0].Err).To(MatchError(vector.ErrSchemaMismatch))
			})
		})

		Describe("Search", func() {
			BeforeEach(func() {
				_, err := driver.UpsertMany(ctx, Fixture())
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns at most k results ascending by distance", func() {
				results, err := driver.Search(ctx, []float32{1, 0.05, 0, 0}, 3)
				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(HaveLen(3))

				for i := 1; i < len(results); i++ {
					Expect(results[i].Distance).To(BeNumerically(">=", results[i-1].Distance))
				}
			})

			It("ranks an exact match first with near-zero distance", func() {
				results, err := driver.Search(ctx, []float32{0, 0, 1, 0}, 2)
				Expect(err).NotTo(HaveOccurred())
				Expect(results).NotTo(BeEmpty())
				Expect(results[0].Category).To(Equal("Injury Report - Bills"))
				Expect(results[0].Text).To(ContainSubstring("questionable"))
				Expect(results[0].Distance).To(BeNumerically("~", 0, 1e-4))
			})

			It("defaults k to 8", func() {
				results, err := driver.Search(ctx, []float32{0, 0, 0, 1}, 0)
				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(HaveLen(5))
			})

			It("serves an oversized k without allocating for it", func() {
				results, err := driver.Search(ctx, []float32{1, 0, 0, 0}, 1<<30)
				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(HaveLen(5))
			})

			It("rejects a query vector of the wrong width", func() {
				_, err := driver.Search(ctx, []float32{1, 0}, 3)
				Expect(err).To(MatchError(vector.ErrSchemaMismatch))
			})
		})

		Describe("DeleteByCategory", func() {
			It("removes chunks whose category contains a pattern", func() {
				_, err := driver.UpsertMany(ctx, Fixture())
				Expect(err).NotTo(HaveOccurred())

				removed, err := driver.DeleteByCategory(ctx, []string{"Playoffs", "Wild Card"})
				Expect(err).NotTo(HaveOccurred())
				Expect(removed).To(Equal(int64(3)))

				n, err := driver.Count(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(n).To(Equal(int64(2)))
			})

			It("is a no-op without patterns", func() {
				removed, err := driver.DeleteByCategory(ctx, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(removed).To(BeZero())
			})
		})
	})
}
