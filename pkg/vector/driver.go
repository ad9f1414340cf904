// Package vector provides the knowledge-base store: persisted text chunks
// with fixed-width embeddings, searched by cosine distance.
package vector

import (
	"context"
	"time"
)

const (
	// DefaultTopK is the number of results returned by Search when k <= 0.
	DefaultTopK = 8

	// MaxTopK caps k for every Search.
	MaxTopK = 100
)

// Chunk is a unit of retrievable knowledge-base text.
type Chunk struct {
	// ID is assigned by the store on insert.
	ID string

	// Category is a short label such as "AFC Playoffs - Chiefs".
	Category string

	// Text is the chunk body.
	Text string

	// Embedding has exactly the store's configured dimensionality.
	Embedding []float32

	CreatedAt time.Time
}

// Result is a single search hit. Lower Distance is more relevant.
type Result struct {
	Chunk

	// Distance is cosine distance, 1 - cosine similarity.
	Distance float64
}

// RecordError reports a chunk that could not be written.
type RecordError struct {
	// Index is the chunk's position in the UpsertMany input.
	Index    int
	Category string
	Err      error
}

func (e RecordError) Error() string {
	return e.Category + ": " + e.Err.Error()
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// UpsertResult summarizes a batch write.
type UpsertResult struct {
	Written  int
	Failures []RecordError
}

// Driver handles storage and retrieval of knowledge-base chunks.
type Driver interface {
	// UpsertMany writes chunks one record at a time. A failing record is
	// reported in UpsertResult.Failures and never aborts the batch. The
	// returned error is reserved for store-wide failures.
	UpsertMany(ctx context.Context, chunks []Chunk) (*UpsertResult, error)

	// DeleteByCategory removes every chunk whose category contains any of
	// the given patterns and returns the number removed.
	DeleteByCategory(ctx context.Context, patterns []string) (int64, error)

	// Search returns at most k chunks nearest to embedding, ascending by
	// cosine distance. k <= 0 means DefaultTopK and k is capped at MaxTopK.
	Search(ctx context.Context, embedding []float32, k int) ([]Result, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int64, error)

	// Close releases any resources held by the driver.
	Close() error
}
