package vector

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable is returned when the vector store cannot be reached.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrSchemaMismatch is returned when a vector's length differs from the
	// store's configured dimensionality.
	ErrSchemaMismatch = errors.New("vector dimensionality mismatch")
)

// ValidateDimensions fails with ErrSchemaMismatch unless len(v) == dims.
func ValidateDimensions(v []float32, dims uint) error {
	if uint(len(v)) != dims {
		return fmt.Errorf("%w: got %d dimensions, store expects %d", ErrSchemaMismatch, len(v), dims)
	}
	return nil
}

// ErrInvalidChunk is returned for chunks that cannot be stored regardless
// of backend, such as a missing body or an overlong category.
var ErrInvalidChunk = errors.New("invalid chunk")

// MaxCategoryLength bounds Chunk.Category, matching the team_name column.
const MaxCategoryLength = 255

// ValidateChunk checks a chunk against the store's dimensionality and the
// persisted record shape.
func ValidateChunk(c Chunk, dims uint) error {
	if c.Text == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidChunk)
	}
	if len([]rune(c.Category)) > MaxCategoryLength {
		return fmt.Errorf("%w: category exceeds %d characters", ErrInvalidChunk, MaxCategoryLength)
	}
	return ValidateDimensions(c.Embedding, dims)
}
