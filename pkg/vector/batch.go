package vector

import "context"

// WriteEach validates and writes chunks one at a time, collecting per-record
// failures. Drivers use it to implement UpsertMany. A canceled context stops
// the batch and marks the remaining records as failed.
func WriteEach(ctx context.Context, chunks []Chunk, dims uint, write func(ctx context.Context, c Chunk) error) *UpsertResult {
	result := &UpsertResult{}

	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(chunks); j++ {
				result.Failures = append(result.Failures, RecordError{Index: j, Category: chunks[j].Category, Err: err})
			}
			break
		}

		if err := ValidateChunk(c, dims); err != nil {
			result.Failures = append(result.Failures, RecordError{Index: i, Category: c.Category, Err: err})
			continue
		}

		if err := write(ctx, c); err != nil {
			result.Failures = append(result.Failures, RecordError{Index: i, Category: c.Category, Err: err})
			continue
		}

		result.Written++
	}

	return result
}
