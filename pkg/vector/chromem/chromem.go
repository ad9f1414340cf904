// Package chromem provides an embedded, in-process vector.Driver on
// chromem-go, for development and tests.
package chromem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/papercomputeco/gridiron/pkg/vector"
)

const (
	collectionName = "knowledge_base"

	metaCategory  = "category"
	metaCreatedAt = "created_at"
)

// Config holds configuration for the chromem driver.
type Config struct {
	Dimensions uint
}

// Driver implements vector.Driver on a single chromem collection.
type Driver struct {
	db     *chromem.DB
	col    *chromem.Collection
	dims   uint
	logger *slog.Logger

	// chromem cannot filter on substrings, so categories are tracked here
	// to resolve DeleteByCategory into ids.
	mu         sync.Mutex
	categories map[string]string
}

// NewDriver creates an embedded vector store.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("chromem embedding dimensions cannot be 0, must be configured")
	}

	db := chromem.NewDB()

	// Embeddings are always supplied by the caller, so no embedding func.
	col, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	d := &Driver{
		db:         db,
		col:        col,
		dims:       c.Dimensions,
		logger:     logger,
		categories: make(map[string]string),
	}

	logger.Info("chromem vector driver initialized",
		"dimensions", c.Dimensions,
	)

	return d, nil
}

// UpsertMany adds each chunk as its own document.
func (d *Driver) UpsertMany(ctx context.Context, chunks []vector.Chunk) (*vector.UpsertResult, error) {
	result := vector.WriteEach(ctx, chunks, d.dims, func(ctx context.Context, c vector.Chunk) error {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		id := uuid.NewString()
		doc := chromem.Document{
			ID:        id,
			Content:   c.Text,
			Embedding: append([]float32(nil), c.Embedding...),
			Metadata: map[string]string{
				metaCategory:  c.Category,
				metaCreatedAt: createdAt.Format(time.RFC3339Nano),
			},
		}
		if err := d.col.AddDocument(ctx, doc); err != nil {
			return err
		}

		d.mu.Lock()
		d.categories[id] = c.Category
		d.mu.Unlock()
		return nil
	})

	d.logger.Debug("added chunks to chromem",
		"written", result.Written,
		"failed", len(result.Failures),
	)

	return result, nil
}

// DeleteByCategory removes documents whose category contains any pattern.
func (d *Driver) DeleteByCategory(ctx context.Context, patterns []string) (int64, error) {
	if len(patterns) == 0 {
		return 0, nil
	}

	d.mu.Lock()
	var ids []string
	for id, category := range d.categories {
		for _, p := range patterns {
			if strings.Contains(category, p) {
				ids = append(ids, id)
				break
			}
		}
	}
	d.mu.Unlock()

	if len(ids) == 0 {
		return 0, nil
	}

	if err := d.col.Delete(ctx, nil, nil, ids...); err != nil {
		return 0, fmt.Errorf("deleting documents: %w", err)
	}

	d.mu.Lock()
	for _, id := range ids {
		delete(d.categories, id)
	}
	d.mu.Unlock()

	return int64(len(ids)), nil
}

// Search queries the collection. chromem reports cosine similarity, which is
// converted to distance.
func (d *Driver) Search(ctx context.Context, embedding []float32, k int) ([]vector.Result, error) {
	if err := vector.ValidateDimensions(embedding, d.dims); err != nil {
		return nil, err
	}
	k = vector.TopK(k)

	// chromem-go requires nResults <= collection size.
	if n := d.col.Count(); n < k {
		k = n
	}
	if k == 0 {
		return []vector.Result{}, nil
	}

	hits, err := d.col.QueryEmbedding(ctx, embedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	results := make([]vector.Result, 0, len(hits))
	for _, h := range hits {
		createdAt, _ := time.Parse(time.RFC3339Nano, h.Metadata[metaCreatedAt])
		results = append(results, vector.Result{
			Chunk: vector.Chunk{
				ID:        h.ID,
				Category:  h.Metadata[metaCategory],
				Text:      h.Content,
				Embedding: h.Embedding,
				CreatedAt: createdAt,
			},
			Distance: 1 - float64(h.Similarity),
		})
	}

	return vector.SortByDistance(results, k), nil
}

// Count returns the number of stored documents.
func (d *Driver) Count(_ context.Context) (int64, error) {
	return int64(d.col.Count()), nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return nil
}

var _ vector.Driver = (*Driver)(nil)
