// Package qdrant provides a vector.Driver backed by a Qdrant collection over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/gridiron/pkg/vector"
)

const (
	// DefaultCollection mirrors the relational table name.
	DefaultCollection = "nfl_embeddings"

	payloadCategory  = "team_name"
	payloadText      = "chunk_text"
	payloadCreatedAt = "created_at"
)

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Addr is the gRPC host:port, e.g. "localhost:6334".
	Addr       string
	APIKey     string
	UseTLS     bool
	Collection string
	Dimensions uint
}

// Driver implements vector.Driver on one Qdrant collection with cosine distance.
type Driver struct {
	client     *qdrant.Client
	collection string
	dims       uint
	logger     *slog.Logger
}

// NewDriver connects to Qdrant and creates the collection when missing.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be 0, must be configured")
	}
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}

	host, portStr, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return nil, fmt.Errorf("parsing qdrant address %q: %w", c.Addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("parsing qdrant port %q: %w", portStr, err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", vector.ErrStoreUnavailable, err)
	}

	exists, err := client.CollectionExists(ctx, c.Collection)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: checking collection: %v", vector.ErrStoreUnavailable, err)
	}

	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: c.Collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(c.Dimensions),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("creating collection %s: %w", c.Collection, err)
		}
	}

	logger.Info("qdrant vector driver initialized",
		"addr", c.Addr,
		"collection", c.Collection,
		"dimensions", c.Dimensions,
		"created", !exists,
	)

	return &Driver{
		client:     client,
		collection: c.Collection,
		dims:       c.Dimensions,
		logger:     logger,
	}, nil
}

// UpsertMany writes one point per chunk.
func (d *Driver) UpsertMany(ctx context.Context, chunks []vector.Chunk) (*vector.UpsertResult, error) {
	wait := true

	result := vector.WriteEach(ctx, chunks, d.dims, func(ctx context.Context, c vector.Chunk) error {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: d.collection,
			Wait:           &wait,
			Points: []*qdrant.PointStruct{
				{
					Id:      qdrant.NewID(uuid.NewString()),
					Vectors: qdrant.NewVectors(c.Embedding...),
					Payload: qdrant.NewValueMap(map[string]any{
						payloadCategory:  c.Category,
						payloadText:      c.Text,
						payloadCreatedAt: createdAt.Format(time.RFC3339Nano),
					}),
				},
			},
		})
		return err
	})

	d.logger.Debug("upserted chunks into qdrant",
		"written", result.Written,
		"failed", len(result.Failures),
	)

	return result, nil
}

// DeleteByCategory removes points whose category contains any pattern.
// Without a full-text index Qdrant evaluates text match as a substring match.
func (d *Driver) DeleteByCategory(ctx context.Context, patterns []string) (int64, error) {
	if len(patterns) == 0 {
		return 0, nil
	}

	conditions := make([]*qdrant.Condition, len(patterns))
	for i, p := range patterns {
		conditions[i] = qdrant.NewMatchText(payloadCategory, p)
	}
	filter := &qdrant.Filter{Should: conditions}

	exact := true
	n, err := d.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: d.collection,
		Filter:         filter,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: counting matches: %v", vector.ErrStoreUnavailable, err)
	}

	wait := true
	_, err = d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection,
		Wait:           &wait,
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: deleting points: %v", vector.ErrStoreUnavailable, err)
	}

	return int64(n), nil
}

// Search queries nearest points. Qdrant scores cosine similarity, which is
// converted to distance.
func (d *Driver) Search(ctx context.Context, embedding []float32, k int) ([]vector.Result, error) {
	if err := vector.ValidateDimensions(embedding, d.dims); err != nil {
		return nil, err
	}
	k = vector.TopK(k)
	limit := uint64(k)

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: querying points: %v", vector.ErrStoreUnavailable, err)
	}

	results := make([]vector.Result, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		createdAt, _ := time.Parse(time.RFC3339Nano, payload[payloadCreatedAt].GetStringValue())
		results = append(results, vector.Result{
			Chunk: vector.Chunk{
				ID:        p.GetId().GetUuid(),
				Category:  payload[payloadCategory].GetStringValue(),
				Text:      payload[payloadText].GetStringValue(),
				CreatedAt: createdAt,
			},
			Distance: 1 - float64(p.GetScore()),
		})
	}

	return vector.SortByDistance(results, k), nil
}

// Count returns the number of points in the collection.
func (d *Driver) Count(ctx context.Context) (int64, error) {
	exact := true
	n, err := d.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: d.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: counting points: %v", vector.ErrStoreUnavailable, err)
	}
	return int64(n), nil
}

// Close releases the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

var _ vector.Driver = (*Driver)(nil)
