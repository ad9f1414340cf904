// Package pgvector provides a vector.Driver on PostgreSQL with the pgvector
// extension, using pgx connection pooling.
package pgvector

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/papercomputeco/gridiron/pkg/vector"
)

// DefaultTable matches the persisted record shape shared with loaders.
const DefaultTable = "nfl_embeddings"

// Config holds configuration for the pgvector driver.
type Config struct {
	// DSN is a PostgreSQL connection string or URI.
	DSN        string
	Table      string
	Dimensions uint
}

// Driver implements vector.Driver against a pgvector table.
type Driver struct {
	pool   *pgxpool.Pool
	table  string
	dims   uint
	logger *slog.Logger
}

// NewDriver connects, verifies the connection, and ensures the schema.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("pgvector embedding dimensions cannot be 0, must be configured")
	}
	if c.Table == "" {
		c.Table = DefaultTable
	}

	pool, err := pgxpool.New(ctx, c.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to postgres: %v", vector.ErrStoreUnavailable, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: pinging postgres: %v", vector.ErrStoreUnavailable, err)
	}

	d := &Driver{
		pool:   pool,
		table:  c.Table,
		dims:   c.Dimensions,
		logger: logger,
	}

	if err := d.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("pgvector driver initialized",
		"table", c.Table,
		"dimensions", c.Dimensions,
	)

	return d, nil
}

func (d *Driver) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				team_name VARCHAR(255) NOT NULL,
				chunk_text TEXT NOT NULL,
				embedding vector(%d) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, d.table, d.dims),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_team_name ON %s (team_name)`, d.table, d.table),
	}

	for _, stmt := range stmts {
		if _, err := d.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrating %s: %w", d.table, err)
		}
	}
	return nil
}

// UpsertMany inserts each chunk independently.
func (d *Driver) UpsertMany(ctx context.Context, chunks []vector.Chunk) (*vector.UpsertResult, error) {
	stmt := fmt.Sprintf(`INSERT INTO %s (team_name, chunk_text, embedding) VALUES ($1, $2, $3::vector)`, d.table)

	result := vector.WriteEach(ctx, chunks, d.dims, func(ctx context.Context, c vector.Chunk) error {
		_, err := d.pool.Exec(ctx, stmt, c.Category, c.Text, vector.FormatVector(c.Embedding))
		return err
	})

	d.logger.Debug("inserted chunks into pgvector",
		"written", result.Written,
		"failed", len(result.Failures),
	)

	return result, nil
}

// DeleteByCategory removes rows whose team_name contains any pattern.
func (d *Driver) DeleteByCategory(ctx context.Context, patterns []string) (int64, error) {
	if len(patterns) == 0 {
		return 0, nil
	}

	// strpos avoids LIKE wildcard escaping.
	clauses := make([]string, len(patterns))
	args := make([]any, len(patterns))
	for i, p := range patterns {
		clauses[i] = "strpos(team_name, $" + strconv.Itoa(i+1) + ") > 0"
		args[i] = p
	}

	tag, err := d.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE %s`, d.table, strings.Join(clauses, " OR ")),
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting chunks: %v", vector.ErrStoreUnavailable, err)
	}

	return tag.RowsAffected(), nil
}

// Search ranks rows by the pgvector cosine distance operator.
func (d *Driver) Search(ctx context.Context, embedding []float32, k int) ([]vector.Result, error) {
	if err := vector.ValidateDimensions(embedding, d.dims); err != nil {
		return nil, err
	}
	k = vector.TopK(k)

	rows, err := d.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, team_name, chunk_text, created_at, embedding <=> $1::vector AS distance
		FROM %s
		ORDER BY distance ASC
		LIMIT $2`, d.table),
		vector.FormatVector(embedding), k,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: searching vectors: %v", vector.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	results := []vector.Result{}
	for rows.Next() {
		var (
			r  vector.Result
			id int64
		)
		if err := rows.Scan(&id, &r.Category, &r.Text, &r.CreatedAt, &r.Distance); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.ID = strconv.FormatInt(id, 10)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	return results, nil
}

// Count returns the number of stored chunks.
func (d *Driver) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := d.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, d.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting chunks: %v", vector.ErrStoreUnavailable, err)
	}
	return n, nil
}

// Close releases the connection pool.
func (d *Driver) Close() error {
	d.pool.Close()
	return nil
}

var _ vector.Driver = (*Driver)(nil)
