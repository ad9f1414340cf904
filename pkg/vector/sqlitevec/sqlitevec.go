// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/gridiron/pkg/vector"
)

// Driver implements vector.Driver using SQLite with sqlite-vec.
type Driver struct {
	db     *sql.DB
	dims   uint
	logger *slog.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if c.Dimensions == 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", vector.ErrStoreUnavailable, err)
	}

	// In-memory databases are per connection.
	db.SetMaxOpenConns(1)

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	// vec0 virtual tables use integer rowids, so chunk text and category
	// live in a companion table keyed by the same rowid.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			category TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chunks table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS chunk_embeddings USING vec0(embedding float[%d] distance_metric=cosine)`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		"db_path", c.DBPath,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return &Driver{
		db:     db,
		dims:   c.Dimensions,
		logger: logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// UpsertMany inserts each chunk in its own transaction.
func (d *Driver) UpsertMany(ctx context.Context, chunks []vector.Chunk) (*vector.UpsertResult, error) {
	result := vector.WriteEach(ctx, chunks, d.dims, d.insert)

	d.logger.Debug("inserted chunks into sqlite-vec",
		"written", result.Written,
		"failed", len(result.Failures),
	)

	return result, nil
}

func (d *Driver) insert(ctx context.Context, c vector.Chunk) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO chunks(category, body, created_at) VALUES (?, ?, ?)`,
		c.Category, c.Text, createdAt,
	)
	if err != nil {
		return fmt.Errorf("inserting chunk: %w", err)
	}

	rowID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting rowid: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chunk_embeddings(rowid, embedding) VALUES (?, ?)`,
		rowID, serializeFloat32(c.Embedding),
	); err != nil {
		return fmt.Errorf("inserting embedding: %w", err)
	}

	return tx.Commit()
}

// DeleteByCategory removes chunks whose category contains any pattern.
func (d *Driver) DeleteByCategory(ctx context.Context, patterns []string) (int64, error) {
	if len(patterns) == 0 {
		return 0, nil
	}

	clauses := make([]string, len(patterns))
	args := make([]any, len(patterns))
	for i, p := range patterns {
		clauses[i] = `category LIKE ? ESCAPE '\'`
		args[i] = "%" + escapeLike(p) + "%"
	}
	where := strings.Join(clauses, " OR ")

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// vec0 does not support subqueries in DELETE, so collect rowids first.
	rows, err := tx.QueryContext(ctx, `SELECT rowid FROM chunks WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("querying rowids for deletion: %w", err)
	}

	var rowIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning rowid: %w", err)
		}
		rowIDs = append(rowIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterating rowids: %w", err)
	}

	for _, id := range rowIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunk_embeddings WHERE rowid = ?`, id); err != nil {
			return 0, fmt.Errorf("deleting embedding rowid %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE rowid = ?`, id); err != nil {
			return 0, fmt.Errorf("deleting chunk rowid %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("deleted chunks from sqlite-vec", "count", len(rowIDs))

	return int64(len(rowIDs)), nil
}

// Search runs a KNN query on the vec0 table using cosine distance.
func (d *Driver) Search(ctx context.Context, embedding []float32, k int) ([]vector.Result, error) {
	if err := vector.ValidateDimensions(embedding, d.dims); err != nil {
		return nil, err
	}
	k = vector.TopK(k)

	rows, err := d.db.QueryContext(ctx, `
		SELECT c.rowid, c.category, c.body, c.created_at, ce.distance
		FROM chunk_embeddings ce
		INNER JOIN chunks c ON c.rowid = ce.rowid
		WHERE ce.embedding MATCH ?
			AND ce.k = ?
		ORDER BY ce.distance
	`, serializeFloat32(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []vector.Result
	for rows.Next() {
		var (
			r  vector.Result
			id int64
		)
		if err := rows.Scan(&id, &r.Category, &r.Text, &r.CreatedAt, &r.Distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}
		r.ID = strconv.FormatInt(id, 10)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	return results, nil
}

// Count returns the number of stored chunks.
func (d *Driver) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.db.Close()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

var _ vector.Driver = (*Driver)(nil)
