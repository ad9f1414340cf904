// Package tidb provides a vector.Driver on TiDB's native VECTOR column type
// over the MySQL protocol.
package tidb

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/papercomputeco/gridiron/pkg/vector"
)

const (
	// DefaultTable matches the persisted record shape shared with loaders.
	DefaultTable = "nfl_embeddings"

	tlsConfigName = "gridiron-tidb"
)

// Config holds connection settings for TiDB.
type Config struct {
	Host     string
	Port     uint
	User     string
	Password string
	Database string

	// TLS enables verified TLS 1.2+ connections, required by TiDB Cloud.
	TLS bool

	Table      string
	Dimensions uint
}

// Driver implements vector.Driver against a TiDB table.
type Driver struct {
	db     *sql.DB
	table  string
	dims   uint
	logger *slog.Logger
}

// DSN builds a go-sql-driver/mysql data source name from c.
func (c Config) DSN() string {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.FormatUint(uint64(c.Port), 10))
	mc.DBName = c.Database
	mc.ParseTime = true
	if c.TLS {
		mc.TLSConfig = tlsConfigName
	}
	return mc.FormatDSN()
}

// NewDriver opens a connection pool, verifies it, and ensures the table exists.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("%w: tidb host is required", vector.ErrStoreUnavailable)
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("tidb embedding dimensions cannot be 0, must be configured")
	}
	if c.Port == 0 {
		c.Port = 4000
	}
	if c.Table == "" {
		c.Table = DefaultTable
	}

	if c.TLS {
		err := mysql.RegisterTLSConfig(tlsConfigName, &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: c.Host,
		})
		if err != nil {
			return nil, fmt.Errorf("registering tls config: %w", err)
		}
	}

	db, err := sql.Open("mysql", c.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", vector.ErrStoreUnavailable, err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: pinging %s: %v", vector.ErrStoreUnavailable, c.Host, err)
	}

	d := &Driver{
		db:     db,
		table:  c.Table,
		dims:   c.Dimensions,
		logger: logger,
	}

	if err := d.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("tidb vector driver initialized",
		"host", c.Host,
		"database", c.Database,
		"table", c.Table,
		"dimensions", c.Dimensions,
	)

	return d, nil
}

func (d *Driver) migrate(ctx context.Context) error {
	stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INT AUTO_INCREMENT PRIMARY KEY,
			team_name VARCHAR(255) NOT NULL,
			chunk_text TEXT NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_team_name (team_name)
		)`, d.table, d.dims)

	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("creating %s table: %w", d.table, err)
	}
	return nil
}

// UpsertMany inserts each chunk independently.
func (d *Driver) UpsertMany(ctx context.Context, chunks []vector.Chunk) (*vector.UpsertResult, error) {
	stmt := fmt.Sprintf(`INSERT INTO %s (team_name, chunk_text, embedding) VALUES (?, ?, ?)`, d.table)

	result := vector.WriteEach(ctx, chunks, d.dims, func(ctx context.Context, c vector.Chunk) error {
		_, err := d.db.ExecContext(ctx, stmt, c.Category, c.Text, vector.FormatVector(c.Embedding))
		return err
	})

	d.logger.Debug("inserted chunks into tidb",
		"written", result.Written,
		"failed", len(result.Failures),
	)

	return result, nil
}

// DeleteByCategory removes chunks whose team_name contains any pattern.
func (d *Driver) DeleteByCategory(ctx context.Context, patterns []string) (int64, error) {
	if len(patterns) == 0 {
		return 0, nil
	}

	clauses := make([]string, len(patterns))
	args := make([]any, len(patterns))
	for i, p := range patterns {
		clauses[i] = "team_name LIKE ?"
		args[i] = "%" + escapeLike(p) + "%"
	}

	stmt := fmt.Sprintf(`DELETE FROM %s WHERE %s`, d.table, strings.Join(clauses, " OR "))
	res, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting chunks: %v", vector.ErrStoreUnavailable, err)
	}

	return res.RowsAffected()
}

// Search ranks chunks by VEC_COSINE_DISTANCE on the server.
func (d *Driver) Search(ctx context.Context, embedding []float32, k int) ([]vector.Result, error) {
	if err := vector.ValidateDimensions(embedding, d.dims); err != nil {
		return nil, err
	}
	k = vector.TopK(k)

	stmt := fmt.Sprintf(`
		SELECT id, team_name, chunk_text, created_at,
			VEC_COSINE_DISTANCE(embedding, ?) AS distance
		FROM %s
		ORDER BY distance ASC
		LIMIT ?`, d.table)

	rows, err := d.db.QueryContext(ctx, stmt, vector.FormatVector(embedding), k)
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
	if err := d.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, d.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting chunks: %v", vector.ErrStoreUnavailable, err)
	}
	return n, nil
}

// Close releases the connection pool.
func (d *Driver) Close() error {
	return d.db.Close()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

var _ vector.Driver = (*Driver)(nil)
