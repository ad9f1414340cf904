// Package postgres provides a PostgreSQL-backed memory.Driver using pgx.
//
// Turns are stored in memory_events, one row per turn sharing an event id.
// User turns are copied into memory_records under the actor's facts
// namespace, and long-term search ranks records with Postgres full text
// search.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/papercomputeco/gridiron/pkg/memory"
)

// Config holds configuration for the Postgres memory driver.
type Config struct {
	// DSN is a PostgreSQL connection string or URI.
	DSN string

	// NamespacePrefix scopes the facts namespace user turns are recorded in.
	NamespacePrefix string
}

// Driver implements memory.Driver on PostgreSQL.
type Driver struct {
	pool   *pgxpool.Pool
	prefix string
	logger *slog.Logger
}

// NewDriver connects, verifies the connection, and ensures the schema.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	pool, err := pgxpool.New(ctx, c.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to postgres: %v", memory.ErrStoreUnavailable, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: pinging postgres: %v", memory.ErrStoreUnavailable, err)
	}

	d := &Driver{
		pool:   pool,
		prefix: c.NamespacePrefix,
		logger: logger,
	}

	if err := d.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("postgres memory driver initialized")
	return d, nil
}

func (d *Driver) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS memory_events (
			id BIGSERIAL PRIMARY KEY,
			event_id UUID NOT NULL,
			actor_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memory_events_session
			ON memory_events (actor_id, session_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS memory_records (
			id BIGSERIAL PRIMARY KEY,
			namespace TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memory_records_namespace
			ON memory_records (namespace)`,
	}

	for _, stmt := range stmts {
		if _, err := d.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrating memory schema: %w", err)
		}
	}
	return nil
}

// AppendTurns writes turns and user facts in one transaction.
func (d *Driver) AppendTurns(ctx context.Context, actorID, sessionID string, turns []memory.Turn) (string, error) {
	eventID := uuid.New()
	factsNS := memory.FactsNamespace(d.prefix, actorID)
	now := time.Now()

	err := pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		for i, t := range turns {
			// Microsecond offsets keep turn order stable within an event.
			at := now.Add(time.Duration(i) * time.Microsecond)
			if _, err := tx.Exec(ctx,
				`INSERT INTO memory_events (event_id, actor_id, session_id, role, content, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				eventID, actorID, sessionID, string(t.Role), t.Content, at,
			); err != nil {
				return err
			}

			if t.Role != memory.RoleUser || t.Content == "" {
				continue
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO memory_records (namespace, content) VALUES ($1, $2)`,
				factsNS, t.Content,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: appending turns: %v", memory.ErrStoreUnavailable, err)
	}

	return eventID.String(), nil
}

// RecentTurns returns the last limit turns of the session, oldest first.
func (d *Driver) RecentTurns(ctx context.Context, actorID, sessionID string, limit int) ([]memory.Turn, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT role, content, created_at FROM (
			SELECT id, role, content, created_at
			FROM memory_events
			WHERE actor_id = $1 AND session_id = $2
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		) recent
		ORDER BY created_at ASC, id ASC`,
		actorID, sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: listing turns: %v", memory.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var turns []memory.Turn
	for rows.Next() {
		t := memory.Turn{ActorID: actorID, SessionID: sessionID}
		var role string
		if err := rows.Scan(&role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		t.Role = memory.Role(role)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}

	return turns, nil
}

// SearchLongTerm ranks namespace records with ts_rank against an OR of the
// query's lexemes. Records matching no lexeme are excluded.
func (d *Driver) SearchLongTerm(ctx context.Context, query, namespace string, topK int) ([]memory.Record, error) {
	rows, err := d.pool.Query(ctx, `
		WITH q AS (
			SELECT NULLIF(replace(plainto_tsquery('english', $2)::text, '&', '|'), '')::tsquery AS terms
		)
		SELECT r.id, r.content, ts_rank(to_tsvector('english', r.content), q.terms)::float8 AS score
		FROM memory_records r, q
		WHERE r.namespace = $1 AND to_tsvector('english', r.content) @@ q.terms
		ORDER BY score DESC, r.created_at DESC
		LIMIT $3`,
		namespace, query, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: searching records: %v", memory.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var records []memory.Record
	for rows.Next() {
		var (
			id    int64
			score float64
			r     = memory.Record{Namespace: namespace}
		)
		if err := rows.Scan(&id, &r.Content, &score); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		r.ID = strconv.FormatInt(id, 10)
		r.Score = &score
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return records, nil
}

// AddRecord stores a long-term record directly, for seeding preferences.
func (d *Driver) AddRecord(ctx context.Context, namespace, content string) error {
	if _, err := d.pool.Exec(ctx,
		`INSERT INTO memory_records (namespace, content) VALUES ($1, $2)`,
		namespace, content,
	); err != nil {
		return fmt.Errorf("%w: adding record: %v", memory.ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the connection pool.
func (d *Driver) Close() error {
	d.pool.Close()
	return nil
}

var _ memory.Driver = (*Driver)(nil)
