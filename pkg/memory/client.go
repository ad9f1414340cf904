package memory

import (
	"context"
	"log/slog"

	"github.com/papercomputeco/gridiron/pkg/utils"
)

// Client is the request-path view of memory. Every operation degrades to an
// empty result when memory is disabled or the driver fails, so answering a
// question never depends on memory being healthy.
type Client struct {
	driver Driver
	prefix string
	logger *slog.Logger
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// Driver is the backend. A nil Driver disables memory.
	Driver Driver

	// NamespacePrefix scopes long-term namespaces.
	NamespacePrefix string

	Logger *slog.Logger
}

// NewClient wraps a driver. Whether memory is enabled is fixed here.
func NewClient(c ClientConfig) *Client {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return &Client{
		driver: c.Driver,
		prefix: c.NamespacePrefix,
		logger: c.Logger,
	}
}

// Enabled reports whether a memory backend is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.driver != nil
}

// PreferencesNamespace returns the actor's preferences namespace under the
// client's prefix.
func (c *Client) PreferencesNamespace(actorID string) string {
	return PreferencesNamespace(c.prefix, actorID)
}

// FactsNamespace returns the actor's facts namespace under the client's
// prefix.
func (c *Client) FactsNamespace(actorID string) string {
	return FactsNamespace(c.prefix, actorID)
}

// AppendTurns stores turns for the session. It returns the event identifier
// and true on success, or "" and false when memory is disabled or the
// backend fails.
func (c *Client) AppendTurns(ctx context.Context, actorID, sessionID string, turns []Turn) (string, bool) {
	if !c.Enabled() {
		c.logger.Debug("memory disabled, skipping append",
			"actor_id", actorID,
			"session_id", sessionID,
		)
		return "", false
	}
	if len(turns) == 0 {
		return "", false
	}

	eventID, err := c.driver.AppendTurns(ctx, actorID, sessionID, turns)
	if err != nil {
		c.logger.Error("failed to store conversation",
			"actor_id", actorID,
			"session_id", sessionID,
			"error", err,
		)
		return "", false
	}

	c.logger.Info("stored conversation event",
		"event_id", eventID,
		"actor_id", actorID,
		"session_id", sessionID,
		"turns", len(turns),
	)
	return eventID, true
}

// RecentTurns returns up to limit of the session's latest turns in
// chronological order. It never returns more than limit turns.
func (c *Client) RecentTurns(ctx context.Context, actorID, sessionID string, limit int) []Turn {
	if !c.Enabled() || limit <= 0 {
		return nil
	}

	turns, err := c.driver.RecentTurns(ctx, actorID, sessionID, limit)
	if err != nil {
		c.logger.Error("failed to get recent conversation",
			"actor_id", actorID,
			"session_id", sessionID,
			"error", err,
		)
		return nil
	}

	turns = LastTurns(turns, limit)
	c.logger.Debug("retrieved recent turns",
		"session_id", sessionID,
		"turns", len(turns),
	)
	return turns
}

// SearchLongTerm returns up to topK formatted records from namespace,
// most relevant first.
func (c *Client) SearchLongTerm(ctx context.Context, query, namespace string, topK int) []string {
	if !c.Enabled() || topK <= 0 {
		return nil
	}

	records, err := c.driver.SearchLongTerm(ctx, query, namespace, topK)
	if err != nil {
		c.logger.Error("failed to search long-term memory",
			"namespace", namespace,
			"error", err,
		)
		return nil
	}
	if len(records) > topK {
		records = records[:topK]
	}

	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, FormatRecord(r))
	}

	c.logger.Debug("searched long-term memory",
		"namespace", namespace,
		"query", utils.Truncate(query, 50),
		"records", len(out),
	)
	return out
}

// Close releases the underlying driver, if any.
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.driver.Close()
}

