// Package memory provides conversational memory for the answer service.
//
// Short-term memory is the ordered list of turns exchanged within a session.
// Long-term memory is a set of records (facts, preferences) scoped by a
// hierarchical namespace and searched by relevance.
//
// The [Driver] interface is the raw backend contract and may fail. Callers on
// the request path use [Client], which degrades to empty results whenever
// memory is disabled or the backend errors.
//
// Drivers are pluggable via configuration:
//
//	[memory]
//	provider = "agentcore"   # or "postgres", "local"
package memory

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAssistant Role = "ASSISTANT"
)

// Turn is one message of a conversation.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	ActorID   string    `json:"actor_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is a long-term memory entry returned by a relevance search.
type Record struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Namespace string `json:"namespace"`

	// Score is the provider's relevance score, nil when the provider
	// does not report one.
	Score *float64 `json:"score,omitempty"`
}

// Driver handles storage and recall of conversation memory.
type Driver interface {
	// AppendTurns records turns as a single event in the actor's session
	// and returns the provider-assigned event identifier.
	AppendTurns(ctx context.Context, actorID, sessionID string, turns []Turn) (string, error)

	// RecentTurns returns at most limit turns of the session in
	// chronological order, ending with the most recent one.
	RecentTurns(ctx context.Context, actorID, sessionID string, limit int) ([]Turn, error)

	// SearchLongTerm returns at most topK records in namespace, most
	// relevant to query first.
	SearchLongTerm(ctx context.Context, query, namespace string, topK int) ([]Record, error)

	// Close releases driver resources.
	Close() error
}

// DefaultNamespacePrefix scopes every namespace when none is configured.
const DefaultNamespacePrefix = "nfl"

// PreferencesNamespace is where an actor's stated preferences live.
func PreferencesNamespace(prefix, actorID string) string {
	return joinNamespace(prefix, "users", actorID, "preferences")
}

// FactsNamespace is where facts learned from an actor's conversations live.
func FactsNamespace(prefix, actorID string) string {
	return joinNamespace(prefix, "facts", actorID)
}

func joinNamespace(prefix string, parts ...string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return strings.Join(parts, "/")
	}
	return prefix + "/" + strings.Join(parts, "/")
}

// FormatRecord renders a record as "[Score: 0.87] content", with N/A in
// place of a missing score.
func FormatRecord(r Record) string {
	score := "N/A"
	if r.Score != nil {
		score = fmt.Sprintf("%.2f", *r.Score)
	}
	return fmt.Sprintf("[Score: %s] %s", score, r.Content)
}

// LastTurns trims a chronological slice to its final limit entries.
func LastTurns(turns []Turn, limit int) []Turn {
	if limit <= 0 {
		return nil
	}
	if len(turns) > limit {
		return turns[len(turns)-limit:]
	}
	return turns
}
