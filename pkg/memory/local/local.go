// Package local provides an in-memory implementation of the memory.Driver interface.
//
// Turns are kept per actor and session. Each user turn is also recorded as
// a fact under the actor's facts namespace, and long-term search ranks
// records by how many query terms they share. This is the local-dev story;
// production backends extract facts with their own pipelines.
package local

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/papercomputeco/gridiron/pkg/memory"
)

// Config holds configuration for the local memory driver.
type Config struct {
	// NamespacePrefix scopes the facts namespace user turns are recorded in.
	NamespacePrefix string
}

type sessionKey struct {
	actorID   string
	sessionID string
}

// Driver implements memory.Driver using in-process data structures.
type Driver struct {
	config Config

	mu sync.RWMutex

	// turns maps actor/session -> turns in insertion order.
	turns map[sessionKey][]memory.Turn

	// records maps namespace -> long-term records.
	records map[string][]memory.Record

	now func() time.Time
}

// NewDriver creates a local in-memory memory driver.
func NewDriver(config Config) *Driver {
	return &Driver{
		config:  config,
		turns:   make(map[sessionKey][]memory.Turn),
		records: make(map[string][]memory.Record),
		now:     time.Now,
	}
}

// AppendTurns stores turns for the session and records user turns as facts.
func (d *Driver) AppendTurns(_ context.Context, actorID, sessionID string, turns []memory.Turn) (string, error) {
	eventID := uuid.NewString()
	if len(turns) == 0 {
		return eventID, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	key := sessionKey{actorID: actorID, sessionID: sessionID}
	factsNS := memory.FactsNamespace(d.config.NamespacePrefix, actorID)
	now := d.now()

	for _, t := range turns {
		t.ActorID = actorID
		t.SessionID = sessionID
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		d.turns[key] = append(d.turns[key], t)

		if t.Role == memory.RoleUser && strings.TrimSpace(t.Content) != "" {
			d.records[factsNS] = append(d.records[factsNS], memory.Record{
				ID:        uuid.NewString(),
				Content:   t.Content,
				Namespace: factsNS,
			})
		}
	}

	return eventID, nil
}

// RecentTurns returns the last limit turns of the session, oldest first.
func (d *Driver) RecentTurns(_ context.Context, actorID, sessionID string, limit int) ([]memory.Turn, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	turns := memory.LastTurns(d.turns[sessionKey{actorID: actorID, sessionID: sessionID}], limit)

	// Return a copy to avoid callers mutating internal state.
	result := make([]memory.Turn, len(turns))
	copy(result, turns)
	return result, nil
}

// SearchLongTerm scores every record in namespace by the fraction of query
// terms it contains and returns the best topK with a non-zero score.
func (d *Driver) SearchLongTerm(_ context.Context, query, namespace string, topK int) ([]memory.Record, error) {
	terms := tokenize(query)
	if len(terms) == 0 || topK <= 0 {
		return nil, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var hits []memory.Record
	for _, r := range d.records[namespace] {
		words := make(map[string]struct{})
		for _, w := range tokenize(r.Content) {
			words[w] = struct{}{}
		}

		matched := 0
		for _, t := range terms {
			if _, ok := words[t]; ok {
				matched++
			}
		}
		if matched == 0 {
			continue
		}

		score := float64(matched) / float64(len(terms))
		r.Score = &score
		hits = append(hits, r)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return *hits[i].Score > *hits[j].Score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// AddRecord stores a long-term record directly, for seeding preferences.
func (d *Driver) AddRecord(namespace, content string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.records[namespace] = append(d.records[namespace], memory.Record{
		ID:        uuid.NewString(),
		Content:   content,
		Namespace: namespace,
	})
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

// tokenize lowercases s and splits it into distinct words longer than two
// characters.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) <= 2 {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

var _ memory.Driver = (*Driver)(nil)
