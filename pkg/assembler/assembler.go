// Package assembler builds the memory context block appended to the model's
// system prompt.
package assembler

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/gridiron/pkg/memory"
)

const (
	// RecentTurnLimit bounds the conversation turns included.
	RecentTurnLimit = 3

	// PreferenceLimit bounds the preference records included.
	PreferenceLimit = 3

	// FactLimit bounds the fact records included.
	FactLimit = 5

	// PreferencesQuery is the fixed query used to recall preferences.
	PreferencesQuery = "What are the user preferences?"

	// MemoryContextHeader separates the base prompt from memory context.
	MemoryContextHeader = "--- Memory Context ---"
)

// Assembler gathers short- and long-term memory for a request.
type Assembler struct {
	memory *memory.Client
	logger *slog.Logger
}

// New creates an Assembler over a memory client.
func New(client *memory.Client, logger *slog.Logger) *Assembler {
	return &Assembler{
		memory: client,
		logger: logger,
	}
}

// BuildContext fetches recent turns, preferences and query-relevant facts in
// parallel and renders the non-empty ones in that fixed order. It returns ""
// when memory is disabled or nothing was found.
func (a *Assembler) BuildContext(ctx context.Context, actorID, sessionID, query string) string {
	if !a.memory.Enabled() {
		return ""
	}

	var (
		turns []memory.Turn
		prefs []string
		facts []string
	)

	// Each fetch absorbs its own failures, so the group never errors.
	var g errgroup.Group
	g.Go(func() error {
		turns = a.memory.RecentTurns(ctx, actorID, sessionID, RecentTurnLimit)
		return nil
	})
	g.Go(func() error {
		prefs = a.memory.SearchLongTerm(ctx, PreferencesQuery, a.memory.PreferencesNamespace(actorID), PreferenceLimit)
		return nil
	})
	g.Go(func() error {
		facts = a.memory.SearchLongTerm(ctx, query, a.memory.FactsNamespace(actorID), FactLimit)
		return nil
	})
	_ = g.Wait()

	var blocks []string
	if len(turns) > 0 {
		lines := make([]string, 0, len(turns))
		for _, t := range turns {
			lines = append(lines, string(t.Role)+": "+t.Content)
		}
		blocks = append(blocks, "Recent conversation:\n"+strings.Join(lines, "\n"))
	}
	if len(prefs) > 0 {
		blocks = append(blocks, "User preferences:\n"+strings.Join(prefs, "\n"))
	}
	if len(facts) > 0 {
		blocks = append(blocks, "Relevant facts:\n"+strings.Join(facts, "\n"))
	}

	if len(blocks) > 0 {
		a.logger.Info("added memory context",
			"actor_id", actorID,
			"session_id", sessionID,
			"turns", len(turns),
			"preferences", len(prefs),
			"facts", len(facts),
		)
	}

	return strings.Join(blocks, "\n\n")
}

// SystemPrompt appends memory context to base. An empty context leaves base
// unchanged.
func SystemPrompt(base, memoryContext string) string {
	if memoryContext == "" {
		return base
	}
	return base + "\n\n" + MemoryContextHeader + "\n" + memoryContext
}

// BaseSystemPrompt describes the analyst persona and the available tools.
const BaseSystemPrompt = `You are an expert NFL analyst assistant with access to multiple data sources. You help users analyze NFL playoff matchups, player statistics, and make informed predictions.

Your available tools:
1. rag_search - Search the NFL knowledge base (injuries, odds, team info, player stats)
2. espn_player_stats - Get live player stats from ESPN
3. espn_matchup - Get current matchup details and odds
4. wikipedia_search - Get background/historical info on players and teams
5. team_comparison - Compare two teams head-to-head

When answering questions:
- Use multiple tools when needed to get comprehensive information
- Always cite your sources (which tool provided the data)
- Provide analysis and insights, not just raw data
- For betting/prediction questions, consider injuries, recent performance, and matchup advantages
- Be concise but thorough

Current season: 2025-26 NFL Playoffs`
