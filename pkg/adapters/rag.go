package adapters

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/papercomputeco/gridiron/pkg/embeddings"
	"github.com/papercomputeco/gridiron/pkg/llm"
	"github.com/papercomputeco/gridiron/pkg/vector"
)

// RAGSearchName is the knowledge-base search tool.
const RAGSearchName = "rag_search"

// RAGSearch embeds a query and returns the nearest knowledge-base chunks.
type RAGSearch struct {
	embedder embeddings.Embedder
	store    vector.Driver
}

// NewRAGSearch creates the knowledge-base search tool.
func NewRAGSearch(embedder embeddings.Embedder, store vector.Driver) *RAGSearch {
	return &RAGSearch{
		embedder: embedder,
		store:    store,
	}
}

func (t *RAGSearch) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        RAGSearchName,
		Description: "Search the NFL knowledge base for information about teams, players, matchups, injuries, odds, and stats.",
		Properties: map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query about NFL teams, players, or matchups",
			},
			"topK": map[string]any{
				"type":        "number",
				"description": "Number of results to return (default 8)",
			},
		},
		Required: []string{"query"},
	}
}

// Call returns an error when the query cannot be embedded or the store
// cannot be searched; there is no useful text to give the model instead.
func (t *RAGSearch) Call(ctx context.Context, input map[string]any) (string, error) {
	query, err := stringArg(input, "query", true)
	if err != nil {
		return "", err
	}
	topK, err := intArg(input, "topK")
	if err != nil {
		return "", err
	}

	results, err := t.Search(ctx, query, topK)
	if err != nil {
		return "", err
	}
	return FormatResults(results), nil
}

// Search embeds query and returns at most topK chunks, nearest first.
func (t *RAGSearch) Search(ctx context.Context, query string, topK int) ([]vector.Result, error) {
	emb, err := t.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := t.store.Search(ctx, emb, vector.TopK(topK))
	if err != nil {
		return nil, fmt.Errorf("searching knowledge base: %w", err)
	}
	return results, nil
}

// FormatResults renders search hits as numbered entries with their category
// and distance.
func FormatResults(results []vector.Result) string {
	entries := make([]string, len(results))
	for i, r := range results {
		entries[i] = "[" + strconv.Itoa(i+1) + "] (" + r.Category + ", dist: " +
			strconv.FormatFloat(r.Distance, 'f', 3, 64) + ") " + r.Text
	}
	return fmt.Sprintf("Found %d relevant results:\n\n%s", len(results), strings.Join(entries, "\n\n"))
}
