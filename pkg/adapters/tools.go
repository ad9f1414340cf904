package adapters

import (
	"log/slog"

	"github.com/papercomputeco/gridiron/pkg/embeddings"
	"github.com/papercomputeco/gridiron/pkg/vector"
)

// Sources configures the full tool set.
type Sources struct {
	Embedder     embeddings.Embedder
	Store        vector.Driver
	Fetcher      *Fetcher
	ESPNSiteURL  string
	WikipediaURL string
	Logger       *slog.Logger
}

// NewDefaultRegistry registers every fact source the model can call.
func NewDefaultRegistry(s Sources) *Registry {
	espn := NewESPN(s.ESPNSiteURL, s.Fetcher)

	return NewRegistry(s.Logger,
		NewRAGSearch(s.Embedder, s.Store),
		NewPlayerStats(espn),
		NewMatchup(espn),
		NewTeamComparison(espn),
		NewWikipediaSearch(s.WikipediaURL, s.Fetcher),
	)
}
