package adapters

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/papercomputeco/gridiron/pkg/llm"
	"github.com/papercomputeco/gridiron/pkg/utils"
)

// WikipediaSearchName is the encyclopedia lookup tool.
const WikipediaSearchName = "wikipedia_search"

// ExtractLimit caps the article intro returned to the model, in characters.
const ExtractLimit = 1500

// WikipediaSearch searches Wikipedia and returns the intro of the top hit.
type WikipediaSearch struct {
	apiURL      string
	articleBase string
	fetcher     *Fetcher
}

// NewWikipediaSearch creates the tool against a MediaWiki action API, e.g.
// https://en.wikipedia.org/w/api.php. Source links point at /wiki/ on the
// same host.
func NewWikipediaSearch(apiURL string, fetcher *Fetcher) *WikipediaSearch {
	articleBase := "https://en.wikipedia.org/wiki/"
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		articleBase = u.Scheme + "://" + u.Host + "/wiki/"
	}

	return &WikipediaSearch{
		apiURL:      apiURL,
		articleBase: articleBase,
		fetcher:     fetcher,
	}
}

func (t *WikipediaSearch) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        WikipediaSearchName,
		Description: "Search Wikipedia for background information about NFL teams, players, history, or coaches.",
		Properties: map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query",
			},
		},
		Required: []string{"query"},
	}
}

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type wikiExtractResponse struct {
	Query struct {
		Pages map[string]struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

func (t *WikipediaSearch) Call(ctx context.Context, input map[string]any) (string, error) {
	query, err := stringArg(input, "query", true)
	if err != nil {
		return "", err
	}

	search := url.Values{}
	search.Set("action", "query")
	search.Set("list", "search")
	search.Set("srsearch", query+" NFL")
	search.Set("format", "json")
	search.Set("srlimit", "3")

	var found wikiSearchResponse
	if err := t.fetcher.GetJSON(ctx, t.apiURL+"?"+search.Encode(), &found); err != nil {
		return fmt.Sprintf("Wikipedia search failed for %q: %v", query, err), nil
	}
	if len(found.Query.Search) == 0 {
		return fmt.Sprintf("No Wikipedia articles found for %q.", query), nil
	}
	title := found.Query.Search[0].Title

	extract := url.Values{}
	extract.Set("action", "query")
	extract.Set("titles", title)
	extract.Set("prop", "extracts")
	extract.Set("exintro", "true")
	extract.Set("explaintext", "true")
	extract.Set("format", "json")

	var pages wikiExtractResponse
	if err := t.fetcher.GetJSON(ctx, t.apiURL+"?"+extract.Encode(), &pages); err != nil {
		return fmt.Sprintf("Wikipedia article %q could not be loaded: %v", title, err), nil
	}

	text := "No content available."
	for _, p := range pages.Query.Pages {
		if p.Extract != "" {
			text = utils.Truncate(p.Extract, ExtractLimit)
		}
		break
	}

	source := t.articleBase + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	return fmt.Sprintf("📚 Wikipedia: %s\n\n%s\n\nSource: %s", title, text, source), nil
}

