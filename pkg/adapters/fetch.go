package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Fetcher performs GET requests for JSON documents and caches successful
// bodies by URL for a short TTL.
type Fetcher struct {
	client *http.Client
	cache  *ristretto.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	// Timeout bounds each outbound request.
	Timeout time.Duration

	// CacheTTL is how long a successful body is reused. Zero disables
	// caching.
	CacheTTL time.Duration

	Logger *slog.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(c FetcherConfig) (*Fetcher, error) {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}

	f := &Fetcher{
		client: &http.Client{Timeout: c.Timeout},
		ttl:    c.CacheTTL,
		logger: c.Logger,
	}

	if c.CacheTTL > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 10_000,
			MaxCost:     64 << 20,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("creating response cache: %w", err)
		}
		f.cache = cache
	}

	return f, nil
}

// GetJSON fetches url and decodes the body into out.
func (f *Fetcher) GetJSON(ctx context.Context, url string, out any) error {
	body, err := f.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	if f.cache != nil {
		if v, ok := f.cache.Get(url); ok {
			if body, ok := v.([]byte); ok {
				return body, nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "gridiron/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrUpstream, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUpstream, err)
	}

	if f.cache != nil {
		f.cache.SetWithTTL(url, body, int64(len(body)), f.ttl)
		f.cache.Wait()
	}

	f.logger.Debug("fetched upstream document",
		"url", url,
		"bytes", len(body),
	)
	return body, nil
}

// Close releases the cache.
func (f *Fetcher) Close() {
	if f.cache != nil {
		f.cache.Close()
	}
}
