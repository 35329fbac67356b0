// Package source defines the provider adapter contract and a registry that
// fans fetches out across all configured providers. One failing provider
// never aborts a run: it is logged, counted, and contributes zero articles.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/alpenbrief/alpnews/internal/article"
	"github.com/alpenbrief/alpnews/internal/logger"
	"github.com/alpenbrief/alpnews/internal/metrics"
)

// Adapter fetches raw articles from one provider and normalizes them.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) ([]article.Article, error)
}

// Registry holds the fixed set of adapters for a run.
type Registry struct {
	adapters []Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// Len reports the number of registered adapters.
func (r *Registry) Len() int { return len(r.adapters) }

// FetchAll queries every adapter concurrently and merges the results once
// all adapters have settled. Returns the merged articles and the number of
// adapters that failed outright.
func (r *Registry) FetchAll(ctx context.Context) ([]article.Article, int) {
	type result struct {
		name     string
		articles []article.Article
		err      error
	}

	results := make(chan result, len(r.adapters))
	var wg sync.WaitGroup

	for _, ad := range r.adapters {
		wg.Add(1)
		go func(ad Adapter) {
			defer wg.Done()
			arts, err := ad.Fetch(ctx)
			results <- result{name: ad.Name(), articles: arts, err: err}
		}(ad)
	}

	wg.Wait()
	close(results)

	var merged []article.Article
	failures := 0
	for res := range results {
		if res.err != nil {
			failures++
			metrics.Global.IncrementSourceFailures()
			logger.Warn("source failed, continuing without it", "source", res.name, "error", res.err)
			continue
		}
		logger.Info("source fetched", "source", res.name, "articles", len(res.articles))
		merged = append(merged, res.articles...)
	}
	return merged, failures
}

// newHTTPClient builds the per-adapter client; a hung fetch times out and
// degrades to zero results rather than blocking the run.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// getJSON issues one GET and decodes the JSON body into out.
func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the error message, then give up.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// fresh reports whether a published timestamp is inside the freshness
// window. Zero timestamps pass so adapters without dates are not emptied.
func fresh(publishedAt time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 || publishedAt.IsZero() {
		return true
	}
	return time.Since(publishedAt) <= maxAge
}
