package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/alpenbrief/alpnews/internal/article"
	"github.com/alpenbrief/alpnews/internal/config"
	"github.com/alpenbrief/alpnews/internal/logger"
)

const defaultMediaStackBaseURL = "http://api.mediastack.com/v1/news"

// MediaStack queries the MediaStack aggregator once per configured topic.
type MediaStack struct {
	cfg    config.MediaStackConfig
	apiKey string
	maxAge time.Duration
	client *http.Client
}

func NewMediaStack(cfg config.MediaStackConfig, apiKey string, maxAge, timeout time.Duration) *MediaStack {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultMediaStackBaseURL
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	return &MediaStack{cfg: cfg, apiKey: apiKey, maxAge: maxAge, client: newHTTPClient(timeout)}
}

func (m *MediaStack) Name() string { return "mediastack" }

type mediaStackResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Data []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		PublishedAt string `json:"published_at"`
		Source      string `json:"source"`
		Description string `json:"description"`
		Language    string `json:"language"`
	} `json:"data"`
}

func (m *MediaStack) Fetch(ctx context.Context) ([]article.Article, error) {
	if m.apiKey == "" {
		return nil, fmt.Errorf("MEDIASTACK_API_KEY not set")
	}
	if len(m.cfg.Topics) == 0 {
		return nil, nil
	}

	var out []article.Article
	var lastErr error
	failed := 0

	for _, topic := range m.cfg.Topics {
		params := url.Values{}
		params.Set("access_key", m.apiKey)
		params.Set("keywords", topic)
		params.Set("languages", m.cfg.Language)
		params.Set("limit", fmt.Sprint(m.cfg.Limit))
		params.Set("sort", "published_desc")

		var resp mediaStackResponse
		if err := getJSON(ctx, m.client, m.cfg.BaseURL+"?"+params.Encode(), &resp); err != nil {
			lastErr = err
			failed++
			logger.Warn("mediastack topic query failed", "topic", topic, "error", err)
			continue
		}
		if resp.Error != nil {
			lastErr = fmt.Errorf("mediastack error %s: %s", resp.Error.Code, resp.Error.Message)
			failed++
			continue
		}

		for _, raw := range resp.Data {
			if raw.Title == "" || raw.URL == "" {
				continue
			}
			publishedAt := parseMediaStackTime(raw.PublishedAt)
			if !fresh(publishedAt, m.maxAge) {
				continue
			}
			out = append(out, article.Article{
				ID:          article.MakeID(m.Name(), raw.URL),
				Title:       raw.Title,
				URL:         raw.URL,
				PublishedAt: publishedAt,
				SourceName:  firstNonEmpty(raw.Source, "MediaStack"),
				Language:    firstNonEmpty(raw.Language, m.cfg.Language),
				Excerpt:     raw.Description,
			})
		}
	}

	if failed == len(m.cfg.Topics) && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

// parseMediaStackTime handles the provider's "+0000" timestamp variant.
func parseMediaStackTime(value string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-07:00", "2006-01-02T15:04:05+0000", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
