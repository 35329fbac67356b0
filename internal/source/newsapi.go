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

const defaultNewsAPIBaseURL = "https://newsapi.org/v2/top-headlines"

// NewsAPI pulls top headlines per category from the generic REST news API.
type NewsAPI struct {
	cfg    config.NewsAPIConfig
	apiKey string
	maxAge time.Duration
	client *http.Client
}

func NewNewsAPI(cfg config.NewsAPIConfig, apiKey string, maxAge, timeout time.Duration) *NewsAPI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultNewsAPIBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = []string{"general", "business", "health", "science"}
	}
	return &NewsAPI{cfg: cfg, apiKey: apiKey, maxAge: maxAge, client: newHTTPClient(timeout)}
}

func (n *NewsAPI) Name() string { return "newsapi" }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string    `json:"title"`
		URL         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
		Description string    `json:"description"`
		Content     string    `json:"content"`
	} `json:"articles"`
}

func (n *NewsAPI) Fetch(ctx context.Context) ([]article.Article, error) {
	if n.apiKey == "" {
		return nil, fmt.Errorf("NEWS_API_KEY not set")
	}

	var out []article.Article
	var lastErr error
	failed := 0

	for _, category := range n.cfg.Categories {
		params := url.Values{}
		params.Set("country", n.cfg.Country)
		params.Set("category", category)
		params.Set("language", n.cfg.Language)
		params.Set("pageSize", fmt.Sprint(n.cfg.PageSize))
		params.Set("apiKey", n.apiKey)

		var resp newsAPIResponse
		if err := getJSON(ctx, n.client, n.cfg.BaseURL+"?"+params.Encode(), &resp); err != nil {
			lastErr = err
			failed++
			logger.Warn("newsapi category query failed", "category", category, "error", err)
			continue
		}
		if resp.Status != "ok" {
			lastErr = fmt.Errorf("newsapi status %q: %s", resp.Status, resp.Message)
			failed++
			continue
		}

		for _, raw := range resp.Articles {
			if raw.Title == "" || raw.URL == "" {
				continue
			}
			if !fresh(raw.PublishedAt, n.maxAge) {
				continue
			}
			out = append(out, article.Article{
				ID:          article.MakeID(n.Name(), raw.URL),
				Title:       raw.Title,
				URL:         raw.URL,
				PublishedAt: raw.PublishedAt,
				SourceName:  firstNonEmpty(raw.Source.Name, n.Name()),
				Language:    n.cfg.Language,
				Excerpt:     raw.Description,
				BodyText:    raw.Content,
			})
		}
	}

	// Only report failure when not a single category query succeeded.
	if failed == len(n.cfg.Categories) && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
