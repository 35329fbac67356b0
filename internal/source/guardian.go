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

const defaultGuardianBaseURL = "https://content.guardianapis.com/search"

// Guardian queries the Guardian content API once per configured topic.
// Works without an API key, with tighter rate limits.
type Guardian struct {
	cfg    config.GuardianConfig
	apiKey string
	maxAge time.Duration
	client *http.Client
}

func NewGuardian(cfg config.GuardianConfig, apiKey string, maxAge, timeout time.Duration) *Guardian {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGuardianBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	return &Guardian{cfg: cfg, apiKey: apiKey, maxAge: maxAge, client: newHTTPClient(timeout)}
}

func (g *Guardian) Name() string { return "guardian" }

type guardianResponse struct {
	Response struct {
		Status  string `json:"status"`
		Results []struct {
			WebTitle           string    `json:"webTitle"`
			WebURL             string    `json:"webUrl"`
			WebPublicationDate time.Time `json:"webPublicationDate"`
			Fields             struct {
				TrailText string `json:"trailText"`
				Body      string `json:"body"`
			} `json:"fields"`
		} `json:"results"`
	} `json:"response"`
}

func (g *Guardian) Fetch(ctx context.Context) ([]article.Article, error) {
	if len(g.cfg.Topics) == 0 {
		return nil, nil
	}

	var out []article.Article
	var lastErr error
	failed := 0

	for _, topic := range g.cfg.Topics {
		params := url.Values{}
		params.Set("q", topic)
		params.Set("lang", g.cfg.Language)
		params.Set("page-size", fmt.Sprint(g.cfg.PageSize))
		params.Set("order-by", "newest")
		params.Set("show-fields", "headline,trailText,body")
		params.Set("api-key", g.apiKey)

		var resp guardianResponse
		if err := getJSON(ctx, g.client, g.cfg.BaseURL+"?"+params.Encode(), &resp); err != nil {
			lastErr = err
			failed++
			logger.Warn("guardian topic query failed", "topic", topic, "error", err)
			continue
		}
		if resp.Response.Status != "ok" {
			lastErr = fmt.Errorf("guardian status %q", resp.Response.Status)
			failed++
			continue
		}

		for _, raw := range resp.Response.Results {
			if raw.WebTitle == "" || raw.WebURL == "" {
				continue
			}
			if !fresh(raw.WebPublicationDate, g.maxAge) {
				continue
			}
			out = append(out, article.Article{
				ID:          article.MakeID(g.Name(), raw.WebURL),
				Title:       raw.WebTitle,
				URL:         raw.WebURL,
				PublishedAt: raw.WebPublicationDate,
				SourceName:  "The Guardian",
				Language:    g.cfg.Language,
				Excerpt:     stripTags(raw.Fields.TrailText),
				BodyText:    stripTags(raw.Fields.Body),
			})
		}
	}

	if failed == len(g.cfg.Topics) && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}
