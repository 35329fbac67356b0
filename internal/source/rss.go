package source

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/alpenbrief/alpnews/internal/article"
	"github.com/alpenbrief/alpnews/internal/config"
	"github.com/alpenbrief/alpnews/internal/logger"
)

// RSS polls the configured localized feeds directly. Individual feed errors
// are logged and skipped; the adapter fails only when every feed fails.
type RSS struct {
	cfg    config.RSSConfig
	maxAge time.Duration
	parser *gofeed.Parser
}

func NewRSS(cfg config.RSSConfig, maxAge, timeout time.Duration) *RSS {
	if cfg.MaxPerFeed <= 0 {
		cfg.MaxPerFeed = 10
	}
	if cfg.SourceName == "" {
		cfg.SourceName = "rss"
	}
	parser := gofeed.NewParser()
	parser.Client = newHTTPClient(timeout)
	return &RSS{cfg: cfg, maxAge: maxAge, parser: parser}
}

func (r *RSS) Name() string { return r.cfg.SourceName }

func (r *RSS) Fetch(ctx context.Context) ([]article.Article, error) {
	if len(r.cfg.Feeds) == 0 {
		return nil, nil
	}

	var out []article.Article
	var lastErr error
	failed := 0

	for _, feedURL := range r.cfg.Feeds {
		feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			lastErr = err
			failed++
			logger.Warn("rss feed failed", "feed", feedURL, "error", err)
			continue
		}

		feedTitle := feed.Title
		if feedTitle == "" {
			feedTitle = r.Name()
		}

		count := 0
		for _, item := range feed.Items {
			if count >= r.cfg.MaxPerFeed {
				break
			}
			if item.Title == "" || item.Link == "" {
				continue
			}

			var publishedAt time.Time
			if item.PublishedParsed != nil {
				publishedAt = *item.PublishedParsed
			} else if item.UpdatedParsed != nil {
				publishedAt = *item.UpdatedParsed
			}
			if !fresh(publishedAt, r.maxAge) {
				continue
			}

			out = append(out, article.Article{
				ID:          article.MakeID(r.Name(), item.Link),
				Title:       stripTags(item.Title),
				URL:         item.Link,
				PublishedAt: publishedAt,
				SourceName:  feedTitle,
				Language:    r.cfg.Language,
				Excerpt:     stripTags(item.Description),
			})
			count++
		}
		logger.Debug("rss feed loaded", "feed", feedURL, "items", count)
	}

	if failed == len(r.cfg.Feeds) && lastErr != nil {
		return nil, fmt.Errorf("all %d feeds failed: %w", len(r.cfg.Feeds), lastErr)
	}
	return out, nil
}
