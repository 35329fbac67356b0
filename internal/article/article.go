// Package article holds the common record shape every source adapter
// normalizes into, plus identity-based deduplication over a run's set.
package article

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Article is one normalized news item flowing through a single run.
// Provenance fields (Title, URL, PublishedAt, SourceName) are set by the
// adapter and not touched afterwards; the processor fills BodyText, Summary
// and the translation fields; the relevance engine sets Score and Categories.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	SourceName  string    `json:"source_name"`

	Language string `json:"language,omitempty"`
	Excerpt  string `json:"excerpt,omitempty"`
	BodyText string `json:"body_text,omitempty"`
	Summary  string `json:"summary,omitempty"`

	TranslatedTitle   string `json:"translated_title,omitempty"`
	TranslatedSummary string `json:"translated_summary,omitempty"`
	Untranslated      bool   `json:"untranslated,omitempty"`

	Scored     bool               `json:"scored,omitempty"`
	Score      float64            `json:"score,omitempty"`
	ByCategory map[string]float64 `json:"by_category,omitempty"`
	Categories []string           `json:"categories,omitempty"`
}

// MakeID derives a stable identifier from source and URL. The URL is
// normalized (scheme, trailing slash, www prefix stripped) so the same story
// syndicated with cosmetic URL differences collapses to one record.
func MakeID(sourceName, rawURL string) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(sourceName)) + "|" + normalizeURL(rawURL)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func normalizeURL(rawURL string) string {
	u := strings.ToLower(strings.TrimSpace(rawURL))
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "www.")
	return strings.TrimSuffix(u, "/")
}

// Dedupe collapses duplicate IDs and duplicate URLs, first-seen wins.
// It is idempotent: running it over its own output returns the same set.
func Dedupe(articles []Article) []Article {
	seenID := make(map[string]struct{}, len(articles))
	seenURL := make(map[string]struct{}, len(articles))

	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if a.ID == "" {
			a.ID = MakeID(a.SourceName, a.URL)
		}
		if _, dup := seenID[a.ID]; dup {
			continue
		}
		if a.URL != "" {
			key := normalizeURL(a.URL)
			if _, dup := seenURL[key]; dup {
				continue
			}
			seenURL[key] = struct{}{}
		}
		seenID[a.ID] = struct{}{}
		out = append(out, a)
	}
	return out
}

// ScoringText is the text the relevance engine matches against: title plus
// the best available description (summary, then excerpt, then body text).
func (a Article) ScoringText() string {
	text := a.Summary
	if text == "" {
		text = a.Excerpt
	}
	if text == "" {
		text = a.BodyText
	}
	return strings.TrimSpace(a.Title + " " + text)
}

// DisplayTitle prefers the translated title when one is present.
func (a Article) DisplayTitle() string {
	if a.TranslatedTitle != "" {
		return a.TranslatedTitle
	}
	return a.Title
}

// DisplaySummary prefers the translated summary when one is present.
func (a Article) DisplaySummary() string {
	if a.TranslatedSummary != "" {
		return a.TranslatedSummary
	}
	return a.Summary
}
