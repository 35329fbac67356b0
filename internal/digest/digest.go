// Package digest renders the daily markdown digest. Sections follow the
// configured category order; an article assigned to several categories
// appears in each of their sections.
package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/alpenbrief/alpnews/internal/article"
)

const maxPerSection = 5

// Render builds the markdown document. Articles are expected pre-sorted
// (score desc, then published desc) and already categorized; empty sections
// are omitted.
func Render(articles []article.Article, date time.Time, categoryOrder []string) string {
	sections := make(map[string][]article.Article, len(categoryOrder))
	for _, a := range articles {
		for _, cat := range a.Categories {
			sections[cat] = append(sections[cat], a)
		}
	}

	var b strings.Builder
	b.WriteString("# Daily News Digest\n\n")
	b.WriteString(fmt.Sprintf("**%s**\n\n", date.Format("Monday, January 2, 2006")))
	b.WriteString(fmt.Sprintf("%d articles selected\n\n", len(articles)))

	for _, cat := range categoryOrder {
		entries := sections[cat]
		if len(entries) == 0 {
			continue
		}
		if len(entries) > maxPerSection {
			entries = entries[:maxPerSection]
		}
		b.WriteString(fmt.Sprintf("## %s\n\n", cat))
		for _, a := range entries {
			writeEntry(&b, a)
		}
	}

	b.WriteString("---\n")
	b.WriteString(fmt.Sprintf("*Generated %s*\n", date.Format("2006-01-02 15:04 MST")))
	return b.String()
}

func writeEntry(b *strings.Builder, a article.Article) {
	b.WriteString(fmt.Sprintf("### [%s](%s)\n\n", a.DisplayTitle(), a.URL))
	meta := a.SourceName
	if !a.PublishedAt.IsZero() {
		meta += " · " + a.PublishedAt.Format("2006-01-02 15:04")
	}
	b.WriteString(fmt.Sprintf("*%s*\n\n", meta))
	if summary := a.DisplaySummary(); summary != "" {
		b.WriteString(summary)
		if a.Untranslated {
			b.WriteString("\n\n*(original language, translation unavailable)*")
		}
		b.WriteString("\n\n")
	}
}
