// Package scraper retrieves and extracts the main body text of an article
// page. Known Austrian outlets get dedicated selectors; everything else goes
// through readability and a generic paragraph sweep.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Content is the extracted full text of one page.
type Content struct {
	Title string
	Text  string
	URL   string
}

type Scraper struct {
	client *http.Client
}

func New(timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Scraper{client: &http.Client{Timeout: timeout}}
}

// Extract downloads the page and pulls out its main text. Extraction
// failure is a soft failure upstream: the caller keeps the article with an
// empty body.
func (s *Scraper) Extract(ctx context.Context, url string) (*Content, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "alpnews/1.0 (+https://github.com/alpenbrief/alpnews)")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("load page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	text := extractBySource(doc, url)
	if text == "" {
		text = extractWithReadability(doc, url)
	}
	if text == "" {
		return nil, fmt.Errorf("no extractable content")
	}

	title := extractTitle(doc)
	return &Content{Title: title, Text: cleanText(text), URL: url}, nil
}

// extractBySource tries site-specific selectors for outlets we know.
func extractBySource(doc *goquery.Document, url string) string {
	var selectors []string

	switch {
	case strings.Contains(url, "vol.at"), strings.Contains(url, "vienna.at"):
		selectors = []string{".article-body p", ".wp-block-paragraph", "article p"}
	case strings.Contains(url, "orf.at"):
		selectors = []string{".story-story p", ".story-content p", "article p"}
	case strings.Contains(url, "vn.at"):
		selectors = []string{".article__content p", ".article-body p", "article p"}
	case strings.Contains(url, "derstandard.at"):
		selectors = []string{".article-body p", "#content-main p", "article p"}
	case strings.Contains(url, "theguardian.com"):
		selectors = []string{".article-body-commercial-selector p", "#maincontent p", "article p"}
	default:
		return ""
	}

	return collectParagraphs(doc, selectors, 1)
}

// extractWithReadability runs the generic readability pass over the already
// parsed document, falling back to a plain paragraph sweep.
func extractWithReadability(doc *goquery.Document, url string) string {
	if htmlStr, err := doc.Html(); err == nil {
		parsed, _ := neturl.Parse(url)
		if art, err := readability.FromReader(strings.NewReader(htmlStr), parsed); err == nil {
			if text := strings.TrimSpace(art.TextContent); len(text) > 200 {
				return text
			}
		}
	}

	generic := []string{"article p", ".article p", ".content p", ".post-content p", ".entry-content p", "main p", "p"}
	return collectParagraphs(doc, generic, 3)
}

// collectParagraphs walks the selector list and returns the first selector's
// paragraphs once at least minParas were found.
func collectParagraphs(doc *goquery.Document, selectors []string, minParas int) string {
	for _, selector := range selectors {
		var paragraphs []string
		doc.Find(selector).Each(func(i int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) >= minParas {
			return strings.Join(paragraphs, "\n\n")
		}
	}
	return ""
}

func extractTitle(doc *goquery.Document) string {
	for _, selector := range []string{"h1", ".article-title", ".headline", "title"} {
		title := strings.TrimSpace(doc.Find(selector).First().Text())
		if title != "" {
			return title
		}
	}
	return ""
}

var junkIndicators = []string{
	"cookie", "gdpr", "datenschutz", "newsletter", "abonnement", "abo jetzt",
	"jetzt anmelden", "mehr lesen", "weiterlesen", "teilen", "drucken",
	"read more", "sign up", "subscribe", "follow us", "advertisement",
}

// cleanText drops boilerplate lines and caps the body at a few paragraphs'
// worth of text, breaking on a paragraph boundary.
func cleanText(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 8 {
			continue
		}
		lower := strings.ToLower(line)
		junk := false
		for _, indicator := range junkIndicators {
			if strings.Contains(lower, indicator) {
				junk = true
				break
			}
		}
		if !junk {
			kept = append(kept, line)
		}
	}

	result := strings.Join(kept, "\n\n")

	const maxLen = 4000
	if len(result) > maxLen {
		paragraphs := strings.Split(result, "\n\n")
		var selected []string
		total := 0
		for _, p := range paragraphs {
			if total+len(p) > maxLen {
				break
			}
			selected = append(selected, p)
			total += len(p) + 2
		}
		if len(selected) > 0 {
			result = strings.Join(selected, "\n\n")
		} else {
			result = result[:maxLen]
		}
	}

	return strings.TrimSpace(result)
}
