// Package ai wraps the optional Gemini path: one request summarizes an
// article and renders the summary in the target reading language. A per-run
// request budget keeps free-tier quotas intact; once it is spent the
// processor falls back to the extractive summarizer.
package ai

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/alpenbrief/alpnews/internal/logger"
)

const (
	geminiModel     = "gemini-1.5-flash"
	maxPromptRunes  = 6000
	minPromptResult = 40
)

// Result is the parsed Gemini answer for one article.
type Result struct {
	Summary    string // summary in the article's own language
	Translated string // summary in the target reading language
}

type Client struct {
	client *genai.Client

	mu     sync.Mutex
	budget int // remaining requests this run, -1 = unlimited
}

func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{client: client, budget: -1}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// ResetBudget arms the per-run request budget; 0 or negative means
// unlimited.
func (c *Client) ResetBudget(maxRequests int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if maxRequests <= 0 {
		c.budget = -1
		return
	}
	c.budget = maxRequests
}

func (c *Client) take() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.budget < 0 {
		return true
	}
	if c.budget == 0 {
		return false
	}
	c.budget--
	return true
}

// SummarizeAndTranslate asks Gemini for a condensed summary plus its
// rendering in the target language. Returns ErrBudgetExhausted once the
// per-run budget is spent.
func (c *Client) SummarizeAndTranslate(ctx context.Context, title, content, targetLanguage string) (*Result, error) {
	if !c.take() {
		return nil, ErrBudgetExhausted
	}

	model := c.client.GenerativeModel(geminiModel)

	content = strings.Join(strings.Fields(strings.ReplaceAll(content, "\r", "")), " ")
	if utf8.RuneCountInString(content) > maxPromptRunes {
		runes := []rune(content)
		trimmed := string(runes[:maxPromptRunes])
		if idx := strings.LastIndex(trimmed, ". "); idx > maxPromptRunes/4 {
			trimmed = trimmed[:idx+1]
		}
		content = trimmed
	}

	prompt := fmt.Sprintf(`You are condensing a news article for a daily digest.

ARTICLE:
Title: %s
Body: %s

TASKS:
1. Write a 2-4 sentence summary of the article in its own language.
2. Render the same summary in %s, natural and idiomatic, not literal.

Do not translate proper names of brands or institutions.
Avoid filler openings like "This article is about".
Answer strictly in this format:

SUMMARY: <summary in the article's language>

TRANSLATION: <summary in %s>
`, title, content, languageName(targetLanguage), languageName(targetLanguage))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty gemini response")
	}

	raw := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	return parseResponse(raw)
}

// ErrBudgetExhausted signals the per-run request budget is spent; callers
// fall back to the deterministic path.
var ErrBudgetExhausted = fmt.Errorf("gemini request budget exhausted")

var (
	summaryLabel     = regexp.MustCompile(`(?i)^SUMMARY\s*:\s*`)
	translationLabel = regexp.MustCompile(`(?i)^TRANSLATION\s*:\s*`)
)

// parseResponse collects the labelled sections; continuation lines append to
// the section last opened.
func parseResponse(raw string) (*Result, error) {
	var summary, translated strings.Builder
	current := ""

	appendTo := func(section, text string) {
		if text == "" {
			return
		}
		b := &summary
		if section == "translation" {
			b = &translated
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(text)
	}

	for _, rawLine := range strings.Split(raw, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		switch {
		case summaryLabel.MatchString(line):
			current = "summary"
			appendTo(current, strings.TrimSpace(summaryLabel.ReplaceAllString(line, "")))
		case translationLabel.MatchString(line):
			current = "translation"
			appendTo(current, strings.TrimSpace(translationLabel.ReplaceAllString(line, "")))
		default:
			if current != "" {
				appendTo(current, line)
			}
		}
	}

	res := &Result{
		Summary:    strings.TrimSpace(summary.String()),
		Translated: strings.TrimSpace(translated.String()),
	}
	if len(res.Summary) < minPromptResult && len(res.Translated) < minPromptResult {
		logger.Debug("gemini response missing labelled sections", "raw_len", len(raw))
		return nil, fmt.Errorf("could not parse gemini response")
	}
	return res, nil
}

func languageName(code string) string {
	switch code {
	case "en":
		return "English"
	case "de":
		return "German"
	case "fr":
		return "French"
	case "it":
		return "Italian"
	default:
		return code
	}
}
