// Package relevance scores articles against weighted interest categories and
// decides which survive into the digest.
//
// Matching policy (fixed): terms are matched case-insensitively against the
// article's title plus summary (body text when no summary exists). Multi-word
// phrases match as substrings; single tokens match on word boundaries, so
// "art" never fires on "party". A term contributes its weight once per
// category regardless of how often it occurs.
package relevance

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/alpenbrief/alpnews/internal/article"
	"github.com/alpenbrief/alpnews/internal/config"
)

// DefaultCategory is assigned when a surviving article matches no category
// above the inclusion threshold.
const DefaultCategory = "General"

// Policy selects how per-category scores combine into the overall score.
type Policy string

const (
	// PolicyMax keeps the single strongest category score: an article
	// strongly matching one interest ranks as relevant even if it matches
	// no others.
	PolicyMax Policy = "max"
	// PolicySum adds all category scores together.
	PolicySum Policy = "sum"
)

type matcher struct {
	weight  float64
	phrase  string         // substring match when set
	pattern *regexp.Regexp // word-boundary match otherwise
}

func (m matcher) matches(text string) bool {
	if m.phrase != "" {
		return strings.Contains(text, m.phrase)
	}
	return m.pattern.MatchString(text)
}

type category struct {
	name     string
	matchers []matcher
}

// Engine is the compiled, run-scoped relevance configuration. It carries no
// global state; construct one per run from the explicit category config.
type Engine struct {
	categories        []category
	threshold         float64
	categoryThreshold float64
	policy            Policy
}

// New compiles the category definitions into an engine.
func New(categories []config.Category, threshold, categoryThreshold float64, policy Policy) (*Engine, error) {
	if policy != PolicyMax && policy != PolicySum {
		return nil, fmt.Errorf("unknown score policy %q", policy)
	}

	compiled := make([]category, 0, len(categories))
	for _, c := range categories {
		cat := category{name: c.Name}
		for _, t := range c.Terms {
			term := strings.ToLower(strings.TrimSpace(t.Term))
			if term == "" {
				continue
			}
			m := matcher{weight: t.Weight}
			if strings.Contains(term, " ") {
				m.phrase = term
			} else {
				re, err := regexp.Compile(`\b` + regexp.QuoteMeta(term) + `\b`)
				if err != nil {
					return nil, fmt.Errorf("category %q term %q: %w", c.Name, t.Term, err)
				}
				m.pattern = re
			}
			cat.matchers = append(cat.matchers, m)
		}
		if len(cat.matchers) == 0 {
			return nil, fmt.Errorf("category %q has no usable terms", c.Name)
		}
		compiled = append(compiled, cat)
	}
	if len(compiled) == 0 {
		return nil, fmt.Errorf("no categories configured")
	}

	return &Engine{
		categories:        compiled,
		threshold:         threshold,
		categoryThreshold: categoryThreshold,
		policy:            policy,
	}, nil
}

// ScoreText computes per-category scores and the combined overall score for
// one piece of text. Pure function, no side effects.
func (e *Engine) ScoreText(text string) (float64, map[string]float64) {
	text = strings.ToLower(text)

	byCategory := make(map[string]float64, len(e.categories))
	overall := 0.0
	for _, cat := range e.categories {
		score := 0.0
		for _, m := range cat.matchers {
			if m.matches(text) {
				score += m.weight
			}
		}
		if score > 0 {
			byCategory[cat.name] = score
		}
		switch e.policy {
		case PolicySum:
			overall += score
		default:
			if score > overall {
				overall = score
			}
		}
	}
	return overall, byCategory
}

// Filter scores every article, keeps the ones at or above the relevance
// threshold (inclusive boundary), and returns survivors sorted by score
// descending with published-time descending as the tie-break.
func (e *Engine) Filter(articles []article.Article) (kept []article.Article, discarded int) {
	for _, a := range articles {
		overall, byCategory := e.ScoreText(a.ScoringText())
		a.Scored = true
		a.Score = overall
		a.ByCategory = byCategory
		if overall < e.threshold {
			discarded++
			continue
		}
		kept = append(kept, a)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		return kept[i].PublishedAt.After(kept[j].PublishedAt)
	})
	return kept, discarded
}

// Categorize returns every category whose score reaches the per-category
// inclusion threshold, falling back to the default bucket so no surviving
// article is left unplaced. Category order follows the engine's config order
// for deterministic output.
func (e *Engine) Categorize(a article.Article) []string {
	byCategory := a.ByCategory
	if !a.Scored {
		_, byCategory = e.ScoreText(a.ScoringText())
	}

	var labels []string
	for _, cat := range e.categories {
		if byCategory[cat.name] >= e.categoryThreshold && byCategory[cat.name] > 0 {
			labels = append(labels, cat.name)
		}
	}
	if len(labels) == 0 {
		labels = append(labels, DefaultCategory)
	}
	return labels
}
