package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alpenbrief/alpnews/internal/article"
	"github.com/alpenbrief/alpnews/internal/config"
	"github.com/alpenbrief/alpnews/internal/process"
	"github.com/alpenbrief/alpnews/internal/relevance"
	"github.com/alpenbrief/alpnews/internal/source"
	"github.com/alpenbrief/alpnews/internal/storage"
)

type fakeAdapter struct {
	name     string
	articles []article.Article
	err      error
}

func (f *fakeAdapter) Name() string { return f.name }
func (f *fakeAdapter) Fetch(context.Context) ([]article.Article, error) {
	return f.articles, f.err
}

var runDate = time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		TargetLanguage:     "en",
		RelevanceThreshold: 3,
		CategoryThreshold:  2,
		ScorePolicy:        "max",
		Categories: []config.Category{
			{Name: "Tax", Terms: []config.WeightedTerm{{Term: "tax", Weight: 3}}},
			{Name: "Music", Terms: []config.WeightedTerm{{Term: "concert", Weight: 2}}},
		},
		CategoryOrder: []string{"Tax", "Music"},
		MaxArticles:   30,
		DataDir:       t.TempDir(),
	}
}

func testAgent(t *testing.T, cfg *config.Config, adapters ...source.Adapter) *Agent {
	t.Helper()
	engine, err := relevance.New(cfg.Categories, cfg.RelevanceThreshold, cfg.CategoryThreshold, relevance.Policy(cfg.ScorePolicy))
	if err != nil {
		t.Fatalf("relevance.New: %v", err)
	}
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	var seen *storage.SeenLedger
	if cfg.SeenTTLHours > 0 {
		seen = storage.OpenSeenLedger(store.DataDir(), time.Duration(cfg.SeenTTLHours)*time.Hour)
	}
	// nil scraper and translator keep the processor offline.
	processor := process.New(nil, nil, nil, process.Options{
		TargetLanguage: cfg.TargetLanguage,
		Concurrency:    2,
	})
	return &Agent{
		cfg:       cfg,
		registry:  source.NewRegistry(adapters...),
		engine:    engine,
		processor: processor,
		store:     store,
		seen:      seen,
	}
}

func englishArticle(sourceName, title, url string) article.Article {
	return article.Article{
		Title:       title,
		URL:         url,
		SourceName:  sourceName,
		Language:    "en",
		Excerpt:     title,
		PublishedAt: runDate.Add(-time.Hour),
	}
}

func TestRunOnceProducesDigest(t *testing.T) {
	cfg := testConfig(t)
	agent := testAgent(t, cfg, &fakeAdapter{
		name: "a",
		articles: []article.Article{
			englishArticle("a", "New tax rules for expats", "https://x/tax"),
			englishArticle("a", "Sports roundup", "https://x/sports"),
		},
	})

	report, err := agent.RunOnce(context.Background(), runDate)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.Kept != 1 || report.Discarded != 1 {
		t.Errorf("kept=%d discarded=%d, want 1/1", report.Kept, report.Discarded)
	}

	data, err := os.ReadFile(report.DigestPath)
	if err != nil {
		t.Fatalf("read digest: %v", err)
	}
	md := string(data)
	if !strings.Contains(md, "## Tax") || !strings.Contains(md, "New tax rules for expats") {
		t.Errorf("digest missing tax section:\n%s", md)
	}
	if strings.Contains(md, "Sports roundup") {
		t.Errorf("discarded article leaked into digest:\n%s", md)
	}

	if _, err := os.Stat(report.DumpPath); err != nil {
		t.Errorf("article dump missing: %v", err)
	}
}

func TestRunOnceToleratesFailingSource(t *testing.T) {
	cfg := testConfig(t)
	agent := testAgent(t, cfg,
		&fakeAdapter{name: "down", err: fmt.Errorf("connection refused")},
		&fakeAdapter{name: "up", articles: []article.Article{
			englishArticle("up", "Tax deadline moved", "https://x/1"),
		}},
	)

	report, err := agent.RunOnce(context.Background(), runDate)
	if err != nil {
		t.Fatalf("one healthy source should carry the run: %v", err)
	}
	if report.Kept != 1 {
		t.Errorf("kept = %d, want 1", report.Kept)
	}
}

func TestRunOnceAllSourcesFailed(t *testing.T) {
	cfg := testConfig(t)
	agent := testAgent(t, cfg,
		&fakeAdapter{name: "a", err: fmt.Errorf("down")},
		&fakeAdapter{name: "b", err: fmt.Errorf("down")},
	)

	if _, err := agent.RunOnce(context.Background(), runDate); err == nil {
		t.Error("expected total failure error")
	}
}

func TestRunOnceNoSurvivors(t *testing.T) {
	cfg := testConfig(t)
	agent := testAgent(t, cfg, &fakeAdapter{name: "a", articles: []article.Article{
		englishArticle("a", "Nothing relevant here", "https://x/1"),
	}})

	if _, err := agent.RunOnce(context.Background(), runDate); err == nil {
		t.Error("expected error when nothing passes the filter")
	}
}

func TestRunOnceCollapsesDuplicateURLs(t *testing.T) {
	cfg := testConfig(t)
	agent := testAgent(t, cfg, &fakeAdapter{
		name: "a",
		articles: []article.Article{
			englishArticle("a", "Tax story", "https://x/tax"),
			englishArticle("b", "Tax story again", "https://x/tax/"),
		},
	})

	report, err := agent.RunOnce(context.Background(), runDate)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.Duplicates != 1 || report.Kept != 1 {
		t.Errorf("duplicates=%d kept=%d, want 1/1", report.Duplicates, report.Kept)
	}
}

func TestRunOnceSeenLedgerSkipsRepeats(t *testing.T) {
	cfg := testConfig(t)
	cfg.SeenTTLHours = 24
	adapter := &fakeAdapter{name: "a", articles: []article.Article{
		englishArticle("a", "Tax story", "https://x/tax"),
	}}

	first := testAgent(t, cfg, adapter)
	if _, err := first.RunOnce(context.Background(), runDate); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Second agent over the same data dir reloads the ledger.
	second := testAgent(t, cfg, adapter)
	if _, err := second.RunOnce(context.Background(), runDate.AddDate(0, 0, 1)); err == nil {
		t.Error("expected no-survivor error when the only article was already seen")
	}
}

func TestRunOnceRespectsMaxArticles(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxArticles = 2
	var articles []article.Article
	for i := 0; i < 5; i++ {
		articles = append(articles, englishArticle("a", "Tax update", fmt.Sprintf("https://x/%d", i)))
	}
	agent := testAgent(t, cfg, &fakeAdapter{name: "a", articles: articles})

	report, err := agent.RunOnce(context.Background(), runDate)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.Kept != 2 {
		t.Errorf("kept = %d, want cap of 2", report.Kept)
	}
}
