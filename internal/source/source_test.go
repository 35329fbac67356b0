package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alpenbrief/alpnews/internal/article"
	"github.com/alpenbrief/alpnews/internal/config"
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

func TestFetchAllMergesAndCountsFailures(t *testing.T) {
	registry := NewRegistry(
		&fakeAdapter{name: "a", articles: []article.Article{{Title: "one"}, {Title: "two"}}},
		&fakeAdapter{name: "b", err: fmt.Errorf("boom")},
		&fakeAdapter{name: "c", articles: []article.Article{{Title: "three"}}},
	)

	merged, failures := registry.FetchAll(context.Background())
	if len(merged) != 3 {
		t.Errorf("merged = %d articles, want 3", len(merged))
	}
	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}
}

func TestFetchAllAllFailed(t *testing.T) {
	registry := NewRegistry(
		&fakeAdapter{name: "a", err: fmt.Errorf("down")},
		&fakeAdapter{name: "b", err: fmt.Errorf("down too")},
	)
	merged, failures := registry.FetchAll(context.Background())
	if len(merged) != 0 || failures != registry.Len() {
		t.Errorf("merged=%d failures=%d, want 0/%d", len(merged), failures, registry.Len())
	}
}

func TestNewsAPIFetchMapsPayload(t *testing.T) {
	published := time.Now().Add(-2 * time.Hour).UTC().Format(time.RFC3339)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apiKey") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, `{
			"status": "ok",
			"articles": [
				{"source": {"name": "ORF"}, "title": "Headline", "url": "https://orf.at/s/1",
				 "publishedAt": %q, "description": "Desc", "content": "Body"},
				{"source": {"name": "X"}, "title": "", "url": "https://x/skip"}
			]
		}`, published)
	}))
	defer server.Close()

	adapter := NewNewsAPI(config.NewsAPIConfig{
		BaseURL:    server.URL,
		Country:    "at",
		Categories: []string{"general"},
	}, "k", 72*time.Hour, 5*time.Second)

	articles, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1 (titleless entry skipped)", len(articles))
	}

	a := articles[0]
	if a.Title != "Headline" || a.URL != "https://orf.at/s/1" || a.SourceName != "ORF" {
		t.Errorf("bad mapping: %+v", a)
	}
	if a.Excerpt != "Desc" || a.BodyText != "Body" {
		t.Errorf("description/content not mapped: %+v", a)
	}
	if a.ID == "" {
		t.Error("id not assigned")
	}
}

func TestNewsAPIFreshnessWindow(t *testing.T) {
	stale := time.Now().Add(-100 * time.Hour).UTC().Format(time.RFC3339)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"status":"ok","articles":[{"source":{"name":"A"},"title":"Old","url":"https://a/1","publishedAt":%q}]}`, stale)
	}))
	defer server.Close()

	adapter := NewNewsAPI(config.NewsAPIConfig{
		BaseURL:    server.URL,
		Categories: []string{"general"},
	}, "k", 72*time.Hour, 5*time.Second)

	articles, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("stale article not dropped: %+v", articles)
	}
}

func TestNewsAPIFailsOnlyWhenAllCategoriesFail(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("category") == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"status":"ok","articles":[{"source":{"name":"A"},"title":"T","url":"https://a/1"}]}`)
	}))
	defer server.Close()

	adapter := NewNewsAPI(config.NewsAPIConfig{
		BaseURL:    server.URL,
		Categories: []string{"broken", "general"},
	}, "k", 0, 5*time.Second)

	articles, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("partial failure should not error: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("got %d articles, want 1 from the healthy category", len(articles))
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}

	allBroken := NewNewsAPI(config.NewsAPIConfig{
		BaseURL:    server.URL,
		Categories: []string{"broken"},
	}, "k", 0, 5*time.Second)
	if _, err := allBroken.Fetch(context.Background()); err == nil {
		t.Error("expected error when every category query fails")
	}
}

func TestGuardianFetchMapsPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("show-fields") != "headline,trailText,body" {
			t.Errorf("show-fields = %q", r.URL.Query().Get("show-fields"))
		}
		fmt.Fprint(w, `{"response":{"status":"ok","results":[
			{"webTitle":"Austria story","webUrl":"https://gu/1",
			 "webPublicationDate":"2099-01-01T00:00:00Z",
			 "fields":{"trailText":"<strong>Trail</strong> text","body":"<p>Body</p>"}}
		]}}`)
	}))
	defer server.Close()

	adapter := NewGuardian(config.GuardianConfig{
		BaseURL: server.URL,
		Topics:  []string{"austria"},
	}, "k", 0, 5*time.Second)

	articles, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1", len(articles))
	}
	a := articles[0]
	if a.SourceName != "The Guardian" {
		t.Errorf("source = %q", a.SourceName)
	}
	if a.Excerpt != "Trail text" {
		t.Errorf("trail text tags not stripped: %q", a.Excerpt)
	}
	if a.BodyText != "Body" {
		t.Errorf("body tags not stripped: %q", a.BodyText)
	}
}

func TestStripTags(t *testing.T) {
	got := stripTags(`<p>Hello &amp; <a href="x">world</a></p>`)
	if got != "Hello & world" {
		t.Errorf("got %q", got)
	}
}

func TestFresh(t *testing.T) {
	now := time.Now()
	if !fresh(time.Time{}, time.Hour) {
		t.Error("zero timestamp should pass")
	}
	if !fresh(now.Add(-30*time.Minute), time.Hour) {
		t.Error("recent timestamp should pass")
	}
	if fresh(now.Add(-2*time.Hour), time.Hour) {
		t.Error("stale timestamp should fail")
	}
	if !fresh(now.Add(-100*time.Hour), 0) {
		t.Error("disabled window should pass everything")
	}
}
