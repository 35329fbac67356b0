package process

import (
	"context"
	"testing"

	"github.com/alpenbrief/alpnews/internal/article"
)

func offlineProcessor() *Processor {
	return New(nil, nil, nil, Options{TargetLanguage: "en", Concurrency: 2})
}

func TestDetectLanguage(t *testing.T) {
	p := offlineProcessor()

	german := article.Article{
		Title:   "Landesregierung stellt neues Budget vor",
		Excerpt: "Die Ausgaben für Gesundheit steigen im kommenden Jahr deutlich an.",
	}
	p.detectLanguage(&german)
	if german.Language != "de" {
		t.Errorf("language = %q, want de", german.Language)
	}

	english := article.Article{
		Title:   "State government presents new budget",
		Excerpt: "Health spending will rise significantly in the coming year.",
	}
	p.detectLanguage(&english)
	if english.Language != "en" {
		t.Errorf("language = %q, want en", english.Language)
	}
}

func TestDetectLanguageKeepsAdapterValue(t *testing.T) {
	p := offlineProcessor()
	a := article.Article{Language: "de", Title: "Clearly english words here"}
	p.detectLanguage(&a)
	if a.Language != "de" {
		t.Errorf("adapter-declared language overwritten: %q", a.Language)
	}
}

func TestDetectLanguageEmptyText(t *testing.T) {
	p := offlineProcessor()
	a := article.Article{}
	p.detectLanguage(&a)
	if a.Language != "en" {
		t.Errorf("empty article language = %q, want target default", a.Language)
	}
}

func TestProcessAllOfflineFallbacks(t *testing.T) {
	p := offlineProcessor()
	articles := []article.Article{
		{Title: "Budget approved by council", Language: "en", BodyText: "The council approved the budget on Monday after a long debate session. Spending on healthcare rises next year according to the plan."},
		{Title: "Short note", Language: "en"},
	}

	p.ProcessAll(context.Background(), articles)

	if articles[0].Summary == "" {
		t.Error("no summary produced from body text")
	}
	if articles[1].Summary != "Short note" {
		t.Errorf("title fallback = %q", articles[1].Summary)
	}
	for _, a := range articles {
		if a.Untranslated {
			t.Errorf("same-language article marked untranslated: %+v", a)
		}
	}
}
