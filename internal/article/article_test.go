package article

import "testing"

func TestMakeIDNormalizesURL(t *testing.T) {
	base := MakeID("vol.at", "https://www.vol.at/story/123")
	variants := []string{
		"http://vol.at/story/123",
		"https://vol.at/story/123/",
		"HTTPS://WWW.VOL.AT/STORY/123",
	}
	for _, v := range variants {
		if got := MakeID("vol.at", v); got != base {
			t.Errorf("MakeID(%q) = %s, want %s", v, got, base)
		}
	}

	if MakeID("vol.at", "https://vol.at/story/124") == base {
		t.Error("different paths collided")
	}
	if MakeID("orf.at", "https://vol.at/story/123") == base {
		t.Error("different sources collided")
	}
	if len(base) != 16 {
		t.Errorf("id length = %d, want 16", len(base))
	}
}

func TestDedupeFirstSeenWins(t *testing.T) {
	articles := []Article{
		{Title: "First", URL: "https://vol.at/a", SourceName: "vol.at"},
		{Title: "Second copy", URL: "http://www.vol.at/a/", SourceName: "vol.at"},
		{Title: "Other", URL: "https://vol.at/b", SourceName: "vol.at"},
	}

	out := Dedupe(articles)
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].Title != "First" {
		t.Errorf("first-seen not kept, got %q", out[0].Title)
	}
}

func TestDedupeCollapsesSameURLAcrossSources(t *testing.T) {
	// Distinct source names give distinct IDs, but the normalized URL is
	// identical, so only the first survives.
	articles := []Article{
		{Title: "Wire copy", URL: "https://apnews.com/story", SourceName: "NewsAPI"},
		{Title: "Same wire copy", URL: "https://apnews.com/story", SourceName: "MediaStack"},
	}
	out := Dedupe(articles)
	if len(out) != 1 || out[0].SourceName != "NewsAPI" {
		t.Fatalf("got %+v, want single NewsAPI entry", out)
	}
}

func TestDedupeIdempotent(t *testing.T) {
	articles := []Article{
		{Title: "A", URL: "https://vol.at/a", SourceName: "vol.at"},
		{Title: "A again", URL: "https://vol.at/a", SourceName: "vol.at"},
		{Title: "B", URL: "https://vol.at/b", SourceName: "vol.at"},
	}
	once := Dedupe(articles)
	twice := Dedupe(once)
	if len(once) != len(twice) {
		t.Fatalf("not idempotent: %d then %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Errorf("entry %d changed: %s vs %s", i, once[i].ID, twice[i].ID)
		}
	}
}

func TestScoringTextFallbacks(t *testing.T) {
	a := Article{Title: "Title", Summary: "summary", Excerpt: "excerpt", BodyText: "body"}
	if got := a.ScoringText(); got != "Title summary" {
		t.Errorf("with summary: %q", got)
	}

	a.Summary = ""
	if got := a.ScoringText(); got != "Title excerpt" {
		t.Errorf("with excerpt: %q", got)
	}

	a.Excerpt = ""
	if got := a.ScoringText(); got != "Title body" {
		t.Errorf("with body: %q", got)
	}

	a.BodyText = ""
	if got := a.ScoringText(); got != "Title" {
		t.Errorf("title only: %q", got)
	}
}

func TestDisplayFieldsPreferTranslations(t *testing.T) {
	a := Article{Title: "Originaltitel", Summary: "Originaltext"}
	if a.DisplayTitle() != "Originaltitel" || a.DisplaySummary() != "Originaltext" {
		t.Error("originals not returned when no translation present")
	}

	a.TranslatedTitle = "Translated title"
	a.TranslatedSummary = "Translated summary"
	if a.DisplayTitle() != "Translated title" || a.DisplaySummary() != "Translated summary" {
		t.Error("translations not preferred")
	}
}
