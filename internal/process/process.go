// Package process turns fetched article stubs into digest-ready entries:
// full-text extraction, language detection, summarization and translation
// into the target reading language.
package process

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/pemistahl/lingua-go"

	"github.com/alpenbrief/alpnews/internal/ai"
	"github.com/alpenbrief/alpnews/internal/article"
	"github.com/alpenbrief/alpnews/internal/logger"
	"github.com/alpenbrief/alpnews/internal/metrics"
	"github.com/alpenbrief/alpnews/internal/scraper"
	"github.com/alpenbrief/alpnews/internal/translate"
)

type Options struct {
	TargetLanguage string
	Concurrency    int
	MaxAIRequests  int
}

type Processor struct {
	scraper    *scraper.Scraper
	translator *translate.Translator
	gemini     *ai.Client // nil when no API key configured
	detector   lingua.LanguageDetector
	opts       Options
}

func New(sc *scraper.Scraper, tr *translate.Translator, gemini *ai.Client, opts Options) *Processor {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.TargetLanguage == "" {
		opts.TargetLanguage = "en"
	}
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.English, lingua.German).
		Build()
	return &Processor{
		scraper:    sc,
		translator: tr,
		gemini:     gemini,
		detector:   detector,
		opts:       opts,
	}
}

// ProcessAll enriches the articles in place using a bounded worker pool.
// Individual failures degrade the affected article, never the batch.
func (p *Processor) ProcessAll(ctx context.Context, articles []article.Article) {
	if p.gemini != nil {
		p.gemini.ResetBudget(p.opts.MaxAIRequests)
	}

	sem := make(chan struct{}, p.opts.Concurrency)
	var wg sync.WaitGroup
	for i := range articles {
		wg.Add(1)
		sem <- struct{}{}
		go func(a *article.Article) {
			defer wg.Done()
			defer func() { <-sem }()
			p.processOne(ctx, a)
		}(&articles[i])
	}
	wg.Wait()
}

func (p *Processor) processOne(ctx context.Context, a *article.Article) {
	p.extract(ctx, a)
	p.detectLanguage(a)

	if p.gemini != nil && a.BodyText != "" {
		if p.geminiEnrich(ctx, a) {
			return
		}
	}

	if a.Summary == "" {
		a.Summary = Summarize(a.BodyText, a.Title)
	}
	if a.Summary == "" {
		a.Summary = a.Excerpt
	}
	p.translateFields(ctx, a)
}

// extract fetches the full article body. Extraction failures leave the
// adapter-provided excerpt in place.
func (p *Processor) extract(ctx context.Context, a *article.Article) {
	if p.scraper == nil || a.URL == "" {
		return
	}
	content, err := p.scraper.Extract(ctx, a.URL)
	if err != nil {
		metrics.Global.IncrementExtractionFailures()
		logger.Debug("extraction failed, keeping excerpt", "url", a.URL, "error", err)
		if a.BodyText == "" {
			a.BodyText = a.Excerpt
		}
		return
	}
	a.BodyText = content.Text
	if a.Title == "" {
		a.Title = content.Title
	}
}

func (p *Processor) detectLanguage(a *article.Article) {
	if a.Language != "" {
		return
	}
	sample := a.Title + " " + a.Excerpt
	if a.BodyText != "" {
		sample = a.Title + " " + truncateRunes(a.BodyText, 400)
	}
	if strings.TrimSpace(sample) == "" {
		a.Language = p.opts.TargetLanguage
		return
	}
	lang, ok := p.detector.DetectLanguageOf(sample)
	if !ok {
		a.Language = p.opts.TargetLanguage
		return
	}
	a.Language = strings.ToLower(lang.IsoCode639_1().String())
}

// geminiEnrich uses one model call for summary plus translation. Returns
// false when the processor should run the deterministic fallback instead.
func (p *Processor) geminiEnrich(ctx context.Context, a *article.Article) bool {
	res, err := p.gemini.SummarizeAndTranslate(ctx, a.Title, a.BodyText, p.opts.TargetLanguage)
	if err != nil {
		if !errors.Is(err, ai.ErrBudgetExhausted) {
			logger.Debug("gemini enrichment failed", "url", a.URL, "error", err)
		}
		return false
	}
	a.Summary = res.Summary
	if a.Language != p.opts.TargetLanguage && res.Translated != "" {
		a.TranslatedSummary = res.Translated
		p.translateTitle(ctx, a)
		metrics.Global.IncrementSuccessfulTranslations()
	}
	return true
}

func (p *Processor) translateFields(ctx context.Context, a *article.Article) {
	if a.Language == p.opts.TargetLanguage || p.translator == nil {
		return
	}
	p.translateTitle(ctx, a)

	if a.Summary == "" {
		return
	}
	translated, err := p.translator.Translate(ctx, a.Summary, a.Language, p.opts.TargetLanguage)
	if err != nil {
		a.Untranslated = true
		metrics.Global.IncrementFailedTranslations()
		logger.Warn("summary translation failed", "url", a.URL, "error", err)
		return
	}
	a.TranslatedSummary = translated
	metrics.Global.IncrementSuccessfulTranslations()
}

func (p *Processor) translateTitle(ctx context.Context, a *article.Article) {
	if p.translator == nil || a.Title == "" || a.TranslatedTitle != "" {
		return
	}
	tctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	translated, err := p.translator.Translate(tctx, a.Title, a.Language, p.opts.TargetLanguage)
	if err != nil {
		a.Untranslated = true
		return
	}
	a.TranslatedTitle = translated
}
