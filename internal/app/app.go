// Package app wires the pipeline together: fetch, dedupe, filter,
// enrich, categorize, render, persist. One run is atomic; it either
// produces a digest or reports total failure.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/alpenbrief/alpnews/internal/ai"
	"github.com/alpenbrief/alpnews/internal/article"
	"github.com/alpenbrief/alpnews/internal/config"
	"github.com/alpenbrief/alpnews/internal/digest"
	"github.com/alpenbrief/alpnews/internal/logger"
	"github.com/alpenbrief/alpnews/internal/metrics"
	"github.com/alpenbrief/alpnews/internal/process"
	"github.com/alpenbrief/alpnews/internal/relevance"
	"github.com/alpenbrief/alpnews/internal/retry"
	"github.com/alpenbrief/alpnews/internal/scraper"
	"github.com/alpenbrief/alpnews/internal/source"
	"github.com/alpenbrief/alpnews/internal/storage"
	"github.com/alpenbrief/alpnews/internal/translate"
)

// Report summarizes one completed run.
type Report struct {
	Fetched    int
	Duplicates int
	SeenSkip   int
	Kept       int
	Discarded  int
	DigestPath string
	DumpPath   string
	Duration   time.Duration
}

type Agent struct {
	cfg       *config.Config
	registry  *source.Registry
	engine    *relevance.Engine
	processor *process.Processor
	store     *storage.Store
	seen      *storage.SeenLedger
	gemini    *ai.Client
}

// New assembles the full pipeline from configuration. Adapters without
// credentials are left out; a registry with zero adapters is an error.
func New(ctx context.Context, cfg *config.Config) (*Agent, error) {
	engine, err := relevance.New(cfg.Categories, cfg.RelevanceThreshold, cfg.CategoryThreshold, relevance.Policy(cfg.ScorePolicy))
	if err != nil {
		return nil, fmt.Errorf("build relevance engine: %w", err)
	}

	registry := buildRegistry(cfg)
	if registry.Len() == 0 {
		return nil, fmt.Errorf("no sources configured: set provider API keys or RSS feeds")
	}

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	var seen *storage.SeenLedger
	if cfg.SeenTTLHours > 0 {
		seen = storage.OpenSeenLedger(store.DataDir(), time.Duration(cfg.SeenTTLHours)*time.Hour)
	}

	var gemini *ai.Client
	if cfg.GeminiAPIKey != "" {
		gemini, err = ai.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Warn("gemini unavailable, using extractive summaries", "error", err)
			gemini = nil
		}
	}

	retryCfg := retry.Config{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay}
	translator := translate.New(cfg.OpenAIKey, cfg.RequestTimeout, retryCfg)
	processor := process.New(scraper.New(cfg.RequestTimeout), translator, gemini, process.Options{
		TargetLanguage: cfg.TargetLanguage,
		Concurrency:    cfg.ScrapeConcurrency,
		MaxAIRequests:  cfg.MaxAIRequests,
	})

	return &Agent{
		cfg:       cfg,
		registry:  registry,
		engine:    engine,
		processor: processor,
		store:     store,
		seen:      seen,
		gemini:    gemini,
	}, nil
}

func buildRegistry(cfg *config.Config) *source.Registry {
	var adapters []source.Adapter
	maxAge := cfg.NewsMaxAge()

	if cfg.NewsAPIKey != "" {
		adapters = append(adapters, source.NewNewsAPI(cfg.Sources.NewsAPI, cfg.NewsAPIKey, maxAge, cfg.RequestTimeout))
	}
	if cfg.GuardianKey != "" {
		adapters = append(adapters, source.NewGuardian(cfg.Sources.Guardian, cfg.GuardianKey, maxAge, cfg.RequestTimeout))
	}
	if cfg.MediaStackKey != "" {
		adapters = append(adapters, source.NewMediaStack(cfg.Sources.MediaStack, cfg.MediaStackKey, maxAge, cfg.RequestTimeout))
	}
	if len(cfg.Sources.RSS.Feeds) > 0 {
		adapters = append(adapters, source.NewRSS(cfg.Sources.RSS, maxAge, cfg.RequestTimeout))
	}
	return source.NewRegistry(adapters...)
}

func (a *Agent) Close() {
	if a.gemini != nil {
		a.gemini.Close()
	}
}

// RunOnce executes one complete scan for the given run date. It returns an
// error only on total failure: every source failed, nothing survived the
// relevance filter, or an artifact could not be persisted.
func (a *Agent) RunOnce(ctx context.Context, now time.Time) (*Report, error) {
	start := time.Now()
	logger.Info("run started", "date", now.Format("2006-01-02"), "sources", a.registry.Len())

	fetched, failures := a.registry.FetchAll(ctx)
	if failures == a.registry.Len() {
		err := fmt.Errorf("all %d sources failed", failures)
		metrics.Global.SetError(err.Error())
		return nil, err
	}
	metrics.Global.AddFetched(len(fetched))
	if len(fetched) == 0 {
		err := fmt.Errorf("no articles fetched from any source")
		metrics.Global.SetError(err.Error())
		return nil, err
	}

	deduped := article.Dedupe(fetched)
	duplicates := len(fetched) - len(deduped)
	metrics.Global.AddDuplicates(duplicates)

	unseen := a.filterSeen(deduped)
	seenSkip := len(deduped) - len(unseen)
	metrics.Global.AddSeenSkipped(seenSkip)

	kept, discarded := a.engine.Filter(unseen)
	metrics.Global.AddDiscarded(discarded)
	if len(kept) == 0 {
		err := fmt.Errorf("no articles passed the relevance filter (fetched %d)", len(fetched))
		metrics.Global.SetError(err.Error())
		return nil, err
	}
	if a.cfg.MaxArticles > 0 && len(kept) > a.cfg.MaxArticles {
		kept = kept[:a.cfg.MaxArticles]
	}
	metrics.Global.AddKept(len(kept))
	logger.Info("relevance filter applied", "kept", len(kept), "discarded", discarded, "duplicates", duplicates, "seen_skipped", seenSkip)

	a.processor.ProcessAll(ctx, kept)

	for i := range kept {
		kept[i].Categories = a.engine.Categorize(kept[i])
	}

	markdown := digest.Render(kept, now, a.sectionOrder(kept))

	dumpPath, err := a.store.SaveArticles(kept, now)
	if err != nil {
		metrics.Global.SetError(err.Error())
		return nil, err
	}
	digestPath, err := a.store.SaveDigest(markdown, now)
	if err != nil {
		metrics.Global.SetError(err.Error())
		return nil, err
	}
	metrics.Global.IncrementDigestsWritten()

	if a.seen != nil {
		ids := make([]string, len(kept))
		for i, art := range kept {
			ids[i] = art.ID
		}
		a.seen.MarkSeen(ids...)
		if err := a.seen.Flush(); err != nil {
			logger.Warn("could not persist seen ledger", "error", err)
		}
	}

	duration := time.Since(start)
	metrics.Global.SetLastRun(duration)
	logger.Info("run finished", "digest", digestPath, "articles", len(kept), "duration", duration.Round(time.Millisecond))

	return &Report{
		Fetched:    len(fetched),
		Duplicates: duplicates,
		SeenSkip:   seenSkip,
		Kept:       len(kept),
		Discarded:  discarded,
		DigestPath: digestPath,
		DumpPath:   dumpPath,
		Duration:   duration,
	}, nil
}

func (a *Agent) filterSeen(articles []article.Article) []article.Article {
	if a.seen == nil {
		return articles
	}
	out := articles[:0]
	for _, art := range articles {
		if a.seen.IsSeen(art.ID) {
			continue
		}
		out = append(out, art)
	}
	return out
}

// sectionOrder is the configured category order plus a trailing default
// section when any article fell through to it.
func (a *Agent) sectionOrder(articles []article.Article) []string {
	order := a.cfg.CategoryOrder
	for _, cat := range order {
		if cat == relevance.DefaultCategory {
			return order
		}
	}
	for _, art := range articles {
		for _, cat := range art.Categories {
			if cat == relevance.DefaultCategory {
				return append(append([]string{}, order...), relevance.DefaultCategory)
			}
		}
	}
	return order
}
