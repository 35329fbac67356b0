package metrics

import (
	"sync"
	"time"
)

// Metrics aggregates run counters exposed over the monitoring endpoints.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	ArticlesFetched        int64
	DuplicatesCollapsed    int64
	SeenSkipped            int64
	ArticlesDiscarded      int64
	ArticlesKept           int64
	SourceFailures         int64
	ExtractionFailures     int64
	SuccessfulTranslations int64
	FailedTranslations     int64
	DigestsWritten         int64

	// Timings
	LastRunDuration time.Duration

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) AddFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesFetched += int64(n)
}

func (m *Metrics) AddDuplicates(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesCollapsed += int64(n)
}

func (m *Metrics) AddSeenSkipped(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SeenSkipped += int64(n)
}

func (m *Metrics) AddDiscarded(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesDiscarded += int64(n)
}

func (m *Metrics) AddKept(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesKept += int64(n)
}

func (m *Metrics) IncrementSourceFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourceFailures++
}

func (m *Metrics) IncrementExtractionFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExtractionFailures++
}

func (m *Metrics) IncrementSuccessfulTranslations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SuccessfulTranslations++
}

func (m *Metrics) IncrementFailedTranslations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailedTranslations++
}

func (m *Metrics) IncrementDigestsWritten() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DigestsWritten++
}

func (m *Metrics) SetLastRun(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.LastRunDuration = d
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"articles_fetched":        m.ArticlesFetched,
		"duplicates_collapsed":    m.DuplicatesCollapsed,
		"seen_skipped":            m.SeenSkipped,
		"articles_discarded":      m.ArticlesDiscarded,
		"articles_kept":           m.ArticlesKept,
		"source_failures":         m.SourceFailures,
		"extraction_failures":     m.ExtractionFailures,
		"successful_translations": m.SuccessfulTranslations,
		"failed_translations":     m.FailedTranslations,
		"digests_written":         m.DigestsWritten,
		"last_run_duration_ms":    m.LastRunDuration.Milliseconds(),
		"last_run_time":           m.LastRunTime.Format(time.RFC3339),
		"last_error_time":         m.LastErrorTime.Format(time.RFC3339),
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
}
