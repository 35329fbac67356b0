package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alpenbrief/alpnews/internal/logger"
)

// SeenLedger remembers article IDs across runs so yesterday's stories do not
// reappear in today's digest. Entries expire after the configured TTL.
type SeenLedger struct {
	mu      sync.Mutex
	path    string
	ttl     time.Duration
	entries map[string]time.Time
}

func OpenSeenLedger(dataDir string, ttl time.Duration) *SeenLedger {
	l := &SeenLedger{
		path:    filepath.Join(dataDir, "seen.json"),
		ttl:     ttl,
		entries: make(map[string]time.Time),
	}
	l.load()
	return l
}

func (l *SeenLedger) load() {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("could not read seen ledger, starting empty", "path", l.path, "error", err)
		}
		return
	}
	if err := json.Unmarshal(data, &l.entries); err != nil {
		logger.Warn("corrupt seen ledger, starting empty", "path", l.path, "error", err)
		l.entries = make(map[string]time.Time)
		return
	}
	l.prune(time.Now())
}

func (l *SeenLedger) prune(now time.Time) {
	if l.ttl <= 0 {
		return
	}
	for id, at := range l.entries {
		if now.Sub(at) > l.ttl {
			delete(l.entries, id)
		}
	}
}

func (l *SeenLedger) IsSeen(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	at, ok := l.entries[id]
	if !ok {
		return false
	}
	if l.ttl > 0 && time.Since(at) > l.ttl {
		delete(l.entries, id)
		return false
	}
	return true
}

func (l *SeenLedger) MarkSeen(ids ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	for _, id := range ids {
		l.entries[id] = now
	}
}

// Flush prunes expired entries and writes the ledger back to disk.
func (l *SeenLedger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(time.Now())
	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal seen ledger: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", l.path, err)
	}
	return nil
}
