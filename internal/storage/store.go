// Package storage persists run artifacts: the raw article dump, the rendered
// digest, and the cross-run seen ledger.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alpenbrief/alpnews/internal/article"
	"github.com/alpenbrief/alpnews/internal/logger"
)

type Store struct {
	dataDir string
}

func New(dataDir string) (*Store, error) {
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dataDir, err)
	}
	return &Store{dataDir: dataDir}, nil
}

func (s *Store) DataDir() string { return s.dataDir }

// SaveArticles writes the raw article dump for the run date.
func (s *Store) SaveArticles(articles []article.Article, date time.Time) (string, error) {
	path := filepath.Join(s.dataDir, fmt.Sprintf("articles_%s.json", date.Format("2006-01-02")))
	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal articles: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info("saved article dump", "path", path, "count", len(articles))
	return path, nil
}

// SaveDigest writes the rendered markdown digest for the run date.
func (s *Store) SaveDigest(markdown string, date time.Time) (string, error) {
	path := filepath.Join(s.dataDir, fmt.Sprintf("digest_%s.md", date.Format("2006-01-02")))
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info("saved digest", "path", path)
	return path, nil
}
