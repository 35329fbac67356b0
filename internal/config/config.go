// Package config loads the agent profile: environment for credentials and
// switches, a YAML file for the interest categories and source settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// WeightedTerm is one keyword or phrase with its match weight.
type WeightedTerm struct {
	Term   string  `yaml:"term"`
	Weight float64 `yaml:"weight"`
}

// Category is a named interest bucket defined by weighted terms.
type Category struct {
	Name  string         `yaml:"name"`
	Terms []WeightedTerm `yaml:"terms"`
}

// NewsAPIConfig drives the generic REST news API adapter.
type NewsAPIConfig struct {
	BaseURL    string   `yaml:"baseUrl"`
	Country    string   `yaml:"country"`
	Language   string   `yaml:"language"`
	Categories []string `yaml:"categories"`
	PageSize   int      `yaml:"pageSize"`
}

// GuardianConfig drives the Guardian content API adapter.
type GuardianConfig struct {
	BaseURL  string   `yaml:"baseUrl"`
	Language string   `yaml:"language"`
	Topics   []string `yaml:"topics"`
	PageSize int      `yaml:"pageSize"`
}

// MediaStackConfig drives the MediaStack aggregator adapter.
type MediaStackConfig struct {
	BaseURL  string   `yaml:"baseUrl"`
	Language string   `yaml:"language"`
	Topics   []string `yaml:"topics"`
	Limit    int      `yaml:"limit"`
}

// RSSConfig lists localized feeds polled directly.
type RSSConfig struct {
	Feeds      []string `yaml:"feeds"`
	Language   string   `yaml:"language"`
	MaxPerFeed int      `yaml:"maxPerFeed"`
	SourceName string   `yaml:"sourceName"`
}

// SourcesConfig groups all provider settings.
type SourcesConfig struct {
	NewsAPI    NewsAPIConfig    `yaml:"newsapi"`
	Guardian   GuardianConfig   `yaml:"guardian"`
	MediaStack MediaStackConfig `yaml:"mediastack"`
	RSS        RSSConfig        `yaml:"rss"`
}

// ScheduleConfig defines when the daily scan fires.
type ScheduleConfig struct {
	At       string `yaml:"at"` // "07:00" local time
	Timezone string `yaml:"timezone"`
}

// Location resolves the schedule timezone, reverting to UTC when unknown.
func (s ScheduleConfig) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Config holds everything a single run needs.
type Config struct {
	// Credentials, environment only
	NewsAPIKey    string `yaml:"-"`
	GuardianKey   string `yaml:"-"`
	MediaStackKey string `yaml:"-"`
	GeminiAPIKey  string `yaml:"-"`
	OpenAIKey     string `yaml:"-"`

	TargetLanguage string `yaml:"targetLanguage"`

	// Relevance settings
	RelevanceThreshold float64    `yaml:"relevanceThreshold"`
	CategoryThreshold  float64    `yaml:"categoryThreshold"`
	ScorePolicy        string     `yaml:"scorePolicy"` // "max" or "sum"
	Categories         []Category `yaml:"categories"`
	CategoryOrder      []string   `yaml:"categoryOrder"`

	Sources  SourcesConfig  `yaml:"sources"`
	Schedule ScheduleConfig `yaml:"schedule"`

	// Run limits
	MaxArticles       int `yaml:"maxArticles"`       // cap after filtering, before processing
	NewsMaxAgeHours   int `yaml:"newsMaxAgeHours"`   // drop older items at fetch time
	ScrapeConcurrency int `yaml:"scrapeConcurrency"` // parallel full-text extractions
	MaxAIRequests     int `yaml:"maxAiRequests"`     // Gemini calls per run, 0 = unlimited

	// App settings
	DataDir        string        `yaml:"dataDir"`
	SeenTTLHours   int           `yaml:"seenTtlHours"` // 0 disables the cross-run seen ledger
	RequestTimeout time.Duration `yaml:"-"`
	RetryAttempts  int           `yaml:"retryAttempts"`
	RetryDelay     time.Duration `yaml:"-"`
	Debug          bool          `yaml:"-"`
}

// Load reads the YAML profile (path from AGENT_CONFIG or the default) and
// applies environment overrides.
func Load() (*Config, error) {
	path := getEnvOrDefault("AGENT_CONFIG", "configs/agent.yaml")
	return LoadFile(path)
}

// LoadFile reads one profile file and applies environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, cfg.Validate()
}

func defaults() *Config {
	return &Config{
		TargetLanguage:     "en",
		RelevanceThreshold: 6,
		CategoryThreshold:  2,
		ScorePolicy:        "max",
		Schedule:           ScheduleConfig{At: "07:00", Timezone: "Europe/Vienna"},
		MaxArticles:        30,
		NewsMaxAgeHours:    72,
		ScrapeConcurrency:  8,
		MaxAIRequests:      3,
		DataDir:            "data",
		SeenTTLHours:       48,
		RequestTimeout:     30 * time.Second,
		RetryAttempts:      3,
		RetryDelay:         5 * time.Second,
	}
}

func (c *Config) applyEnvOverrides() {
	c.NewsAPIKey = os.Getenv("NEWS_API_KEY")
	c.GuardianKey = os.Getenv("GUARDIAN_API_KEY")
	c.MediaStackKey = os.Getenv("MEDIASTACK_API_KEY")
	c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")

	if v := os.Getenv("DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("TARGET_LANGUAGE"); v != "" {
		c.TargetLanguage = v
	}
	if v := os.Getenv("SCORE_POLICY"); v != "" {
		c.ScorePolicy = v
	}
	c.RelevanceThreshold = getEnvFloatOrDefault("RELEVANCE_THRESHOLD", c.RelevanceThreshold)
	c.CategoryThreshold = getEnvFloatOrDefault("CATEGORY_THRESHOLD", c.CategoryThreshold)
	c.MaxArticles = getEnvIntOrDefault("MAX_ARTICLES", c.MaxArticles)
	c.MaxAIRequests = getEnvIntOrDefault("MAX_AI_REQUESTS", c.MaxAIRequests)
	c.ScrapeConcurrency = getEnvIntOrDefault("SCRAPE_CONCURRENCY", c.ScrapeConcurrency)
	c.NewsMaxAgeHours = getEnvIntOrDefault("NEWS_MAX_AGE_HOURS", c.NewsMaxAgeHours)
	c.SeenTTLHours = getEnvIntOrDefault("SEEN_TTL_HOURS", c.SeenTTLHours)

	if os.Getenv("DEBUG") == "true" {
		c.Debug = true
	}
}

// Validate checks structural requirements; missing provider keys are not
// fatal because a run degrades to the remaining sources.
func (c *Config) Validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one interest category is required")
	}
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("category with empty name")
		}
		if len(cat.Terms) == 0 {
			return fmt.Errorf("category %q has no terms", cat.Name)
		}
	}
	if c.ScorePolicy != "max" && c.ScorePolicy != "sum" {
		return fmt.Errorf("scorePolicy must be 'max' or 'sum', got %q", c.ScorePolicy)
	}
	if c.RelevanceThreshold < 0 {
		return fmt.Errorf("relevanceThreshold must be >= 0")
	}
	if _, err := time.Parse("15:04", c.Schedule.At); err != nil {
		return fmt.Errorf("schedule.at must be HH:MM, got %q", c.Schedule.At)
	}
	if len(c.CategoryOrder) == 0 {
		for _, cat := range c.Categories {
			c.CategoryOrder = append(c.CategoryOrder, cat.Name)
		}
	}
	return nil
}

// NewsMaxAge is the fetch-time freshness window as a duration.
func (c *Config) NewsMaxAge() time.Duration {
	return time.Duration(c.NewsMaxAgeHours) * time.Hour
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
