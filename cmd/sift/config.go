package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/sift"
	"github.com/fwojciec/sift/crawl"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file.
const (
	maxAttemptsTotalEnv   = "MAX_ATTEMPTS_TOTAL"
	maxAttemptsPerStepEnv = "MAX_ATTEMPTS_PER_STEP"
	fetchTimeoutEnv       = "FETCH_TIMEOUT_MS"
	userAgentEnv          = "USER_AGENT"
	concurrencyEnv        = "CONCURRENCY"
	urlTTLEnv             = "DEDUP_URL_TTL_DAYS"
	hammingThresholdEnv   = "DEDUP_HAMMING_THRESHOLD"
	dbPathEnv             = "SIFT_DB"
	redisURLEnv           = "REDIS_URL"
	newsAPIKeyEnv         = "NEWSAPI_KEY"
	geminiAPIKeyEnv       = "GEMINI_API_KEY"
)

// Extractor names accepted by the extractor setting.
const (
	extractorTrafilatura = "trafilatura"
	extractorReadability = "readability"
	extractorGoquery     = "goquery"
)

// Config is the file and environment configuration of the CLI.
type Config struct {
	DB        string    `yaml:"db"`
	RedisURL  string    `yaml:"redis_url"`
	Extractor string    `yaml:"extractor"`
	Crawl     Crawl     `yaml:"crawl"`
	Dedup     Dedup     `yaml:"dedup"`
	RateLimit RateLimit `yaml:"rate_limit"`
	Search    Search    `yaml:"search"`
	Gemini    Gemini    `yaml:"gemini"`
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
}

type Crawl struct {
	MaxAttemptsTotal   int      `yaml:"max_attempts_total"`
	MaxAttemptsPerStep int      `yaml:"max_attempts_per_step"`
	FetchTimeoutMS     int      `yaml:"fetch_timeout_ms"`
	RedirectTimeoutMS  int      `yaml:"redirect_timeout_ms"`
	SearchTimeoutMS    int      `yaml:"search_timeout_ms"`
	UserAgent          string   `yaml:"user_agent"`
	Concurrency        int      `yaml:"concurrency"`
	BatchDelayMS       int      `yaml:"batch_delay_ms"`
	MinTextLength      int      `yaml:"min_text_length"`
	MaxQueries         int      `yaml:"max_queries"`
	MaxCandidates      int      `yaml:"max_candidates"`
	PageSize           int      `yaml:"page_size"`
	Sites              []string `yaml:"sites"`
}

type Dedup struct {
	URLTTLDays        int `yaml:"url_ttl_days"`
	HammingThreshold  int `yaml:"hamming_threshold"`
	FingerprintWindow int `yaml:"fingerprint_window"`
}

type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type Search struct {
	Wikipedia  bool               `yaml:"wikipedia"`
	Archive    bool               `yaml:"archive"`
	NewsAPIKey string             `yaml:"newsapi_key"`
	Feeds      []string           `yaml:"feeds"`
	Priorities map[string]float64 `yaml:"priorities"`
}

type Gemini struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Extractor: extractorTrafilatura,
		Crawl: Crawl{
			MaxAttemptsTotal:   40,
			MaxAttemptsPerStep: 10,
			FetchTimeoutMS:     15000,
			RedirectTimeoutMS:  3000,
			SearchTimeoutMS:    10000,
			Concurrency:        4,
			MaxQueries:         5,
			MaxCandidates:      30,
			PageSize:           10,
		},
		Dedup: Dedup{
			URLTTLDays:        30,
			HammingThreshold:  sift.DefaultHammingThreshold,
			FingerprintWindow: sift.DefaultFingerprintWindow,
		},
		RateLimit: RateLimit{RPS: 1, Burst: 1},
		Search: Search{
			Wikipedia: true,
			Archive:   true,
		},
		Server:  Server{Addr: ":8080"},
		Logging: Logging{Level: "INFO", Format: "text"},
	}
}

// LoadConfig reads the YAML file at path over the defaults and applies
// environment overrides. An empty path skips the file.
func LoadConfig(path string, getenv func(string) string) (*Config, error) {
	var data []byte
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		data = b
	}
	cfg, err := parseConfig(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnvOverrides(getenv); err != nil {
		return nil, err
	}
	if cfg.DB == "" {
		cfg.DB = defaultDBPath()
	}
	return cfg, cfg.Validate()
}

func parseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides(getenv func(string) string) error {
	ints := []struct {
		env string
		dst *int
	}{
		{maxAttemptsTotalEnv, &c.Crawl.MaxAttemptsTotal},
		{maxAttemptsPerStepEnv, &c.Crawl.MaxAttemptsPerStep},
		{fetchTimeoutEnv, &c.Crawl.FetchTimeoutMS},
		{concurrencyEnv, &c.Crawl.Concurrency},
		{urlTTLEnv, &c.Dedup.URLTTLDays},
		{hammingThresholdEnv, &c.Dedup.HammingThreshold},
	}
	for _, v := range ints {
		s := strings.TrimSpace(getenv(v.env))
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return sift.Errorf(sift.EINVALID, "%s must be an integer, got %q", v.env, s)
		}
		*v.dst = n
	}

	if v := getenv(userAgentEnv); v != "" {
		c.Crawl.UserAgent = v
	}
	if v := getenv(dbPathEnv); v != "" {
		c.DB = v
	}
	if v := getenv(redisURLEnv); v != "" {
		c.RedisURL = v
	}
	if v := getenv(newsAPIKeyEnv); v != "" {
		c.Search.NewsAPIKey = v
	}
	if v := getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}
	return nil
}

// Validate returns an error if the configuration contains invalid values.
func (c *Config) Validate() error {
	switch c.Extractor {
	case extractorTrafilatura, extractorReadability, extractorGoquery:
	default:
		return sift.Errorf(sift.EINVALID, "unknown extractor %q", c.Extractor)
	}
	if c.Crawl.MaxAttemptsTotal <= 0 || c.Crawl.MaxAttemptsPerStep <= 0 {
		return sift.Errorf(sift.EINVALID, "attempt caps must be positive")
	}
	if c.Crawl.FetchTimeoutMS <= 0 || c.Crawl.RedirectTimeoutMS <= 0 || c.Crawl.SearchTimeoutMS <= 0 {
		return sift.Errorf(sift.EINVALID, "timeouts must be positive")
	}
	if c.Crawl.Concurrency <= 0 {
		return sift.Errorf(sift.EINVALID, "concurrency must be positive")
	}
	if c.Dedup.HammingThreshold < 0 || c.Dedup.HammingThreshold > 64 {
		return sift.Errorf(sift.EINVALID, "hamming threshold must be between 0 and 64")
	}
	return nil
}

// FetchTimeout returns the per-request fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Crawl.FetchTimeoutMS) * time.Millisecond
}

// RedirectTimeout returns the timeout of the redirect hop taken during
// canonicalization.
func (c *Config) RedirectTimeout() time.Duration {
	return time.Duration(c.Crawl.RedirectTimeoutMS) * time.Millisecond
}

// SearchTimeout returns the per-provider search timeout.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Crawl.SearchTimeoutMS) * time.Millisecond
}

// CrawlConfig returns the pipeline settings, with sites appended to the
// configured site allowlist.
func (c *Config) CrawlConfig(sites []string) crawl.Config {
	return crawl.Config{
		MaxAttemptsTotal:   c.Crawl.MaxAttemptsTotal,
		MaxAttemptsPerStep: c.Crawl.MaxAttemptsPerStep,
		Concurrency:        c.Crawl.Concurrency,
		BatchDelay:         time.Duration(c.Crawl.BatchDelayMS) * time.Millisecond,
		MinTextLength:      c.Crawl.MinTextLength,
		HammingThreshold:   c.Dedup.HammingThreshold,
		MaxQueries:         c.Crawl.MaxQueries,
		Sites:              slices.Concat(c.Crawl.Sites, sites),
		MaxCandidates:      c.Crawl.MaxCandidates,
		PageSize:           c.Crawl.PageSize,
		SearchTimeout:      c.SearchTimeout(),
		RedirectTimeout:    c.RedirectTimeout(),
	}
}

// URLTTL returns how long a claimed URL blocks re-ingestion.
func (c *Config) URLTTL() time.Duration {
	return time.Duration(c.Dedup.URLTTLDays) * 24 * time.Hour
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sift.db"
	}
	dir := filepath.Join(home, ".sift")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "sift.db")
}
