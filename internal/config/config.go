// Package config provides centralized configuration management for the
// recommendation and courier ranking service.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in sensible defaults for every setting
//  2. Config File: optional YAML config file (config.yaml)
//  3. Environment Variables: override any setting via environment variables
//
// Config is immutable after Load() and safe for concurrent read access from
// multiple goroutines.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
	Cache      CacheConfig      `koanf:"cache"`
	Embedding  EmbeddingConfig  `koanf:"embedding"`
	Sentiment  SentimentConfig  `koanf:"sentiment"`
	VectorIdx  VectorIndexConfig `koanf:"vector_index"`
	Ranking    RankingConfig    `koanf:"ranking"`
	Courier    CourierConfig    `koanf:"courier"`
	Repository RepositoryConfig `koanf:"repository"`
	TaskRunner TaskRunnerConfig `koanf:"task_runner"`
	Breaker    BreakerConfig    `koanf:"breaker"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development", "staging", "production"
}

// SecurityConfig holds authentication, CORS, and rate limiting settings.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	// AuthMode is "jwt" (default, every non-admin route requires a valid
	// bearer token) or "none" (local development: auth is skipped entirely
	// outside /admin/*, which always requires an admin-role JWT).
	AuthMode string `koanf:"auth_mode"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// CacheConfig holds the tolerance-aware distributed cache settings (C8).
type CacheConfig struct {
	Backend          string        `koanf:"backend"` // "memory" or "badger"
	BadgerPath       string        `koanf:"badger_path"`
	TTL              time.Duration `koanf:"ttl"`
	SentimentBucket  float64       `koanf:"sentiment_bucket"` // tau for score bucketing/fuzzy match
	EvictionPolicy   string        `koanf:"eviction_policy"`  // "lru", "lfu", "ttl"
	MaxEntries       int           `koanf:"max_entries"`
	BloomExpected    uint          `koanf:"bloom_expected_items"`
	BloomFalsePosRate float64      `koanf:"bloom_false_positive_rate"`
}

// EmbeddingConfig holds semantic embedding service settings (C4).
type EmbeddingConfig struct {
	Dimensions int           `koanf:"dimensions"`
	Timeout    time.Duration `koanf:"timeout"`
}

// SentimentConfig holds sentiment scoring settings (C5).
type SentimentConfig struct {
	ModelClasses int           `koanf:"model_classes"` // 2, 3, or 5-class model
	Timeout      time.Duration `koanf:"timeout"`
	LexiconPath  string        `koanf:"lexicon_path"` // optional Aho-Corasick fast-path lexicon
}

// VectorIndexConfig holds nearest-neighbor index settings (C6).
type VectorIndexConfig struct {
	Backend           string `koanf:"backend"` // "memory" or "badger"
	BadgerPath        string `koanf:"badger_path"`
	M                 int    `koanf:"m"`                  // HNSW-equivalent fan-out
	EFConstruct       int    `koanf:"ef_construct"`
	EFSearch          int    `koanf:"ef_search"`
	FullScanThreshold int    `koanf:"full_scan_threshold"`
	DefaultTopK       int    `koanf:"default_top_k"`
}

// RankingConfig holds fusion ranking weights for the recommendation pipeline (C9).
type RankingConfig struct {
	SimilarityWeight  float64 `koanf:"similarity_weight"`
	AvailabilityBoost float64 `koanf:"availability_boost"`
	ReputationWeight  float64 `koanf:"reputation_weight"`
	MinimumScore      float64 `koanf:"minimum_score"`
}

// CourierConfig holds AHP/TOPSIS/geofence settings for the courier ranking pipeline (C1-C3, C11).
type CourierConfig struct {
	StandardToleranceKM float64 `koanf:"standard_tolerance_km"`
	ExpressToleranceKM  float64 `koanf:"express_tolerance_km"`
	SamedayToleranceKM  float64 `koanf:"sameday_tolerance_km"`
}

// RepositoryConfig holds product repository settings (C7).
type RepositoryConfig struct {
	Capacity int `koanf:"capacity"`
}

// TaskRunnerConfig holds async worker pool settings (C12/C13).
type TaskRunnerConfig struct {
	Workers           int           `koanf:"workers"`
	QueueBuffer       int           `koanf:"queue_buffer"`
	RetryMaxAttempts  int           `koanf:"retry_max_attempts"`
	RetryBaseDelay    time.Duration `koanf:"retry_base_delay"`
	RetryMaxDelay     time.Duration `koanf:"retry_max_delay"`
	HealthCheckPeriod time.Duration `koanf:"health_check_period"`
	// MaxDispatchRate bounds task dispatch to this many per second across all
	// queues (0 = unbounded), protecting downstream collaborators from a
	// burst of queued work all draining at once.
	MaxDispatchRate float64 `koanf:"max_dispatch_rate"`
}

// BreakerConfig holds circuit breaker settings shared by embedding/sentiment/index/repository clients.
type BreakerConfig struct {
	MaxRequests uint32        `koanf:"max_requests"`
	Interval    time.Duration `koanf:"interval"`
	Timeout     time.Duration `koanf:"timeout"`
	FailureRate float64       `koanf:"failure_rate"`
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "" || c.Server.Environment == "development"
}

// Load reads configuration from defaults, an optional YAML file, and
// environment variables, in that order of increasing precedence.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

func addr(cfg *Config) string {
	return fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
}

// Addr returns the host:port the HTTP server should bind to.
func (c *Config) Addr() string {
	return addr(c)
}
