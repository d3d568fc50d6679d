package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/ranking/config.yaml",
	"/etc/ranking/config.yml",
}

// ConfigPathEnvVar is the environment variable that overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Security: SecurityConfig{
			JWTSecret:         "",
			SessionTimeout:    24 * time.Hour,
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			AuthMode:          "jwt",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Cache: CacheConfig{
			Backend:           "memory",
			BadgerPath:        "/data/cache",
			TTL:               1 * time.Hour,
			SentimentBucket:   0.1,
			EvictionPolicy:    "lru",
			MaxEntries:        100000,
			BloomExpected:     1_000_000,
			BloomFalsePosRate: 0.01,
		},
		Embedding: EmbeddingConfig{
			Dimensions: 384,
			Timeout:    2 * time.Second,
		},
		Sentiment: SentimentConfig{
			ModelClasses: 3,
			Timeout:      2 * time.Second,
			LexiconPath:  "",
		},
		VectorIdx: VectorIndexConfig{
			Backend:           "memory",
			BadgerPath:        "/data/vectorindex",
			M:                 16,
			EFConstruct:       100,
			EFSearch:          128,
			FullScanThreshold: 10000,
			DefaultTopK:       10,
		},
		Ranking: RankingConfig{
			SimilarityWeight:  0.6,
			AvailabilityBoost: 0,
			ReputationWeight:  0.15,
			MinimumScore:      0,
		},
		Courier: CourierConfig{
			StandardToleranceKM: 2.5,
			ExpressToleranceKM:  1.5,
			SamedayToleranceKM:  1.0,
		},
		Repository: RepositoryConfig{
			Capacity: 100000,
		},
		TaskRunner: TaskRunnerConfig{
			Workers:           4,
			QueueBuffer:       256,
			RetryMaxAttempts:  3,
			RetryBaseDelay:    1 * time.Second,
			RetryMaxDelay:     600 * time.Second,
			HealthCheckPeriod: 300 * time.Second,
			MaxDispatchRate:   50,
		},
		Breaker: BreakerConfig{
			MaxRequests: 5,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			FailureRate: 0.6,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config File: optional YAML config file (if present)
//  3. Environment Variables: override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// CORS_ORIGINS -> security.cors_origins (names missing from envTransformFunc's table are ignored)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		"jwt_secret":          "security.jwt_secret",
		"session_timeout":     "security.session_timeout",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		"cache_backend":             "cache.backend",
		"cache_badger_path":         "cache.badger_path",
		"cache_ttl":                 "cache.ttl",
		"cache_sentiment_bucket":    "cache.sentiment_bucket",
		"cache_eviction_policy":     "cache.eviction_policy",
		"cache_max_entries":         "cache.max_entries",
		"cache_bloom_expected":      "cache.bloom_expected_items",
		"cache_bloom_false_pos":     "cache.bloom_false_positive_rate",

		"embedding_dimensions": "embedding.dimensions",
		"embedding_timeout":    "embedding.timeout",

		"sentiment_model_classes": "sentiment.model_classes",
		"sentiment_timeout":       "sentiment.timeout",
		"sentiment_lexicon_path":  "sentiment.lexicon_path",

		"vector_index_backend":            "vector_index.backend",
		"vector_index_badger_path":        "vector_index.badger_path",
		"vector_index_m":                  "vector_index.m",
		"vector_index_ef_construct":       "vector_index.ef_construct",
		"vector_index_ef_search":          "vector_index.ef_search",
		"vector_index_full_scan_threshold": "vector_index.full_scan_threshold",
		"vector_index_default_top_k":      "vector_index.default_top_k",

		"ranking_similarity_weight":  "ranking.similarity_weight",
		"ranking_availability_boost": "ranking.availability_boost",
		"ranking_reputation_weight":  "ranking.reputation_weight",
		"ranking_minimum_score":      "ranking.minimum_score",

		"courier_standard_tolerance_km": "courier.standard_tolerance_km",
		"courier_express_tolerance_km":  "courier.express_tolerance_km",
		"courier_sameday_tolerance_km":  "courier.sameday_tolerance_km",

		"repository_capacity": "repository.capacity",

		"task_runner_workers":             "task_runner.workers",
		"task_runner_queue_buffer":        "task_runner.queue_buffer",
		"task_runner_retry_max_attempts":  "task_runner.retry_max_attempts",
		"task_runner_retry_base_delay":    "task_runner.retry_base_delay",
		"task_runner_retry_max_delay":     "task_runner.retry_max_delay",
		"task_runner_health_check_period": "task_runner.health_check_period",
		"task_runner_max_dispatch_rate":   "task_runner.max_dispatch_rate",

		"breaker_max_requests": "breaker.max_requests",
		"breaker_interval":     "breaker.interval",
		"breaker_timeout":      "breaker.timeout",
		"breaker_failure_rate": "breaker.failure_rate",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}

// GetKoanfInstance returns a new Koanf instance for advanced usage (hot-reload, testing).
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// The caller is responsible for mutex protection when accessing configuration during reloads.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
