/*
Package config provides centralized configuration management for the
recommendation and courier ranking service.

# Configuration Sources

The package reads configuration from, in increasing order of precedence:
  - Built-in defaults
  - An optional YAML config file (config.yaml, or the path named by CONFIG_PATH)
  - Environment variables

# Configuration Structure

  - ServerConfig: HTTP server bind address, port, timeout, environment
  - SecurityConfig: JWT secret, session timeout, CORS, rate limiting
  - LoggingConfig: zerolog level/format/caller
  - CacheConfig: tolerance-aware cache backend, TTL, eviction policy, bloom filter sizing
  - EmbeddingConfig: embedding vector dimensionality and call timeout
  - SentimentConfig: sentiment model class count, timeout, optional lexicon path
  - VectorIndexConfig: nearest-neighbor index backend and HNSW-equivalent parameters
  - RankingConfig: fusion ranking weights for the recommendation pipeline
  - CourierConfig: geofence tolerance per delivery urgency
  - RepositoryConfig: product repository capacity
  - TaskRunnerConfig: async worker pool sizing and retry policy
  - BreakerConfig: circuit breaker thresholds shared by external-call clients

# Usage Example

	cfg, err := config.Load()
	if err != nil {
	    log.Fatalf("failed to load config: %v", err)
	}
	fmt.Printf("listening on %s\n", cfg.Addr())

# Validation

Load() validates the configuration once and returns an error if required
fields are missing, string lengths or numeric ranges are out of bounds, or
a value combination is inconsistent (e.g. a badger-backed cache without a
storage path). Config is immutable after Load() returns and is safe for
concurrent read access from multiple goroutines.
*/
package config
