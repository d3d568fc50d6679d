package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	if err := c.validateVectorIndex(); err != nil {
		return err
	}

	if err := c.validateCourier(); err != nil {
		return err
	}

	if err := c.validateTaskRunner(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

// validateSecurity validates authentication, CORS, and rate limit configuration.
func (c *Config) validateSecurity() error {
	if err := c.validateCORS(); err != nil {
		return err
	}

	if err := c.validateRateLimits(); err != nil {
		return err
	}

	return c.validateJWTSecret()
}

// validateCORS rejects wildcard CORS in production, since this service always
// authenticates requests via bearer JWT and wildcard + auth leaks credentials
// to any origin.
func (c *Config) validateCORS() error {
	if c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("security.cors_origins=* (wildcard) is not allowed in production. " +
			"Set specific origins: CORS_ORIGINS=https://yourdomain.com,https://app.yourdomain.com")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS returns true if CORS configuration has security concerns
// that should be logged at startup.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.hasWildcardCORS()
}

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}

	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validateJWTSecret validates the JWT signing secret. In production a secret
// is mandatory; in development an empty secret is tolerated so local runs
// don't require generating one.
func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		return nil
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for security")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}
	return nil
}

func (c *Config) validateCache() error {
	validEviction := map[string]bool{"lru": true, "lfu": true, "ttl": true}
	if !validEviction[c.Cache.EvictionPolicy] {
		return fmt.Errorf("cache.eviction_policy must be one of: lru, lfu, ttl")
	}
	validBackend := map[string]bool{"memory": true, "badger": true}
	if !validBackend[c.Cache.Backend] {
		return fmt.Errorf("cache.backend must be one of: memory, badger")
	}
	if c.Cache.Backend == "badger" && c.Cache.BadgerPath == "" {
		return fmt.Errorf("cache.badger_path is required when cache.backend is badger")
	}
	if c.Cache.SentimentBucket <= 0 {
		return fmt.Errorf("cache.sentiment_bucket must be greater than 0")
	}
	return nil
}

func (c *Config) validateVectorIndex() error {
	validBackend := map[string]bool{"memory": true, "badger": true}
	if !validBackend[c.VectorIdx.Backend] {
		return fmt.Errorf("vector_index.backend must be one of: memory, badger")
	}
	if c.VectorIdx.Backend == "badger" && c.VectorIdx.BadgerPath == "" {
		return fmt.Errorf("vector_index.badger_path is required when vector_index.backend is badger")
	}
	if c.VectorIdx.EFSearch < c.VectorIdx.DefaultTopK {
		return fmt.Errorf("vector_index.ef_search must be >= vector_index.default_top_k")
	}
	return nil
}

func (c *Config) validateCourier() error {
	if c.Courier.StandardToleranceKM <= 0 || c.Courier.ExpressToleranceKM <= 0 || c.Courier.SamedayToleranceKM <= 0 {
		return fmt.Errorf("courier tolerance values must be greater than 0")
	}
	return nil
}

func (c *Config) validateTaskRunner() error {
	if c.TaskRunner.Workers < 1 {
		return fmt.Errorf("task_runner.workers must be at least 1")
	}
	if c.TaskRunner.RetryMaxAttempts < 1 {
		return fmt.Errorf("task_runner.retry_max_attempts must be at least 1")
	}
	if c.TaskRunner.RetryBaseDelay <= 0 || c.TaskRunner.RetryMaxDelay < c.TaskRunner.RetryBaseDelay {
		return fmt.Errorf("task_runner.retry_max_delay must be >= task_runner.retry_base_delay")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"json": true, "console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real secret value.
var placeholderPatterns = []string{
	"REPLACE", "CHANGEME", "CHANGE_ME", "YOUR_SECRET", "YOUR_PASSWORD",
	"PLACEHOLDER", "TODO", "FIXME", "XXX", "EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	return containsAnyPattern(upperValue, placeholderPatterns)
}

func containsAnyPattern(s string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(s, pattern) {
			return true
		}
	}
	return false
}
