package config

import (
	"os"
	"testing"
	"time"
)

func setupTestEnv(t *testing.T, envVars map[string]string) func() {
	t.Helper()
	os.Clearenv()
	for k, v := range envVars {
		if err := os.Setenv(k, v); err != nil {
			t.Fatalf("failed to set env var %s: %v", k, err)
		}
	}
	return func() {
		os.Clearenv()
	}
}

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = "this-is-a-long-enough-test-secret-value"
	return cfg
}

func TestConfig_Validate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfig_Validate_Server(t *testing.T) {
	cases := []struct {
		name    string
		port    int
		wantErr bool
	}{
		{"valid port", 8080, false},
		{"zero port", 0, true},
		{"negative port", -1, true},
		{"port too high", 70000, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Port = tc.port
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_Validate_JWTSecret(t *testing.T) {
	cases := []struct {
		name        string
		secret      string
		environment string
		wantErr     bool
	}{
		{"empty in development", "", "development", false},
		{"empty in production", "", "production", true},
		{"too short", "short", "development", true},
		{"placeholder rejected", "CHANGEME-please-replace-this-secret-value", "development", true},
		{"valid secret", "a-sufficiently-long-random-secret-value", "production", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Server.Environment = tc.environment
			cfg.Security.JWTSecret = tc.secret
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_Validate_WildcardCORSProduction(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Environment = "production"
	cfg.Security.CORSOrigins = []string{"*"}

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected wildcard CORS in production to be rejected")
	}
}

func TestConfig_Validate_RateLimitBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Security.RateLimitReqs = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for zero rate limit requests")
	}

	cfg = validConfig()
	cfg.Security.RateLimitDisabled = true
	cfg.Security.RateLimitReqs = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled rate limiting should skip bounds check: %v", err)
	}
}

func TestConfig_Validate_CacheBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Backend = "redis"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unsupported cache backend")
	}

	cfg = validConfig()
	cfg.Cache.Backend = "badger"
	cfg.Cache.BadgerPath = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for badger backend without a path")
	}
}

func TestConfig_Validate_VectorIndexEFSearch(t *testing.T) {
	cfg := validConfig()
	cfg.VectorIdx.DefaultTopK = 50
	cfg.VectorIdx.EFSearch = 10
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when ef_search < default_top_k")
	}
}

func TestConfig_Validate_TaskRunner(t *testing.T) {
	cfg := validConfig()
	cfg.TaskRunner.Workers = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for zero workers")
	}

	cfg = validConfig()
	cfg.TaskRunner.RetryMaxDelay = 0
	cfg.TaskRunner.RetryBaseDelay = time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when retry_max_delay < retry_base_delay")
	}
}

func TestConfig_IsProduction(t *testing.T) {
	cfg := defaultConfig()
	if cfg.IsProduction() {
		t.Fatalf("default environment should not be production")
	}
	cfg.Server.Environment = "production"
	if !cfg.IsProduction() {
		t.Fatalf("expected IsProduction() to be true")
	}
}

func TestConfig_Addr(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 9090
	if got, want := cfg.Addr(), "127.0.0.1:9090"; got != want {
		t.Fatalf("Addr() = %q, want %q", got, want)
	}
}
