package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWithKoanf_Defaults(t *testing.T) {
	cleanup := setupTestEnv(t, map[string]string{
		"JWT_SECRET": "a-sufficiently-long-random-secret-value",
	})
	defer cleanup()

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %q, want %q", cfg.Cache.Backend, "memory")
	}
}

func TestLoadWithKoanf_EnvOverride(t *testing.T) {
	cleanup := setupTestEnv(t, map[string]string{
		"JWT_SECRET":           "a-sufficiently-long-random-secret-value",
		"HTTP_PORT":            "9091",
		"CACHE_BACKEND":        "badger",
		"CACHE_BADGER_PATH":    "/tmp/ranking-cache",
		"CORS_ORIGINS":         "https://a.example.com,https://b.example.com",
		"TASK_RUNNER_WORKERS":  "8",
	})
	defer cleanup()

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9091 {
		t.Errorf("Server.Port = %d, want 9091", cfg.Server.Port)
	}
	if cfg.Cache.Backend != "badger" {
		t.Errorf("Cache.Backend = %q, want badger", cfg.Cache.Backend)
	}
	if len(cfg.Security.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v, want 2 entries", cfg.Security.CORSOrigins)
	}
	if cfg.TaskRunner.Workers != 8 {
		t.Errorf("TaskRunner.Workers = %d, want 8", cfg.TaskRunner.Workers)
	}
}

func TestLoadWithKoanf_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := []byte("server:\n  port: 9500\nsecurity:\n  jwt_secret: a-sufficiently-long-random-secret-value\n")
	if err := os.WriteFile(path, yamlContent, 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cleanup := setupTestEnv(t, map[string]string{
		ConfigPathEnvVar: path,
	})
	defer cleanup()

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9500 {
		t.Errorf("Server.Port = %d, want 9500 from config file", cfg.Server.Port)
	}
}

func TestLoadWithKoanf_ValidationFailure(t *testing.T) {
	cleanup := setupTestEnv(t, map[string]string{
		"HTTP_PORT": "99999",
		"JWT_SECRET": "a-sufficiently-long-random-secret-value",
	})
	defer cleanup()

	if _, err := LoadWithKoanf(); err == nil {
		t.Fatalf("expected validation error for out-of-range port")
	}
}

func TestEnvTransformFunc_UnmappedKeyIgnored(t *testing.T) {
	if got := envTransformFunc("SOME_RANDOM_ENV_VAR"); got != "" {
		t.Errorf("envTransformFunc(unmapped) = %q, want empty string", got)
	}
}

func TestEnvTransformFunc_KnownMapping(t *testing.T) {
	if got, want := envTransformFunc("HTTP_PORT"), "server.port"; got != want {
		t.Errorf("envTransformFunc(HTTP_PORT) = %q, want %q", got, want)
	}
}
