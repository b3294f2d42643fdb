package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Search.DefaultLimit != 50 || cfg.Search.MaxLimit != 500 {
		t.Errorf("limits = %d/%d", cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	}
	if cfg.Schema.TTL() != 5*time.Minute {
		t.Errorf("schema TTL = %v, want 5m", cfg.Schema.TTL())
	}
	if cfg.Storage.Namespace != "codex:saved-filters" {
		t.Errorf("namespace = %q", cfg.Storage.Namespace)
	}
	if cfg.Export.FilenamePrefix != "codex-export" {
		t.Errorf("prefix = %q", cfg.Export.FilenamePrefix)
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("VARSEARCH_API_URL", "https://codex.example.com")

	cfg, err := Parse([]byte(`
api:
  base_url: ${VARSEARCH_API_URL}
  timeout_sec: ${VARSEARCH_API_TIMEOUT:-12}
storage:
  driver: memory
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.API.BaseURL != "https://codex.example.com" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout() != 12*time.Second {
		t.Errorf("timeout = %v", cfg.API.Timeout())
	}
}

func TestSearchConfig_CacheTTL(t *testing.T) {
	tests := []struct {
		sec  int
		want time.Duration
	}{
		{30, 30 * time.Second},
		{-1, 0},
	}
	for _, tc := range tests {
		if got := (SearchConfig{CacheTTLSec: tc.sec}).CacheTTL(); got != tc.want {
			t.Errorf("CacheTTL(%d) = %v, want %v", tc.sec, got, tc.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"relative url", func(c *Config) { c.API.BaseURL = "/api" }, "api.base_url"},
		{"ftp url", func(c *Config) { c.API.BaseURL = "ftp://x" }, "api.base_url"},
		{"limits", func(c *Config) { c.Search.DefaultLimit = 600 }, "search.default_limit"},
		{"driver", func(c *Config) { c.Storage.Driver = "sqlite" }, "storage.driver"},
		{"redis without addrs", func(c *Config) { c.Storage.Driver = DriverRedis }, "storage.redis.addrs"},
		{"redis ok", func(c *Config) {
			c.Storage.Driver = DriverRedis
			c.Storage.Redis.Addrs = []string{"localhost:6379"}
		}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err = %v, want mention of %s", err, tc.wantErr)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte("search:\n  default_limit: 25\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Search.DefaultLimit != 25 {
		t.Errorf("default_limit = %d", cfg.Search.DefaultLimit)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_RepoConfigs(t *testing.T) {
	for _, env := range []string{"local", "prod"} {
		if _, err := Load(env); err != nil {
			t.Errorf("Load(%q): %v", env, err)
		}
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if GetEnv() != "local" {
		t.Errorf("GetEnv() = %q, want local", GetEnv())
	}
	t.Setenv("ENV", "prod")
	if GetEnv() != "prod" {
		t.Errorf("GetEnv() = %q, want prod", GetEnv())
	}
}
