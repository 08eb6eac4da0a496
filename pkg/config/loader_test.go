package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kadirpekel/usagegate/pkg/config/provider"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	return path
}

func TestLoader_File_Load(t *testing.T) {
	configYAML := `
version: "1"
name: "fitness-app"
database:
  driver: sqlite
  database: ./test.db
quotas:
  ai_scan:
    limit: 3
    window: weekly
  barcode_scan:
    limit: 1
    window: lifetime
retries:
  upload:
    max_attempts: 3
    initial_delay: 500ms
    backoff_multiplier: 2.0
caches:
  sub_state:
    ttl: 5m
`
	path := writeConfigFile(t, configYAML)

	cfg, loader, err := LoadConfigFile(context.Background(), path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	defer loader.Close()

	if cfg.Name != "fitness-app" {
		t.Errorf("expected name 'fitness-app', got %s", cfg.Name)
	}
	if len(cfg.Quotas) != 2 {
		t.Errorf("expected 2 quotas, got %d", len(cfg.Quotas))
	}

	scan := cfg.Quotas["ai_scan"]
	if scan == nil || scan.Limit != 3 || scan.Window != "weekly" {
		t.Errorf("unexpected ai_scan quota: %+v", scan)
	}

	upload := cfg.Retries["upload"]
	if upload == nil {
		t.Fatal("expected upload retry config")
	}
	if upload.InitialDelay != 500*time.Millisecond {
		t.Errorf("duration strings should decode, got %v", upload.InitialDelay)
	}
	if upload.BackoffMultiplier != 2.0 {
		t.Errorf("expected multiplier 2.0, got %v", upload.BackoffMultiplier)
	}

	if cfg.Caches["sub_state"].TTL != 5*time.Minute {
		t.Errorf("unexpected cache TTL: %v", cfg.Caches["sub_state"].TTL)
	}

	if cfg.Database.Dialect() != "sqlite" {
		t.Errorf("unexpected dialect: %s", cfg.Database.Dialect())
	}
}

func TestLoader_File_NotFound(t *testing.T) {
	_, _, err := LoadConfigFile(context.Background(), "/nonexistent/file.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestLoader_DefaultsApplied(t *testing.T) {
	configYAML := `
quotas:
  ai_scan:
    limit: 3
retries:
  upload:
    max_attempts: 2
`
	path := writeConfigFile(t, configYAML)

	cfg, loader, err := LoadConfigFile(context.Background(), path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	defer loader.Close()

	if cfg.Quotas["ai_scan"].Window != "weekly" {
		t.Errorf("window should default to weekly, got %s", cfg.Quotas["ai_scan"].Window)
	}
	if cfg.Retries["upload"].InitialDelay != 500*time.Millisecond {
		t.Errorf("initial delay should default to 500ms, got %v", cfg.Retries["upload"].InitialDelay)
	}
	if cfg.Logger.Level != "info" {
		t.Errorf("log level should default to info, got %s", cfg.Logger.Level)
	}
}

func TestLoader_ValidationFailure(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"zero limit", "quotas:\n  f:\n    limit: 0\n"},
		{"bad window", "quotas:\n  f:\n    limit: 1\n    window: monthly\n"},
		{"duration window without duration", "quotas:\n  f:\n    limit: 1\n    window: duration\n"},
		{"bad multiplier", "retries:\n  r:\n    max_attempts: 3\n    backoff_multiplier: 0.5\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfigFile(t, tc.yaml)
			if _, _, err := LoadConfigFile(context.Background(), path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoader_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_SCAN_LIMIT", "7")

	configYAML := `
quotas:
  ai_scan:
    limit: ${TEST_SCAN_LIMIT}
    window: weekly
  other:
    limit: ${TEST_MISSING_LIMIT:-5}
    window: weekly
`
	path := writeConfigFile(t, configYAML)

	cfg, loader, err := LoadConfigFile(context.Background(), path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	defer loader.Close()

	if cfg.Quotas["ai_scan"].Limit != 7 {
		t.Errorf("env var should expand, got %d", cfg.Quotas["ai_scan"].Limit)
	}
	if cfg.Quotas["other"].Limit != 5 {
		t.Errorf("default should apply for unset vars, got %d", cfg.Quotas["other"].Limit)
	}
}

func TestLoader_StaticProvider(t *testing.T) {
	cfgYAML := []byte("quotas:\n  f:\n    limit: 2\n    window: lifetime\n")
	loader := NewLoader(&provider.StaticProvider{Data: cfgYAML})

	cfg, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Quotas["f"].Limit != 2 {
		t.Errorf("unexpected limit: %d", cfg.Quotas["f"].Limit)
	}
}

func TestLoader_WatchReload(t *testing.T) {
	path := writeConfigFile(t, "quotas:\n  f:\n    limit: 1\n    window: weekly\n")

	reloaded := make(chan *Config, 1)
	cfg, loader, err := LoadConfigFile(context.Background(), path, WithOnChange(func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	}))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	defer loader.Close()

	if cfg.Quotas["f"].Limit != 1 {
		t.Fatalf("unexpected initial limit: %d", cfg.Quotas["f"].Limit)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loader.Watch(ctx) }()

	// Give the watcher time to attach before rewriting
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(path, []byte("quotas:\n  f:\n    limit: 9\n    window: weekly\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-reloaded:
		if c.Quotas["f"].Limit != 9 {
			t.Errorf("expected reloaded limit 9, got %d", c.Quotas["f"].Limit)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
