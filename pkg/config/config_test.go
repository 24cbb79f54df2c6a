package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecodeAppliesDefaults(t *testing.T) {
	cfg, err := Decode([]byte("server:\n  addr: \":9090\"\n"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Model.Provider != "anthropic" {
		t.Fatalf("Provider = %q", cfg.Model.Provider)
	}
	if cfg.Model.Model != "claude-sonnet-4-5-20250929" {
		t.Fatalf("Model = %q", cfg.Model.Model)
	}
	if cfg.Session.Store != "memory" {
		t.Fatalf("Store = %q", cfg.Session.Store)
	}
	if cfg.Server.MaxUploadBytes != 16<<20 {
		t.Fatalf("MaxUploadBytes = %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Export.Headless == nil || !*cfg.Export.Headless {
		t.Fatalf("Headless = %v", cfg.Export.Headless)
	}
	if cfg.Export.ViewportWidth != 1920 || cfg.Export.ViewportHeight != 1080 {
		t.Fatalf("viewport = %dx%d", cfg.Export.ViewportWidth, cfg.Export.ViewportHeight)
	}
	if cfg.Agent.ChatMaxIterations != 0 {
		t.Fatalf("ChatMaxIterations = %d, want 0 (loop default)", cfg.Agent.ChatMaxIterations)
	}
}

func TestDecodeExplicitHeadlessFalse(t *testing.T) {
	cfg, err := Decode([]byte("export:\n  headless: false\n"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Export.Headless == nil || *cfg.Export.Headless {
		t.Fatalf("Headless = %v, want false", cfg.Export.Headless)
	}
}

func TestDecodeRejectsBadValues(t *testing.T) {
	cases := []string{
		"session:\n  store: redis\n",
		"logging:\n  level: verbose\n",
		"server:\n  addr: \"  \"\n",
		"agent:\n  chat_max_iterations: -1\n",
	}
	for _, raw := range cases {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestDecodeMalformedYAML(t *testing.T) {
	if _, err := Decode([]byte("server: [not a map")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	raw := strings.Join([]string{
		"server:",
		"  addr: \":7070\"",
		"model:",
		"  api_key: test-key",
		"  model: claude-sonnet-4-5-20250929",
		"workspace:",
		"  work_dir: /tmp/deck",
		"session:",
		"  store: sqlite",
		"  sqlite_path: /tmp/deck/sessions.db",
		"logging:",
		"  level: debug",
		"  development: true",
	}, "\n")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model.APIKey != "test-key" {
		t.Fatalf("APIKey = %q", cfg.Model.APIKey)
	}
	if cfg.Session.Store != "sqlite" || cfg.Session.SQLitePath != "/tmp/deck/sessions.db" {
		t.Fatalf("session = %+v", cfg.Session)
	}
	if !cfg.Logging.Development || cfg.Logging.Level != "debug" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
}

func TestAPIKeyFallsBackToEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	cfg, err := Decode([]byte("{}"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Model.APIKey != "env-key" {
		t.Fatalf("APIKey = %q", cfg.Model.APIKey)
	}
}
