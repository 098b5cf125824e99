package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestParseByteSize_K8sAndCommonUnits(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"1024", 1024},
		{"1Ki", 1024},
		{"1KiB", 1024},
		{"2Mi", 2 * 1024 * 1024},
		{"2MiB", 2 * 1024 * 1024},
		{"3Gi", 3 * 1024 * 1024 * 1024},
		{"10KB", 10 * 1000},
		{"10MB", 10 * 1000 * 1000},
		{"2GB", 2 * 1000 * 1000 * 1000},
	}
	for _, c := range cases {
		got, err := ParseByteSize(c.in)
		if err != nil {
			t.Fatalf("ParseByteSize(%q) error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseByteSize(%q) = %d, want %d", c.in, got, c.want)
		}
	}
	if _, err := ParseByteSize("bad"); err == nil {
		t.Fatalf("expected error for invalid unit")
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelWarn,
		"unknown": slog.LevelWarn,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Fatalf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoad_WithEnvAndDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	t.Setenv("API_TOKEN", "secret123")

	yaml := `
api:
  url: "https://api.example.com/v1/chat/completions"
  token: "${API_TOKEN}"
maxImageSize: 1Mi
history:
  enabled: true
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write cfg: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load config: %v", err)
	}

	if cfg.API.Token != "secret123" {
		t.Fatalf("env expansion for token failed: %q", cfg.API.Token)
	}
	// Defaults applied where the file is silent
	if cfg.API.Model != "gpt-4-vision-preview" {
		t.Fatalf("model default = %q", cfg.API.Model)
	}
	if cfg.API.MaxTokens != 1024 {
		t.Fatalf("maxTokens default = %d", cfg.API.MaxTokens)
	}
	if cfg.API.RequestTimeout != 60*time.Second {
		t.Fatalf("requestTimeout default = %v", cfg.API.RequestTimeout)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("logLevel default = %q", cfg.LogLevel)
	}
	if uint64(cfg.MaxImageSize) != 1024*1024 {
		t.Fatalf("maxImageSize not parsed: %d", cfg.MaxImageSize)
	}
	// Enabled history defaults its database next to the config file
	if cfg.History.DatabasePath != filepath.Join(dir, "history.db") {
		t.Fatalf("history db path = %q", cfg.History.DatabasePath)
	}
}

func TestLoad_ExplicitOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yaml := `
api:
  url: "https://api.example.com/v1/chat/completions"
  token: "tok"
  model: "gpt-4o"
  maxTokens: 2048
  requestTimeout: 30s
logLevel: debug
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write cfg: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load config: %v", err)
	}
	if cfg.API.Model != "gpt-4o" || cfg.API.MaxTokens != 2048 || cfg.API.RequestTimeout != 30*time.Second {
		t.Fatalf("overrides not honored: %+v", cfg.API)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("logLevel = %q", cfg.LogLevel)
	}
	if cfg.History.Enabled {
		t.Fatalf("history should default to disabled")
	}
}

func TestLoad_PlaceholderToken(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yaml := `
api:
  url: "https://api.example.com/v1/chat/completions"
  token: "` + PlaceholderToken + `"
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write cfg: %v", err)
	}

	_, err := Load(cfgPath)
	if !errors.Is(err, ErrPlaceholderToken) {
		t.Fatalf("expected ErrPlaceholderToken, got %v", err)
	}
}

func TestLoad_MissingURL(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(cfgPath, []byte("api:\n  token: \"tok\"\n"), 0o600); err != nil {
		t.Fatalf("write cfg: %v", err)
	}
	if _, err := Load(cfgPath); err == nil || !strings.Contains(err.Error(), "api.url") {
		t.Fatalf("expected api.url error, got %v", err)
	}
}

func TestLoad_ExplicitPathMissingIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing explicit config path")
	}
	if errors.Is(err, ErrConfigCreated) {
		t.Fatalf("explicit paths must not be scaffolded")
	}
}

func TestLoad_FirstRunScaffoldsDefaultConfig(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("relies on XDG_CONFIG_HOME resolution")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	_, err := Load("")
	if !errors.Is(err, ErrConfigCreated) {
		t.Fatalf("expected ErrConfigCreated, got %v", err)
	}

	data, rerr := os.ReadFile(filepath.Join(dir, "clipscribe", "config.yaml"))
	if rerr != nil {
		t.Fatalf("default config not written: %v", rerr)
	}
	if !strings.Contains(string(data), PlaceholderToken) {
		t.Fatalf("scaffolded config missing placeholder token")
	}

	// A second load finds the file but rejects the placeholder.
	_, err = Load("")
	if !errors.Is(err, ErrPlaceholderToken) {
		t.Fatalf("expected ErrPlaceholderToken on second load, got %v", err)
	}
}
