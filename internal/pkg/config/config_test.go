package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Upstream.BaseURL != "https://api.sofascore.com/api/v1" {
		t.Errorf("base url = %q", cfg.Upstream.BaseURL)
	}
	if len(cfg.Upstream.LivePaths) != 2 {
		t.Errorf("live paths = %v", cfg.Upstream.LivePaths)
	}
	if cfg.Classifier.BreakMinute != 45 || cfg.Classifier.FirstHalfFrom != 40 || cfg.Classifier.SecondHalfUntil != 50 {
		t.Errorf("classifier defaults = %+v", cfg.Classifier)
	}
	if cfg.Monitor.Interval.Std() != 60*time.Second {
		t.Errorf("interval = %v", cfg.Monitor.Interval.Std())
	}
	if cfg.Health.Port != 8080 {
		t.Errorf("port = %d", cfg.Health.Port)
	}
	if cfg.Ledger.File != "ledger.json" || cfg.Leagues.File != "leagues.json" {
		t.Errorf("state files = %q, %q", cfg.Ledger.File, cfg.Leagues.File)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
upstream:
  base_url: https://mirror.example/api/v1
  timeout: 3s
classifier:
  first_half_from: 42
monitor:
  interval: 90s
leagues:
  watch_all: true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Upstream.BaseURL != "https://mirror.example/api/v1" {
		t.Errorf("base url = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Timeout.Std() != 3*time.Second {
		t.Errorf("timeout = %v", cfg.Upstream.Timeout.Std())
	}
	if cfg.Classifier.FirstHalfFrom != 42 {
		t.Errorf("first_half_from = %d", cfg.Classifier.FirstHalfFrom)
	}
	if cfg.Monitor.Interval.Std() != 90*time.Second {
		t.Errorf("interval = %v", cfg.Monitor.Interval.Std())
	}
	if !cfg.Leagues.WatchAll {
		t.Error("watch_all not read")
	}
	// Untouched sections still get defaults.
	if cfg.Classifier.BreakMinute != 45 {
		t.Errorf("break_minute = %d", cfg.Classifier.BreakMinute)
	}
	if cfg.Upstream.ProxyTimeout.Std() != 18*time.Second {
		t.Errorf("proxy timeout = %v", cfg.Upstream.ProxyTimeout.Std())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("CHAT_ID", "-1001234")
	t.Setenv("PORT", "9090")
	t.Setenv("UPSTREAM_BASE_URL", "https://env.example/api")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Telegram.ChatID != -1001234 {
		t.Errorf("chat id = %d", cfg.Telegram.ChatID)
	}
	if cfg.Health.Port != 9090 {
		t.Errorf("port = %d", cfg.Health.Port)
	}
	if cfg.Upstream.BaseURL != "https://env.example/api" {
		t.Errorf("base url = %q", cfg.Upstream.BaseURL)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("monitor:\n  interval: sixty\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("bad duration string should fail to parse")
	}
}
