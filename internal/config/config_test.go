package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file must not be fatal: %v", err)
	}

	if cfg.Stream.Capacity != 100 {
		t.Errorf("expected default capacity 100, got %d", cfg.Stream.Capacity)
	}
	if cfg.Stream.EventsPath != "/stream" || cfg.Stream.PingPath != "/stream/ping" {
		t.Errorf("unexpected default paths: %+v", cfg.Stream)
	}
	if minDur, maxDur := cfg.Generator.Intervals(); minDur != 500*time.Millisecond || maxDur != 2500*time.Millisecond {
		t.Errorf("unexpected default intervals: min=%s max=%s", minDur, maxDur)
	}
	if cfg.Server.Addr != ":3001" {
		t.Errorf("unexpected default server addr: %s", cfg.Server.Addr)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
stream:
  url: http://stream.internal:3001
  token: ${STREAMWATCH_TEST_TOKEN}
  capacity: 25
  viewer_id: user-42
generator:
  min_interval: 100ms
  max_interval: 300ms
archive:
  path: /tmp/events.db
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STREAMWATCH_TEST_TOKEN", "expanded-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if cfg.Stream.URL != "http://stream.internal:3001" {
		t.Errorf("unexpected stream URL: %s", cfg.Stream.URL)
	}
	if cfg.Stream.Token != "expanded-secret" {
		t.Errorf("env expansion failed: %q", cfg.Stream.Token)
	}
	if cfg.Stream.Capacity != 25 {
		t.Errorf("expected capacity 25, got %d", cfg.Stream.Capacity)
	}
	if cfg.Stream.ViewerID != "user-42" {
		t.Errorf("unexpected viewer id: %s", cfg.Stream.ViewerID)
	}
	if minDur, maxDur := cfg.Generator.Intervals(); minDur != 100*time.Millisecond || maxDur != 300*time.Millisecond {
		t.Errorf("unexpected generator intervals: min=%s max=%s", minDur, maxDur)
	}
	if cfg.Archive.Path != "/tmp/events.db" {
		t.Errorf("unexpected archive path: %s", cfg.Archive.Path)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STREAMWATCH_STREAM_URL", "http://override:9000")
	t.Setenv("STREAMWATCH_VIEWER_ID", "env-user")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if cfg.Stream.URL != "http://override:9000" {
		t.Errorf("env override missed: %s", cfg.Stream.URL)
	}
	if cfg.Stream.ViewerID != "env-user" {
		t.Errorf("env override missed: %s", cfg.Stream.ViewerID)
	}
}

func TestInvalidIntervalRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
generator:
  min_interval: 2s
  max_interval: 1s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for max_interval < min_interval")
	}
}

func TestFeedRequiresURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("feed:\n  enabled: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for enabled feed without URL")
	}
}

func TestWatchReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("stream:\n  capacity: 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 1)
	go func() {
		_ = Watch(ctx, path, func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// Give the watcher a moment to register before rewriting.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("stream:\n  capacity: 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Stream.Capacity != 42 {
			t.Errorf("expected reloaded capacity 42, got %d", cfg.Stream.Capacity)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher never delivered the reloaded config")
	}
}
