package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "freshen.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
app: shopfront
manifest:
  url: https://app.example.com/version.json
  file: version.json
  dir: dist
watch:
  interval: 90s
  silent: true
  journal: /var/log/freshen/checks.msgpack
storage:
  backend: s3
  path: mybucket/builds
  region: us-east-1
  endpoint: https://r2.example.com
  s3_path_style: true
adapter:
  type: webhook
  url: https://hooks.example.com/deploys
  headers:
    Authorization: Bearer abc
  timeout: 5s
  retries: 2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.App != "shopfront" {
		t.Errorf("app = %q", cfg.App)
	}
	if cfg.Manifest.URL != "https://app.example.com/version.json" {
		t.Errorf("manifest.url = %q", cfg.Manifest.URL)
	}
	if cfg.Manifest.Dir != "dist" {
		t.Errorf("manifest.dir = %q", cfg.Manifest.Dir)
	}
	if cfg.Watch.Interval.Duration != 90*time.Second {
		t.Errorf("watch.interval = %v", cfg.Watch.Interval.Duration)
	}
	if !cfg.Watch.Silent {
		t.Error("watch.silent should be true")
	}
	if cfg.Watch.Journal != "/var/log/freshen/checks.msgpack" {
		t.Errorf("watch.journal = %q", cfg.Watch.Journal)
	}
	if cfg.Storage.Backend != "s3" || cfg.Storage.Path != "mybucket/builds" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if !cfg.Storage.S3PathStyle {
		t.Error("storage.s3_path_style should be true")
	}
	if cfg.Adapter.Type != "webhook" {
		t.Errorf("adapter.type = %q", cfg.Adapter.Type)
	}
	if cfg.Adapter.Headers["Authorization"] != "Bearer abc" {
		t.Errorf("adapter headers = %v", cfg.Adapter.Headers)
	}
	if cfg.Adapter.Timeout.Duration != 5*time.Second {
		t.Errorf("adapter.timeout = %v", cfg.Adapter.Timeout.Duration)
	}
	if cfg.Adapter.Retries == nil || *cfg.Adapter.Retries != 2 {
		t.Errorf("adapter.retries = %v", cfg.Adapter.Retries)
	}
}

func TestLoad_EmptyConfig(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App != "" || cfg.Watch.Interval.Duration != 0 {
		t.Errorf("empty config should produce zero values, got %+v", cfg)
	}
	if cfg.Adapter.Retries != nil {
		t.Error("unset retries should stay nil")
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "app: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "watch:\n  interval: ninety\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for unparseable duration")
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("FRESHEN_TEST_TOKEN", "sekret")
	path := writeConfig(t, `
adapter:
  type: webhook
  url: ${FRESHEN_TEST_URL:-https://hooks.example.com}
  headers:
    Authorization: Bearer ${FRESHEN_TEST_TOKEN}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Adapter.URL != "https://hooks.example.com" {
		t.Errorf("url = %q, want default expansion", cfg.Adapter.URL)
	}
	if cfg.Adapter.Headers["Authorization"] != "Bearer sekret" {
		t.Errorf("header = %q", cfg.Adapter.Headers["Authorization"])
	}
}
