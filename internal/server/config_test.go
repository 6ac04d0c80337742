package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/cache"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/constants"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Address != constants.DefaultServerAddress {
		t.Fatalf("expected default address, got %q", cfg.Address)
	}
	if cfg.UploadSizeBytes() != constants.DefaultMaxUploadSizeBytes {
		t.Fatalf("expected default max upload size, got %d", cfg.UploadSizeBytes())
	}
	if cfg.DatasetTTLDuration() != time.Hour {
		t.Fatalf("expected one hour dataset TTL, got %s", cfg.DatasetTTLDuration())
	}
	if cfg.MaxDatasets != cache.DefaultMaxEntries {
		t.Fatalf("expected default dataset bound, got %d", cfg.MaxDatasets)
	}
	if cfg.AppConfig != "" || len(cfg.AllowedOrigins) != 0 {
		t.Fatalf("expected no app config or origins, got %+v", cfg)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") error = %v", err)
	}
	if cfg.UploadSizeBytes() <= 0 {
		t.Fatalf("expected positive upload size, got %d", cfg.UploadSizeBytes())
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server-config.yaml")

	contents := []byte(`address: 127.0.0.1:9000
maxUploadSize: 2M
datasetTTL: 15m
maxDatasets: 32
appConfig: /etc/charge/config.yaml
allowedOrigins:
  - https://dashboard.example.com
logging:
  level: debug
  format: console
  outputFile: /tmp/server.log
`)
	if err := os.WriteFile(path, contents, 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Address != "127.0.0.1:9000" {
		t.Fatalf("expected address override, got %s", cfg.Address)
	}
	if cfg.UploadSizeBytes() != 2*1024*1024 {
		t.Fatalf("expected max upload override, got %d", cfg.UploadSizeBytes())
	}
	if cfg.DatasetTTLDuration() != 15*time.Minute {
		t.Fatalf("expected 15m dataset TTL, got %s", cfg.DatasetTTLDuration())
	}
	if cfg.MaxDatasets != 32 {
		t.Fatalf("expected 32 max datasets, got %d", cfg.MaxDatasets)
	}
	if cfg.AppConfig != "/etc/charge/config.yaml" {
		t.Fatalf("expected appConfig override, got %s", cfg.AppConfig)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://dashboard.example.com" {
		t.Fatalf("unexpected allowed origins %v", cfg.AllowedOrigins)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging config %+v", cfg.Logging)
	}
	if cfg.Logging.OutputFile != "/tmp/server.log" {
		t.Fatalf("expected logging outputFile /tmp/server.log, got %s", cfg.Logging.OutputFile)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"bad size":   "maxUploadSize: invalid",
		"bad ttl":    "datasetTTL: forever",
		"bad syntax": "address: [unterminated",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(body), 0600); err != nil {
				t.Fatalf("failed to write temp config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Fatal("expected error but got nil")
			}
		})
	}
}

func TestSetUploadSizeBytes(t *testing.T) {
	cfg, _ := LoadConfig("")
	cfg.SetUploadSizeBytes(0)
	if cfg.UploadSizeBytes() != constants.DefaultMaxUploadSizeBytes {
		t.Fatalf("non-positive override should be ignored, got %d", cfg.UploadSizeBytes())
	}
	cfg.SetUploadSizeBytes(1024)
	if cfg.UploadSizeBytes() != 1024 || cfg.MaxUploadSize != "1024" {
		t.Fatalf("override not applied: %d %q", cfg.UploadSizeBytes(), cfg.MaxUploadSize)
	}
}

func TestParseSize(t *testing.T) {
	tests := map[string]int64{
		"":          constants.DefaultMaxUploadSizeBytes,
		"1024":      1024,
		"512b":      512,
		"256K":      256 * 1024,
		"1m":        1024 * 1024,
		"3MB":       3 * 1024 * 1024,
		"2G":        2 * 1024 * 1024 * 1024,
		"10 MB":     10 * 1024 * 1024,
		"  4096   ": 4096,
	}

	for input, expected := range tests {
		got, err := ParseSize(input)
		if err != nil {
			t.Fatalf("ParseSize(%q) returned error: %v", input, err)
		}
		if got != expected {
			t.Fatalf("ParseSize(%q) = %d, expected %d", input, got, expected)
		}
	}

	for _, bad := range []string{"1TB", "abc", "99999999999999999999G", "9999999999999G"} {
		if _, err := ParseSize(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
