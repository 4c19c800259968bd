package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	return path
}

// TestLoad_FromFile tests loading an explicit config file
func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
gtfs:
  staticURL: http://example.com/gtfs.zip
  dataDir: /tmp/gtfs
  downloadInterval: 12h
gtfsrt:
  feedURL: http://example.com/feed
  apiKey: file-key
locator:
  parallel: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.GTFS.DownloadInterval != 12*time.Hour {
		t.Errorf("Expected 12h interval, got %v", cfg.GTFS.DownloadInterval)
	}
	if cfg.GTFSRT.APIKey != "file-key" {
		t.Errorf("Expected api key from file, got %q", cfg.GTFSRT.APIKey)
	}
	if !cfg.Locator.Parallel {
		t.Error("Expected locator parallel mode from file")
	}
	// untouched sections keep defaults
	if cfg.Departure.MaxSuggestions != 3 {
		t.Errorf("Expected default max suggestions 3, got %d", cfg.Departure.MaxSuggestions)
	}
	if cfg.GTFSRT.Timeout != 30*time.Second {
		t.Errorf("Expected default feed timeout 30s, got %v", cfg.GTFSRT.Timeout)
	}

	t.Logf("✓ Loaded config with port %d", cfg.Server.Port)
}

// TestLoad_MissingExplicitFile tests error handling for a missing explicit path
func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err == nil {
		t.Error("Loading non-existent config should return error")
	}
	t.Logf("✓ Missing config returns error: %v", err)
}

// TestLoad_NoFileUsesDefaults tests that an empty search falls back to defaults
func TestLoad_NoFileUsesDefaults(t *testing.T) {
	origPaths := SearchPaths
	defer func() { SearchPaths = origPaths }()
	SearchPaths = []string{filepath.Join(t.TempDir(), "config.yml")}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected defaults, got error: %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("Expected default port %d, got %d", DefaultPort, cfg.Server.Port)
	}
	if cfg.GTFS.StaticURL != DefaultStaticURL {
		t.Errorf("Expected default static URL, got %s", cfg.GTFS.StaticURL)
	}
}

// TestLoad_InvalidYAML tests error handling for invalid YAML
func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: yaml: content: [[[")
	if _, err := Load(path); err == nil {
		t.Error("Loading invalid YAML should return error")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "negative port",
			body: "server:\n  port: -1\n",
		},
		{
			name: "bad feed url",
			body: "gtfsrt:\n  feedURL: not a url\n",
		},
		{
			name: "unknown walking speed",
			body: "routing:\n  walkingSpeed: sprint\n",
		},
		{
			name: "default limit above max",
			body: "filter:\n  defaultLimit: 500\n  maxLimit: 100\n",
		},
		{
			name: "zero max suggestions",
			body: "departure:\n  maxSuggestions: 0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MTA_API_KEY", "env-key")
	t.Setenv("ORS_API_KEY", "ors-key")
	t.Setenv("RELAY_PORT", "8181")
	t.Setenv("RELAY_DATA_DIR", "/var/lib/relay")
	t.Setenv("RELAY_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "gtfsrt:\n  apiKey: file-key\n"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GTFSRT.APIKey != "env-key" {
		t.Errorf("environment should win over file, got %q", cfg.GTFSRT.APIKey)
	}
	if cfg.Routing.APIKey != "ors-key" {
		t.Errorf("Expected ors-key, got %q", cfg.Routing.APIKey)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("Expected port 8181, got %d", cfg.Server.Port)
	}
	if cfg.GTFS.DataDir != "/var/lib/relay" {
		t.Errorf("Expected data dir override, got %s", cfg.GTFS.DataDir)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected debug level, got %s", cfg.Log.Level)
	}
}

func TestLoad_BadPortEnv(t *testing.T) {
	t.Setenv("RELAY_PORT", "eighty")
	if _, err := Load(writeConfig(t, "")); err == nil {
		t.Error("non-numeric RELAY_PORT should be rejected")
	}
}
