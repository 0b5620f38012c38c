package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader returned nil")
	}
	if len(loader.configPaths) != 3 {
		t.Errorf("Expected 3 config paths, got %d", len(loader.configPaths))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	loader := &Loader{configPaths: nil, warn: func(string, ...interface{}) {}}

	// No config files at all: defaults only
	cfg, err := loader.LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}

	if cfg.Endpoint.BaseURL != "http://localhost:5000" {
		t.Errorf("Expected default base URL, got %s", cfg.Endpoint.BaseURL)
	}
	if cfg.Output.DefaultFormat != "text" {
		t.Errorf("Expected default output format text, got %s", cfg.Output.DefaultFormat)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test-config.yaml")

	configContent := `version: "1.0"
endpoint:
  base_url: "https://signs.example.com"
  timeout: 60s
output:
  default_format: "json"
  verbose: true
analysis:
  max_file_size: 5000
`

	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config from file: %v", err)
	}

	if cfg.Endpoint.BaseURL != "https://signs.example.com" {
		t.Errorf("Expected base URL from file, got %s", cfg.Endpoint.BaseURL)
	}
	if cfg.Endpoint.Timeout != 60*time.Second {
		t.Errorf("Expected timeout 60s, got %v", cfg.Endpoint.Timeout)
	}
	if cfg.Output.DefaultFormat != "json" {
		t.Errorf("Expected output format json, got %s", cfg.Output.DefaultFormat)
	}
	if !cfg.Output.Verbose {
		t.Error("Expected verbose to be true")
	}
	if cfg.Analysis.MaxFileSize != 5000 {
		t.Errorf("Expected max file size 5000, got %d", cfg.Analysis.MaxFileSize)
	}

	// Unset fields keep their defaults
	if cfg.Output.ColorMode != "auto" {
		t.Errorf("Expected default color mode auto, got %s", cfg.Output.ColorMode)
	}
}

func TestLoadConfigPriority(t *testing.T) {
	tempDir := t.TempDir()
	high := filepath.Join(tempDir, "high.yaml")
	low := filepath.Join(tempDir, "low.yaml")

	if err := os.WriteFile(low, []byte("output:\n  default_format: csv\n  theme: minimal\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(high, []byte("output:\n  default_format: markdown\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	loader := &Loader{configPaths: []string{high, low}, warn: func(string, ...interface{}) {}}
	cfg, err := loader.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Output.DefaultFormat != "markdown" {
		t.Errorf("Expected higher priority file to win, got %s", cfg.Output.DefaultFormat)
	}
	if cfg.Output.Theme != "minimal" {
		t.Errorf("Expected lower priority value to remain, got %s", cfg.Output.Theme)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid-config.yaml")

	if err := os.WriteFile(configPath, []byte("endpoint:\n  base_url: [unclosed\n"), 0o600); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	loader := NewLoader()
	if _, err := loader.LoadConfig(configPath); err == nil {
		t.Error("Expected error loading invalid YAML, but got none")
	}
}

func TestLoadConfigInvalidValues(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "bad.yaml")

	if err := os.WriteFile(configPath, []byte("output:\n  color_mode: sometimes\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := NewLoader().LoadConfig(configPath)
	if err == nil || !strings.Contains(err.Error(), "configuration validation failed") {
		t.Errorf("Expected validation failure, got %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SIGNSCAN_ENDPOINT_BASE_URL", "http://10.0.0.5:8080")
	t.Setenv("SIGNSCAN_ENDPOINT_TIMEOUT", "15s")
	t.Setenv("SIGNSCAN_OUTPUT_VERBOSE", "true")
	t.Setenv("SIGNSCAN_ANALYSIS_MAX_FILE_SIZE", "1024")
	t.Setenv("SIGNSCAN_STORAGE_HISTORY_ENABLED", "false")
	t.Setenv("SIGNSCAN_WATCH_SETTLE_DELAY", "1s")

	loader := NewLoader()
	cfg := DefaultConfig()

	if err := loader.applyEnvOverrides(cfg); err != nil {
		t.Fatalf("Failed to apply env overrides: %v", err)
	}

	if cfg.Endpoint.BaseURL != "http://10.0.0.5:8080" {
		t.Errorf("Expected base URL from env, got %s", cfg.Endpoint.BaseURL)
	}
	if cfg.Endpoint.Timeout != 15*time.Second {
		t.Errorf("Expected timeout 15s, got %v", cfg.Endpoint.Timeout)
	}
	if !cfg.Output.Verbose {
		t.Error("Expected verbose to be true")
	}
	if cfg.Analysis.MaxFileSize != 1024 {
		t.Errorf("Expected max file size 1024, got %d", cfg.Analysis.MaxFileSize)
	}
	if cfg.Storage.HistoryEnabled {
		t.Error("Expected history to be disabled")
	}
	if cfg.Watch.SettleDelay != time.Second {
		t.Errorf("Expected settle delay 1s, got %v", cfg.Watch.SettleDelay)
	}
}

func TestApplyEnvOverridesInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		envVar string
		value  string
	}{
		{"invalid int", "SIGNSCAN_ANALYSIS_MAX_FILE_SIZE", "not-a-number"},
		{"invalid bool", "SIGNSCAN_OUTPUT_VERBOSE", "not-a-bool"},
		{"invalid duration", "SIGNSCAN_ENDPOINT_TIMEOUT", "not-a-duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envVar, tt.value)

			loader := NewLoader()
			cfg := DefaultConfig()

			if err := loader.applyEnvOverrides(cfg); err == nil {
				t.Error("Expected error for invalid env var value, but got none")
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	var duration time.Duration

	if err := parseDuration("30s", &duration); err != nil {
		t.Errorf("Failed to parse duration: %v", err)
	}
	if duration != 30*time.Second {
		t.Errorf("Expected 30s, got %v", duration)
	}

	if err := parseDuration("invalid", &duration); err == nil {
		t.Error("Expected error for invalid duration, but got none")
	}
}

func TestParseInt64(t *testing.T) {
	var value int64

	if err := parseInt64("42", &value); err != nil {
		t.Errorf("Failed to parse int: %v", err)
	}
	if value != 42 {
		t.Errorf("Expected 42, got %d", value)
	}

	if err := parseInt64("not-a-number", &value); err == nil {
		t.Error("Expected error for invalid int, but got none")
	}
}

func TestParseBool(t *testing.T) {
	var value bool

	if err := parseBool("true", &value); err != nil {
		t.Errorf("Failed to parse bool: %v", err)
	}
	if !value {
		t.Errorf("Expected true, got %v", value)
	}

	if err := parseBool("not-a-bool", &value); err == nil {
		t.Error("Expected error for invalid bool, but got none")
	}
}

func TestFileExists(t *testing.T) {
	tempDir := t.TempDir()
	existing := filepath.Join(tempDir, "exists.yaml")
	if err := os.WriteFile(existing, []byte("x: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if !fileExists(existing) {
		t.Error("Expected file to exist")
	}
	if fileExists(filepath.Join(tempDir, "missing.yaml")) {
		t.Error("Expected missing file to not exist")
	}
}

func TestValidateConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid yaml", "config.yaml", false},
		{"valid yml", "/tmp/config.yml", false},
		{"wrong extension", "config.json", true},
		{"path traversal", "../../etc/config.yaml", true},
		{"proc file", "/proc/self/config.yaml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfigPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfigPath(%s) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
