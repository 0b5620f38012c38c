package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Test that defaults are set correctly
	if cfg.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", cfg.Version)
	}

	if cfg.Endpoint.BaseURL != "http://localhost:5000" {
		t.Errorf("Expected base URL http://localhost:5000, got %s", cfg.Endpoint.BaseURL)
	}

	if cfg.Output.DefaultFormat != "text" {
		t.Errorf("Expected output format text, got %s", cfg.Output.DefaultFormat)
	}

	if cfg.Preview.ListenAddr != "127.0.0.1:0" {
		t.Errorf("Expected loopback preview address, got %s", cfg.Preview.ListenAddr)
	}

	if !cfg.Storage.HistoryEnabled {
		t.Error("Expected history to be enabled by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	valid := func(mutate func(*Config)) *Config {
		cfg := DefaultConfig()
		mutate(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name:    "missing base url",
			config:  valid(func(c *Config) { c.Endpoint.BaseURL = "" }),
			wantErr: true,
			errMsg:  "endpoint base_url is required",
		},
		{
			name:    "unsupported scheme",
			config:  valid(func(c *Config) { c.Endpoint.BaseURL = "ftp://example.com" }),
			wantErr: true,
			errMsg:  "invalid endpoint base_url scheme: ftp (must be http or https)",
		},
		{
			name:    "invalid output format",
			config:  valid(func(c *Config) { c.Output.DefaultFormat = "invalid" }),
			wantErr: true,
			errMsg:  "invalid output format: invalid (must be one of: json, text, markdown, csv)",
		},
		{
			name:    "invalid color mode",
			config:  valid(func(c *Config) { c.Output.ColorMode = "invalid" }),
			wantErr: true,
			errMsg:  "invalid color mode: invalid (must be one of: auto, always, never)",
		},
		{
			name:    "invalid theme",
			config:  valid(func(c *Config) { c.Output.Theme = "neon" }),
			wantErr: true,
			errMsg:  "invalid theme: neon (must be one of: default, high-contrast, minimal)",
		},
		{
			name:    "negative max file size",
			config:  valid(func(c *Config) { c.Analysis.MaxFileSize = -1 }),
			wantErr: true,
			errMsg:  "max_file_size must be non-negative",
		},
		{
			name:    "negative settle delay",
			config:  valid(func(c *Config) { c.Watch.SettleDelay = -time.Second }),
			wantErr: true,
			errMsg:  "settle_delay must be non-negative",
		},
		{
			name:    "history enabled without path",
			config:  valid(func(c *Config) { c.Storage.HistoryPath = "" }),
			wantErr: true,
			errMsg:  "history_path is required when history is enabled",
		},
		{
			name: "history disabled without path",
			config: valid(func(c *Config) {
				c.Storage.HistoryEnabled = false
				c.Storage.HistoryPath = ""
			}),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errMsg != "" && err.Error() != tt.errMsg {
					t.Errorf("Expected error message '%s', got '%s'", tt.errMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
			}
		})
	}
}

func TestConfigMerging(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "partial.yaml")

	// Only output.verbose is set; everything else keeps its default
	if err := os.WriteFile(configPath, []byte("output:\n  verbose: true\n"), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg := DefaultConfig()
	if err := NewLoader().loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("loadFromFile failed: %v", err)
	}

	if !cfg.Output.Verbose {
		t.Error("Expected verbose to be set from file")
	}
	if cfg.Output.DefaultFormat != "text" {
		t.Errorf("Expected default format to survive merge, got %s", cfg.Output.DefaultFormat)
	}
	if !cfg.Storage.HistoryEnabled {
		t.Error("Expected history_enabled default to survive merge")
	}
	if cfg.Endpoint.Timeout != 120*time.Second {
		t.Errorf("Expected default timeout to survive merge, got %v", cfg.Endpoint.Timeout)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"~/.config/signscan", filepath.Join(home, ".config/signscan")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"~", "~"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := ExpandPath(tt.input); result != tt.expected {
				t.Errorf("ExpandPath(%s) = %s, expected %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGetConfigPaths(t *testing.T) {
	paths := GetConfigPaths()

	if len(paths) != 3 {
		t.Errorf("Expected 3 config paths, got %d", len(paths))
	}

	if paths[0] != "./.signscan.yaml" {
		t.Errorf("Expected first path to be ./.signscan.yaml, got %s", paths[0])
	}

	for _, path := range paths {
		if strings.HasPrefix(path, "~") {
			t.Errorf("Path should be expanded: %s", path)
		}
	}
}

func TestSampleConfigParses(t *testing.T) {
	tempDir := t.TempDir()

	for name, content := range map[string]string{
		"sample.yaml":  SampleConfig(),
		"minimal.yaml": MinimalSampleConfig(),
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(tempDir, name)
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatalf("Failed to write sample: %v", err)
			}

			cfg, err := NewLoader().LoadConfig(path)
			if err != nil {
				t.Fatalf("Sample config should load: %v", err)
			}
			if cfg.Endpoint.BaseURL != "http://localhost:5000" {
				t.Errorf("Unexpected base URL %s", cfg.Endpoint.BaseURL)
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	out, err := Marshal(DefaultConfig())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(out, "base_url: http://localhost:5000") {
		t.Errorf("Expected base_url in output, got:\n%s", out)
	}
}
