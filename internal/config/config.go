package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds the complete application configuration
type Config struct {
	Version  string         `yaml:"version" json:"version"`
	Endpoint EndpointConfig `yaml:"endpoint" json:"endpoint"`
	Preview  PreviewConfig  `yaml:"preview" json:"preview"`
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`
	Output   OutputConfig   `yaml:"output" json:"output"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Watch    WatchConfig    `yaml:"watch" json:"watch"`
}

// EndpointConfig configures the detection API
type EndpointConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url"` // detection API root
	Timeout time.Duration `yaml:"timeout" json:"timeout"`   // whole-request timeout, upload included
}

// PreviewConfig configures the loopback preview server
type PreviewConfig struct {
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"` // host:port, port 0 picks one
}

// AnalysisConfig configures intake limits
type AnalysisConfig struct {
	MaxFileSize int64 `yaml:"max_file_size" json:"max_file_size"` // bytes, 0 disables the cap
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"` // json|text|markdown|csv
	ColorMode     string `yaml:"color_mode" json:"color_mode"`         // auto|always|never
	Verbose       bool   `yaml:"verbose" json:"verbose"`               // default verbosity
	Theme         string `yaml:"theme" json:"theme"`                   // default|high-contrast|minimal
	LogFile       string `yaml:"log_file" json:"log_file"`             // TUI log destination
}

// StorageConfig configures the analysis history
type StorageConfig struct {
	HistoryPath    string `yaml:"history_path" json:"history_path"`
	HistoryEnabled bool   `yaml:"history_enabled" json:"history_enabled"`
}

// WatchConfig configures the drop folder
type WatchConfig struct {
	SettleDelay time.Duration `yaml:"settle_delay" json:"settle_delay"` // wait after the last write before analyzing
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Endpoint: EndpointConfig{
			BaseURL: "http://localhost:5000",
			Timeout: 120 * time.Second,
		},
		Preview: PreviewConfig{
			ListenAddr: "127.0.0.1:0",
		},
		Analysis: AnalysisConfig{
			MaxFileSize: 100 * 1024 * 1024,
		},
		Output: OutputConfig{
			DefaultFormat: "text",
			ColorMode:     "auto",
			Verbose:       false,
			Theme:         "default",
			LogFile:       "~/.cache/signscan/signscan.log",
		},
		Storage: StorageConfig{
			HistoryPath:    "~/.local/share/signscan/history.db",
			HistoryEnabled: true,
		},
		Watch: WatchConfig{
			SettleDelay: 500 * time.Millisecond,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateEndpointConfig(); err != nil {
		return err
	}
	if err := c.validateOutputConfig(); err != nil {
		return err
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	return nil
}

// validateEndpointConfig validates the detection API settings
func (c *Config) validateEndpointConfig() error {
	if c.Endpoint.BaseURL == "" {
		return fmt.Errorf("endpoint base_url is required")
	}
	u, err := url.Parse(c.Endpoint.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid endpoint base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid endpoint base_url scheme: %s (must be http or https)", u.Scheme)
	}
	if c.Endpoint.Timeout <= 0 {
		return fmt.Errorf("endpoint timeout must be positive")
	}
	return nil
}

// validateOutputConfig validates output-related configuration
func (c *Config) validateOutputConfig() error {
	if c.Output.DefaultFormat != "" {
		validFormats := map[string]bool{
			"json":     true,
			"text":     true,
			"markdown": true,
			"csv":      true,
		}
		if !validFormats[c.Output.DefaultFormat] {
			return fmt.Errorf("invalid output format: %s (must be one of: json, text, markdown, csv)", c.Output.DefaultFormat)
		}
	}
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	if c.Output.Theme != "" {
		validThemes := map[string]bool{
			"default":       true,
			"high-contrast": true,
			"minimal":       true,
		}
		if !validThemes[c.Output.Theme] {
			return fmt.Errorf("invalid theme: %s (must be one of: default, high-contrast, minimal)", c.Output.Theme)
		}
	}
	return nil
}

// validateLimits validates sizes and delays
func (c *Config) validateLimits() error {
	if c.Analysis.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size must be non-negative")
	}
	if c.Watch.SettleDelay < 0 {
		return fmt.Errorf("settle_delay must be non-negative")
	}
	if c.Storage.HistoryEnabled && c.Storage.HistoryPath == "" {
		return fmt.Errorf("history_path is required when history is enabled")
	}
	return nil
}

// ExpandPath expands a leading ~ to the home directory
func ExpandPath(path string) string {
	return expandPath(path)
}
