package detect

import (
	"net/url"
	"time"
)

// Config holds detection endpoint settings
type Config struct {
	// BaseURL is the detection API root
	BaseURL string `json:"base_url"`

	// Timeout for a whole request, upload included
	Timeout time.Duration `json:"timeout"`
}

// DefaultConfig returns the settings for a locally running endpoint
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://localhost:5000",
		Timeout: 120 * time.Second,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return &ConfigurationError{Field: "base_url", Message: "base URL is required"}
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return &ConfigurationError{Field: "base_url", Message: "invalid base URL: " + err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigurationError{Field: "base_url", Message: "scheme must be http or https"}
	}

	if c.Timeout <= 0 {
		return &ConfigurationError{Field: "timeout", Message: "timeout must be positive"}
	}

	return nil
}
