package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SampleConfig returns a fully commented configuration file
func SampleConfig() string {
	return `# SignScan configuration
version: "1.0"

endpoint:
  # Root of the traffic-sign detection API
  base_url: "http://localhost:5000"
  # Whole-request timeout, upload included
  timeout: 120s

preview:
  # Loopback address for the preview server; port 0 picks a free port
  listen_addr: "127.0.0.1:0"

analysis:
  # Largest accepted upload in bytes (0 disables the cap)
  max_file_size: 104857600

output:
  default_format: "text" # text|json|markdown|csv
  color_mode: "auto"     # auto|always|never
  verbose: false
  theme: "default"       # default|high-contrast|minimal
  # The interactive UI owns the terminal, so it logs here
  log_file: "~/.cache/signscan/signscan.log"

storage:
  history_enabled: true
  history_path: "~/.local/share/signscan/history.db"

watch:
  # Wait this long after the last write before analyzing a dropped file
  settle_delay: 500ms
`
}

// MinimalSampleConfig returns the smallest useful configuration file
func MinimalSampleConfig() string {
	return `version: "1.0"
endpoint:
  base_url: "http://localhost:5000"
`
}

// Marshal renders a config as YAML
func Marshal(c *Config) (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}
