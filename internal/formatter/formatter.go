package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/SignScan/internal/controller"
)

// Formatter defines the interface for output formatting
type Formatter interface {
	Format(state controller.State) ([]byte, error)
}

// Options controls the text formatter
type Options struct {
	Color   bool
	Emoji   bool
	Verbose bool
}

// Formats lists the accepted --output values
var Formats = []string{"text", "json", "markdown", "csv"}

// New returns the formatter for the named output format
func New(format string, opts Options) (Formatter, error) {
	switch strings.ToLower(format) {
	case "", "text", "terminal":
		return NewTerminal(opts), nil
	case "json":
		return NewJSON(), nil
	case "markdown", "md":
		return NewMarkdown(), nil
	case "csv":
		return NewCSV(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}
