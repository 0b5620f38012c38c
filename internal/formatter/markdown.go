package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/SignScan/internal/controller"
	"github.com/yildizm/SignScan/internal/emoji"
	"github.com/yildizm/SignScan/internal/render"
)

// markdownFormatter formats output as Markdown
type markdownFormatter struct{}

// NewMarkdown creates a new Markdown formatter
func NewMarkdown() Formatter {
	return &markdownFormatter{}
}

func (f *markdownFormatter) Format(state controller.State) ([]byte, error) {
	var b strings.Builder

	b.WriteString("# Traffic Sign Analysis Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	if state.File == nil {
		b.WriteString("No file selected.\n")
		return []byte(b.String()), nil
	}

	f.writeFileTable(&b, state)

	view := render.Render(state, render.Options{Verbose: true})
	switch view.Mode {
	case render.ModeResults:
		f.writeResults(&b, view)
	case render.ModeError:
		fmt.Fprintf(&b, "## Error\n\n%s\n\n", view.Error)
	case render.ModeLoading:
		fmt.Fprintf(&b, "_%s_\n\n", view.Loading)
	}

	b.WriteString("---\n")
	b.WriteString("*Report generated by SignScan - Traffic Sign Recognition*\n")

	return []byte(b.String()), nil
}

// writeFileTable writes the file metadata table
func (f *markdownFormatter) writeFileTable(b *strings.Builder, state controller.State) {
	b.WriteString("## File\n\n")
	b.WriteString("| Field | Value |\n")
	b.WriteString("|-------|-------|\n")
	fmt.Fprintf(b, "| Name | %s |\n", escapeMarkdownCell(state.File.Name))
	fmt.Fprintf(b, "| Size | %s |\n", formatSize(state.File.Size))
	fmt.Fprintf(b, "| Type | %s |\n", state.File.MIMEType)
	if state.Result != nil && state.Result.FileType != "" {
		fmt.Fprintf(b, "| Analyzed as | %s |\n", state.Result.FileType)
	}
	b.WriteString("\n")
}

// writeResults writes one section per detection
func (f *markdownFormatter) writeResults(b *strings.Builder, view render.View) {
	fmt.Fprintf(b, "## %s\n\n", view.Heading)

	if view.Empty != "" {
		b.WriteString(view.Empty + "\n\n")
	} else {
		fmt.Fprintf(b, "**%s**\n\n", view.Found)

		opts := termfmt.DefaultOptions()
		opts.Color = false
		for _, d := range view.Detections {
			fmt.Fprintf(b, "### %s %s\n\n", emoji.ForSign(d.SignType, true), d.SignType)
			if d.Description != "" {
				fmt.Fprintf(b, "%s\n\n", d.Description)
			}
			fmt.Fprintf(b, "**%s** %s\n\n", d.Confidence, termfmt.CreateConfidenceBar(d.ConfidenceValue, opts))
			if d.Position != "" {
				fmt.Fprintf(b, "%s %s\n\n", d.Position, d.Size)
			}
			for _, extra := range []string{d.Frame, d.Timestamp} {
				if extra != "" {
					fmt.Fprintf(b, "%s\n\n", extra)
				}
			}
		}
	}

	if view.ProcessingTime != "" {
		fmt.Fprintf(b, "_%s_\n\n", view.ProcessingTime)
	}
	if view.Summary != "" {
		fmt.Fprintf(b, "> %s\n\n", view.Summary)
	}
}

func escapeMarkdownCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
