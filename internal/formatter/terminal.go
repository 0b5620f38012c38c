package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/SignScan/internal/controller"
	"github.com/yildizm/SignScan/internal/emoji"
	"github.com/yildizm/SignScan/internal/render"
)

// terminalFormatter formats output as plain text for terminal display using go-termfmt
type terminalFormatter struct {
	opts    *termfmt.TerminalOptions
	verbose bool
}

// NewTerminal creates a new terminal formatter
func NewTerminal(o Options) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = o.Color
	opts.Emoji = o.Emoji
	return &terminalFormatter{opts: opts, verbose: o.Verbose}
}

func (f *terminalFormatter) Format(state controller.State) ([]byte, error) {
	var b strings.Builder
	view := render.Render(state, render.Options{Verbose: f.verbose})

	f.writeHeader(&b)

	if state.File == nil {
		for _, line := range view.Prompt {
			b.WriteString(line + "\n")
		}
		return []byte(b.String()), nil
	}

	f.writeFileInfo(&b, view)

	switch view.Mode {
	case render.ModeLoading:
		b.WriteString(view.Loading + "\n")
	case render.ModeError:
		f.writeError(&b, view)
	case render.ModeResults:
		f.writeResults(&b, view)
	}

	return []byte(b.String()), nil
}

// writeHeader writes a header with box drawing
func (f *terminalFormatter) writeHeader(b *strings.Builder) {
	header := render.Title
	headerLen := len(header)

	b.WriteString("╔" + strings.Repeat("═", headerLen+2) + "╗\n")
	b.WriteString("║ " + header + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", headerLen+2) + "╝\n\n")
}

// writeFileInfo writes the selected file as a tree
func (f *terminalFormatter) writeFileInfo(b *strings.Builder, view render.View) {
	symbol := termfmt.GetEmoji("statistics", f.opts)
	b.WriteString(symbol + " File\n")

	items := make([]termfmt.TreeItem, 0, len(view.FileInfo))
	for i, line := range view.FileInfo {
		items = append(items, termfmt.TreeItem{Label: line, Last: i == len(view.FileInfo)-1})
	}

	tree := termfmt.TreeViewWithOptions(items, f.opts)
	b.WriteString(tree + "\n\n")
}

// writeResults writes detections with confidence bars using go-termfmt
func (f *terminalFormatter) writeResults(b *strings.Builder, view render.View) {
	symbol := termfmt.GetEmoji("insights", f.opts)
	b.WriteString(symbol + " " + view.Heading + "\n")

	if view.Empty != "" {
		b.WriteString(termfmt.GetEmoji("info", f.opts) + " " + view.Empty + "\n")
	} else {
		b.WriteString(view.Found + "\n")

		items := make([]termfmt.TreeItem, 0, len(view.Detections))
		for i, d := range view.Detections {
			items = append(items, termfmt.TreeItem{
				Label:    fmt.Sprintf("%s %s", emoji.ForSign(d.SignType, f.opts.Emoji), d.SignType),
				Value:    "",
				Children: f.detectionChildren(d),
				Last:     i == len(view.Detections)-1,
			})
		}

		tree := termfmt.TreeViewWithOptions(items, f.opts)
		b.WriteString(tree + "\n")
	}

	if view.ProcessingTime != "" {
		b.WriteString("\n" + view.ProcessingTime + "\n")
	}
	if view.Summary != "" {
		b.WriteString(termfmt.GetEmoji("summary", f.opts) + " " + view.Summary + "\n")
	}
}

func (f *terminalFormatter) detectionChildren(d render.DetectionItem) []termfmt.TreeItem {
	children := []termfmt.TreeItem{
		{Label: d.Description},
		{Label: termfmt.CreateConfidenceBar(d.ConfidenceValue, f.opts) + " " + d.Confidence},
	}
	if d.Position != "" {
		children = append(children, termfmt.TreeItem{Label: d.Position + " " + d.Size})
	}
	for _, extra := range []string{d.Frame, d.Timestamp} {
		if extra != "" {
			children = append(children, termfmt.TreeItem{Label: extra})
		}
	}
	children[len(children)-1].Last = true
	return children
}

// writeError writes the failure line
func (f *terminalFormatter) writeError(b *strings.Builder, view render.View) {
	symbol := termfmt.GetEmoji("error", f.opts)
	b.WriteString(symbol + " " + view.Error + "\n")
}
