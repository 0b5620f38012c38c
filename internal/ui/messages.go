package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yildizm/SignScan/internal/controller"
	"github.com/yildizm/SignScan/internal/history"
)

// Recorder persists finished analyses
type Recorder interface {
	Record(ctx context.Context, state controller.State) (*history.Entry, error)
}

// analysisDoneMsg carries a finished request back to the update loop
type analysisDoneMsg struct {
	controller.Completion
}

// fileDroppedMsg is a path delivered by the drop folder
type fileDroppedMsg struct {
	path string
}

type historyRecordedMsg struct {
	entry *history.Entry
	err   error
}

type clearStatusMsg struct {
	seq int
}

// statusTTL is how long a transient status line stays up
const statusTTL = 4 * time.Second

// analyzeCmd runs the request off the update loop
func analyzeCmd(req *controller.Request, a controller.Analyzer) tea.Cmd {
	return func() tea.Msg {
		return analysisDoneMsg{Completion: req.Run(a)}
	}
}

// waitForDrop blocks until the drop folder yields a path
func waitForDrop(drops <-chan string) tea.Cmd {
	if drops == nil {
		return nil
	}
	return func() tea.Msg {
		path, ok := <-drops
		if !ok {
			return nil
		}
		return fileDroppedMsg{path: path}
	}
}

// recordCmd stores a finished state in the history
func recordCmd(r Recorder, state controller.State) tea.Cmd {
	if r == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		entry, err := r.Record(ctx, state)
		return historyRecordedMsg{entry: entry, err: err}
	}
}

func clearStatusAfter(seq int) tea.Cmd {
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}
