package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yildizm/SignScan/internal/common"
	"github.com/yildizm/SignScan/internal/controller"
	"github.com/yildizm/SignScan/internal/detect"
	"github.com/yildizm/SignScan/internal/history"
	"github.com/yildizm/SignScan/internal/intake"
	"github.com/yildizm/SignScan/internal/preview"
	"github.com/yildizm/SignScan/internal/render"
)

type fakeAnalyzer struct {
	result *common.AnalysisResult
	err    error
	calls  int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ common.SelectedFile) (*common.AnalysisResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeRecorder struct {
	states []controller.State
}

func (f *fakeRecorder) Record(_ context.Context, s controller.State) (*history.Entry, error) {
	f.states = append(f.states, s)
	return &history.Entry{ID: fmt.Sprintf("h%d", len(f.states))}, nil
}

type fixture struct {
	model    *Model
	previews *preview.Manager
	analyzer *fakeAnalyzer
	recorder *fakeRecorder
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	seq := 0
	previews := preview.NewManager(nil, nil)
	ctrl := controller.New(intake.New(0), previews, controller.WithTokenSource(func() string {
		seq++
		return fmt.Sprintf("t%d", seq)
	}))

	f := &fixture{
		previews: previews,
		analyzer: &fakeAnalyzer{result: &common.AnalysisResult{Detections: []common.Detection{
			{SignType: "Stop Sign", Description: "Octagonal red sign", Confidence: 0.95},
		}}},
		recorder: &fakeRecorder{},
		dir:      t.TempDir(),
	}
	f.model = NewModel(ctrl, Options{Analyzer: f.analyzer, History: f.recorder})
	return f
}

func (f *fixture) file(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, []byte("media"), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func (f *fixture) send(msg tea.Msg) tea.Cmd {
	_, cmd := f.model.Update(msg)
	return cmd
}

func paste(text string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text), Paste: true}
}

func key(k string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// collect runs a command and flattens batches into their messages
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func findDone(t *testing.T, msgs []tea.Msg) analysisDoneMsg {
	t.Helper()
	for _, msg := range msgs {
		if done, ok := msg.(analysisDoneMsg); ok {
			return done
		}
	}
	t.Fatalf("Expected an analysis completion among %d messages", len(msgs))
	return analysisDoneMsg{}
}

func TestModel_PasteSelectsFile(t *testing.T) {
	f := newFixture(t)
	path := f.file(t, "stop.png")

	f.send(paste("'" + path + "'"))

	state := f.model.ctrl.State()
	if state.Phase != controller.PhaseReady || state.File == nil || state.File.Name != "stop.png" {
		t.Fatalf("Expected stop.png to be ready, got %+v", state)
	}

	view := f.model.View()
	for _, want := range []string{render.PromptText, "Selected file: stop.png", "Type: image/png", render.AnalyzeLabel} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}
}

func TestModel_PasteRejectedKeepsState(t *testing.T) {
	f := newFixture(t)
	path := f.file(t, "notes.txt")

	cmd := f.send(paste(path))
	if cmd == nil {
		t.Error("Expected a status timer for the rejection")
	}

	if f.model.ctrl.State().File != nil {
		t.Error("Expected a rejected drop to leave no selection")
	}
	if !f.model.statusError || !strings.Contains(f.model.status, "not a supported") {
		t.Errorf("Expected an unsupported status line, got %q", f.model.status)
	}

	// The timer clears only its own status
	f.send(clearStatusMsg{seq: f.model.statusSeq - 1})
	if f.model.status == "" {
		t.Error("Expected an old timer to leave the status alone")
	}
	f.send(clearStatusMsg{seq: f.model.statusSeq})
	if f.model.status != "" {
		t.Error("Expected the status to clear")
	}
}

func TestModel_AnalyzeSuccess(t *testing.T) {
	f := newFixture(t)
	f.send(paste(f.file(t, "stop.png")))

	cmd := f.send(key("a"))
	if cmd == nil {
		t.Fatal("Expected analyze to start a request")
	}
	if f.model.ctrl.State().Phase != controller.PhaseAnalyzing {
		t.Fatalf("Expected analyzing, got %s", f.model.ctrl.State().Phase)
	}
	if view := f.model.View(); !strings.Contains(view, render.LoadingText) || !strings.Contains(view, render.BusyLabel) {
		t.Error("Expected the loading indicator and busy label")
	}

	// A second press while analyzing is ignored
	if again := f.send(key("a")); again != nil {
		t.Error("Expected a second analyze to be refused")
	}

	done := findDone(t, collect(cmd))
	recordCmdOut := f.send(done)

	if f.model.ctrl.State().Phase != controller.PhaseSucceeded {
		t.Fatalf("Expected succeeded, got %s", f.model.ctrl.State().Phase)
	}
	view := f.model.View()
	for _, want := range []string{render.ResultsHeading, "Found 1 traffic sign(s):", "Stop Sign", "Confidence: 95.0%"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}

	for _, msg := range collect(recordCmdOut) {
		f.send(msg)
	}
	if len(f.recorder.states) != 1 || f.recorder.states[0].Phase != controller.PhaseSucceeded {
		t.Errorf("Expected the success to be recorded once, got %d", len(f.recorder.states))
	}
	if f.analyzer.calls != 1 {
		t.Errorf("Expected one request, got %d", f.analyzer.calls)
	}
}

func TestModel_FailureShowsMessage(t *testing.T) {
	f := newFixture(t)
	f.analyzer.result = nil
	f.analyzer.err = detect.NewServerError("file too large", 413)

	f.send(paste(f.file(t, "clip.mp4")))
	done := findDone(t, collect(f.send(key("enter"))))
	f.send(done)

	state := f.model.ctrl.State()
	if state.Phase != controller.PhaseFailed || state.Err.Message != "file too large" {
		t.Fatalf("Expected failure with server message, got %+v", state)
	}
	if view := f.model.View(); !strings.Contains(view, "Error: file too large") {
		t.Error("Expected the error line in the view")
	}
}

func TestModel_StaleCompletionDiscarded(t *testing.T) {
	f := newFixture(t)
	f.send(paste(f.file(t, "a.png")))
	f.send(key("a")) // request t1 is left outstanding

	f.send(paste(f.file(t, "b.png")))
	state := f.model.ctrl.State()
	if state.Phase != controller.PhaseReady || state.File.Name != "b.png" {
		t.Fatalf("Expected b.png ready after superseding, got %+v", state)
	}

	if cmd := f.send(key("a")); cmd != nil {
		t.Error("Expected analyze to wait for the superseded request")
	}

	f.send(analysisDoneMsg{Completion: controller.Completion{Token: "t1", Result: f.analyzer.result}})

	state = f.model.ctrl.State()
	if state.Phase != controller.PhaseReady || state.Result != nil {
		t.Fatalf("Expected stale result to be discarded, got %+v", state)
	}
	if strings.Contains(f.model.View(), render.ResultsHeading) {
		t.Error("Expected no results for the superseded file")
	}
	if len(f.recorder.states) != 0 {
		t.Error("Expected nothing recorded for a stale completion")
	}

	if cmd := f.send(key("a")); cmd == nil {
		t.Error("Expected analyze to be allowed once the old request settled")
	}
}

func TestModel_QuitReleasesPreview(t *testing.T) {
	f := newFixture(t)
	f.send(paste(f.file(t, "stop.png")))

	if f.previews.Live() != 1 {
		t.Fatalf("Expected one live preview, got %d", f.previews.Live())
	}

	cmd := f.send(key("q"))
	if cmd == nil {
		t.Fatal("Expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
	if f.previews.Live() != 0 {
		t.Errorf("Expected previews released on quit, got %d live", f.previews.Live())
	}
	if f.model.View() != "" {
		t.Error("Expected an empty view after quitting")
	}
}

func TestModel_PickerToggle(t *testing.T) {
	f := newFixture(t)

	f.send(key("o"))
	if !f.model.picking {
		t.Fatal("Expected o to open the picker")
	}
	if !strings.Contains(f.model.View(), "esc cancel") {
		t.Error("Expected picker hint in view")
	}

	// Keys meant for the main screen are not acted on while picking
	f.send(key("a"))
	if f.model.ctrl.State().Phase != controller.PhaseIdle {
		t.Error("Expected no analysis while picking")
	}

	f.send(tea.KeyMsg{Type: tea.KeyEsc})
	if f.model.picking {
		t.Error("Expected esc to close the picker")
	}
}

func TestModel_FolderDrop(t *testing.T) {
	f := newFixture(t)
	drops := make(chan string, 1)
	f.model.opts.Drops = drops

	cmd := f.send(fileDroppedMsg{path: f.file(t, "dash.webm")})
	if cmd == nil {
		t.Error("Expected the drop listener to be re-armed")
	}

	state := f.model.ctrl.State()
	if state.File == nil || state.File.MIMEType != "video/webm" {
		t.Fatalf("Expected the dropped video to be selected, got %+v", state.File)
	}
	if !strings.Contains(f.model.View(), "watching folder") {
		t.Error("Expected the watch hint in the help line")
	}
}

func TestWaitForDrop(t *testing.T) {
	if waitForDrop(nil) != nil {
		t.Error("Expected no listener without a channel")
	}

	drops := make(chan string, 1)
	drops <- "/tmp/x.png"
	if msg, ok := waitForDrop(drops)().(fileDroppedMsg); !ok || msg.path != "/tmp/x.png" {
		t.Errorf("Expected fileDroppedMsg, got %#v", msg)
	}

	close(drops)
	if msg := waitForDrop(drops)(); msg != nil {
		t.Errorf("Expected nil after close, got %#v", msg)
	}
}

func TestSelectionMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unsupported", &intake.SelectionError{Name: "a.txt", Err: intake.ErrUnsupported}, "a.txt is not a supported image or video"},
		{"too large", &intake.SelectionError{Name: "big.mp4", Err: intake.ErrTooLarge}, "big.mp4 is too large to analyze"},
		{"unreadable", &intake.SelectionError{Err: fmt.Errorf("%w: gone", intake.ErrUnreadable)}, "File could not be read"},
		{"foreign", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := selectionMessage(tt.err); !strings.HasPrefix(got, tt.want) {
				t.Errorf("selectionMessage() = %q, want prefix %q", got, tt.want)
			}
		})
	}
}

func TestSetThemeByName(t *testing.T) {
	defer SetTheme(&DefaultTheme)

	for _, name := range GetAvailableThemes() {
		if !SetThemeByName(name) {
			t.Errorf("Expected theme %s to exist", name)
		}
		if GetTheme().Name != name {
			t.Errorf("Expected active theme %s, got %s", name, GetTheme().Name)
		}
	}
	if SetThemeByName("neon") {
		t.Error("Expected unknown theme to be rejected")
	}
}
