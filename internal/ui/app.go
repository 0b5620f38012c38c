package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yildizm/SignScan/internal/controller"
	"github.com/yildizm/SignScan/internal/emoji"
	"github.com/yildizm/SignScan/internal/intake"
	"github.com/yildizm/SignScan/internal/logger"
	"github.com/yildizm/SignScan/internal/render"
)

// Options configures the interactive app
type Options struct {
	Analyzer controller.Analyzer
	History  Recorder
	Logger   *logger.Logger
	Verbose  bool

	// Drops receives paths from a watched folder
	Drops <-chan string

	// StartDir is where the file picker opens
	StartDir string
}

// Model is the interactive upload-analyze screen. The bubbletea update loop
// is the only goroutine that touches the controller.
type Model struct {
	ctrl   *controller.Controller
	opts   Options
	log    *logger.Logger
	styles *Styles

	ctx    context.Context
	cancel context.CancelFunc

	spinner spinner.Model
	picker  filepicker.Model
	picking bool

	width  int
	height int

	status      string
	statusError bool
	statusSeq   int

	quitting bool
}

// NewModel creates the interactive model around a controller
func NewModel(ctrl *controller.Controller, opts Options) *Model {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	fp := filepicker.New()
	fp.AllowedTypes = intake.Extensions()
	if opts.StartDir != "" {
		fp.CurrentDirectory = opts.StartDir
	}

	styles := GetStyles()
	sp.Style = styles.Progress

	ctx, cancel := context.WithCancel(context.Background())

	return &Model{
		ctrl:    ctrl,
		opts:    opts,
		log:     log.WithComponent("ui"),
		styles:  styles,
		ctx:     ctx,
		cancel:  cancel,
		spinner: sp,
		picker:  fp,
	}
}

// Init starts the picker's directory read and the drop folder listener
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.picker.Init(),
		waitForDrop(m.opts.Drops),
	)
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowResize(msg)
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case spinner.TickMsg:
		return m.handleSpinnerTick(msg)
	case analysisDoneMsg:
		return m.handleAnalysisDone(msg)
	case fileDroppedMsg:
		cmd := m.submit([]string{msg.path})
		return m, tea.Batch(cmd, waitForDrop(m.opts.Drops))
	case historyRecordedMsg:
		return m.handleHistoryRecorded(msg)
	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			m.statusError = false
		}
		return m, nil
	}

	// Directory listings and other picker traffic
	if m.picking {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A terminal drop arrives as a bracketed paste of the path
	if msg.Paste {
		return m, m.submit(intake.ParseDropped(string(msg.Runes)))
	}

	if m.picking {
		return m.handlePickerKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m.handleQuit()
	case "o":
		m.picking = true
		return m, m.picker.Init()
	case "a", "enter":
		return m, m.analyze()
	}
	return m, nil
}

func (m *Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.handleQuit()
	case "esc", "q":
		m.picking = false
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.picking = false
		return m, tea.Batch(cmd, m.submit([]string{path}))
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		return m, tea.Batch(cmd, m.setStatus(fmt.Sprintf("%s: %s", path, intake.ErrUnsupported), true))
	}
	return m, cmd
}

func (m *Model) handleQuit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.cancel()
	m.ctrl.Close()
	return m, tea.Quit
}

// submit offers the first path to the controller. Rejections leave the
// screen as it was and show a transient status line.
func (m *Model) submit(paths []string) tea.Cmd {
	if len(paths) == 0 {
		return nil
	}

	candidate, err := intake.FromPath(paths[0])
	if err == nil {
		err = m.ctrl.Submit(candidate)
	}
	if err != nil {
		m.log.WarnWithFields("selection rejected", []logger.Field{logger.Error(err)})
		return m.setStatus(selectionMessage(err), true)
	}

	m.status = ""
	m.statusError = false
	return nil
}

func (m *Model) analyze() tea.Cmd {
	if m.opts.Analyzer == nil {
		return nil
	}
	req, ok := m.ctrl.Analyze(m.ctx)
	if !ok {
		return nil
	}
	return tea.Batch(analyzeCmd(req, m.opts.Analyzer), m.spinner.Tick)
}

func (m *Model) handleSpinnerTick(msg spinner.TickMsg) (tea.Model, tea.Cmd) {
	if m.ctrl.State().Phase != controller.PhaseAnalyzing {
		return m, nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m *Model) handleAnalysisDone(msg analysisDoneMsg) (tea.Model, tea.Cmd) {
	if !m.ctrl.Complete(msg.Token, msg.Result, msg.Err) {
		return m, nil
	}
	if msg.Err != nil {
		m.log.WarnWithFields("analysis failed", []logger.Field{logger.Token(msg.Token), logger.Error(msg.Err)})
	}
	return m, recordCmd(m.opts.History, m.ctrl.State())
}

func (m *Model) handleHistoryRecorded(msg historyRecordedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.log.WarnWithFields("failed to record history", []logger.Field{logger.Error(msg.err)})
		return m, nil
	}
	if msg.entry != nil {
		m.log.DebugWithFields("analysis recorded", []logger.Field{logger.F("id", msg.entry.ID)})
	}
	return m, nil
}

func (m *Model) setStatus(text string, isError bool) tea.Cmd {
	m.statusSeq++
	m.status = text
	m.statusError = isError
	return clearStatusAfter(m.statusSeq)
}

// selectionMessage turns an intake rejection into a status line
func selectionMessage(err error) string {
	var se *intake.SelectionError
	if !errors.As(err, &se) {
		return err.Error()
	}

	name := se.Name
	if name == "" {
		name = "File"
	}
	switch {
	case errors.Is(err, intake.ErrUnsupported):
		return fmt.Sprintf("%s is not a supported image or video. %s", name, intake.FormatsHint())
	case errors.Is(err, intake.ErrTooLarge):
		return fmt.Sprintf("%s is too large to analyze", name)
	case errors.Is(err, intake.ErrUnreadable):
		return fmt.Sprintf("%s could not be read", name)
	default:
		return se.Error()
	}
}

// View renders the current state
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	view := render.Render(m.ctrl.State(), render.Options{Verbose: m.opts.Verbose})

	sections := []string{m.renderHeader()}
	if m.picking {
		sections = append(sections, m.renderPicker())
	} else {
		sections = append(sections, m.renderView(view))
	}
	if m.status != "" {
		sections = append(sections, m.renderStatus())
	}
	sections = append(sections, m.renderHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderHeader() string {
	title := m.styles.Title.Render(emoji.GetEmoji("sign") + " " + render.Title)
	subtitle := m.styles.Subtitle.Render(render.Subtitle)
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderPicker() string {
	hint := m.styles.Muted.Render("enter select • esc cancel")
	return m.styles.Box.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Header.Render(emoji.GetEmoji("folder")+" "+m.picker.CurrentDirectory),
		"",
		m.picker.View(),
		hint,
	))
}

// renderView paints a render.View. It reads nothing but the view and the spinner.
func (m *Model) renderView(v render.View) string {
	sections := []string{m.styles.DropZone.Render(strings.Join(v.Prompt, "\n"))}

	if v.Preview != nil {
		line := fmt.Sprintf("%s Preview: %s", emoji.ForMedia(string(v.Preview.Kind)), v.Preview.URL)
		sections = append(sections, m.styles.Info.Render(line))
	}
	if len(v.FileInfo) > 0 {
		sections = append(sections, m.styles.Panel.Render(strings.Join(v.FileInfo, "\n")))
	}
	if v.Analyze != nil {
		sections = append(sections, m.renderButton(*v.Analyze))
	}

	switch v.Mode {
	case render.ModeLoading:
		sections = append(sections, m.spinner.View()+" "+m.styles.Progress.Render(v.Loading))
	case render.ModeResults:
		sections = append(sections, m.renderResults(v))
	case render.ModeError:
		sections = append(sections, m.styles.Error.Render(emoji.GetEmoji("error")+" "+v.Error))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderButton(b render.Button) string {
	if b.Enabled {
		return m.styles.Button.Render(b.Label) + m.styles.Muted.Render(" (a)")
	}
	return m.styles.ButtonDisabled.Render(b.Label)
}

func (m *Model) renderResults(v render.View) string {
	lines := []string{m.styles.Header.Render(emoji.GetEmoji("detection") + " " + v.Heading)}

	if v.Empty != "" {
		lines = append(lines, m.styles.Muted.Render(v.Empty))
	} else {
		lines = append(lines, m.styles.Found.Render(v.Found))
		for _, d := range v.Detections {
			lines = append(lines, "", m.styles.Sign.Render(emoji.ForSign(d.SignType, !emoji.IsEmojiDisabled())+" "+d.SignType))
			for _, detail := range d.Lines()[1:] {
				lines = append(lines, "  "+m.styles.Body.Render(detail))
			}
		}
	}

	if v.ProcessingTime != "" {
		lines = append(lines, "", m.styles.Muted.Render(emoji.GetEmoji("clock")+" "+v.ProcessingTime))
	}
	if v.Summary != "" {
		lines = append(lines, m.styles.Info.Render(v.Summary))
	}

	return m.styles.Box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *Model) renderStatus() string {
	if m.statusError {
		return m.styles.Warning.Render(emoji.GetEmoji("warning") + " " + m.status)
	}
	return m.styles.Info.Render(m.status)
}

func (m *Model) renderHelp() string {
	help := []string{"o open", "a analyze", "paste a path to drop", "q quit"}
	if m.opts.Drops != nil {
		help = append(help, emoji.GetEmoji("watch")+" watching folder")
	}
	return m.styles.Muted.Render(strings.Join(help, " • "))
}

// Run starts the interactive program and blocks until it exits
func Run(ctrl *controller.Controller, opts Options) error {
	m := NewModel(ctrl, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	m.cancel()
	ctrl.Close()
	return err
}
