package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yildizm/SignScan/internal/common"
	"github.com/yildizm/SignScan/internal/controller"
	"github.com/yildizm/SignScan/internal/intake"
	"github.com/yildizm/SignScan/internal/preview"
)

const (
	Title    = "AI Traffic Sign Recognition"
	Subtitle = "Upload an image or video from your dash cam to detect and recognize traffic signs"

	PromptText     = "Drag & drop an image or video here, or press o to select"
	LoadingText    = "Analyzing for traffic signs..."
	ResultsHeading = "Detection Results"
	NoSignsText    = "No traffic signs detected in this image/video."

	AnalyzeLabel = "Analyze for Traffic Signs"
	BusyLabel    = "Analyzing..."
)

// Mode selects which of the mutually exclusive result areas is shown
type Mode string

const (
	ModePrompt   Mode = "prompt"
	ModeFileInfo Mode = "file_info"
	ModeLoading  Mode = "loading"
	ModeResults  Mode = "results"
	ModeError    Mode = "error"
)

// Button is the analyze affordance
type Button struct {
	Label   string
	Enabled bool
}

// DetectionItem is one display-ready detection
type DetectionItem struct {
	SignType    string
	Description string
	Confidence  string
	Position    string
	Size        string
	Frame       string
	Timestamp   string

	// ConfidenceValue is the raw [0,1] score, for bars
	ConfidenceValue float64
}

// View is everything a surface needs to paint one state. It holds no
// behavior and no references back into the controller.
type View struct {
	Mode Mode

	// Prompt is always present; the drop area stays available in every phase
	Prompt []string

	Preview  *preview.Handle
	FileInfo []string
	Analyze  *Button

	Loading string

	Heading        string
	Found          string
	Detections     []DetectionItem
	Empty          string
	ProcessingTime string
	Summary        string

	Error string
}

// Options tunes optional output
type Options struct {
	// Verbose adds the server summary and per-frame video details
	Verbose bool
}

// Render maps a controller state to its view. It is pure.
func Render(s controller.State, opts Options) View {
	v := View{
		Mode:   ModePrompt,
		Prompt: []string{PromptText, intake.FormatsHint()},
	}

	if s.File == nil {
		return v
	}

	v.Preview = s.Preview
	v.FileInfo = FileInfo(*s.File)
	v.Analyze = &Button{Label: AnalyzeLabel, Enabled: s.CanAnalyze()}

	switch s.Phase {
	case controller.PhaseAnalyzing:
		v.Mode = ModeLoading
		v.Loading = LoadingText
		v.Analyze.Label = BusyLabel
	case controller.PhaseSucceeded:
		v.Mode = ModeResults
		renderResult(&v, s.Result, opts)
	case controller.PhaseFailed:
		v.Mode = ModeError
		v.Error = "Error: " + s.Err.Message
	default:
		v.Mode = ModeFileInfo
	}

	return v
}

// FileInfo returns the metadata lines for a selected file
func FileInfo(f common.SelectedFile) []string {
	return []string{
		"Selected file: " + f.Name,
		fmt.Sprintf("Size: %.2f MB", f.SizeMiB()),
		"Type: " + f.MIMEType,
	}
}

func renderResult(v *View, r *common.AnalysisResult, opts Options) {
	v.Heading = ResultsHeading

	if r.Count() == 0 {
		v.Empty = NoSignsText
	} else {
		v.Found = fmt.Sprintf("Found %d traffic sign(s):", r.Count())
		v.Detections = make([]DetectionItem, 0, r.Count())
		for _, d := range r.Detections {
			v.Detections = append(v.Detections, Detection(d, opts))
		}
	}

	if r.ProcessingTime != nil {
		v.ProcessingTime = FormatProcessingTime(*r.ProcessingTime)
	}
	if opts.Verbose && r.Message != "" {
		v.Summary = r.Message
	}
}

// Detection formats one detection for display
func Detection(d common.Detection, opts Options) DetectionItem {
	item := DetectionItem{
		SignType:        d.SignType,
		Description:     d.Description,
		Confidence:      FormatConfidence(d.Confidence),
		ConfidenceValue: d.Confidence,
	}

	if c := d.Coordinates; c != nil {
		item.Position = fmt.Sprintf("Position: (%s, %s)", number(c.X), number(c.Y))
		item.Size = fmt.Sprintf("Size: %sx%s", number(c.Width), number(c.Height))
	}

	if opts.Verbose {
		if d.Frame != nil {
			item.Frame = fmt.Sprintf("Frame: %d", *d.Frame)
		}
		if d.Timestamp != nil {
			item.Timestamp = fmt.Sprintf("Timestamp: %.2fs", *d.Timestamp)
		}
	}

	return item
}

// FormatConfidence renders a [0,1] score as a percentage with one decimal
func FormatConfidence(c float64) string {
	return fmt.Sprintf("Confidence: %.1f%%", c*100)
}

// FormatProcessingTime renders seconds with two decimals
func FormatProcessingTime(seconds float64) string {
	return fmt.Sprintf("Processing time: %.2fs", seconds)
}

// number prints coordinates the way the endpoint sent them: 10 stays 10, 10.5 stays 10.5
func number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Lines flattens the view into plain text lines, in display order
func (v View) Lines() []string {
	lines := append([]string{}, v.Prompt...)

	if v.Preview != nil {
		lines = append(lines, fmt.Sprintf("Preview (%s): %s", v.Preview.Kind, v.Preview.URL))
	}
	lines = append(lines, v.FileInfo...)
	if v.Analyze != nil {
		state := "enabled"
		if !v.Analyze.Enabled {
			state = "disabled"
		}
		lines = append(lines, fmt.Sprintf("[%s] (%s)", v.Analyze.Label, state))
	}

	switch v.Mode {
	case ModeLoading:
		lines = append(lines, v.Loading)
	case ModeError:
		lines = append(lines, v.Error)
	case ModeResults:
		lines = append(lines, v.Heading)
		if v.Empty != "" {
			lines = append(lines, v.Empty)
		} else {
			lines = append(lines, v.Found)
		}
		for _, d := range v.Detections {
			lines = append(lines, d.Lines()...)
		}
		if v.ProcessingTime != "" {
			lines = append(lines, v.ProcessingTime)
		}
		if v.Summary != "" {
			lines = append(lines, v.Summary)
		}
	}

	return lines
}

// Lines returns the detection's display lines
func (d DetectionItem) Lines() []string {
	lines := []string{d.SignType, d.Description, d.Confidence}
	if d.Position != "" {
		lines = append(lines, d.Position+" "+d.Size)
	}
	for _, extra := range []string{d.Frame, d.Timestamp} {
		if extra != "" {
			lines = append(lines, extra)
		}
	}
	return lines
}

// String implements fmt.Stringer
func (v View) String() string {
	return strings.Join(v.Lines(), "\n")
}
