package formatter

import (
	"encoding/json"

	"github.com/yildizm/SignScan/internal/common"
	"github.com/yildizm/SignScan/internal/controller"
)

// jsonFormatter formats output as JSON
type jsonFormatter struct{}

// NewJSON creates a new JSON formatter
func NewJSON() Formatter {
	return &jsonFormatter{}
}

func (f *jsonFormatter) Format(state controller.State) ([]byte, error) {
	output := &JSONOutput{
		Phase: string(state.Phase),
		File:  createFileOutput(state.File),
		Error: state.Err,
	}

	if state.Result != nil {
		output.Summary = createSummary(state.Result)
		output.Detections = createDetectionOutputs(state.Result.Detections)
	}

	return json.MarshalIndent(output, "", "  ")
}

// JSONOutput represents the JSON report of one analysis
type JSONOutput struct {
	Phase      string              `json:"phase"`
	File       *FileOutput         `json:"file,omitempty"`
	Summary    *SummaryOutput      `json:"summary,omitempty"`
	Detections []*DetectionOutput  `json:"detections,omitempty"`
	Error      *controller.Failure `json:"error,omitempty"`
}

// FileOutput represents the analyzed file
type FileOutput struct {
	Name     string `json:"name"`
	Path     string `json:"path,omitempty"`
	Size     int64  `json:"size"`
	MIMEType string `json:"type"`
	Kind     string `json:"kind"`
}

// SummaryOutput represents the summary section
type SummaryOutput struct {
	DetectionCount int      `json:"detection_count"`
	ProcessingTime *float64 `json:"processing_time,omitempty"`
	FileType       string   `json:"file_type,omitempty"`
	Message        string   `json:"message,omitempty"`
}

// DetectionOutput represents one detection in server order
type DetectionOutput struct {
	Index int `json:"index"`
	common.Detection
}

func createFileOutput(file *common.SelectedFile) *FileOutput {
	if file == nil {
		return nil
	}
	return &FileOutput{
		Name:     file.Name,
		Path:     file.Path,
		Size:     file.Size,
		MIMEType: file.MIMEType,
		Kind:     string(file.Kind()),
	}
}

func createSummary(result *common.AnalysisResult) *SummaryOutput {
	return &SummaryOutput{
		DetectionCount: result.Count(),
		ProcessingTime: result.ProcessingTime,
		FileType:       result.FileType,
		Message:        result.Message,
	}
}

func createDetectionOutputs(detections []common.Detection) []*DetectionOutput {
	outputs := make([]*DetectionOutput, 0, len(detections))
	for i, d := range detections {
		outputs = append(outputs, &DetectionOutput{Index: i + 1, Detection: d})
	}
	return outputs
}
