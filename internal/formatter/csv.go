package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/yildizm/SignScan/internal/controller"
)

// csvFormatter formats detections as CSV, one row per detection
type csvFormatter struct{}

// NewCSV creates a new CSV formatter
func NewCSV() Formatter {
	return &csvFormatter{}
}

func (f *csvFormatter) Format(state controller.State) ([]byte, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)

	headers := []string{
		"File",
		"Index",
		"Sign Type",
		"Description",
		"Confidence",
		"X",
		"Y",
		"Width",
		"Height",
		"Frame",
		"Timestamp",
	}

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	fileName := ""
	if state.File != nil {
		fileName = state.File.Name
	}

	if state.Result != nil {
		for i, d := range state.Result.Detections {
			record := []string{
				fileName,
				fmt.Sprintf("%d", i+1),
				d.SignType,
				escapeCSVString(d.Description),
				fmt.Sprintf("%.4f", d.Confidence),
			}
			record = append(record, boxFields(d.Coordinates)...)
			record = append(record, optionalInt(d.Frame), optionalFloat(d.Timestamp))

			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return b.Bytes(), nil
}

// escapeCSVString flattens and truncates free text for CSV
func escapeCSVString(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")

	if len(s) > 100 {
		s = s[:97] + "..."
	}

	return s
}
