package detect

import "github.com/yildizm/SignScan/internal/common"

// analyzeResponse is the union of the success and failure payloads of /api/analyze
type analyzeResponse struct {
	Detections     []common.Detection `json:"detections"`
	ProcessingTime *float64           `json:"processing_time"`
	FileType       string             `json:"file_type"`
	Message        string             `json:"message"`
	Error          string             `json:"error"`
}

// errorResponse is the failure payload shared by every endpoint
type errorResponse struct {
	Error string `json:"error"`
}

// Health is the payload of /api/health
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
}

// SupportedSigns is the payload of /api/supported-signs
type SupportedSigns struct {
	Signs      []string `json:"supported_signs"`
	TotalCount int      `json:"total_count"`
}
