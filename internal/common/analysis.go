package common

// BoundingBox locates a detection in pixel units relative to the original media
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection is one recognized traffic sign
type Detection struct {
	SignType    string       `json:"sign_type"`
	Description string       `json:"description"`
	Confidence  float64      `json:"confidence"`
	Coordinates *BoundingBox `json:"coordinates,omitempty"`

	// Video analyses also report where in the stream the sign was seen
	Frame     *int     `json:"frame,omitempty"`
	Timestamp *float64 `json:"timestamp,omitempty"`
}

// AnalysisResult is the outcome of one completed analysis request.
// Detection order is the server's order and is preserved for display.
type AnalysisResult struct {
	Detections     []Detection `json:"detections"`
	ProcessingTime *float64    `json:"processing_time,omitempty"`
	FileType       string      `json:"file_type,omitempty"`
	Message        string      `json:"message,omitempty"`
}

// Count returns the number of detections
func (r *AnalysisResult) Count() int {
	if r == nil {
		return 0
	}
	return len(r.Detections)
}
