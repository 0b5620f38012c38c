package intake

import (
	"path/filepath"
	"strings"
)

// format describes one accepted file extension
type format struct {
	ext      string
	mimeType string
	label    string
}

// Images first, then videos; the hint and picker filter keep this order.
var supportedFormats = []format{
	{".jpeg", "image/jpeg", "JPEG"},
	{".jpg", "image/jpeg", ""},
	{".png", "image/png", "PNG"},
	{".gif", "image/gif", "GIF"},
	{".bmp", "image/bmp", "BMP"},
	{".mp4", "video/mp4", "MP4"},
	{".avi", "video/x-msvideo", "AVI"},
	{".mov", "video/quicktime", "MOV"},
	{".wmv", "video/x-ms-wmv", "WMV"},
	{".flv", "video/x-flv", "FLV"},
	{".webm", "video/webm", "WebM"},
}

// MIMETypeFor returns the declared type for a supported file name
func MIMETypeFor(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	for _, f := range supportedFormats {
		if f.ext == ext {
			return f.mimeType, true
		}
	}
	return "", false
}

// IsSupported reports whether a file name carries an accepted extension
func IsSupported(name string) bool {
	_, ok := MIMETypeFor(name)
	return ok
}

// Extensions returns every accepted extension, dot included
func Extensions() []string {
	exts := make([]string, 0, len(supportedFormats))
	for _, f := range supportedFormats {
		exts = append(exts, f.ext)
	}
	return exts
}

// FormatsHint returns the human-readable list of supported formats
func FormatsHint() string {
	labels := make([]string, 0, len(supportedFormats))
	for _, f := range supportedFormats {
		if f.label != "" {
			labels = append(labels, f.label)
		}
	}
	return "Supported formats: " + strings.Join(labels, ", ")
}
