package common

import (
	"bytes"
	"io"
	"os"
	"strings"
)

// MediaKind classifies a selected file for previewing
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// KindOf derives the media kind from a declared MIME type.
// Anything that is not video/* is previewed as an image.
func KindOf(mimeType string) MediaKind {
	if strings.HasPrefix(strings.ToLower(mimeType), "video/") {
		return MediaVideo
	}
	return MediaImage
}

// SelectedFile is the single file chosen for analysis. It is never mutated
// after intake accepts it; a new selection replaces it wholesale.
type SelectedFile struct {
	Name     string `json:"name"`
	Path     string `json:"path,omitempty"`
	Size     int64  `json:"size"`
	MIMEType string `json:"type"`

	data []byte
}

// NewMemoryFile builds a SelectedFile backed by an in-memory payload
func NewMemoryFile(name, mimeType string, data []byte) SelectedFile {
	return SelectedFile{
		Name:     name,
		Size:     int64(len(data)),
		MIMEType: mimeType,
		data:     data,
	}
}

// Kind returns the media kind of the file
func (f SelectedFile) Kind() MediaKind {
	return KindOf(f.MIMEType)
}

// SizeMiB returns the size in mebibytes
func (f SelectedFile) SizeMiB() float64 {
	return float64(f.Size) / 1024 / 1024
}

// Open returns a seekable reader over the raw bytes
func (f SelectedFile) Open() (io.ReadSeekCloser, error) {
	if f.data != nil {
		return memoryReader{bytes.NewReader(f.data)}, nil
	}
	// #nosec G304 - path was accepted by intake
	return os.Open(f.Path)
}

type memoryReader struct {
	*bytes.Reader
}

func (memoryReader) Close() error { return nil }
