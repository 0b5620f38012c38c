package intake

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yildizm/SignScan/internal/common"
)

// DefaultMaxFileSize matches the upload cap of the analysis endpoint
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

var (
	ErrNoCandidate = errors.New("no file offered")
	ErrUnsupported = errors.New("file type not supported")
	ErrTooLarge    = errors.New("file exceeds maximum size")
	ErrUnreadable  = errors.New("file is not readable")
)

// SelectionError reports a candidate that was rejected before it reached the controller state
type SelectionError struct {
	Name string
	Err  error
}

// Error implements the error interface
func (e *SelectionError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("selection rejected: %v", e.Err)
	}
	return fmt.Sprintf("selection rejected for %q: %v", e.Name, e.Err)
}

// Unwrap returns the underlying reason
func (e *SelectionError) Unwrap() error {
	return e.Err
}

// IsSelectionError checks if an error is a selection rejection
func IsSelectionError(err error) bool {
	var se *SelectionError
	return errors.As(err, &se)
}

// Candidate is a file offered by a drop or pick surface
type Candidate struct {
	Name     string
	Path     string
	Size     int64
	MIMEType string

	data []byte
}

// MemoryCandidate offers an in-memory payload
func MemoryCandidate(name, mimeType string, data []byte) Candidate {
	return Candidate{Name: name, Size: int64(len(data)), MIMEType: mimeType, data: data}
}

// Intake accepts at most one file per call
type Intake struct {
	maxSize int64
}

// New creates an intake with the given size cap (0 disables the cap)
func New(maxSize int64) *Intake {
	return &Intake{maxSize: maxSize}
}

// Select validates the first candidate and ignores the rest
func (in *Intake) Select(candidates ...Candidate) (common.SelectedFile, error) {
	if len(candidates) == 0 {
		return common.SelectedFile{}, &SelectionError{Err: ErrNoCandidate}
	}
	c := candidates[0]

	name := c.Name
	if name == "" {
		name = filepath.Base(c.Path)
	}

	declared, ok := MIMETypeFor(name)
	if !ok {
		return common.SelectedFile{}, &SelectionError{Name: name, Err: ErrUnsupported}
	}
	mimeType := c.MIMEType
	if mimeType == "" {
		mimeType = declared
	}
	if !matchesPattern(mimeType, declared) {
		return common.SelectedFile{}, &SelectionError{Name: name, Err: fmt.Errorf("%w: declared %s", ErrUnsupported, mimeType)}
	}

	if in.maxSize > 0 && c.Size > in.maxSize {
		return common.SelectedFile{}, &SelectionError{Name: name, Err: ErrTooLarge}
	}

	if c.data != nil {
		return common.NewMemoryFile(name, mimeType, c.data), nil
	}
	return common.SelectedFile{
		Name:     name,
		Path:     c.Path,
		Size:     c.Size,
		MIMEType: mimeType,
	}, nil
}

// FromPath builds a candidate from a filesystem path
func FromPath(path string) (Candidate, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Candidate{}, &SelectionError{Name: path, Err: fmt.Errorf("%w: %v", ErrUnreadable, err)}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Candidate{}, &SelectionError{Name: filepath.Base(abs), Err: fmt.Errorf("%w: %v", ErrUnreadable, err)}
	}
	if !info.Mode().IsRegular() {
		return Candidate{}, &SelectionError{Name: info.Name(), Err: fmt.Errorf("%w: not a regular file", ErrUnreadable)}
	}

	mimeType, _ := MIMETypeFor(abs)
	return Candidate{
		Name:     info.Name(),
		Path:     abs,
		Size:     info.Size(),
		MIMEType: mimeType,
	}, nil
}

// FromPaths builds candidates for every path, stopping at the first failure
func FromPaths(paths []string) ([]Candidate, error) {
	candidates := make([]Candidate, 0, len(paths))
	for _, p := range paths {
		c, err := FromPath(p)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// matchesPattern checks the declared type against the family implied by the extension
func matchesPattern(mimeType, expected string) bool {
	family := expected[:strings.Index(expected, "/")+1]
	return strings.HasPrefix(strings.ToLower(mimeType), family)
}
