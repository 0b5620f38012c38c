package detect

import (
	"errors"
	"fmt"
	"strings"
)

// GenericMessage is shown when a failure carries no server-supplied text
const GenericMessage = "An error occurred while analyzing the file"

// ErrorKind represents the class of an analysis failure
type ErrorKind string

const (
	// KindNetwork indicates the request never got an answer
	KindNetwork ErrorKind = "network"

	// KindServer indicates the endpoint answered with an error payload
	KindServer ErrorKind = "server"

	// KindUnknown covers everything else
	KindUnknown ErrorKind = "unknown"
)

// Error represents a failed call to the detection endpoint
type Error struct {
	// Kind categorizes the error
	Kind ErrorKind `json:"kind"`

	// Message is the server's error text for KindServer, a diagnostic otherwise
	Message string `json:"message"`

	// StatusCode of the HTTP response, zero when there was none
	StatusCode int `json:"status_code,omitempty"`

	// Underlying error that caused this error
	Cause error `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	parts := []string{fmt.Sprintf("type=%s", e.Kind)}

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%s", e.Cause.Error()))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error kind
func (e *Error) Is(target error) bool {
	if de, ok := target.(*Error); ok {
		return e.Kind == de.Kind
	}
	return false
}

// Sentinels for errors.Is checks
var (
	ErrNetwork = &Error{Kind: KindNetwork}
	ErrServer  = &Error{Kind: KindServer}
	ErrUnknown = &Error{Kind: KindUnknown}
)

// ConfigurationError represents an invalid client configuration
type ConfigurationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for field '%s': %s", e.Field, e.Message)
}

// NewNetworkError creates a transport failure
func NewNetworkError(message string, cause error) *Error {
	return &Error{Kind: KindNetwork, Message: message, Cause: cause}
}

// NewServerError creates a failure carrying the endpoint's own message
func NewServerError(message string, statusCode int) *Error {
	return &Error{Kind: KindServer, Message: message, StatusCode: statusCode}
}

// NewUnknownError creates an unclassified failure
func NewUnknownError(message string, statusCode int, cause error) *Error {
	return &Error{Kind: KindUnknown, Message: message, StatusCode: statusCode, Cause: cause}
}

// KindOf classifies any error; errors not produced by this package are unknown
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// UserMessage returns the one line shown to the user for a failed analysis:
// the server's message verbatim when it sent one, otherwise the generic text.
func UserMessage(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Kind == KindServer && strings.TrimSpace(de.Message) != "" {
		return de.Message
	}
	return GenericMessage
}
