package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Fixed user-facing messages.
const (
	// DataShapeMessage is shown whenever a backend payload is missing expected data.
	DataShapeMessage = "The server returned an unexpected response. Please try again."

	// NetworkMessage is shown when no message could be extracted from a failed response.
	NetworkMessage = "Could not reach the meeting server. Please check your connection and try again."

	busyMessage    = "Another request is already in progress."
	timeoutMessage = "The request timed out. Please try again."
)

// NetworkError is a transport failure or a non-2xx backend response.
type NetworkError struct {
	// Op is the backend operation (e.g. "summarize", "delete_meeting").
	Op string
	// StatusCode is the HTTP status, or 0 for transport failures.
	StatusCode int
	// Message is the message extracted from the response body, if any.
	Message string
	// Err is the underlying transport error, if any.
	Err error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": request failed"
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is makes every NetworkError match ErrNetwork, and 404 responses match ErrNotFound.
func (e *NetworkError) Is(target error) bool {
	if target == ErrNetwork {
		return true
	}
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// DataShapeError reports a backend response missing an expected field.
type DataShapeError struct {
	Op    string
	Field string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("%s: response missing %q", e.Op, e.Field)
}

func (e *DataShapeError) Is(target error) bool { return target == ErrDataShape }

// ValidationError is a local input failure; the triggering action never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError returns a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DisplayMessage converts err into the string shown in the session's error notice.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}

	if errors.Is(err, ErrDataShape) {
		return DataShapeMessage
	}

	if errors.Is(err, ErrBusy) {
		return busyMessage
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return timeoutMessage
	}

	var ne *NetworkError
	if errors.As(err, &ne) {
		if msg := strings.TrimSpace(ne.Message); msg != "" {
			return msg
		}
		return NetworkMessage
	}

	return err.Error()
}
