package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsValidation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"direct match", ErrValidation, true},
		{"typed", NewValidationError("emails", "invalid"), true},
		{"wrapped typed", fmt.Errorf("go next: %w", NewValidationError("name", "required")), true},
		{"different error", ErrBusy, false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidation(tt.err); got != tt.want {
				t.Errorf("IsValidation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsNetwork(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"status error", &NetworkError{Op: "summarize", StatusCode: 500}, true},
		{"transport error", &NetworkError{Op: "summarize", Err: errors.New("dial")}, true},
		{"wrapped", fmt.Errorf("submit: %w", &NetworkError{Op: "summarize"}), true},
		{"data shape", &DataShapeError{Op: "summarize", Field: "summary"}, false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNetwork(tt.err); got != tt.want {
				t.Errorf("IsNetwork() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&NetworkError{Op: "get_meeting", StatusCode: http.StatusNotFound}) {
		t.Error("expected 404 NetworkError to match ErrNotFound")
	}
	if IsNotFound(&NetworkError{Op: "get_meeting", StatusCode: http.StatusInternalServerError}) {
		t.Error("expected 500 NetworkError not to match ErrNotFound")
	}
	if !IsNotFound(fmt.Errorf("load: %w", ErrNotFound)) {
		t.Error("expected wrapped sentinel to match")
	}
}

func TestIsDataShape(t *testing.T) {
	if !IsDataShape(fmt.Errorf("load: %w", &DataShapeError{Op: "get_meeting", Field: "meeting"})) {
		t.Error("expected wrapped DataShapeError to match")
	}
	if IsDataShape(ErrValidation) {
		t.Error("expected ErrValidation not to match")
	}
}

func TestNetworkError_Unwrap(t *testing.T) {
	err := &NetworkError{Op: "delete_meeting", Err: context.DeadlineExceeded}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected NetworkError to unwrap to its cause")
	}
}

func TestNetworkError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *NetworkError
		want string
	}{
		{"status and message", &NetworkError{Op: "summarize", StatusCode: 400, Message: "Only .txt files are supported"}, "summarize: status 400: Only .txt files are supported"},
		{"status only", &NetworkError{Op: "summarize", StatusCode: 502}, "summarize: status 502"},
		{"transport", &NetworkError{Op: "chat", Err: errors.New("dial tcp")}, "chat: dial tcp"},
		{"bare", &NetworkError{Op: "chat"}, "chat: request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplayMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", NewValidationError("emails", "Please enter valid email addresses"), "Please enter valid email addresses"},
		{"data shape", &DataShapeError{Op: "get_meeting", Field: "meeting"}, DataShapeMessage},
		{"network with body message", &NetworkError{Op: "summarize", StatusCode: 500, Message: "Gemini quota exceeded"}, "Gemini quota exceeded"},
		{"network without message", &NetworkError{Op: "summarize", StatusCode: 500}, NetworkMessage},
		{"timeout", &NetworkError{Op: "delete_meeting", Err: context.DeadlineExceeded}, timeoutMessage},
		{"busy", ErrBusy, busyMessage},
		{"plain", errors.New("something else"), "something else"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayMessage(tt.err); got != tt.want {
				t.Errorf("DisplayMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
