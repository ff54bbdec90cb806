package errors

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrorCode represents a classified backend failure.
type ErrorCode string

const (
	ErrTimeout            ErrorCode = "timeout"
	ErrRateLimit          ErrorCode = "rate_limit"
	ErrBackendUnavailable ErrorCode = "backend_unavailable"
	ErrContextCancelled   ErrorCode = "context_cancelled"
	ErrMeetingMissing     ErrorCode = "meeting_missing"
	ErrRequestRejected    ErrorCode = "request_rejected"
	ErrMalformedResponse  ErrorCode = "malformed_response"
	ErrInvalidInput       ErrorCode = "invalid_input"
	ErrRequestFailed      ErrorCode = "request_failed"
)

// ErrorCodeInfo contains metadata about an error code.
type ErrorCodeInfo struct {
	Code            ErrorCode
	Retryable       bool
	Description     string
	SuggestedAction string
}

// ErrorCodeRegistry maps error codes to their metadata.
var ErrorCodeRegistry = map[ErrorCode]ErrorCodeInfo{
	ErrTimeout: {
		Code:            ErrTimeout,
		Retryable:       true,
		Description:     "Request exceeded time limit",
		SuggestedAction: "Increase the timeout: msum config set timeout 5m",
	},
	ErrRateLimit: {
		Code:            ErrRateLimit,
		Retryable:       true,
		Description:     "Backend rate limit exceeded",
		SuggestedAction: "Wait a moment and retry",
	},
	ErrBackendUnavailable: {
		Code:            ErrBackendUnavailable,
		Retryable:       true,
		Description:     "Meeting server unreachable or unavailable",
		SuggestedAction: "Check the server address: msum config show",
	},
	ErrContextCancelled: {
		Code:            ErrContextCancelled,
		Retryable:       false,
		Description:     "Request cancelled by user or system",
		SuggestedAction: "Re-run the command",
	},
	ErrMeetingMissing: {
		Code:            ErrMeetingMissing,
		Retryable:       false,
		Description:     "Meeting does not exist on the server",
		SuggestedAction: "List available meetings: msum meetings list",
	},
	ErrRequestRejected: {
		Code:            ErrRequestRejected,
		Retryable:       false,
		Description:     "Server rejected the request",
		SuggestedAction: "Check the input (only .txt transcripts are accepted)",
	},
	ErrMalformedResponse: {
		Code:            ErrMalformedResponse,
		Retryable:       false,
		Description:     "Server response was missing expected fields",
		SuggestedAction: "Check that client and server versions match: msum version",
	},
	ErrInvalidInput: {
		Code:            ErrInvalidInput,
		Retryable:       false,
		Description:     "Local validation failed",
		SuggestedAction: "Fix the highlighted input and retry",
	},
	ErrRequestFailed: {
		Code:            ErrRequestFailed,
		Retryable:       false,
		Description:     "Unclassified request failure",
		SuggestedAction: "Re-run with --debug for details",
	},
}

// Classify maps err to an ErrorCode.
func Classify(err error) ErrorCode {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ErrContextCancelled
	}
	if errors.Is(err, ErrValidation) {
		return ErrInvalidInput
	}
	if errors.Is(err, ErrDataShape) {
		return ErrMalformedResponse
	}

	var ne *NetworkError
	if errors.As(err, &ne) {
		switch {
		case ne.StatusCode == http.StatusTooManyRequests:
			return ErrRateLimit
		case ne.StatusCode == http.StatusNotFound:
			return ErrMeetingMissing
		case ne.StatusCode == http.StatusRequestTimeout || ne.StatusCode == http.StatusGatewayTimeout:
			return ErrTimeout
		case ne.StatusCode >= 500:
			return ErrBackendUnavailable
		case ne.StatusCode >= 400:
			return ErrRequestRejected
		case ne.StatusCode == 0:
			return ErrBackendUnavailable
		}
	}

	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") {
		return ErrBackendUnavailable
	}

	return ErrRequestFailed
}

// IsRetryable returns true if the given error code represents a transient, retryable error.
func IsRetryable(code ErrorCode) bool {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Retryable
	}
	return false
}

// IsErrorRetryable classifies err and reports whether it is worth retrying.
func IsErrorRetryable(err error) bool {
	return IsRetryable(Classify(err))
}

// GetSuggestedAction returns the suggested action for the given error code.
func GetSuggestedAction(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.SuggestedAction
	}
	return "Re-run with --debug for details"
}

// GetDescription returns the human-readable description for the given error code.
func GetDescription(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Description
	}
	return "Unknown error"
}
