// Package errors provides common domain error types for the msum client.
//
// This package defines sentinel errors for common conditions like "validation"
// or "busy" plus the three error categories the session workflow surfaces:
// network failures, malformed backend payloads, and local validation failures.
// Using typed errors enables consistent handling with errors.Is() and errors.As().
//
// Usage:
//
//	import mserrors "github.com/YashavikaSingh/meeting-summariser/pkg/errors"
//
//	// Return a domain error
//	return mserrors.NewValidationError("emails", "invalid email address")
//
//	// Check for domain errors
//	if mserrors.IsValidation(err) {
//	    // handle validation failure without touching the network
//	}
package errors

import "errors"

// Domain errors - common sentinel errors for domain conditions.
var (
	// ErrNotFound indicates the requested meeting was not found.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates invalid input or validation failure.
	ErrValidation = errors.New("validation error")

	// ErrInvalidState indicates the operation is not valid for the current state.
	ErrInvalidState = errors.New("invalid state")

	// ErrBusy indicates the same operation is already in flight.
	ErrBusy = errors.New("operation already in progress")

	// ErrCancelled indicates the user declined a confirmation.
	ErrCancelled = errors.New("cancelled")

	// ErrNetwork indicates a transport failure or a non-2xx backend response.
	ErrNetwork = errors.New("network error")

	// ErrDataShape indicates a backend response was missing expected fields.
	ErrDataShape = errors.New("unexpected response shape")
)

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidState reports whether any error in err's chain is ErrInvalidState.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsBusy reports whether any error in err's chain is ErrBusy.
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}

// IsCancelled reports whether any error in err's chain is ErrCancelled.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsNetwork reports whether any error in err's chain is a network error.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsDataShape reports whether any error in err's chain is a data shape error.
func IsDataShape(err error) bool {
	return errors.Is(err, ErrDataShape)
}
