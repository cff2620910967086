// Package common defines shared constants and the error taxonomy used across
// all layers of the Mixcore SDK. Callers should use errors.As or the Kind
// helpers to branch on failure categories.
package common

import (
	"errors"
	"fmt"
)

// Kind classifies an SDK failure.
type Kind string

const (
	// KindValidation marks malformed input rejected before any network call.
	KindValidation Kind = "validation"
	// KindAuth marks 401/403 responses and failed token refreshes.
	KindAuth Kind = "auth"
	// KindNetwork marks 5xx responses, timeouts and connection-level failures.
	KindNetwork Kind = "network"
	// KindRequest marks remaining 4xx responses.
	KindRequest Kind = "request"
)

// Error is the single error type raised by the SDK. Exactly one is produced
// for every failure path; the zero StatusCode means no HTTP status applies.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	// Field names the offending input for validation failures.
	Field string
	// Timeout is set when a network error was caused by the per-request deadline.
	Timeout bool
	// Err holds the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// NewValidationError reports malformed input for the named field.
func NewValidationError(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// NewAuthError reports an authentication failure. statusCode may be zero for
// client-side failures such as a rejected refresh.
func NewAuthError(message string, statusCode int) *Error {
	return &Error{Kind: KindAuth, Message: message, StatusCode: statusCode}
}

// NewNetworkError reports a server-side or connection-level failure.
func NewNetworkError(message string, statusCode int, cause error) *Error {
	return &Error{Kind: KindNetwork, Message: message, StatusCode: statusCode, Err: cause}
}

// NewTimeoutError reports an expired per-request deadline.
func NewTimeoutError(message string, cause error) *Error {
	return &Error{Kind: KindNetwork, Message: message, Timeout: true, Err: cause}
}

// NewRequestError reports a non-auth 4xx response.
func NewRequestError(message string, statusCode int) *Error {
	return &Error{Kind: KindRequest, Message: message, StatusCode: statusCode}
}

// AsError extracts the SDK error from err, or nil if err is of another type.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

func isKind(err error, k Kind) bool {
	e := AsError(err)
	return e != nil && e.Kind == k
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return isKind(err, KindValidation) }

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool { return isKind(err, KindAuth) }

// IsNetwork reports whether err is a network-level failure.
func IsNetwork(err error) bool { return isKind(err, KindNetwork) }

// IsTimeout reports whether err is a network failure caused by a deadline.
func IsTimeout(err error) bool {
	e := AsError(err)
	return e != nil && e.Timeout
}
