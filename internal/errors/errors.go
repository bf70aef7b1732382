// Package errors provides the structured error taxonomy shared by the sync
// core: connectivity, protocol, exhaustion and data-range failures.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind represents the category of error for retry decisions and reporting.
type Kind string

const (
	// KindConnectivity indicates a transport open/send failure; retryable.
	KindConnectivity Kind = "connectivity"
	// KindProtocol indicates a malformed or unrecognized inbound payload;
	// never fatal to the owning channel.
	KindProtocol Kind = "protocol"
	// KindExhaustion indicates retries or reconnect attempts ran out; the
	// caller must make an explicit fallback decision.
	KindExhaustion Kind = "exhaustion"
	// KindDataRange indicates a timed event with start_time > end_time;
	// rejected at ingestion.
	KindDataRange Kind = "data_range"
)

// Error is a structured error with kind, message and optional cause.
type Error struct {
	Kind       Kind
	Message    string
	Cause      error
	StatusCode int // HTTP status for connectivity errors, 0 otherwise
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Connectivity creates a transport-level error.
func Connectivity(message string, cause error) *Error {
	return &Error{Kind: KindConnectivity, Message: message, Cause: cause}
}

// HTTPStatus creates a connectivity error carrying an HTTP status code.
func HTTPStatus(statusCode int, message string) *Error {
	return &Error{Kind: KindConnectivity, Message: message, StatusCode: statusCode}
}

// Protocol creates an inbound-payload error.
func Protocol(message string, cause error) *Error {
	return &Error{Kind: KindProtocol, Message: message, Cause: cause}
}

// Exhaustion creates a terminal attempts-exceeded error.
func Exhaustion(message string, cause error) *Error {
	return &Error{Kind: KindExhaustion, Message: message, Cause: cause}
}

// DataRange creates an invalid time-range error.
func DataRange(message string) *Error {
	return &Error{Kind: KindDataRange, Message: message}
}

// As extracts a structured *Error from err, if present.
func As(err error) (*Error, bool) {
	var structured *Error
	if errors.As(err, &structured) {
		return structured, true
	}
	return nil, false
}

// IsKind reports whether err is a structured error of the given kind.
func IsKind(err error, kind Kind) bool {
	structured, ok := As(err)
	return ok && structured.Kind == kind
}

// IsRetryable reports whether an operation that produced err is worth
// retrying: connectivity failures, HTTP 5xx, 408 and 429. Everything else
// fails fast.
func IsRetryable(err error) bool {
	structured, ok := As(err)
	if !ok {
		return false
	}
	if structured.Kind != KindConnectivity {
		return false
	}
	if structured.StatusCode == 0 {
		return true
	}
	switch {
	case structured.StatusCode >= http.StatusInternalServerError:
		return true
	case structured.StatusCode == http.StatusRequestTimeout:
		return true
	case structured.StatusCode == http.StatusTooManyRequests:
		return true
	}
	return false
}
