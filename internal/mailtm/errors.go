package mailtm

import (
	"errors"
	"fmt"
)

// Kind classifies a failed API call.
type Kind int

const (
	// KindNetwork covers transport failures: DNS, timeouts, resets.
	KindNetwork Kind = iota

	// KindInvalidRequest maps HTTP 400.
	KindInvalidRequest

	// KindAuthRequired maps HTTP 401.
	KindAuthRequired

	// KindNotFound maps HTTP 404.
	KindNotFound

	// KindRateLimited maps HTTP 429.
	KindRateLimited

	// KindServer maps HTTP 5xx.
	KindServer

	// KindHTTP covers any other unexpected status code.
	KindHTTP

	// KindDecode marks a 2xx response whose body could not be decoded.
	KindDecode
)

// String returns a short human-readable description of the kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network error"
	case KindInvalidRequest:
		return "invalid request"
	case KindAuthRequired:
		return "authentication required"
	case KindNotFound:
		return "not found"
	case KindRateLimited:
		return "rate limit exceeded"
	case KindServer:
		return "server error"
	case KindDecode:
		return "undecodable response"
	default:
		return "http error"
	}
}

// Error is a typed failure returned by every Client operation.
type Error struct {
	Kind       Kind
	StatusCode int

	// Message carries detail from the response body when the provider
	// supplied one.
	Message string

	// Err is the underlying transport or decode error, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (%d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// errorOfKind reports whether err (or any error in its chain) is an
// *Error of the given kind.
func errorOfKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// IsAuthError reports whether err is an authentication failure (401).
func IsAuthError(err error) bool {
	return errorOfKind(err, KindAuthRequired)
}

// IsNotFound reports whether err is a not-found failure (404).
func IsNotFound(err error) bool {
	return errorOfKind(err, KindNotFound)
}

// IsRateLimited reports whether err is a rate-limit failure (429).
func IsRateLimited(err error) bool {
	return errorOfKind(err, KindRateLimited)
}

// IsNetworkError reports whether err is a transport-level failure.
func IsNetworkError(err error) bool {
	return errorOfKind(err, KindNetwork)
}
