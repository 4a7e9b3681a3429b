package provider

import (
	"errors"
	"fmt"
)

// Kind classifies adapter failures so callers can branch on the class of
// failure without parsing backend-specific messages.
type Kind string

const (
	KindMissingParams      Kind = "missing_params"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindNotConfigured      Kind = "not_configured"
	KindRemoteUnreachable  Kind = "remote_unreachable"
	KindRemoteRejected     Kind = "remote_rejected"
	KindAlreadyExists      Kind = "already_exists"
	KindNotFound           Kind = "not_found"
	KindRateLimited        Kind = "rate_limited"
)

// Error is the uniform failure type returned by every adapter.
type Error struct {
	Kind     Kind
	Provider string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a provider error without an underlying cause.
func E(kind Kind, providerID, message string) *Error {
	return &Error{Kind: kind, Provider: providerID, Message: message}
}

// Wrap builds a provider error around an underlying cause.
func Wrap(kind Kind, providerID, message string, err error) *Error {
	return &Error{Kind: kind, Provider: providerID, Message: message, Err: err}
}

// KindOf returns the failure kind carried by err, or "" when err is not
// a provider error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind reports whether err carries the given failure kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindFromStatus maps an HTTP response status to a failure kind. Used by
// adapters for responses they have no more specific reading of.
func KindFromStatus(status int) Kind {
	switch status {
	case 401, 403:
		return KindInvalidCredentials
	case 404:
		return KindNotFound
	case 409:
		return KindAlreadyExists
	case 429:
		return KindRateLimited
	default:
		return KindRemoteRejected
	}
}
