// Package errs defines the error taxonomy shared by the transcription
// pipeline stages. Every stage failure is reduced to a Kind plus a
// client-safe message; the HTTP layer only ever sees these.
package errs

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Unknown Kind = iota
	InvalidInput
	Network
	AccessDenied
	ResourceUnavailable
	ResourceTooLarge
	AuthRequired
	DownloadFailed
	TranscriptionFailed
	UnsupportedPlatform
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case Network:
		return "network_error"
	case AccessDenied:
		return "access_denied"
	case ResourceUnavailable:
		return "resource_unavailable"
	case ResourceTooLarge:
		return "resource_too_large"
	case AuthRequired:
		return "auth_required"
	case DownloadFailed:
		return "download_failed"
	case TranscriptionFailed:
		return "transcription_failed"
	case UnsupportedPlatform:
		return "unsupported_platform"
	default:
		return "unknown"
	}
}

// Error carries a classified kind and a message safe to return to clients.
// The wrapped cause is kept for logs only.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf extracts the classified kind from an error chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
