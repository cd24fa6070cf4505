// Package apperr defines the error taxonomy shared by every layer of the
// repository context engine. Errors keep their kind as they propagate so the
// API layer can message rate limits, missing repos, and timeouts differently.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for retry decisions and HTTP status mapping.
type Kind int

const (
	// KindUnknown is the zero value for errors that carry no kind.
	KindUnknown Kind = iota
	// KindNotFound means the repository, ref, or file does not exist.
	KindNotFound
	// KindAccessDenied means the repository is private and the token was
	// missing or rejected.
	KindAccessDenied
	// KindRateLimited means an upstream quota is exhausted.
	KindRateLimited
	// KindTimeout means a per-call deadline was exceeded.
	KindTimeout
	// KindContextTooLarge means even the mandatory prompt context exceeds
	// the token budget.
	KindContextTooLarge
	// KindInvalidRequest means the caller's input was malformed (empty
	// query, unparseable URL, rejected prompt).
	KindInvalidRequest
	// KindUpstreamUnavailable is the catch-all for provider outages.
	KindUpstreamUnavailable
)

// String returns the canonical name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAccessDenied:
		return "access_denied"
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindContextTooLarge:
		return "context_too_large"
	case KindInvalidRequest:
		return "invalid_request"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	default:
		return "unknown"
	}
}

// Transient reports whether the kind is worth an automatic retry.
func (k Kind) Transient() bool {
	switch k {
	case KindRateLimited, KindTimeout, KindUpstreamUnavailable:
		return true
	default:
		return false
	}
}

// Error is a kind-carrying error. Wrapping preserves the cause chain so
// errors.Is/As keep working against the underlying provider error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind with a human-readable message.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a kind and message. Returns nil if err is nil.
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from an error chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
