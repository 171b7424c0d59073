// Package apperr defines the error taxonomy shared by every domain
// package. A *Error carries a Kind the HTTP facade maps to a status
// code and a stable code string the client can match on, in the spirit
// of the guild service's GuildError shape, generalized to one type for
// the whole domain instead of one per service.
package apperr

import "fmt"

// Kind is the small tagged error taxonomy referenced throughout the
// spec (§7): every domain error is exactly one of these.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden     Kind = "forbidden"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindRateLimited   Kind = "rate_limited"
	KindTimeout       Kind = "timeout"
	KindUnavailable   Kind = "unavailable"
	KindInternal      Kind = "internal"
)

// Error is the concrete error type every package returns for
// domain-level failures. Message is safe to surface to clients; Err,
// when present, is the wrapped cause and is logged but not serialized.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error

	// RetryAfterSeconds is set only for KindRateLimited.
	RetryAfterSeconds int
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error with no wrapped cause.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap constructs an *Error carrying an underlying cause, the way the
// teacher's repository methods wrap driver errors with
// fmt.Errorf("...: %w", err).
func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// NotFound is a convenience constructor for the common "entity missing"
// case.
func NotFound(entity, id string) *Error {
	return New(KindNotFound, "NOT_FOUND", fmt.Sprintf("%s %q not found", entity, id))
}

// Conflict is a convenience constructor for uniqueness/version conflicts.
func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

// RateLimited builds a KindRateLimited error carrying the client retry hint.
func RateLimited(retryAfterSeconds int) *Error {
	return &Error{
		Kind:              KindRateLimited,
		Code:              "RATE_LIMITED",
		Message:           "rate limit exceeded",
		RetryAfterSeconds: retryAfterSeconds,
	}
}

// Unavailable wraps a transient infrastructure failure (DB/cache down).
func Unavailable(message string, err error) *Error {
	return Wrap(KindUnavailable, "UNAVAILABLE", message, err)
}

// Is supports errors.Is(err, apperr.KindValidation)-style matching via
// a sentinel-free comparison on Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if ae, ok := err.(*Error); ok {
		e = ae
	} else {
		return false
	}
	return e.Kind == kind
}
