// Package apperrors defines the error kinds surfaced by the canvas, node, chat and
// identity services. Callers match them with errors.Is; every kind is recoverable.
package apperrors

import "errors"

var (
	// ErrNotFound indicates a canvas, node, chat or user id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied indicates the caller lacks the required read or write right.
	ErrAccessDenied = errors.New("access denied")

	// ErrProviderFailure indicates the completion provider failed or returned unusable output.
	ErrProviderFailure = errors.New("completion provider failure")

	// ErrValidation indicates a caller-supplied invariant violation.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates a uniqueness constraint rejected the write.
	ErrConflict = errors.New("conflict")
)

// NotFound wraps ErrNotFound with the kind and id of the missing record.
func NotFound(kind, id string) error {
	return &kindError{kind: ErrNotFound, msg: kind + " " + id + " not found"}
}

// Validation wraps ErrValidation with a caller-facing message.
func Validation(msg string) error {
	return &kindError{kind: ErrValidation, msg: msg}
}

// Denied wraps ErrAccessDenied with a caller-facing message.
func Denied(msg string) error {
	return &kindError{kind: ErrAccessDenied, msg: msg}
}

// ProviderFailure wraps ErrProviderFailure around the provider's own error. Both
// remain reachable through errors.Is.
func ProviderFailure(cause error) error {
	return &kindError{kind: ErrProviderFailure, msg: "completion provider failure: " + cause.Error(), cause: cause}
}

type kindError struct {
	kind  error
	msg   string
	cause error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}
