// Package apperrors defines the error kinds surfaced to API callers. Each
// kind maps to a distinct HTTP status so callers can tell "re-authenticate"
// apart from "fix the request". Wrap with fmt.Errorf("%w: ...", kind) and
// test with errors.Is.
package apperrors

import "errors"

var (
	// ErrUnauthenticated means the bearer credential is missing or could
	// not be resolved to a user.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidRequest means the payload is malformed: empty items, a
	// non-positive quantity, an unresolvable product set, or an unknown
	// status value.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound means the order does not exist, or exists but belongs to
	// another user (existence is not leaked to non-owners).
	ErrNotFound = errors.New("not found")

	// ErrInvalidState means the requested status transition violates the
	// order lifecycle rules.
	ErrInvalidState = errors.New("invalid state")

	// ErrDependencyUnavailable means an outbound call to the identity or
	// catalog service failed or timed out.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
