package entities

import "errors"

// Domain error taxonomy. These are matched with errors.Is by handlers to
// pick the user-facing response; wrapping adds context without losing the
// classification.
var (
	// ErrValidation indicates a malformed ID or out-of-range value.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a missing ticket, category or channel.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied indicates the caller lacks a required role.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrLimitExceeded indicates the caller is at their open-ticket limit.
	ErrLimitExceeded = errors.New("ticket limit exceeded")

	// ErrInvalidTransition indicates a transition from a terminal state.
	ErrInvalidTransition = errors.New("invalid ticket transition")

	// ErrSystemDisabled indicates ticketing is disabled for the guild.
	ErrSystemDisabled = errors.New("ticketing disabled")

	// ErrCategoryDisabled indicates the category does not accept tickets.
	ErrCategoryDisabled = errors.New("category disabled")

	// ErrDuplicateCategory indicates the category ID already exists.
	ErrDuplicateCategory = errors.New("category already exists")

	// ErrDownstreamUnavailable indicates the store or gateway could not be
	// reached. The operation is aborted with no partial writes.
	ErrDownstreamUnavailable = errors.New("downstream unavailable")
)
