package store

import "errors"

// Error kinds surfaced by the store. Callers match them with errors.Is;
// wrapped variants carry the offending id or field.
var (
	// ErrValidation means a required field was missing or a value was
	// outside its allowed set (empty assignee, unknown state, ...).
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateID means a dongle with the given id already exists.
	// Ids are never reused, including those of retired dongles.
	ErrDuplicateID = errors.New("dongle id already exists")

	// ErrNotFound means the referenced dongle does not exist.
	ErrNotFound = errors.New("dongle not found")

	// ErrConflict means the operation is not allowed in the dongle's
	// current lifecycle position (check-out of an unavailable dongle,
	// check-in of a dongle that is not out).
	ErrConflict = errors.New("operation conflicts with current state")
)
