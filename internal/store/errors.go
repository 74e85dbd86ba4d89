package store

import "errors"

// ErrNotFound is returned when a record does not exist or is not
// visible to the requesting user.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when a user insert violates the
// unique email constraint.
var ErrDuplicateEmail = errors.New("email already in use")
