package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a uniqueness constraint is violated,
// e.g. a second user with the same email or a second organization with
// the same name.
var ErrDuplicate = errors.New("already exists")
