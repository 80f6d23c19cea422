package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when a write would leave two open loans on the
// same book. It is the authoritative rejection — raised inside the same
// transaction as the write, before anything is committed.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrUnavailable is returned by the checkout workflow when its optimistic
// pre-check sees the book already marked unavailable. It exists for a
// friendlier operator message; the real guarantee is still ErrConflict
// from the loan service. Handlers should map this to HTTP 409.
var ErrUnavailable = errors.New("book unavailable")
