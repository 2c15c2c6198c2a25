// Package workflow owns the pickup request state machine and mediates
// recycler registration and acceptance.  It is written against narrow
// store interfaces so the same logic runs over the MySQL repositories in
// production and an in-memory store in tests.
package workflow

import "errors"

// ErrNotFound is returned when a referenced request or recycler profile
// does not exist.  Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when a required field is missing or
// malformed.  Wrapped errors carry a human-readable detail; handlers
// translate it into an HTTP 400 response.
var ErrValidation = errors.New("validation failed")

// ErrAlreadyRegistered is returned when an account that already owns a
// recycler profile attempts to register a second one.  Handlers
// translate it into an HTTP 409 response.
var ErrAlreadyRegistered = errors.New("already registered")

// ErrConflict is returned when a transition is requested from a state
// that does not permit it, such as accepting a completed request.
// Handlers translate it into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller is not the party a
// transition is reserved for, such as completing a request assigned to
// a different recycler.  Handlers translate it into an HTTP 403
// response.
var ErrForbidden = errors.New("forbidden")
