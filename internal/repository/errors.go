// Package repository implements the MySQL persistence layer.  Domain
// failures that the workflow package names (not found, already
// registered) are reported with the workflow sentinel errors; the
// values below cover the account table, which sits outside the
// assignment workflow.
package repository

import "errors"

// ErrAccountExists is returned when an insert or update would violate
// the unique constraints on users.username or users.email.  Handlers
// translate it into an HTTP 409 response.
var ErrAccountExists = errors.New("username or email already exists")
