// Package repository holds the reservation stores and the sentinel errors
// they return.  Higher layers use errors.Is to distinguish a missing record
// from a storage failure.
package repository

import "errors"

// ErrNotFound is returned when no live reservation has the requested id.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("reservation not found")

// ErrPersistence wraps every failure of the underlying medium (driver
// errors, unreachable database).  Handlers should translate this into an
// HTTP 500 response.
var ErrPersistence = errors.New("persistence error")
