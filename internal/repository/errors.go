// Package repository provides data access over database/sql. Sentinel
// errors defined here are shared across repositories so handlers can
// distinguish failure scenarios with errors.Is.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot proceed because
// of dependent state, such as deleting a room that still has upcoming
// confirmed reservations. Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")
