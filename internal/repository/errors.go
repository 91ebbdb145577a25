// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as services
// and handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not authorized
// to act on a reservation owned by someone else, while ErrAlreadyCancelled
// signals a repeated cancellation attempt so callers can tell "this call
// cancelled it" apart from "nothing happened".
package repository

import "errors"

// ErrRoomNotFound is returned when a room ID does not exist. Handlers
// should translate this into an HTTP 404 response.
var ErrRoomNotFound = errors.New("room not found")

// ErrReservationNotFound is returned when a reservation ID does not
// exist. Handlers should translate this into an HTTP 404 response.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrForbidden is returned when the caller attempts an operation on a
// reservation they do not own and they lack the admin role. Handlers
// should translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrAlreadyCancelled is returned when cancelling a reservation whose
// status is already CANCELLED. Re-cancellation is reported as an error
// rather than silently accepted so callers can tell "this call cancelled
// it" apart from "nothing happened". Handlers should translate this into
// an HTTP 409 response.
var ErrAlreadyCancelled = errors.New("reservation already cancelled")

// ErrDuplicateRoom is returned when creating a room whose name already
// exists. Handlers should translate this into an HTTP 409 response.
var ErrDuplicateRoom = errors.New("room name already exists")
