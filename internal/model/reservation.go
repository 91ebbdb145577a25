package model

import "time"

// Reservation status values as stored in reservations.status.  CANCELLED is
// terminal: a cancelled reservation is excluded from conflict checks and is
// never transitioned again.
const (
	ReservationConfirmed = "CONFIRMED"
	ReservationCancelled = "CANCELLED"
)

// Reservation is a claim on a room for a specific date and half-open time
// interval.  Rows are never deleted; cancellation flips Status so the table
// doubles as an audit trail.
//
// Fields:
//  ID          – primary key identifier.
//  RoomID      – room being reserved.
//  RequesterID – user who created the reservation.
//  BookingDate – calendar day, "YYYY-MM-DD".
//  StartTime   – inclusive start, "HH:MM" wall clock.
//  EndTime     – exclusive end, "HH:MM" wall clock, same day as BookingDate.
//  Purpose     – free-text reason shown in calendars.
//  Status      – CONFIRMED or CANCELLED.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
//
// Invariant: for one (RoomID, BookingDate), the CONFIRMED reservations are
// pairwise non-overlapping under half-open semantics.  The booking service
// is the only writer and enforces this under the room-row lock.
type Reservation struct {
	ID          uint64    `json:"id"`
	RoomID      uint64    `json:"room_id"`
	RequesterID uint64    `json:"requester_id"`
	BookingDate string    `json:"booking_date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Purpose     string    `json:"purpose"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
