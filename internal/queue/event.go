// Package queue defines message payloads exchanged over the message broker
// and the background consumer feeding the notification log.
package queue

// Queue names shared by the publisher and the notifier worker.
const (
	BookingConfirmedQueue = "booking.confirmed"
	BookingCancelledQueue = "booking.cancelled"
)

// BookingEvent is published when a reservation is confirmed or cancelled.
// It carries enough information for downstream consumers to log, toast, or
// feed calendars without querying the primary database.  Kind matches the
// queue the event was published on.
type BookingEvent struct {
	Kind          string `json:"kind"` // "confirmed" or "cancelled"
	ReservationID uint64 `json:"reservation_id"`
	RoomID        uint64 `json:"room_id"`
	RoomName      string `json:"room_name"`
	RequesterID   uint64 `json:"requester_id"`
	BookingDate   string `json:"booking_date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Purpose       string `json:"purpose"`
	OccurredAt    string `json:"occurred_at"`
}
