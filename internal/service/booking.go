// Package service implements the booking and cancellation flows on top of
// the repository layer.  It owns the atomic admission step: the conflict
// check and the insert happen inside one transaction, under an exclusive
// lock on the room's parent row, so two concurrent book calls for the same
// room can never both observe "free".
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/atharvamit-2203/campus-room-booking/internal/config"
	"github.com/atharvamit-2203/campus-room-booking/internal/model"
	"github.com/atharvamit-2203/campus-room-booking/internal/queue"
	"github.com/atharvamit-2203/campus-room-booking/internal/repository"
	"github.com/atharvamit-2203/campus-room-booking/internal/schedule"
)

// ErrUnavailable is returned after bounded retries against transient
// storage failures are exhausted.  Handlers should translate this into an
// HTTP 503 response.  No partial write is ever left visible: every attempt
// either commits fully or rolls back.
var ErrUnavailable = errors.New("storage temporarily unavailable")

// ErrPastDate is returned when the booking policy rejects a past-dated
// booking.  This is a product policy toggle, not a core invariant.
var ErrPastDate = errors.New("booking date is in the past")

// ConflictError reports that a requested interval overlaps one or more
// confirmed reservations.  Busy carries the clashing time ranges so the UI
// can suggest alternatives.
type ConflictError struct {
	Busy []schedule.Interval
}

func (e *ConflictError) Error() string {
	if len(e.Busy) == 0 {
		return "requested interval conflicts with an existing reservation"
	}
	return fmt.Sprintf("requested interval conflicts with existing reservation %s", e.Busy[0])
}

// Publisher sends a domain event to the named queue.  It is satisfied by
// PublishBookingEvent and stubbed in tests.
type Publisher func(ctx context.Context, queueName string, ev queue.BookingEvent) error

// BookingService performs reservation admission and cancellation.  Both
// paths serialize on the room row, retry transient storage failures a
// bounded number of times with doubling backoff, and publish a domain
// event on success (publish failures are logged and ignored).
type BookingService struct {
	rooms        *repository.RoomRepo
	reservations *repository.ReservationRepo
	policy       config.BookingPolicy
	publish      Publisher
}

// NewBookingService constructs a BookingService.  publish may be nil to
// disable event publication.
func NewBookingService(rooms *repository.RoomRepo, reservations *repository.ReservationRepo, policy config.BookingPolicy, publish Publisher) *BookingService {
	if rooms == nil || reservations == nil {
		panic("nil repository passed to NewBookingService")
	}
	return &BookingService{rooms: rooms, reservations: reservations, policy: policy, publish: publish}
}

// BookRequest carries the validated-by-shape inputs of a booking call.
// Interval semantics are validated here, before any storage is touched.
type BookRequest struct {
	RoomID      uint64
	RequesterID uint64
	BookingDate string // "YYYY-MM-DD"
	StartTime   string // "HH:MM"
	EndTime     string // "HH:MM"
	Purpose     string
}

// Book admits or rejects a reservation request.  On success the created
// reservation is returned with status CONFIRMED.  Failure modes:
//
//	schedule.ErrInvalidClock / ErrInvalidInterval / ErrInvalidDate – bad input
//	ErrPastDate                        – policy rejection
//	repository.ErrRoomNotFound         – unknown room
//	*ConflictError                     – interval overlaps a confirmed reservation
//	ErrUnavailable                     – transient storage failures exhausted
func (s *BookingService) Book(ctx context.Context, req BookRequest) (*model.Reservation, error) {
	iv, err := schedule.NewInterval(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	day, err := schedule.ParseDate(req.BookingDate, s.policy.Timezone)
	if err != nil {
		return nil, err
	}
	if s.policy.RejectPast {
		now := time.Now().In(s.policy.Timezone)
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.policy.Timezone)
		if day.Before(today) {
			return nil, ErrPastDate
		}
	}

	var res *model.Reservation
	err = s.withRetries(ctx, func() error {
		var attemptErr error
		res, attemptErr = s.bookOnce(ctx, req, iv)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, queue.BookingConfirmedQueue, "confirmed", res)
	return res, nil
}

// bookOnce runs one admission attempt: lock room row, read the confirmed
// intervals for the room-day, check the candidate against them in
// application code, insert on success.  The lock is what prevents the
// classic check-then-act double booking; a racing call blocks on LockTx
// and, once it acquires the lock, sees the winner's committed row.
func (s *BookingService) bookOnce(ctx context.Context, req BookRequest, iv schedule.Interval) (*model.Reservation, error) {
	tx, err := s.reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := s.rooms.LockTx(ctx, tx, req.RoomID); err != nil {
		return nil, err
	}
	busy, err := s.reservations.ConfirmedForRoomDayTx(ctx, tx, req.RoomID, req.BookingDate)
	if err != nil {
		return nil, err
	}
	if conflicts := allConflicts(busy, iv); len(conflicts) > 0 {
		return nil, &ConflictError{Busy: conflicts}
	}

	res := &model.Reservation{
		RoomID:      req.RoomID,
		RequesterID: req.RequesterID,
		BookingDate: req.BookingDate,
		StartTime:   iv.Start(),
		EndTime:     iv.End(),
		Purpose:     req.Purpose,
	}
	if err := s.reservations.CreateTx(ctx, tx, res); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return res, nil
}

// Cancel transitions a reservation to CANCELLED.  Only the original
// requester or an admin may cancel.  Re-cancellation surfaces
// repository.ErrAlreadyCancelled rather than succeeding silently, and the
// first cancellation's state is never touched by the repeat call.  The
// room-row lock is taken because cancellation mutates the same
// invariant-bearing set as booking; the freed interval is visible to the
// very next book call the moment the transaction commits.
func (s *BookingService) Cancel(ctx context.Context, reservationID, requesterID uint64, role string) (*model.Reservation, error) {
	var res *model.Reservation
	err := s.withRetries(ctx, func() error {
		var attemptErr error
		res, attemptErr = s.cancelOnce(ctx, reservationID, requesterID, role)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, queue.BookingCancelledQueue, "cancelled", res)
	return res, nil
}

func (s *BookingService) cancelOnce(ctx context.Context, reservationID, requesterID uint64, role string) (*model.Reservation, error) {
	tx, err := s.reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// First read resolves the room so the lock can be taken in the same
	// room-first order as booking; the re-read below observes status under
	// the lock.
	res, err := s.reservations.GetByIDTx(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.RequesterID != requesterID && role != model.RoleAdmin {
		return nil, repository.ErrForbidden
	}
	if err := s.rooms.LockTx(ctx, tx, res.RoomID); err != nil {
		return nil, err
	}
	if err := s.reservations.CancelTx(ctx, tx, reservationID); err != nil {
		return nil, err
	}
	res, err = s.reservations.GetByIDTx(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return res, nil
}

// withRetries runs fn, retrying transient storage failures up to the
// configured number of times with doubling backoff.  Domain errors
// (conflicts, not-found, forbidden) pass through untouched on the first
// occurrence; only exhausted transient failures become ErrUnavailable.
func (s *BookingService) withRetries(ctx context.Context, fn func() error) error {
	backoff := s.policy.RetryBackoff
	if backoff <= 0 {
		backoff = 50 * time.Millisecond
	}
	attempts := s.policy.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		lastErr = fn()
		if lastErr == nil || !isTransient(lastErr) {
			return lastErr
		}
		log.Printf("booking: transient storage error (attempt %d/%d): %v", i+1, attempts, lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// isTransient reports whether the error is worth retrying: MySQL lock-wait
// timeouts (1205), deadlocks (1213) and dropped connections.
func isTransient(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1205 || me.Number == 1213
	}
	return errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, sql.ErrConnDone)
}

func allConflicts(busy []schedule.Interval, candidate schedule.Interval) []schedule.Interval {
	var out []schedule.Interval
	for _, b := range busy {
		if b.Overlaps(candidate) {
			out = append(out, b)
		}
	}
	return out
}

func (s *BookingService) emit(ctx context.Context, queueName, kind string, res *model.Reservation) {
	if s.publish == nil || res == nil {
		return
	}
	room, err := s.rooms.GetByID(ctx, res.RoomID)
	roomName := ""
	if err == nil {
		roomName = room.Name
	}
	ev := queue.BookingEvent{
		Kind:          kind,
		ReservationID: res.ID,
		RoomID:        res.RoomID,
		RoomName:      roomName,
		RequesterID:   res.RequesterID,
		BookingDate:   res.BookingDate,
		StartTime:     res.StartTime,
		EndTime:       res.EndTime,
		Purpose:       res.Purpose,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.publish(ctx, queueName, ev); err != nil {
		log.Printf("booking: publish %s event failed (ignored): %v", queueName, err)
	}
}
