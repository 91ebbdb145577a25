package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/atharvamit-2203/campus-room-booking/internal/model"
	"github.com/atharvamit-2203/campus-room-booking/internal/schedule"
)

// ReservationRepo provides CRUD operations for reservations.  Dates and
// wall-clock times are stored in native DATE/TIME columns and formatted
// back to "YYYY-MM-DD"/"HH:MM" strings in SQL so the driver never has to
// guess at a format.  Rows are never deleted: cancellation flips status to
// CANCELLED and the row stays behind as an audit trail.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for transaction management.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `id, room_id, requester_id,
	DATE_FORMAT(booking_date, '%Y-%m-%d'),
	TIME_FORMAT(start_time, '%H:%i'),
	TIME_FORMAT(end_time, '%H:%i'),
	purpose, status, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(&res.ID, &res.RoomID, &res.RequesterID,
		&res.BookingDate, &res.StartTime, &res.EndTime,
		&res.Purpose, &res.Status, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ConfirmedForRoomDayTx returns the confirmed intervals for one room-day,
// ordered by start time ascending.  It runs inside the caller's
// transaction so that, combined with RoomRepo.LockTx, the result is the
// authoritative availability index for the admission check.  Cancelled
// rows never appear here.
func (r *ReservationRepo) ConfirmedForRoomDayTx(ctx context.Context, tx *sql.Tx, roomID uint64, date string) ([]schedule.Interval, error) {
	const q = `SELECT TIME_FORMAT(start_time, '%H:%i'), TIME_FORMAT(end_time, '%H:%i')
			   FROM reservations
			   WHERE room_id = ? AND booking_date = ? AND status = 'CONFIRMED'
			   ORDER BY start_time`
	rows, err := tx.QueryContext(ctx, q, roomID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	intervals := make([]schedule.Interval, 0)
	for rows.Next() {
		var start, end string
		if err := rows.Scan(&start, &end); err != nil {
			return nil, err
		}
		iv, err := schedule.NewInterval(start, end)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, iv)
	}
	return intervals, rows.Err()
}

// ConfirmedForRoomDay is the non-transactional variant used by read-only
// free-gap queries, where snapshot staleness is acceptable.
func (r *ReservationRepo) ConfirmedForRoomDay(ctx context.Context, roomID uint64, date string) ([]schedule.Interval, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()
	return r.ConfirmedForRoomDayTx(ctx, tx, roomID, date)
}

// CreateTx inserts a new confirmed reservation within the scope of an
// existing transaction and populates the generated ID and timestamps on
// the provided model.  The caller must hold the room lock and have
// verified the interval is free; commit and rollback remain the caller's
// responsibility.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (room_id, requester_id, booking_date, start_time, end_time, purpose, status)
			   VALUES (?, ?, ?, ?, ?, ?, 'CONFIRMED')`
	result, err := tx.ExecContext(ctx, q, res.RoomID, res.RequesterID, res.BookingDate, res.StartTime, res.EndTime, res.Purpose)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	const sel = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	full, err := scanReservation(tx.QueryRowContext(ctx, sel, res.ID))
	if err != nil {
		return err
	}
	*res = *full
	return nil
}

// GetByID returns a single reservation regardless of status.
// ErrReservationNotFound is returned when the ID does not exist.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	return res, err
}

// GetByIDTx is GetByID within an existing transaction, used by the
// cancellation path so the status it observes is the one it mutates.
func (r *ReservationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	return res, err
}

// CancelTx transitions a reservation from CONFIRMED to CANCELLED within
// the caller's transaction.  The status guard in the WHERE clause means a
// lost race or repeated call affects zero rows, which the caller reports
// as ErrAlreadyCancelled.
func (r *ReservationRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE reservations SET status = 'CANCELLED' WHERE id = ? AND status = 'CONFIRMED'`
	result, err := tx.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyCancelled
	}
	return nil
}

// ListByRequester returns a user's reservations ordered by (date, start)
// ascending.  With upcomingOnly set, cancelled rows and past days are
// filtered out; "today" is evaluated by the database so application and
// storage clocks cannot disagree.
func (r *ReservationRepo) ListByRequester(ctx context.Context, requesterID uint64, upcomingOnly bool) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE requester_id = ?`
	if upcomingOnly {
		q += ` AND status = 'CONFIRMED' AND booking_date >= CURDATE()`
	}
	q += ` ORDER BY booking_date, start_time`
	return r.queryList(ctx, q, requesterID)
}

// ListAll returns every reservation, newest day first, for admin and
// faculty scopes.  With upcomingOnly set the same confirmed/future filter
// as ListByRequester applies, and ordering flips to ascending so the next
// bookings come first.
func (r *ReservationRepo) ListAll(ctx context.Context, upcomingOnly bool) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations`
	if upcomingOnly {
		q += ` WHERE status = 'CONFIRMED' AND booking_date >= CURDATE()
			   ORDER BY booking_date, start_time`
	} else {
		q += ` ORDER BY booking_date DESC, start_time`
	}
	return r.queryList(ctx, q)
}

// ListUpcomingWindow returns the confirmed reservations whose start falls
// within [now, now+windowMinutes], across all requesters.  This feeds the
// notification/toast collaborators; combining booking_date and start_time
// with TIMESTAMP() keeps the comparison in SQL.
func (r *ReservationRepo) ListUpcomingWindow(ctx context.Context, windowMinutes int) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
			   WHERE status = 'CONFIRMED'
				 AND TIMESTAMP(booking_date, start_time) BETWEEN NOW() AND NOW() + INTERVAL ? MINUTE
			   ORDER BY booking_date, start_time`
	return r.queryList(ctx, q, windowMinutes)
}

func (r *ReservationRepo) queryList(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}
