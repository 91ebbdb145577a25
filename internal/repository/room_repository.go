package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/atharvamit-2203/campus-room-booking/internal/model"
)

// RoomRepo provides read access to the rooms table plus the minimal write
// path used by administrators to seed reference data.  Rooms are treated
// as read-only by the booking core; the parent row additionally serves as
// the per-room lock anchor for atomic admission (see LockTx).
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle so handlers and services can open
// transactions spanning multiple repositories.
func (r *RoomRepo) DB() *sql.DB { return r.db }

const roomColumns = `id, name, room_type, capacity, facilities, location, created_at, updated_at`

func scanRoom(row interface{ Scan(...any) error }) (*model.Room, error) {
	var rm model.Room
	var facilities string
	if err := row.Scan(&rm.ID, &rm.Name, &rm.Type, &rm.Capacity, &facilities, &rm.Location, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
		return nil, err
	}
	rm.Facilities = model.SplitFacilities(facilities)
	return &rm, nil
}

// GetByID returns a single room.  ErrRoomNotFound is returned when the ID
// does not exist.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	const q = `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	rm, err := scanRoom(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	return rm, err
}

// List returns all rooms, optionally filtered by room type, ordered by
// name for deterministic output.  roomType is matched case-insensitively
// and an empty string disables the filter.
func (r *RoomRepo) List(ctx context.Context, roomType string) ([]model.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms`
	args := []any{}
	if roomType != "" {
		q += ` WHERE room_type = ?`
		args = append(args, strings.ToUpper(roomType))
	}
	q += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	return out, rows.Err()
}

// ListFreeInWindow returns the rooms with no confirmed reservation
// overlapping the half-open window [start, end) on the given date.  The
// overlap test lives in the NOT EXISTS anti-join so the answer is a single
// point-in-time snapshot; it may be stale by the time a subsequent book
// call runs, which re-validates under the room lock anyway.  start and end
// are "HH:MM" strings and date is "YYYY-MM-DD"; MySQL casts both to native
// TIME/DATE values for the comparison.
func (r *RoomRepo) ListFreeInWindow(ctx context.Context, date, start, end, roomType string) ([]model.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms r
		  WHERE NOT EXISTS (
			  SELECT 1 FROM reservations b
			  WHERE b.room_id = r.id
				AND b.booking_date = ?
				AND b.status = 'CONFIRMED'
				AND b.start_time < ?
				AND ? < b.end_time
		  )`
	args := []any{date, end, start}
	if roomType != "" {
		q += ` AND r.room_type = ?`
		args = append(args, strings.ToUpper(roomType))
	}
	q += ` ORDER BY r.name`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	return out, rows.Err()
}

// Create inserts a new room and populates the generated ID and timestamps
// on the provided model.  A duplicate name maps to ErrDuplicateRoom via
// the unique key on rooms.name.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	const q = `INSERT INTO rooms (name, room_type, capacity, facilities, location) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rm.Name, strings.ToUpper(rm.Type), rm.Capacity, model.JoinFacilities(rm.Facilities), rm.Location)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 { // duplicate key
			return ErrDuplicateRoom
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	const sel = `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	full, err := scanRoom(r.db.QueryRowContext(ctx, sel, rm.ID))
	if err != nil {
		return err
	}
	*rm = *full
	return nil
}

// LockTx acquires an exclusive lock on the room's parent row within the
// given transaction via SELECT ... FOR UPDATE.  Every writer that touches
// the confirmed set of a (room, date) takes this lock first, which
// serializes the check-then-insert admission step.  Locking reservation
// rows instead would not exclude a concurrent writer when the room-day has
// zero rows yet.  ErrRoomNotFound is returned when the room does not exist.
func (r *RoomRepo) LockTx(ctx context.Context, tx *sql.Tx, roomID uint64) error {
	const q = `SELECT id FROM rooms WHERE id = ? FOR UPDATE`
	var id uint64
	if err := tx.QueryRowContext(ctx, q, roomID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRoomNotFound
		}
		return err
	}
	return nil
}
