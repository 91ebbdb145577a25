package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/atharvamit-2203/campus-room-booking/internal/config"
	"github.com/atharvamit-2203/campus-room-booking/internal/queue"
	"github.com/atharvamit-2203/campus-room-booking/internal/repository"
	"github.com/atharvamit-2203/campus-room-booking/internal/schedule"
)

func testPolicy() config.BookingPolicy {
	return config.BookingPolicy{
		RejectPast:   false,
		DayStart:     "07:00",
		DayEnd:       "22:00",
		Timezone:     time.UTC,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	}
}

func newTestService(t *testing.T, publish Publisher) (*BookingService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	rooms := repository.NewRoomRepo(db)
	reservations := repository.NewReservationRepo(db)
	return NewBookingService(rooms, reservations, testPolicy(), publish), mock, db
}

func expectRoomLock(mock sqlmock.Sqlmock, roomID uint64) {
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(roomID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(roomID))
}

func expectConfirmedIntervals(mock sqlmock.Sqlmock, roomID uint64, date string, pairs ...string) {
	rows := sqlmock.NewRows([]string{"start_time", "end_time"})
	for i := 0; i+1 < len(pairs); i += 2 {
		rows.AddRow(pairs[i], pairs[i+1])
	}
	mock.ExpectQuery("ORDER BY start_time").
		WithArgs(roomID, date).
		WillReturnRows(rows)
}

func fullReservationRow(id, roomID, requesterID uint64, date, start, end, purpose, status string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "room_id", "requester_id", "booking_date", "start_time", "end_time",
		"purpose", "status", "created_at", "updated_at",
	}).AddRow(id, roomID, requesterID, date, start, end, purpose, status, now, now)
}

func TestBookRejectsInvalidInterval(t *testing.T) {
	svc, _, db := newTestService(t, nil)
	defer db.Close()

	_, err := svc.Book(context.Background(), BookRequest{
		RoomID: 1, RequesterID: 1, BookingDate: "2025-09-20",
		StartTime: "10:00", EndTime: "10:00",
	})
	if !errors.Is(err, schedule.ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestBookRejectsPastDate(t *testing.T) {
	svc, _, db := newTestService(t, nil)
	defer db.Close()
	svc.policy.RejectPast = true

	_, err := svc.Book(context.Background(), BookRequest{
		RoomID: 1, RequesterID: 1, BookingDate: "2000-01-01",
		StartTime: "10:00", EndTime: "11:00",
	})
	if !errors.Is(err, ErrPastDate) {
		t.Fatalf("expected ErrPastDate, got %v", err)
	}
}

func TestBookConflictReportsBusyIntervals(t *testing.T) {
	svc, mock, db := newTestService(t, nil)
	defer db.Close()

	mock.ExpectBegin()
	expectRoomLock(mock, 101)
	expectConfirmedIntervals(mock, 101, "2025-09-20", "09:00", "10:30")
	mock.ExpectRollback()

	// [10:00, 11:00) overlaps the confirmed [09:00, 10:30).
	_, err := svc.Book(context.Background(), BookRequest{
		RoomID: 101, RequesterID: 2, BookingDate: "2025-09-20",
		StartTime: "10:00", EndTime: "11:00", Purpose: "club meeting",
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if len(conflict.Busy) != 1 {
		t.Fatalf("busy count = %d, want 1", len(conflict.Busy))
	}
	if conflict.Busy[0].Start() != "09:00" || conflict.Busy[0].End() != "10:30" {
		t.Fatalf("unexpected busy interval: %v", conflict.Busy[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookBackToBackSucceeds(t *testing.T) {
	var published []queue.BookingEvent
	svc, mock, db := newTestService(t, func(ctx context.Context, q string, ev queue.BookingEvent) error {
		published = append(published, ev)
		return nil
	})
	defer db.Close()

	mock.ExpectBegin()
	expectRoomLock(mock, 101)
	expectConfirmedIntervals(mock, 101, "2025-09-20", "09:00", "10:30")
	mock.ExpectExec("INSERT INTO reservations").
		WithArgs(uint64(101), uint64(2), "2025-09-20", "10:30", "11:30", "study group").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("FROM reservations WHERE id").
		WithArgs(uint64(7)).
		WillReturnRows(fullReservationRow(7, 101, 2, "2025-09-20", "10:30", "11:30", "study group", "CONFIRMED"))
	mock.ExpectCommit()
	// Event enrichment looks up the room name after commit.
	mock.ExpectQuery("FROM rooms WHERE id").
		WithArgs(uint64(101)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "room_type", "capacity", "facilities", "location", "created_at", "updated_at",
		}).AddRow(101, "Room 101", "CLASSROOM", 40, "projector", "Main Building", time.Now(), time.Now()))

	// A start that equals an existing end is not a conflict.
	res, err := svc.Book(context.Background(), BookRequest{
		RoomID: 101, RequesterID: 2, BookingDate: "2025-09-20",
		StartTime: "10:30", EndTime: "11:30", Purpose: "study group",
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if res.ID != 7 || res.Status != "CONFIRMED" {
		t.Fatalf("unexpected reservation: %+v", res)
	}
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	if published[0].Kind != "confirmed" || published[0].RoomName != "Room 101" {
		t.Fatalf("unexpected event: %+v", published[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookRetriesExhaustedReturnUnavailable(t *testing.T) {
	svc, mock, db := newTestService(t, nil)
	defer db.Close()
	svc.policy.MaxRetries = 1

	lockTimeout := &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}
	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(101)).WillReturnError(lockTimeout)
		mock.ExpectRollback()
	}

	_, err := svc.Book(context.Background(), BookRequest{
		RoomID: 101, RequesterID: 2, BookingDate: "2025-09-20",
		StartTime: "10:00", EndTime: "11:00",
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookUnknownRoom(t *testing.T) {
	svc, mock, db := newTestService(t, nil)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(uint64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := svc.Book(context.Background(), BookRequest{
		RoomID: 999, RequesterID: 2, BookingDate: "2025-09-20",
		StartTime: "10:00", EndTime: "11:00",
	})
	if !errors.Is(err, repository.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestCancelForbiddenForNonOwner(t *testing.T) {
	svc, mock, db := newTestService(t, nil)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations WHERE id").
		WithArgs(uint64(7)).
		WillReturnRows(fullReservationRow(7, 101, 42, "2025-09-20", "09:00", "10:30", "seminar", "CONFIRMED"))
	mock.ExpectRollback()

	_, err := svc.Cancel(context.Background(), 7, 99, "STUDENT")
	if !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCancelByAdminSucceeds(t *testing.T) {
	svc, mock, db := newTestService(t, nil)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations WHERE id").
		WithArgs(uint64(7)).
		WillReturnRows(fullReservationRow(7, 101, 42, "2025-09-20", "09:00", "10:30", "seminar", "CONFIRMED"))
	expectRoomLock(mock, 101)
	mock.ExpectExec("UPDATE reservations SET status").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM reservations WHERE id").
		WithArgs(uint64(7)).
		WillReturnRows(fullReservationRow(7, 101, 42, "2025-09-20", "09:00", "10:30", "seminar", "CANCELLED"))
	mock.ExpectCommit()

	res, err := svc.Cancel(context.Background(), 7, 1, "ADMIN")
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if res.Status != "CANCELLED" {
		t.Fatalf("status = %q, want CANCELLED", res.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelTwiceRejectsSecondCall(t *testing.T) {
	svc, mock, db := newTestService(t, nil)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations WHERE id").
		WithArgs(uint64(7)).
		WillReturnRows(fullReservationRow(7, 101, 42, "2025-09-20", "09:00", "10:30", "seminar", "CANCELLED"))
	expectRoomLock(mock, 101)
	mock.ExpectExec("UPDATE reservations SET status").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.Cancel(context.Background(), 7, 42, "STUDENT")
	if !errors.Is(err, repository.ErrAlreadyCancelled) {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}
}

// The canonical room 101 day: A books [09:00, 10:30), B's [10:00, 11:00)
// is rejected, C's [10:30, 11:30) is admitted, and after A cancels the
// morning slot opens up again.
func TestRoomDayLifecycle(t *testing.T) {
	svc, mock, db := newTestService(t, nil)
	defer db.Close()

	const date = "2025-09-20"

	// A: empty day, admitted.
	mock.ExpectBegin()
	expectRoomLock(mock, 101)
	expectConfirmedIntervals(mock, 101, date)
	mock.ExpectExec("INSERT INTO reservations").
		WithArgs(uint64(101), uint64(1), date, "09:00", "10:30", "lecture").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("FROM reservations WHERE id").
		WithArgs(uint64(1)).
		WillReturnRows(fullReservationRow(1, 101, 1, date, "09:00", "10:30", "lecture", "CONFIRMED"))
	mock.ExpectCommit()

	// B: overlaps A, rejected before any insert.
	mock.ExpectBegin()
	expectRoomLock(mock, 101)
	expectConfirmedIntervals(mock, 101, date, "09:00", "10:30")
	mock.ExpectRollback()

	// C: starts exactly at A's end, admitted.
	mock.ExpectBegin()
	expectRoomLock(mock, 101)
	expectConfirmedIntervals(mock, 101, date, "09:00", "10:30")
	mock.ExpectExec("INSERT INTO reservations").
		WithArgs(uint64(101), uint64(3), date, "10:30", "11:30", "workshop").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectQuery("FROM reservations WHERE id").
		WithArgs(uint64(2)).
		WillReturnRows(fullReservationRow(2, 101, 3, date, "10:30", "11:30", "workshop", "CONFIRMED"))
	mock.ExpectCommit()

	// A cancels; the index now holds only C.
	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations WHERE id").
		WithArgs(uint64(1)).
		WillReturnRows(fullReservationRow(1, 101, 1, date, "09:00", "10:30", "lecture", "CONFIRMED"))
	expectRoomLock(mock, 101)
	mock.ExpectExec("UPDATE reservations SET status").
		WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM reservations WHERE id").
		WithArgs(uint64(1)).
		WillReturnRows(fullReservationRow(1, 101, 1, date, "09:00", "10:30", "lecture", "CANCELLED"))
	mock.ExpectCommit()

	// D: rebooks A's freed slot.
	mock.ExpectBegin()
	expectRoomLock(mock, 101)
	expectConfirmedIntervals(mock, 101, date, "10:30", "11:30")
	mock.ExpectExec("INSERT INTO reservations").
		WithArgs(uint64(101), uint64(4), date, "09:00", "10:00", "review session").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery("FROM reservations WHERE id").
		WithArgs(uint64(3)).
		WillReturnRows(fullReservationRow(3, 101, 4, date, "09:00", "10:00", "review session", "CONFIRMED"))
	mock.ExpectCommit()

	ctx := context.Background()

	if _, err := svc.Book(ctx, BookRequest{RoomID: 101, RequesterID: 1, BookingDate: date, StartTime: "09:00", EndTime: "10:30", Purpose: "lecture"}); err != nil {
		t.Fatalf("booking A failed: %v", err)
	}

	_, err := svc.Book(ctx, BookRequest{RoomID: 101, RequesterID: 2, BookingDate: date, StartTime: "10:00", EndTime: "11:00", Purpose: "club"})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("booking B: expected ConflictError, got %v", err)
	}

	if _, err := svc.Book(ctx, BookRequest{RoomID: 101, RequesterID: 3, BookingDate: date, StartTime: "10:30", EndTime: "11:30", Purpose: "workshop"}); err != nil {
		t.Fatalf("booking C failed: %v", err)
	}

	if _, err := svc.Cancel(ctx, 1, 1, "STUDENT"); err != nil {
		t.Fatalf("cancelling A failed: %v", err)
	}

	if _, err := svc.Book(ctx, BookRequest{RoomID: 101, RequesterID: 4, BookingDate: date, StartTime: "09:00", EndTime: "10:00", Purpose: "review session"}); err != nil {
		t.Fatalf("rebooking freed slot failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
