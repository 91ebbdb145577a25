package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/atharvamit-2203/campus-room-booking/internal/config"
	"github.com/atharvamit-2203/campus-room-booking/internal/repository"
	"github.com/atharvamit-2203/campus-room-booking/internal/service"
)

func newBookingHandler(t *testing.T) (*BookingHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	rooms := repository.NewRoomRepo(db)
	reservations := repository.NewReservationRepo(db)
	svc := service.NewBookingService(rooms, reservations, config.BookingPolicy{
		DayStart: "07:00", DayEnd: "22:00", Timezone: time.UTC,
	}, nil)
	return NewBookingHandler(svc, reservations), mock
}

func doBook(t *testing.T, h *BookingHandler, userID any, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/rooms/book", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("role", "STUDENT")
	if err := h.Book(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func TestBookRejectsMissingFields(t *testing.T) {
	h, _ := newBookingHandler(t)
	rec := doBook(t, h, uint64(1), `{"room_id": 101}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestBookRejectsMalformedClock(t *testing.T) {
	h, _ := newBookingHandler(t)
	rec := doBook(t, h, uint64(1), `{"room_id":101,"booking_date":"2025-09-20","start_time":"9am","end_time":"11:00"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestBookWithoutIdentityIsUnauthorized(t *testing.T) {
	h, _ := newBookingHandler(t)
	rec := doBook(t, h, nil, `{"room_id":101,"booking_date":"2025-09-20","start_time":"10:00","end_time":"11:00"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestBookConflictBodyCarriesBusyRanges(t *testing.T) {
	h, mock := newBookingHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(uint64(101)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
	mock.ExpectQuery("ORDER BY start_time").
		WithArgs(uint64(101), "2025-09-20").
		WillReturnRows(sqlmock.NewRows([]string{"start_time", "end_time"}).AddRow("09:00", "10:30"))
	mock.ExpectRollback()

	rec := doBook(t, h, uint64(2), `{"room_id":101,"booking_date":"2025-09-20","start_time":"10:00","end_time":"11:00","purpose":"club"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	var body struct {
		Error     string `json:"error"`
		Conflicts []struct {
			StartTime string `json:"start_time"`
			EndTime   string `json:"end_time"`
		} `json:"conflicts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if len(body.Conflicts) != 1 {
		t.Fatalf("conflict count = %d, want 1", len(body.Conflicts))
	}
	if body.Conflicts[0].StartTime != "09:00" || body.Conflicts[0].EndTime != "10:30" {
		t.Fatalf("unexpected conflict range: %+v", body.Conflicts[0])
	}
}

func TestCancelRejectsBadID(t *testing.T) {
	h, _ := newBookingHandler(t)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/rooms/bookings/abc/cancel", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	c.Set("user_id", uint64(1))
	c.Set("role", "STUDENT")
	if err := h.Cancel(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetUserIDClaimShapes(t *testing.T) {
	e := echo.New()
	cases := []struct {
		name  string
		value any
		want  uint64
		ok    bool
	}{
		{"float64 claim", float64(42), 42, true},
		{"string claim", "42", 42, true},
		{"uint64 claim", uint64(42), 42, true},
		{"garbage string", "forty-two", 0, false},
		{"missing", nil, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			c := e.NewContext(req, httptest.NewRecorder())
			if tc.value != nil {
				c.Set("user_id", tc.value)
			}
			got, err := getUserID(c)
			if tc.ok && (err != nil || got != tc.want) {
				t.Fatalf("getUserID = (%d, %v), want (%d, nil)", got, err, tc.want)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected error, got %d", got)
			}
		})
	}
}
