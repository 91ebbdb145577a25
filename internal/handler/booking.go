package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/atharvamit-2203/campus-room-booking/internal/model"
	"github.com/atharvamit-2203/campus-room-booking/internal/repository"
	"github.com/atharvamit-2203/campus-room-booking/internal/schedule"
	"github.com/atharvamit-2203/campus-room-booking/internal/service"
)

// BookingHandler exposes the mutating booking endpoints and the
// reservation listings.  All methods assume JWT authentication has been
// performed by middleware; they may return 401 Unauthorized if the user
// ID cannot be extracted from the context.  Admission and cancellation
// are delegated to the BookingService, which owns the concurrency guard.
type BookingHandler struct {
	Svc             *service.BookingService
	ReservationRepo *repository.ReservationRepo
}

// NewBookingHandler constructs a BookingHandler.  All dependencies must be
// non-nil.
func NewBookingHandler(svc *service.BookingService, reservationRepo *repository.ReservationRepo) *BookingHandler {
	if svc == nil || reservationRepo == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc, ReservationRepo: reservationRepo}
}

// bookRequest is the body of POST /v1/rooms/book.  Interval semantics
// (start < end, valid clock values) are validated by the service; the
// tags only reject structurally hopeless input early.
type bookRequest struct {
	RoomID      uint64 `json:"room_id" validate:"required"`
	BookingDate string `json:"booking_date" validate:"required"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	Purpose     string `json:"purpose" validate:"max=255"`
}

// Book handles POST /v1/rooms/book.  It admits or rejects the requested
// interval atomically with respect to concurrent bookings for the same
// room and returns 201 with the confirmed reservation, or 409 carrying
// the conflicting time range(s) so the UI can suggest alternatives.
func (h *BookingHandler) Book(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body bookRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	res, err := h.Svc.Book(c.Request().Context(), service.BookRequest{
		RoomID:      body.RoomID,
		RequesterID: userID,
		BookingDate: body.BookingDate,
		StartTime:   body.StartTime,
		EndTime:     body.EndTime,
		Purpose:     body.Purpose,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": res})
}

// Cancel handles POST /v1/rooms/bookings/:id/cancel.  Only the original
// requester or an admin may cancel.  Cancelling an already-cancelled
// reservation returns 409 so callers can distinguish "this call cancelled
// it" from "nothing happened".
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || resID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	res, err := h.Svc.Cancel(c.Request().Context(), resID, userID, getRole(c))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": res})
}

// MyBookings handles GET /v1/rooms/my-bookings.  It returns the caller's
// own reservations ordered by (date, start_time); with upcoming_only=1
// cancelled rows and past days are filtered out.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	upcomingOnly := c.QueryParam("upcoming_only") == "1" || c.QueryParam("upcoming_only") == "true"

	items, err := h.ReservationRepo.ListByRequester(c.Request().Context(), userID, upcomingOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListBookings handles GET /v1/rooms/bookings.  Admins and faculty see
// every reservation; other roles see their own, which keeps the endpoint
// usable by all dashboards without leaking other users' calendars.
func (h *BookingHandler) ListBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	upcomingOnly := c.QueryParam("upcoming_only") == "1" || c.QueryParam("upcoming_only") == "true"

	ctx := c.Request().Context()
	role := getRole(c)
	var items []model.Reservation
	if role == model.RoleAdmin || role == model.RoleFaculty {
		items, err = h.ReservationRepo.ListAll(ctx, upcomingOnly)
	} else {
		items, err = h.ReservationRepo.ListByRequester(ctx, userID, upcomingOnly)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpcomingFeed handles GET /v1/timetable/upcoming?window=minutes.  It
// returns every confirmed reservation starting within the window so
// notification collaborators can raise "your booking starts soon" toasts.
// The window defaults to 60 minutes and is capped at a day.
func (h *BookingHandler) UpcomingFeed(c echo.Context) error {
	window := 60
	if raw := c.QueryParam("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid window"})
		}
		window = n
	}
	if window > 24*60 {
		window = 24 * 60
	}

	items, err := h.ReservationRepo.ListUpcomingWindow(c.Request().Context(), window)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load upcoming reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"window_minutes": window, "items": items})
}

// bookingError maps service and repository failures onto the HTTP error
// taxonomy.  Every rejection carries a reason string for inline display.
func bookingError(c echo.Context, err error) error {
	var conflict *service.ConflictError
	switch {
	case errors.Is(err, schedule.ErrInvalidClock),
		errors.Is(err, schedule.ErrInvalidInterval),
		errors.Is(err, schedule.ErrInvalidDate),
		errors.Is(err, service.ErrPastDate):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.As(err, &conflict):
		ranges := make([]echo.Map, 0, len(conflict.Busy))
		for _, iv := range conflict.Busy {
			ranges = append(ranges, echo.Map{"start_time": iv.Start(), "end_time": iv.End()})
		}
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "time slot already booked",
			"conflicts": ranges,
		})
	case errors.Is(err, repository.ErrRoomNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	case errors.Is(err, repository.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrAlreadyCancelled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already cancelled"})
	case errors.Is(err, service.ErrUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage temporarily unavailable, try again"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
