package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/atharvamit-2203/campus-room-booking/internal/config"
	"github.com/atharvamit-2203/campus-room-booking/internal/model"
	"github.com/atharvamit-2203/campus-room-booking/internal/repository"
	"github.com/atharvamit-2203/campus-room-booking/internal/schedule"
)

// RoomHandler serves the room catalogue and its availability projections.
// Everything here is read-only with the exception of CreateRoom, which is
// gated behind the admin role by the router.  Responses are point-in-time
// snapshots; the booking path re-validates under its own lock, so these
// handlers never take one.
type RoomHandler struct {
	RoomRepo        *repository.RoomRepo
	ReservationRepo *repository.ReservationRepo
	Policy          config.BookingPolicy
}

// NewRoomHandler constructs a RoomHandler with the provided repositories.
func NewRoomHandler(roomRepo *repository.RoomRepo, reservationRepo *repository.ReservationRepo, policy config.BookingPolicy) *RoomHandler {
	if roomRepo == nil || reservationRepo == nil {
		panic("nil repository passed to NewRoomHandler")
	}
	return &RoomHandler{RoomRepo: roomRepo, ReservationRepo: reservationRepo, Policy: policy}
}

// ListRooms handles GET /v1/rooms.  Without query parameters it returns
// the full room catalogue.  When booking_date, start_time and end_time are
// all present it returns only the rooms free for that half-open window,
// which is the "show available rooms" query the booking page issues.  An
// optional type parameter filters by room type in both modes.
func (h *RoomHandler) ListRooms(c echo.Context) error {
	date := c.QueryParam("booking_date")
	start := c.QueryParam("start_time")
	end := c.QueryParam("end_time")
	roomType := c.QueryParam("type")

	if roomType != "" && !model.ValidRoomType(roomType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown room type"})
	}

	ctx := c.Request().Context()

	// All three window parameters or none; a partial window is ambiguous.
	if date == "" && start == "" && end == "" {
		rooms, err := h.RoomRepo.List(ctx, roomType)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rooms"})
		}
		return c.JSON(http.StatusOK, echo.Map{"items": rooms})
	}
	if date == "" || start == "" || end == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_date, start_time and end_time must be provided together"})
	}

	if _, err := schedule.ParseDate(date, h.Policy.Timezone); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	iv, err := schedule.NewInterval(start, end)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	rooms, err := h.RoomRepo.ListFreeInWindow(ctx, date, iv.Start(), iv.End(), roomType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to query availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking_date": date,
		"start_time":   iv.Start(),
		"end_time":     iv.End(),
		"items":        rooms,
	})
}

// FreeSlots handles GET /v1/rooms/:id/free-slots?date=YYYY-MM-DD.  It
// returns the free gaps of the room's day within the campus operating
// hours, computed as the complement of the confirmed reservations.  The
// calendar UI renders these directly.
func (h *RoomHandler) FreeSlots(c echo.Context) error {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || roomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	date := c.QueryParam("date")
	if _, err := schedule.ParseDate(date, h.Policy.Timezone); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	if _, err := h.RoomRepo.GetByID(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	busy, err := h.ReservationRepo.ConfirmedForRoomDay(ctx, roomID, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}

	dayStart, err := schedule.ParseClock(h.Policy.DayStart)
	if err != nil {
		dayStart = 0
	}
	dayEnd, err := schedule.ParseClock(h.Policy.DayEnd)
	if err != nil {
		dayEnd = 24 * 60
	}

	type slot struct {
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}
	gaps := schedule.FreeGaps(busy, dayStart, dayEnd)
	slots := make([]slot, 0, len(gaps))
	for _, g := range gaps {
		slots = append(slots, slot{StartTime: g.Start(), EndTime: g.End()})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room_id": roomID,
		"date":    date,
		"items":   slots,
	})
}

// createRoomRequest is the body of POST /v1/rooms.
type createRoomRequest struct {
	Name       string   `json:"name" validate:"required,max=120"`
	Type       string   `json:"type" validate:"required"`
	Capacity   uint32   `json:"capacity" validate:"required,min=1"`
	Facilities []string `json:"facilities"`
	Location   string   `json:"location" validate:"max=255"`
}

// CreateRoom handles POST /v1/rooms.  Rooms are reference data owned by
// campus administrators; this endpoint exists so deployments can be seeded
// without direct database access.  The router restricts it to ADMIN.
func (h *RoomHandler) CreateRoom(c echo.Context) error {
	var body createRoomRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if !model.ValidRoomType(body.Type) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown room type"})
	}

	room := &model.Room{
		Name:       body.Name,
		Type:       body.Type,
		Capacity:   body.Capacity,
		Facilities: body.Facilities,
		Location:   body.Location,
	}
	if err := h.RoomRepo.Create(c.Request().Context(), room); err != nil {
		if errors.Is(err, repository.ErrDuplicateRoom) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "room name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create room"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": room})
}
