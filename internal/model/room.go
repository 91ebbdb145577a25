package model

import (
	"strings"
	"time"
)

// Room type enumeration values as stored in rooms.room_type.
const (
	RoomTypeClassroom  = "CLASSROOM"
	RoomTypeLab        = "LAB"
	RoomTypeAuditorium = "AUDITORIUM"
	RoomTypeConference = "CONFERENCE"
)

// ValidRoomType reports whether t is one of the supported room types.
// Comparison is case-insensitive because the value arrives from query
// strings and request bodies.
func ValidRoomType(t string) bool {
	switch strings.ToUpper(t) {
	case RoomTypeClassroom, RoomTypeLab, RoomTypeAuditorium, RoomTypeConference:
		return true
	}
	return false
}

// Room is a bookable physical asset.  Rooms are reference data owned by
// campus administrators; the booking core only ever reads them, with the
// exception of the admin seeding endpoint.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – human-readable room name, unique campus-wide.
//  Type       – CLASSROOM, LAB, AUDITORIUM or CONFERENCE.
//  Capacity   – seating capacity.
//  Facilities – facility tags (projector, whiteboard, ...).
//  Location   – building/floor description.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Room struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Capacity   uint32    `json:"capacity"`
	Facilities []string  `json:"facilities"`
	Location   string    `json:"location"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// JoinFacilities flattens a facility list into the comma-separated form
// stored in rooms.facilities.  Blank entries are dropped.
func JoinFacilities(facilities []string) string {
	out := make([]string, 0, len(facilities))
	for _, f := range facilities {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, ",")
}

// SplitFacilities parses the stored comma-separated facility column back
// into a list.  An empty column yields an empty, non-nil slice so JSON
// renders [] rather than null.
func SplitFacilities(s string) []string {
	out := []string{}
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
