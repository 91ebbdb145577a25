// Package schedule implements the time-interval model used by the booking
// core.  Intervals are half-open [start, end) ranges of minutes within a
// single calendar day, so a booking ending at 10:00 and another starting at
// 10:00 do not conflict.  The package is pure: it performs no I/O and knows
// nothing about rooms or persistence.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidClock is returned when a wall-clock string is not a valid
// 24-hour "HH:MM" value.
var ErrInvalidClock = errors.New("invalid clock value, expected HH:MM")

// ErrInvalidInterval is returned when an interval's start is not strictly
// before its end.  Degenerate (start == end) and inverted ranges are both
// rejected.
var ErrInvalidInterval = errors.New("invalid interval: start must be before end")

// ErrInvalidDate is returned when a calendar date string is not a valid
// "YYYY-MM-DD" value.
var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

const minutesPerDay = 24 * 60

// Interval is a half-open [StartMin, EndMin) range expressed in minutes
// since midnight.  Construct values through NewInterval so that the
// start < end invariant holds everywhere an Interval is passed around.
type Interval struct {
	StartMin int // inclusive start, minutes since midnight
	EndMin   int // exclusive end, minutes since midnight
}

// NewInterval builds an Interval from two "HH:MM" strings.  It returns
// ErrInvalidClock when either string is malformed and ErrInvalidInterval
// when the range is empty or inverted.
func NewInterval(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	if s >= e {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{StartMin: s, EndMin: e}, nil
}

// Overlaps reports whether two half-open intervals intersect.  Equal
// boundaries (a.EndMin == b.StartMin) do not overlap, which permits
// back-to-back bookings.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.StartMin < other.EndMin && other.StartMin < iv.EndMin
}

// Contains reports whether the interval fully covers other.
func (iv Interval) Contains(other Interval) bool {
	return iv.StartMin <= other.StartMin && other.EndMin <= iv.EndMin
}

// Start returns the interval start formatted as "HH:MM".
func (iv Interval) Start() string { return FormatClock(iv.StartMin) }

// End returns the interval end formatted as "HH:MM".
func (iv Interval) End() string { return FormatClock(iv.EndMin) }

// String renders the interval in the half-open notation used in logs and
// conflict messages, e.g. "[09:00, 10:30)".
func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.Start(), iv.End())
}

// ParseClock converts a 24-hour "HH:MM" string to minutes since midnight.
// Values outside 00:00–23:59 or with a different shape are rejected with
// ErrInvalidClock.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, ErrInvalidClock
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, ErrInvalidClock
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock converts minutes since midnight back to a zero-padded
// "HH:MM" string.  Inputs are clamped into the valid day range.
func FormatClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes > minutesPerDay {
		minutes = minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate validates a "YYYY-MM-DD" calendar date and returns it as a
// time.Time at midnight in the given location.  All campus dates share one
// institutional timezone, so callers pass the configured location.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FreeGaps returns the ordered complement of busy within [dayStart, dayEnd).
// busy must be sorted by StartMin ascending and pairwise non-overlapping,
// which is exactly the shape the availability index guarantees for the
// confirmed reservations of one room-day.  Busy time outside the window is
// ignored.
func FreeGaps(busy []Interval, dayStart, dayEnd int) []Interval {
	gaps := []Interval{}
	if dayStart >= dayEnd {
		return gaps
	}
	cursor := dayStart
	for _, b := range busy {
		if b.EndMin <= cursor {
			continue
		}
		if b.StartMin >= dayEnd {
			break
		}
		if b.StartMin > cursor {
			end := b.StartMin
			if end > dayEnd {
				end = dayEnd
			}
			gaps = append(gaps, Interval{StartMin: cursor, EndMin: end})
		}
		if b.EndMin > cursor {
			cursor = b.EndMin
		}
		if cursor >= dayEnd {
			return gaps
		}
	}
	if cursor < dayEnd {
		gaps = append(gaps, Interval{StartMin: cursor, EndMin: dayEnd})
	}
	return gaps
}

// FirstConflict returns the first interval in busy that overlaps candidate,
// or false when candidate fits.  busy must be sorted by StartMin ascending.
func FirstConflict(busy []Interval, candidate Interval) (Interval, bool) {
	for _, b := range busy {
		if b.StartMin >= candidate.EndMin {
			break
		}
		if b.Overlaps(candidate) {
			return b, true
		}
	}
	return Interval{}, false
}
