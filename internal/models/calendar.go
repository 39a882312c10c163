// ABOUTME: Calendar-day value type and date buckets for the day-grouped history view
// ABOUTME: Avoids keying buckets by locale-formatted strings
package models

import (
	"fmt"
	"time"
)

// CalendarDay identifies a date independent of time-of-day
type CalendarDay struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar day of t as observed in loc
func DayOf(t time.Time, loc *time.Location) CalendarDay {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return CalendarDay{Year: y, Month: m, Day: d}
}

// IsZero reports whether d is the zero day
func (d CalendarDay) IsZero() bool {
	return d == CalendarDay{}
}

// Before reports whether d is strictly earlier than o
func (d CalendarDay) Before(o CalendarDay) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// Equal reports whether d and o are the same day
func (d CalendarDay) Equal(o CalendarDay) bool {
	return d == o
}

// String formats the day as 2006-01-02
func (d CalendarDay) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Heading formats the day for display, e.g. "Monday, 2 January 2006"
func (d CalendarDay) Heading() string {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	return t.Format("Monday, 2 January 2006")
}

// TimedTurn is a turn with the timestamp of the record it came from
type TimedTurn struct {
	Turn
	Timestamp time.Time `json:"timestamp"`
}

// DateBucket holds the turns that fall on one calendar day.
// Unknown is set for the single trailing bucket of turns without a usable timestamp.
type DateBucket struct {
	Day     CalendarDay `json:"day"`
	Unknown bool        `json:"unknown,omitempty"`
	Turns   []TimedTurn `json:"turns"`
}

// Title returns the bucket heading
func (b DateBucket) Title() string {
	if b.Unknown {
		return "Unknown date"
	}
	return b.Day.Heading()
}
