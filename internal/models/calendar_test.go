// ABOUTME: Tests for the CalendarDay value type
// ABOUTME: Verifies day extraction across time zones and ordering
package models

import (
	"testing"
	"time"
)

func TestDayOf_UsesLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	ts := time.Date(2025, time.March, 1, 20, 0, 0, 0, time.UTC)

	if got := DayOf(ts, time.UTC); got != (CalendarDay{2025, time.March, 1}) {
		t.Errorf("DayOf(UTC) = %v", got)
	}
	if got := DayOf(ts, jakarta); got != (CalendarDay{2025, time.March, 2}) {
		t.Errorf("DayOf(WIB) = %v, want 2025-03-02", got)
	}
}

func TestCalendarDay_Before(t *testing.T) {
	tests := []struct {
		a, b CalendarDay
		want bool
	}{
		{CalendarDay{2024, 12, 31}, CalendarDay{2025, 1, 1}, true},
		{CalendarDay{2025, 1, 31}, CalendarDay{2025, 2, 1}, true},
		{CalendarDay{2025, 2, 1}, CalendarDay{2025, 2, 2}, true},
		{CalendarDay{2025, 2, 2}, CalendarDay{2025, 2, 2}, false},
		{CalendarDay{2025, 3, 1}, CalendarDay{2025, 2, 28}, false},
	}

	for _, tt := range tests {
		if got := tt.a.Before(tt.b); got != tt.want {
			t.Errorf("%v.Before(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCalendarDay_Format(t *testing.T) {
	d := CalendarDay{2025, time.July, 4}
	if d.String() != "2025-07-04" {
		t.Errorf("String() = %q", d.String())
	}
	if d.Heading() != "Friday, 4 July 2025" {
		t.Errorf("Heading() = %q", d.Heading())
	}
	if d.IsZero() || !(CalendarDay{}).IsZero() {
		t.Error("IsZero mismatch")
	}
}

func TestDateBucketTitle(t *testing.T) {
	if got := (DateBucket{Unknown: true}).Title(); got != "Unknown date" {
		t.Errorf("Title() = %q", got)
	}
}
