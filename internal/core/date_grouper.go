// ABOUTME: Date grouper partitioning timed turns into calendar-day buckets
// ABOUTME: Buckets run oldest day first; undated turns land in a trailing bucket
package core

import (
	"slices"
	"time"

	"github.com/harper/chatdesk/internal/models"
)

// Grouper buckets turns by the calendar day observed in Location
type Grouper struct {
	Location *time.Location
}

// NewGrouper creates a Grouper for loc; nil means time.Local
func NewGrouper(loc *time.Location) *Grouper {
	if loc == nil {
		loc = time.Local
	}
	return &Grouper{Location: loc}
}

// GroupByDay buckets turns using the process-local time zone
func GroupByDay(turns []models.TimedTurn) []models.DateBucket {
	return NewGrouper(nil).GroupByDay(turns)
}

// GroupByDay partitions turns by calendar day. Buckets are ordered by day
// ascending and turns inside a bucket by timestamp ascending (stable). Turns
// with a zero timestamp go to one Unknown bucket at the end, in input order.
func (g *Grouper) GroupByDay(turns []models.TimedTurn) []models.DateBucket {
	loc := g.Location
	if loc == nil {
		loc = time.Local
	}

	byDay := make(map[models.CalendarDay][]models.TimedTurn)
	var unknown []models.TimedTurn
	for _, tt := range turns {
		if tt.Timestamp.IsZero() {
			unknown = append(unknown, tt)
			continue
		}
		day := models.DayOf(tt.Timestamp, loc)
		byDay[day] = append(byDay[day], tt)
	}

	days := make([]models.CalendarDay, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	slices.SortFunc(days, func(a, b models.CalendarDay) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		default:
			return 0
		}
	})

	buckets := make([]models.DateBucket, 0, len(days)+1)
	for _, day := range days {
		bucket := byDay[day]
		slices.SortStableFunc(bucket, func(a, b models.TimedTurn) int {
			return a.Timestamp.Compare(b.Timestamp)
		})
		buckets = append(buckets, models.DateBucket{Day: day, Turns: bucket})
	}
	if len(unknown) > 0 {
		buckets = append(buckets, models.DateBucket{Unknown: true, Turns: unknown})
	}
	return buckets
}

// TimedTurnsFromRecords flattens records into turns stamped with their record's time
func TimedTurnsFromRecords(records []models.HistoryRecord) []models.TimedTurn {
	out := make([]models.TimedTurn, 0, len(records)*2)
	for _, rec := range records {
		for _, turn := range FromHistoryRecords([]models.HistoryRecord{rec}) {
			out = append(out, models.TimedTurn{Turn: turn, Timestamp: rec.Timestamp})
		}
	}
	return out
}
