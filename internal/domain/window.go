package domain

import (
	"fmt"
	"time"
)

// DateWindow is an inclusive [Start, End] range of session dates.
// Both bounds are UTC midnights.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls inside the window (inclusive).
func (w DateWindow) Contains(d time.Time) bool {
	d = Day(d)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Overlaps reports whether two windows share at least one day.
func (w DateWindow) Overlaps(o DateWindow) bool {
	return !w.End.Before(o.Start) && !o.End.Before(w.Start)
}

// Valid reports whether Start <= End and both bounds are set.
func (w DateWindow) Valid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && !w.End.Before(w.Start)
}

func (w DateWindow) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}

// Day truncates a timestamp to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date as a UTC midnight.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t.UTC(), nil
}
