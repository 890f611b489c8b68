// Package domain holds the Monday-to-Sunday week arithmetic shared by the
// weekly goal views, repositories and exporters.
package domain

import (
	"fmt"
	"time"
)

// MondayOf returns local midnight of the Monday that starts t's week. Sunday
// belongs to the week of the preceding Monday.
func MondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// SundayOf returns the last instant (23:59:59.999) of the week that starts
// at monday.
func SundayOf(monday time.Time) time.Time {
	y, m, d := monday.Date()
	return time.Date(y, m, d+6, 23, 59, 59, int(999*time.Millisecond), monday.Location())
}

// FormatRange renders "Jan 2 – Jan 8, 2026". The year is printed once, on
// the end date.
func FormatRange(start, end time.Time) string {
	return fmt.Sprintf("%s – %s", start.Format("Jan 2"), end.Format("Jan 2, 2006"))
}

// SameWeek reports whether a and b fall in the same week of the local
// calendar. See SameWeekIn.
func SameWeek(a, b time.Time) bool {
	return SameWeekIn(a, b, time.Local)
}

// SameWeekIn compares the Mondays of a and b after moving both into loc, so
// offset differences and sub-day jitter from storage do not split one week
// into two and argument order never matters.
func SameWeekIn(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := MondayOf(a.In(loc)).Date()
	by, bm, bd := MondayOf(b.In(loc)).Date()
	return ay == by && am == bm && ad == bd
}

// Window is one Monday 00:00 to Sunday 23:59:59.999 interval.
type Window struct {
	Start time.Time
	End   time.Time
}

func WindowOf(t time.Time) Window {
	monday := MondayOf(t)
	return Window{Start: monday, End: SundayOf(monday)}
}

func (w Window) Next() Window {
	return WindowOf(w.Start.AddDate(0, 0, 7))
}

func (w Window) Prev() Window {
	return WindowOf(w.Start.AddDate(0, 0, -7))
}

// Shift moves the window by n weeks; negative n moves backwards.
func (w Window) Shift(n int) Window {
	return WindowOf(w.Start.AddDate(0, 0, 7*n))
}

func (w Window) Label() string {
	return FormatRange(w.Start, w.End)
}

// Key is the ISO week identifier, e.g. "2026-W42".
func (w Window) Key() string {
	y, wk := w.Start.ISOWeek()
	return fmt.Sprintf("%d-W%02d", y, wk)
}

// ParseDay reads a YYYY-MM-DD date in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}
