package calendar

import (
	"fmt"
	"time"
)

// Window selects either a whole month (Week == 0) or a single week bucket.
type Window struct {
	Year  int
	Month time.Month
	Week  int
}

// MonthWindow returns the whole-month window containing t.
func MonthWindow(t time.Time) Window {
	return Window{Year: t.Year(), Month: t.Month()}
}

// WeekWindow returns the window for a bucket of the given month.
func WeekWindow(year int, month time.Month, bucket int) Window {
	return Window{Year: year, Month: month, Week: bucket}
}

// IsWeek reports whether the window is scoped to a week bucket.
func (w Window) IsWeek() bool {
	return w.Week != 0
}

// Validate checks that the window addresses an existing month and, when
// week scoped, a non-empty bucket.
func (w Window) Validate() error {
	if w.Month < time.January || w.Month > time.December {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, w.Month)
	}
	if !w.IsWeek() {
		return nil
	}
	_, _, err := DateRangeForBucket(w.Year, w.Month, w.Week)
	return err
}

// Range resolves the window to the half-open interval [from, to) in loc.
func (w Window) Range(loc *time.Location) (from, to time.Time, err error) {
	if loc == nil {
		loc = time.UTC
	}
	if err = w.Validate(); err != nil {
		return time.Time{}, time.Time{}, err
	}

	if !w.IsWeek() {
		from = time.Date(w.Year, w.Month, 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 1, 0), nil
	}

	startDay, endDay, _ := DateRangeForBucket(w.Year, w.Month, w.Week)
	from = time.Date(w.Year, w.Month, startDay, 0, 0, 0, 0, loc)
	to = time.Date(w.Year, w.Month, endDay+1, 0, 0, 0, 0, loc)
	return from, to, nil
}

// Contains reports whether [start, end) overlaps the window in loc.
func (w Window) Contains(start, end time.Time, loc *time.Location) bool {
	from, to, err := w.Range(loc)
	if err != nil {
		return false
	}
	return end.After(from) && start.Before(to)
}

// String renders the window as "2006-01" or "2006-01 week 2 (8 - 14)".
func (w Window) String() string {
	if !w.IsWeek() {
		return fmt.Sprintf("%04d-%02d", w.Year, int(w.Month))
	}
	start, end, err := DateRangeForBucket(w.Year, w.Month, w.Week)
	if err != nil {
		return fmt.Sprintf("%04d-%02d week %d", w.Year, int(w.Month), w.Week)
	}
	return fmt.Sprintf("%04d-%02d week %d (%s)", w.Year, int(w.Month), w.Week, label(start, end))
}
