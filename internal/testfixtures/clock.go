package testfixtures

import (
	"sync"
	"time"

	"github.com/example/appointment-scheduler/internal/calendar"
)

// Clock stands in for the wall clock the scheduler reads on login and when
// the week filter is switched on. Times it builds share the location of the
// instant it was created with.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock reading now. A zero now falls back to ReferenceTime.
func NewClock(now time.Time) *Clock {
	if now.IsZero() {
		now = ReferenceTime()
	}
	return &Clock{now: now}
}

// Now returns the instant the clock currently reads.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NowFunc adapts the clock to the engine's now parameter. A nil clock reads
// the real time.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// SetDay moves the clock to the given day of its current month, keeping the
// time of day, and returns the new reading.
func (c *Clock) SetDay(day int) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	y, m, _ := c.now.Date()
	c.now = time.Date(y, m, day, c.now.Hour(), c.now.Minute(), c.now.Second(), 0, c.now.Location())
	return c.now
}

// Slot returns hour:00 on the given day of month in the clock's year.
func (c *Clock) Slot(month time.Month, day, hour int) time.Time {
	now := c.Now()
	return time.Date(now.Year(), month, day, hour, 0, 0, 0, now.Location())
}

// Month returns the whole-month window the engine shows after login.
func (c *Clock) Month() calendar.Window {
	return calendar.MonthWindow(c.Now())
}

// Week returns the week window preselected when the week filter is enabled.
func (c *Clock) Week() calendar.Window {
	now := c.Now()
	return calendar.WeekWindow(now.Year(), now.Month(), calendar.CurrentWeekBucket(now))
}
