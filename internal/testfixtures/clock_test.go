package testfixtures

import (
	"testing"
	"time"

	"github.com/example/appointment-scheduler/internal/calendar"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
	if got := clock.Month(); got != calendar.MonthWindow(ReferenceTime()) {
		t.Fatalf("expected reference month, got %v", got)
	}
}

func TestClockCalendarWindows(t *testing.T) {
	clock := NewClock(time.Date(2024, time.February, 14, 10, 30, 0, 0, time.UTC))

	if got, want := clock.Week(), calendar.WeekWindow(2024, time.February, 2); got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if got := clock.SetDay(29); !got.Equal(time.Date(2024, time.February, 29, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("SetDay kept the wrong time of day: %v", got)
	}
	if got, want := clock.Week(), calendar.WeekWindow(2024, time.February, 5); got != want {
		t.Fatalf("expected leap-day bucket %v, got %v", want, got)
	}
}

func TestClockSlotUsesClockLocation(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	clock := NewClock(time.Date(2024, time.March, 31, 22, 0, 0, 0, est))

	slot := clock.Slot(time.April, 2, 9)
	if slot.Location() != est || !slot.Equal(time.Date(2024, time.April, 2, 14, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected slot %v", slot)
	}
}

func TestClockNowFunc(t *testing.T) {
	clock := NewClock(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	nowFn := clock.NowFunc()

	next := time.Date(2024, time.January, 31, 8, 0, 0, 0, time.UTC)
	clock.Set(next)
	if got := nowFn(); !got.Equal(next) {
		t.Fatalf("expected %v from NowFunc, got %v", next, got)
	}

	var nilClock *Clock
	if nilClock.NowFunc() == nil {
		t.Fatal("expected a real-time fallback for a nil clock")
	}
}
