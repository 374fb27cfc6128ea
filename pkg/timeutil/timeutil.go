// Package timeutil provides the clock abstraction and date helpers used for homework deadlines.
// Dates are shown to the class in Moscow time (UTC+3, no DST).
package timeutil

import (
	"fmt"
	"sync"
	"time"
)

// MoscowTZ is the class timezone.
var MoscowTZ = time.FixedZone("Europe/Moscow", 3*60*60)

// Common date formats.
const (
	FormatDate        = "2006-01-02"
	FormatDateTime    = "2006-01-02 15:04:05"
	FormatRussianDate = "02.01.2006"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLOCK
// ══════════════════════════════════════════════════════════════════════════════

// Clock reports the current time. Stores take a Clock so tests can pin "now".
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns the wall clock.
func SystemClock() Clock {
	return ClockFunc(time.Now)
}

// FixedClock is a manually advanced clock for tests.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock returns a clock stopped at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now implements Clock.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ══════════════════════════════════════════════════════════════════════════════
// DATE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// ToMoscow converts a time to the class timezone.
func ToMoscow(t time.Time) time.Time {
	return t.In(MoscowTZ)
}

// Date creates midnight of the given day in the class timezone.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, MoscowTZ)
}

// StartOfDay returns 00:00:00 of t's day in the class timezone.
func StartOfDay(t time.Time) time.Time {
	m := ToMoscow(t)
	return time.Date(m.Year(), m.Month(), m.Day(), 0, 0, 0, 0, MoscowTZ)
}

// DaysBetween returns the number of calendar days from a to b. Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}

// FormatRussian formats a time as DD.MM.YYYY.
func FormatRussian(t time.Time) string {
	return ToMoscow(t).Format(FormatRussianDate)
}

// ParseDate parses YYYY-MM-DD in the class timezone.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(FormatDate, value, MoscowTZ)
}

// FormatDueIn describes a deadline relative to now.
func FormatDueIn(due, now time.Time) string {
	days := DaysBetween(now, due)
	switch {
	case days < 0:
		return "просрочено"
	case days == 0:
		return "сегодня"
	case days == 1:
		return "завтра"
	default:
		return fmt.Sprintf("через %d дн", days)
	}
}
