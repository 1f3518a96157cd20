// Package datekey models calendar days as zero-padded YYYY-MM-DD strings.
// The format is the identity of a day everywhere in the engine: because it is
// zero-padded, lexical order equals chronological order, so keys are compared
// with plain string operators.
package datekey

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the canonical key format.
const Layout = "2006-01-02"

var ErrInvalidKey = errors.New("date key must be YYYY-MM-DD")

// Key is a calendar day in YYYY-MM-DD form.
type Key string

// New returns the key for the calendar day containing t, in t's location.
func New(t time.Time) Key {
	return Key(t.Format(Layout))
}

// Today returns the key for the current day according to now.
func Today(now func() time.Time) Key {
	if now == nil {
		now = time.Now
	}
	return New(now())
}

// Parse validates s and returns it as a Key.
func Parse(s string) (Key, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	// time.Parse accepts non-padded variants; require the round trip to match.
	if t.Format(Layout) != s {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return Key(s), nil
}

// Time returns midnight UTC of the day the key names.
func (k Key) Time() time.Time {
	t, err := time.Parse(Layout, string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

// IsZero reports whether the key is empty.
func (k Key) IsZero() bool { return k == "" }

func (k Key) String() string { return string(k) }

// Before reports whether k names an earlier day than other.
func (k Key) Before(other Key) bool { return k < other }

// After reports whether k names a later day than other.
func (k Key) After(other Key) bool { return k > other }

// AddDays returns the key n days after k (n may be negative).
func (k Key) AddDays(n int) Key {
	return New(k.Time().AddDate(0, 0, n))
}

// DaysBetween returns the number of days from a to b; negative when b is
// before a.
func DaysBetween(a, b Key) int {
	return int(b.Time().Sub(a.Time()).Hours() / 24)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday returns the weekday of the first day of the month.
func FirstWeekday(year int, month time.Month) time.Weekday {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday()
}

// MonthBounds returns the first and last day keys of the given month.
func MonthBounds(year int, month time.Month) (first, last Key) {
	first = New(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
	last = New(time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC))
	return first, last
}
