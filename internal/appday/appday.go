// Package appday maps wall-clock time onto the engine's canonical day
// identifier. The day does not roll over at midnight: a submission made
// at 02:30 still belongs to the previous calendar date, so users who
// finish their routine late at night keep credit for the right morning.
package appday

import "time"

// Layout is the wire format of an AppDay value.
const Layout = "2006-01-02"

// DefaultResetHour is the local hour at which a new app-day begins.
const DefaultResetHour = 3

// AppDay is a canonical calendar-day identifier in YYYY-MM-DD form.
// The ISO layout sorts lexicographically, so string comparison of two
// AppDay values is also chronological comparison.
type AppDay string

// Time returns the midnight instant of the app-day in loc.
func (d AppDay) Time(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(Layout, string(d), loc)
}

// Next returns the app-day immediately after d.
func (d AppDay) Next() AppDay {
	t, err := d.Time(time.UTC)
	if err != nil {
		return d
	}
	return AppDay(t.AddDate(0, 0, 1).Format(Layout))
}

// Prev returns the app-day immediately before d.
func (d AppDay) Prev() AppDay {
	t, err := d.Time(time.UTC)
	if err != nil {
		return d
	}
	return AppDay(t.AddDate(0, 0, -1).Format(Layout))
}

// IsNext reports whether other is exactly one app-day after d.
func (d AppDay) IsNext(other AppDay) bool {
	return d.Next() == other
}

// Before reports whether d is chronologically earlier than other.
func (d AppDay) Before(other AppDay) bool {
	return string(d) < string(other)
}

// Calculator derives app-days from wall-clock time using a fixed daily
// reset hour. The zero value is not usable; construct with New.
type Calculator struct {
	resetHour int
}

// New returns a Calculator that rolls the day over at resetHour (0-23).
// Out-of-range values fall back to DefaultResetHour.
func New(resetHour int) Calculator {
	if resetHour < 0 || resetHour > 23 {
		resetHour = DefaultResetHour
	}
	return Calculator{resetHour: resetHour}
}

// ResetHour returns the configured daily reset hour.
func (c Calculator) ResetHour() int {
	return c.resetHour
}

// AppDay returns the app-day that now falls in. Times before the reset
// hour belong to the previous calendar date.
func (c Calculator) AppDay(now time.Time) AppDay {
	if now.Hour() < c.resetHour {
		now = now.AddDate(0, 0, -1)
	}
	return AppDay(now.Format(Layout))
}
