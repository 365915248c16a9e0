// Package calendar holds the booking calendar logic shared by every resource:
// same-day conflict detection, month grids and the stateful navigator.
//
// All day comparisons happen on (year, month, day) after converting instants
// into one location. Checker, grid and navigator must be given the same
// location or they will disagree about which day a booking falls on.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"facilitydesk/internal/models"
)

// Date is a civil calendar day with no zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t as seen in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	y, m, d := t.In(orLocal(loc)).Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate reads a YYYY-MM-DD day.
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(models.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}, nil
}

// IsZero reports whether d is the unset Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// At returns the instant of hour:minute on d in loc.
func (d Date) At(hour, minute int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, orLocal(loc))
}

// Before reports whether d is an earlier day than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// MonthOf returns the month d falls in.
func (d Date) MonthOf() Month {
	return Month{Year: d.Year, Month: d.Month}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Month is a (year, month) pair.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t as seen in loc.
func MonthOf(t time.Time, loc *time.Location) Month {
	return DateOf(t, loc).MonthOf()
}

func ParseMonth(raw string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(raw))
	if err != nil {
		return Month{}, fmt.Errorf("parse month %q: %w", raw, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// Add moves n months forward (or backward when n is negative).
func (m Month) Add(n int) Month {
	t := time.Date(m.Year, m.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

func (m Month) After(other Month) bool {
	return other.Before(m)
}

// Days returns the Gregorian day count of the month.
func (m Month) Days() int {
	return DaysIn(m.Month, m.Year)
}

// FirstWeekday is the weekday of day 1 (Sunday is 0).
func (m Month) FirstWeekday() time.Weekday {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Weekday()
}

// Date returns day within m. It does not normalize out-of-range days.
func (m Month) Date(day int) Date {
	return Date{Year: m.Year, Month: m.Month, Day: day}
}

func (m Month) Contains(day int) bool {
	return day >= 1 && day <= m.Days()
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// DaysIn returns the number of days in month m of year.
func DaysIn(m time.Month, year int) int {
	switch m {
	case time.February:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// ParseLocal reads an RFC 3339 instant or a zone-less "2006-01-02T15:04"
// form value, the latter interpreted in loc.
func ParseLocal(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	for _, layout := range []string{models.LocalDateTimeLayout, "2006-01-02T15:04:05", models.DateLayout} {
		if t, err := time.ParseInLocation(layout, raw, orLocal(loc)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date-time %q; expected RFC3339 or YYYY-MM-DDTHH:MM", raw)
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
