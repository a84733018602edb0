// Package calendar handles plain YYYY-MM-DD calendar dates. Values are kept as
// (year, month, day) integers and are never run through a timezone-aware
// parser, so a date stored as "2025-03-01" means March 1st for every reader
// regardless of the process's local zone.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"wrapcrm_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
)

// Layout is the only accepted wire format.
const Layout = "YYYY-MM-DD"

// Date is a calendar day without a time or zone.
type Date struct {
	Year  int
	Month int
	Day   int
}

// Parse splits s on "-" into year, month and day. It accepts exactly four,
// two and two ASCII digits with a month in 1..12 and a day in 1..31 and
// reports false for anything else. It never panics.
func Parse(s string) (Date, bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return Date{}, false
	}

	var fields [3]int
	for i, part := range parts {
		n, ok := atoi(part)
		if !ok {
			return Date{}, false
		}
		fields[i] = n
	}

	d := Date{Year: fields[0], Month: fields[1], Day: fields[2]}
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
		return Date{}, false
	}
	return d, true
}

func atoi(s string) (int, bool) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// Of returns the calendar day t falls on in t's own location. Callers
// convert t to the business location first.
func Of(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: int(m), Day: d}
}

// Today is the current calendar day in loc.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return Of(now.In(loc))
}

// Compare orders dates lexicographically on (year, month, day) and returns
// -1, 0 or 1.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(d.Month - other.Month)
	default:
		return sign(d.Day - other.Day)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }
func (d Date) Equal(other Date) bool  { return d == other }

// String renders the zero-padded YYYY-MM-DD form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// AddDays moves d by n days using UTC arithmetic, which has no DST gaps.
func (d Date) AddDays(n int) Date {
	return Of(time.Date(d.Year, time.Month(d.Month), d.Day+n, 0, 0, 0, 0, time.UTC))
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, loc)
}

// Weekday is the day of the week d falls on.
func (d Date) Weekday() time.Weekday {
	return d.Time(time.UTC).Weekday()
}

// ParsePtr parses an optional date string; nil and malformed input give nil.
func ParsePtr(s *string) *Date {
	if s == nil {
		return nil
	}
	d, ok := Parse(*s)
	if !ok {
		return nil
	}
	return &d
}

// RegisterValidation adds the "calendardate" tag for string fields.
func RegisterValidation(v *validator.Validator) error {
	return v.RegisterValidation("calendardate", func(fl playground.FieldLevel) bool {
		_, ok := Parse(fl.Field().String())
		return ok
	})
}
