// Package daterange resolves the dashboard's named reporting periods into
// inclusive calendar date windows.
package daterange

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the ISO 8601 date format every reporting API accepts.
const DateLayout = "2006-01-02"

// Period names a preset window.
type Period string

const (
	Last7Days  Period = "last_7_days"
	Last14Days Period = "last_14_days"
	Last30Days Period = "last_30_days"
	ThisMonth  Period = "this_month"
	LastMonth  Period = "last_month"
	Custom     Period = "custom"
)

// ErrInvalidRange is returned when start falls after end.
var ErrInvalidRange = errors.New("daterange: start date after end date")

// Range is an inclusive [Start, End] window of calendar days.
type Range struct {
	Start time.Time
	End   time.Time
}

// StartDate formats Start as YYYY-MM-DD.
func (r Range) StartDate() string { return r.Start.Format(DateLayout) }

// EndDate formats End as YYYY-MM-DD.
func (r Range) EndDate() string { return r.End.Format(DateLayout) }

// Days counts the calendar days in the window.
func (r Range) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

func (r Range) String() string { return r.StartDate() + ".." + r.EndDate() }

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LastNDays is the n-day window ending today.
func LastNDays(now time.Time, n int) Range {
	if n < 1 {
		n = 1
	}
	end := day(now)
	return Range{Start: end.AddDate(0, 0, -(n - 1)), End: end}
}

// Resolve turns a preset period into a Range relative to now.
func Resolve(p Period, now time.Time) (Range, error) {
	today := day(now)
	switch p {
	case Last7Days, "":
		return LastNDays(now, 7), nil
	case Last14Days:
		return LastNDays(now, 14), nil
	case Last30Days:
		return LastNDays(now, 30), nil
	case ThisMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Range{Start: first, End: today}, nil
	case LastMonth:
		firstThis := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Range{Start: firstThis.AddDate(0, -1, 0), End: firstThis.AddDate(0, 0, -1)}, nil
	default:
		return Range{}, fmt.Errorf("daterange: unknown period %q", p)
	}
}

// Parse builds a custom Range from two YYYY-MM-DD strings.
func Parse(start, end string) (Range, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return Range{}, fmt.Errorf("daterange: start: %w", err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return Range{}, fmt.Errorf("daterange: end: %w", err)
	}
	if s.After(e) {
		return Range{}, ErrInvalidRange
	}
	return Range{Start: s, End: e}, nil
}

// FromQuery resolves either explicit start/end dates or a named period.
// Explicit dates win when both are present.
func FromQuery(period, start, end string, now time.Time) (Range, error) {
	if start != "" || end != "" {
		return Parse(start, end)
	}
	return Resolve(Period(period), now)
}
