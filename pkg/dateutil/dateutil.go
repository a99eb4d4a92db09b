package dateutil

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// Date returns the calendar date as midnight UTC
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Normalize drops the time of day, keeping the calendar date as seen in t's location
func Normalize(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// StartOfMonth returns the first day of the month
func StartOfMonth(year int, month time.Month) time.Time {
	return Date(year, month, 1)
}

// EndOfMonth returns the last day of the month
func EndOfMonth(year int, month time.Month) time.Time {
	return StartOfMonth(year, month).AddDate(0, 1, -1)
}

// StartOfYear returns January 1st of the year
func StartOfYear(year int) time.Time {
	return Date(year, time.January, 1)
}

// EndOfYear returns December 31st of the year
func EndOfYear(year int) time.Time {
	return Date(year, time.December, 31)
}

// IsWeekend returns true if the date is Saturday or Sunday
func IsWeekend(date time.Time) bool {
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// IsSameDay returns true if two dates are on the same day
func IsSameDay(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() &&
		date1.Month() == date2.Month() &&
		date1.Day() == date2.Day()
}

// DaysInclusive counts calendar days in [start, end]. Returns 0 when end is before start.
func DaysInclusive(start, end time.Time) int {
	s, e := Normalize(start), Normalize(end)
	if e.Before(s) {
		return 0
	}
	return int((e.Unix()-s.Unix())/86400) + 1
}

// WeekendDays counts Saturdays and Sundays in [start, end] without walking the range
func WeekendDays(start, end time.Time) int {
	n := DaysInclusive(start, end)
	count := n / 7 * 2
	first := int(Normalize(start).Weekday())
	for i := 0; i < n%7; i++ {
		if wd := time.Weekday((first + i) % 7); wd == time.Saturday || wd == time.Sunday {
			count++
		}
	}
	return count
}

// EachDay calls fn for every date in [start, end]
func EachDay(start, end time.Time, fn func(day time.Time)) {
	for d := Normalize(start); !d.After(Normalize(end)); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// FormatDate formats a date as YYYY-MM-DD
func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}

// ParseDate parses a strict YYYY-MM-DD date
func ParseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	t, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", dateStr)
	}

	return t, nil
}

// Today returns today's calendar date in the given location
func Today(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Normalize(time.Now().In(loc))
}
