package calendar

import (
	"encoding/json"
	"time"

	"github.com/username/holiday-api/internal/holiday"
)

// DayType represents the type of day
type DayType int

const (
	DayTypeWorkday DayType = iota + 1
	DayTypeWeekend
	DayTypeHoliday
)

// String returns the wire name of the day type
func (d DayType) String() string {
	switch d {
	case DayTypeWorkday:
		return "workday"
	case DayTypeWeekend:
		return "weekend"
	case DayTypeHoliday:
		return "holiday"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the day type as its wire name
func (d DayType) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// DayInfo represents information about a specific day
type DayInfo struct {
	Date      time.Time
	Type      DayType
	IsWorkday bool
	Weekend   bool
	Holidays  []holiday.Holiday // matching holidays, sorted by name
}

// Summary is the result of a working-days calculation.
// WorkingDays + HolidayDays + WeekendDays always equals TotalDays.
type Summary struct {
	TotalDays   int       `json:"totalDays"`
	WorkingDays int       `json:"workingDays"`
	HolidayDays int       `json:"holidayDays"`
	WeekendDays int       `json:"weekendDays"`
	Days        []DayInfo `json:"-"` // counted days, filled when Request.WithDays is set
}

// MonthInfo represents calendar information for a month
type MonthInfo struct {
	Year     int
	Month    time.Month
	WorkDays int
	Weekends int
	Holidays int
	Days     []DayInfo
}

// Request describes a working-days calculation
type Request struct {
	Country        string
	Start          time.Time
	End            time.Time
	Audience       string
	IncludeEndDate bool
	WithDays       bool // fill Summary.Days with the per-day breakdown
}

// VacationPlan is a run of consecutive days off obtained by taking leave on
// the working days between LeaveStart and LeaveEnd.
type VacationPlan struct {
	Start      time.Time // first day off
	End        time.Time // last day off
	LeaveStart time.Time
	LeaveEnd   time.Time
	LeaveDays  int
	DaysOff    int
	Efficiency float64 // DaysOff / LeaveDays
	Holidays   []holiday.Holiday
}

// YearStats describes how a country's holidays fall across a year
type YearStats struct {
	Year            int        `json:"year"`
	Holidays        int        `json:"holidays"`
	HolidayDates    int        `json:"holidayDates"`
	WeekendHolidays int        `json:"weekendHolidays"` // holidays falling on Saturday or Sunday
	ByMonth         [12]int    `json:"byMonth"`
	BusiestMonth    time.Month `json:"busiestMonth"` // 0 when the year has no holidays
	AveragePerMonth float64    `json:"averagePerMonth"`
}

// Calendar answers working-day questions for a country
type Calendar interface {
	// WorkingDays counts working, holiday and weekend days in a range
	WorkingDays(req Request) (*Summary, error)

	// IsWorkday checks if the given date is a working day
	IsWorkday(country string, date time.Time, audience string) (bool, error)

	// GetMonthInfo returns calendar info for the entire month
	GetMonthInfo(country string, year int, month time.Month, audience string) (*MonthInfo, error)

	// GetDayInfo returns detailed info for a specific day
	GetDayInfo(country string, date time.Time, audience string) (*DayInfo, error)

	// VacationPlans ranks leave ranges of at most maxLeaveDays working days by days off gained
	VacationPlans(country string, year, maxLeaveDays int, audience string) ([]VacationPlan, error)

	// YearStats summarizes the holidays of a year
	YearStats(country string, year int, audience string) (*YearStats, error)
}
