package calendar

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/username/holiday-api/internal/holiday"
	"github.com/username/holiday-api/internal/resolver"
	"github.com/username/holiday-api/pkg/dateutil"
)

// DefaultMaxSpanDays bounds a single working-days request
const DefaultMaxSpanDays = 3660

// Calculator implements Calendar on top of the holiday store.
// Saturday and Sunday are weekend days; any day with a matching holiday is a holiday.
type Calculator struct {
	store   *holiday.Store
	logger  *zap.Logger
	maxSpan int
}

// NewCalculator creates a new Calculator
func NewCalculator(store *holiday.Store, logger *zap.Logger) *Calculator {
	return &Calculator{
		store:   store,
		logger:  logger,
		maxSpan: DefaultMaxSpanDays,
	}
}

// WithMaxSpan sets the longest range WorkingDays accepts; non-positive values keep the default
func (c *Calculator) WithMaxSpan(days int) *Calculator {
	if days > 0 {
		c.maxSpan = days
	}
	return c
}

// WorkingDays counts the days in [Start, End]. With IncludeEndDate unset the
// final day is left out of the tallies. Weekends are counted arithmetically,
// so only holiday dates are looked at individually.
func (c *Calculator) WorkingDays(req Request) (*Summary, error) {
	start, end := dateutil.Normalize(req.Start), dateutil.Normalize(req.End)

	if span := dateutil.DaysInclusive(start, end); span > c.maxSpan {
		return nil, fmt.Errorf("%w: range of %d days exceeds the limit of %d", holiday.ErrInvalidRange, span, c.maxSpan)
	}

	last := end
	if !req.IncludeEndDate {
		last = end.AddDate(0, 0, -1)
	}

	byDate, err := c.holidaysByDate(req.Country, start, end, req.Audience)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	if last.Before(start) {
		return summary, nil
	}

	weekendHolidays := 0
	for date := range byDate {
		if date.After(last) {
			delete(byDate, date)
			continue
		}
		if dateutil.IsWeekend(date) {
			weekendHolidays++
		}
	}

	summary.TotalDays = dateutil.DaysInclusive(start, last)
	summary.HolidayDays = len(byDate)
	summary.WeekendDays = dateutil.WeekendDays(start, last) - weekendHolidays
	summary.WorkingDays = summary.TotalDays - summary.HolidayDays - summary.WeekendDays

	if req.WithDays {
		summary.Days = classifyRange(start, last, byDate)
	}

	c.logger.Debug("Working days calculated",
		zap.String("country", req.Country),
		zap.String("start", dateutil.FormatDate(start)),
		zap.String("end", dateutil.FormatDate(end)),
		zap.Bool("include_end_date", req.IncludeEndDate),
		zap.Int("total_days", summary.TotalDays),
		zap.Int("working_days", summary.WorkingDays),
		zap.Int("holiday_days", summary.HolidayDays))

	return summary, nil
}

// IsWorkday checks if the given date is a working day
func (c *Calculator) IsWorkday(country string, date time.Time, audience string) (bool, error) {
	day, err := c.GetDayInfo(country, date, audience)
	if err != nil {
		return false, err
	}
	return day.IsWorkday, nil
}

// GetMonthInfo returns calendar info for the entire month
func (c *Calculator) GetMonthInfo(country string, year int, month time.Month, audience string) (*MonthInfo, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month %d", holiday.ErrInvalidDate, int(month))
	}

	summary, err := c.WorkingDays(Request{
		Country:        country,
		Start:          dateutil.StartOfMonth(year, month),
		End:            dateutil.EndOfMonth(year, month),
		Audience:       audience,
		IncludeEndDate: true,
		WithDays:       true,
	})
	if err != nil {
		return nil, err
	}

	return &MonthInfo{
		Year:     year,
		Month:    month,
		WorkDays: summary.WorkingDays,
		Weekends: summary.WeekendDays,
		Holidays: summary.HolidayDays,
		Days:     summary.Days,
	}, nil
}

// GetDayInfo returns detailed info for a specific day
func (c *Calculator) GetDayInfo(country string, date time.Time, audience string) (*DayInfo, error) {
	date = dateutil.Normalize(date)
	byDate, err := c.holidaysByDate(country, date, date, audience)
	if err != nil {
		return nil, err
	}
	day := classifyDay(date, byDate[date])
	return &day, nil
}

// holidaysByDate resolves the span against a single snapshot and groups the
// matches by calendar date
func (c *Calculator) holidaysByDate(country string, start, end time.Time, audience string) (map[time.Time][]holiday.Holiday, error) {
	holidays, err := resolver.Select(c.store.Snapshot(), resolver.Query{
		Country:  country,
		Start:    start,
		End:      end,
		Audience: audience,
	})
	if err != nil {
		return nil, err
	}

	byDate := make(map[time.Time][]holiday.Holiday, len(holidays))
	for _, h := range holidays {
		date := dateutil.Normalize(h.Date)
		byDate[date] = append(byDate[date], h)
	}
	return byDate, nil
}

func classifyRange(start, end time.Time, byDate map[time.Time][]holiday.Holiday) []DayInfo {
	days := make([]DayInfo, 0, dateutil.DaysInclusive(start, end))
	dateutil.EachDay(start, end, func(d time.Time) {
		days = append(days, classifyDay(d, byDate[d]))
	})
	return days
}

func classifyDay(date time.Time, holidays []holiday.Holiday) DayInfo {
	day := DayInfo{
		Date:     date,
		Weekend:  dateutil.IsWeekend(date),
		Holidays: holidays,
	}

	switch {
	case len(holidays) > 0:
		day.Type = DayTypeHoliday
	case day.Weekend:
		day.Type = DayTypeWeekend
	default:
		day.Type = DayTypeWorkday
		day.IsWorkday = true
	}
	return day
}
