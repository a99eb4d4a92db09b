package calendar

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/username/holiday-api/internal/holiday"
	"github.com/username/holiday-api/pkg/dateutil"
)

const (
	// MaxLeaveDays bounds the leave budget of a vacation plan
	MaxLeaveDays = 30

	// MaxVacationPlans is the number of plans VacationPlans returns at most
	MaxVacationPlans = 5

	minDaysOff    = 4
	minEfficiency = 1.5
)

// VacationPlans finds leave ranges in year that, joined with the surrounding
// weekends and holidays, give the longest runs of days off per leave day.
// Each plan spends between 1 and maxLeaveDays consecutive working days, all
// inside the year, and its run contains at least one holiday on a weekday.
// Plans are ordered by efficiency, then by days off, then by start date; a
// plan whose run lies inside an already chosen one is skipped.
func (c *Calculator) VacationPlans(country string, year, maxLeaveDays int, audience string) ([]VacationPlan, error) {
	if maxLeaveDays < 1 || maxLeaveDays > MaxLeaveDays {
		return nil, fmt.Errorf("%w: leave days must be between 1 and %d", holiday.ErrInvalidRequest, MaxLeaveDays)
	}
	if year < 1 || year > 9999 {
		return nil, fmt.Errorf("%w: year %d", holiday.ErrInvalidDate, year)
	}

	// Runs may spill over the year boundary; the margin covers the longest
	// stretch of days off that can follow or precede a leave day.
	margin := 2 * MaxLeaveDays
	from := dateutil.StartOfYear(year).AddDate(0, 0, -margin)
	to := dateutil.EndOfYear(year).AddDate(0, 0, margin)

	byDate, err := c.holidaysByDate(country, from, to, audience)
	if err != nil {
		return nil, err
	}
	days := classifyRange(from, to, byDate)

	var work []int
	for i, d := range days {
		if d.IsWorkday {
			work = append(work, i)
		}
	}

	var candidates []VacationPlan
	for i := range work {
		if days[work[i]].Date.Year() != year {
			continue
		}
		for k := 1; k <= maxLeaveDays && i+k <= len(work); k++ {
			last := work[i+k-1]
			if days[last].Date.Year() != year {
				break
			}

			lo := 0
			if i > 0 {
				lo = work[i-1] + 1
			}
			hi := len(days) - 1
			if i+k < len(work) {
				hi = work[i+k] - 1
			}

			plan, ok := buildPlan(days[lo:hi+1], days[work[i]].Date, days[last].Date, k)
			if ok {
				candidates = append(candidates, plan)
			}
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		pa, pb := candidates[a], candidates[b]
		if pa.Efficiency != pb.Efficiency {
			return pa.Efficiency > pb.Efficiency
		}
		if pa.DaysOff != pb.DaysOff {
			return pa.DaysOff > pb.DaysOff
		}
		return pa.Start.Before(pb.Start)
	})

	plans := make([]VacationPlan, 0, MaxVacationPlans)
	for _, p := range candidates {
		if len(plans) == MaxVacationPlans {
			break
		}
		if coveredBy(p, plans) {
			continue
		}
		plans = append(plans, p)
	}

	c.logger.Debug("Vacation plans calculated",
		zap.String("country", country),
		zap.Int("year", year),
		zap.Int("max_leave_days", maxLeaveDays),
		zap.Int("candidates", len(candidates)),
		zap.Int("plans", len(plans)))

	return plans, nil
}

// buildPlan turns a run of days into a plan; it reports false when the run is
// too short, too costly or has no holiday on a weekday
func buildPlan(run []DayInfo, leaveStart, leaveEnd time.Time, leaveDays int) (VacationPlan, bool) {
	if len(run) < minDaysOff {
		return VacationPlan{}, false
	}
	efficiency := float64(len(run)) / float64(leaveDays)
	if efficiency < minEfficiency {
		return VacationPlan{}, false
	}

	var holidays []holiday.Holiday
	weekdayHoliday := false
	for _, d := range run {
		if d.Type != DayTypeHoliday {
			continue
		}
		holidays = append(holidays, d.Holidays...)
		if !d.Weekend {
			weekdayHoliday = true
		}
	}
	if !weekdayHoliday {
		return VacationPlan{}, false
	}

	return VacationPlan{
		Start:      run[0].Date,
		End:        run[len(run)-1].Date,
		LeaveStart: leaveStart,
		LeaveEnd:   leaveEnd,
		LeaveDays:  leaveDays,
		DaysOff:    len(run),
		Efficiency: efficiency,
		Holidays:   holidays,
	}, true
}

func coveredBy(p VacationPlan, chosen []VacationPlan) bool {
	for _, c := range chosen {
		if !p.Start.Before(c.Start) && !p.End.After(c.End) {
			return true
		}
	}
	return false
}

// YearStats counts the holidays of a year per month and how many of them fall
// on a weekend
func (c *Calculator) YearStats(country string, year int, audience string) (*YearStats, error) {
	if year < 1 || year > 9999 {
		return nil, fmt.Errorf("%w: year %d", holiday.ErrInvalidDate, year)
	}

	byDate, err := c.holidaysByDate(country, dateutil.StartOfYear(year), dateutil.EndOfYear(year), audience)
	if err != nil {
		return nil, err
	}

	stats := &YearStats{Year: year, HolidayDates: len(byDate)}
	for date, holidays := range byDate {
		n := len(holidays)
		stats.Holidays += n
		stats.ByMonth[date.Month()-1] += n
		if dateutil.IsWeekend(date) {
			stats.WeekendHolidays += n
		}
	}

	busiest := 0
	for i, n := range stats.ByMonth {
		if n > busiest {
			busiest = n
			stats.BusiestMonth = time.Month(i + 1)
		}
	}
	stats.AveragePerMonth = float64(stats.Holidays) / 12

	return stats, nil
}
