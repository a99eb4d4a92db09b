package calendar

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/username/holiday-api/internal/holiday"
	"github.com/username/holiday-api/pkg/dateutil"
)

func newTestCalculator(t *testing.T, holidays ...holiday.Holiday) *Calculator {
	t.Helper()

	ds := &holiday.Dataset{
		Countries: []holiday.Country{{Code: "TR", Name: "Turkey"}, {Code: "US", Name: "United States"}},
		Audiences: []holiday.Audience{{Code: "government"}, {Code: "students"}},
		Holidays:  holidays,
	}
	snap, err := holiday.NewSnapshot(ds, "test", time.Now())
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}

	logger, _ := zap.NewDevelopment()
	return NewCalculator(holiday.NewStore(snap), logger)
}

func trHoliday(name string, date time.Time, audiences ...string) holiday.Holiday {
	return holiday.Holiday{
		Name:        name,
		Date:        date,
		CountryCode: "TR",
		Type:        holiday.TypePublic,
		Audiences:   audiences,
		Global:      true,
	}
}

func TestCalculator_WorkingDays(t *testing.T) {
	newYear := trHoliday("New Year's Day", dateutil.Date(2025, 1, 1))
	saturdayHoliday := trHoliday("Saturday Holiday", dateutil.Date(2025, 1, 4))
	govOnly := trHoliday("Government Day", dateutil.Date(2025, 1, 2), "government")
	launched := trHoliday("Launch Day", dateutil.Date(2025, 1, 3))
	launched.LaunchYear = 2026

	tests := []struct {
		name     string
		holidays []holiday.Holiday
		req      Request
		want     Summary
	}{
		{
			name:     "five days with New Year",
			holidays: []holiday.Holiday{newYear},
			req:      Request{Country: "TR", Start: dateutil.Date(2025, 1, 1), End: dateutil.Date(2025, 1, 5), IncludeEndDate: true},
			want:     Summary{TotalDays: 5, WorkingDays: 2, HolidayDays: 1, WeekendDays: 2},
		},
		{
			name:     "end date excluded",
			holidays: []holiday.Holiday{newYear},
			req:      Request{Country: "TR", Start: dateutil.Date(2025, 1, 1), End: dateutil.Date(2025, 1, 5), IncludeEndDate: false},
			want:     Summary{TotalDays: 4, WorkingDays: 2, HolidayDays: 1, WeekendDays: 1},
		},
		{
			name:     "holiday on weekend counts once as holiday",
			holidays: []holiday.Holiday{newYear, saturdayHoliday},
			req:      Request{Country: "TR", Start: dateutil.Date(2025, 1, 1), End: dateutil.Date(2025, 1, 5), IncludeEndDate: true},
			want:     Summary{TotalDays: 5, WorkingDays: 2, HolidayDays: 2, WeekendDays: 1},
		},
		{
			name:     "two holidays on one date count once",
			holidays: []holiday.Holiday{newYear, trHoliday("Another", dateutil.Date(2025, 1, 1))},
			req:      Request{Country: "TR", Start: dateutil.Date(2025, 1, 1), End: dateutil.Date(2025, 1, 1), IncludeEndDate: true},
			want:     Summary{TotalDays: 1, WorkingDays: 0, HolidayDays: 1, WeekendDays: 0},
		},
		{
			name:     "single day excluded end gives zeros",
			holidays: []holiday.Holiday{newYear},
			req:      Request{Country: "TR", Start: dateutil.Date(2025, 1, 1), End: dateutil.Date(2025, 1, 1), IncludeEndDate: false},
			want:     Summary{},
		},
		{
			name:     "audience without match keeps working day",
			holidays: []holiday.Holiday{govOnly},
			req:      Request{Country: "TR", Start: dateutil.Date(2025, 1, 1), End: dateutil.Date(2025, 1, 3), Audience: "students", IncludeEndDate: true},
			want:     Summary{TotalDays: 3, WorkingDays: 3},
		},
		{
			name:     "audience with match",
			holidays: []holiday.Holiday{govOnly},
			req:      Request{Country: "TR", Start: dateutil.Date(2025, 1, 1), End: dateutil.Date(2025, 1, 3), Audience: "government", IncludeEndDate: true},
			want:     Summary{TotalDays: 3, WorkingDays: 2, HolidayDays: 1},
		},
		{
			name:     "no audience counts every holiday",
			holidays: []holiday.Holiday{govOnly},
			req:      Request{Country: "TR", Start: dateutil.Date(2025, 1, 1), End: dateutil.Date(2025, 1, 3), IncludeEndDate: true},
			want:     Summary{TotalDays: 3, WorkingDays: 2, HolidayDays: 1},
		},
		{
			name:     "unknown audience only removes weekends",
			holidays: []holiday.Holiday{newYear},
			req:      Request{Country: "TR", Start: dateutil.Date(2025, 1, 1), End: dateutil.Date(2025, 1, 5), Audience: "astronauts", IncludeEndDate: true},
			want:     Summary{TotalDays: 5, WorkingDays: 3, WeekendDays: 2},
		},
		{
			name:     "holiday before launch year ignored",
			holidays: []holiday.Holiday{launched},
			req:      Request{Country: "TR", Start: dateutil.Date(2025, 1, 3), End: dateutil.Date(2025, 1, 3), IncludeEndDate: true},
			want:     Summary{TotalDays: 1, WorkingDays: 1},
		},
		{
			name:     "other country holidays ignored",
			holidays: []holiday.Holiday{newYear},
			req:      Request{Country: "US", Start: dateutil.Date(2025, 1, 1), End: dateutil.Date(2025, 1, 1), IncludeEndDate: true},
			want:     Summary{TotalDays: 1, WorkingDays: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := newTestCalculator(t, tt.holidays...)

			got, err := calc.WorkingDays(tt.req)
			if err != nil {
				t.Fatalf("WorkingDays() error = %v", err)
			}

			if got.TotalDays != tt.want.TotalDays {
				t.Errorf("TotalDays = %d, want %d", got.TotalDays, tt.want.TotalDays)
			}
			if got.WorkingDays != tt.want.WorkingDays {
				t.Errorf("WorkingDays = %d, want %d", got.WorkingDays, tt.want.WorkingDays)
			}
			if got.HolidayDays != tt.want.HolidayDays {
				t.Errorf("HolidayDays = %d, want %d", got.HolidayDays, tt.want.HolidayDays)
			}
			if got.WeekendDays != tt.want.WeekendDays {
				t.Errorf("WeekendDays = %d, want %d", got.WeekendDays, tt.want.WeekendDays)
			}
			if got.WorkingDays+got.HolidayDays+got.WeekendDays != got.TotalDays {
				t.Errorf("working + holiday + weekend = %d, want %d",
					got.WorkingDays+got.HolidayDays+got.WeekendDays, got.TotalDays)
			}
			if len(got.Days) != 0 {
				t.Errorf("len(Days) = %d without WithDays, want 0", len(got.Days))
			}

			req := tt.req
			req.WithDays = true
			detailed, err := calc.WorkingDays(req)
			if err != nil {
				t.Fatalf("WorkingDays(WithDays) error = %v", err)
			}
			if len(detailed.Days) != got.TotalDays {
				t.Fatalf("len(Days) = %d, want %d", len(detailed.Days), got.TotalDays)
			}

			var tally Summary
			for _, d := range detailed.Days {
				switch d.Type {
				case DayTypeHoliday:
					tally.HolidayDays++
				case DayTypeWeekend:
					tally.WeekendDays++
				default:
					tally.WorkingDays++
				}
			}
			if tally.WorkingDays != got.WorkingDays || tally.HolidayDays != got.HolidayDays || tally.WeekendDays != got.WeekendDays {
				t.Errorf("per-day tally = %+v, want counts of %+v", tally, *got)
			}
		})
	}
}

func TestCalculator_WorkingDaysSpanLimit(t *testing.T) {
	calc := newTestCalculator(t, trHoliday("New Year's Day", dateutil.Date(2025, 1, 1)))

	_, err := calc.WorkingDays(Request{Country: "TR", Start: dateutil.Date(1, 1, 1), End: dateutil.Date(9999, 12, 31), IncludeEndDate: true})
	if !errors.Is(err, holiday.ErrInvalidRange) {
		t.Errorf("WorkingDays(0001..9999) error = %v, want ErrInvalidRange", err)
	}

	start := dateutil.Date(2020, 1, 1)
	atLimit := start.AddDate(0, 0, DefaultMaxSpanDays-1)
	got, err := calc.WorkingDays(Request{Country: "TR", Start: start, End: atLimit, IncludeEndDate: true})
	if err != nil {
		t.Fatalf("WorkingDays(at limit) error = %v", err)
	}
	if got.TotalDays != DefaultMaxSpanDays {
		t.Errorf("TotalDays = %d, want %d", got.TotalDays, DefaultMaxSpanDays)
	}
	if got.HolidayDays != 1 {
		t.Errorf("HolidayDays = %d, want 1", got.HolidayDays)
	}

	calc.WithMaxSpan(7)
	if _, err := calc.WorkingDays(Request{Country: "TR", Start: start, End: start.AddDate(0, 0, 6)}); err != nil {
		t.Errorf("WorkingDays(7 days, limit 7) error = %v", err)
	}
	_, err = calc.WorkingDays(Request{Country: "TR", Start: start, End: start.AddDate(0, 0, 7)})
	if !errors.Is(err, holiday.ErrInvalidRange) {
		t.Errorf("WorkingDays(8 days, limit 7) error = %v, want ErrInvalidRange", err)
	}
}

func TestCalculator_IncludeEndDateDropsOneDay(t *testing.T) {
	calc := newTestCalculator(t, trHoliday("New Year's Day", dateutil.Date(2025, 1, 1)))

	for _, span := range []int{1, 2, 7, 31, 366} {
		start := dateutil.Date(2024, 12, 28)
		end := start.AddDate(0, 0, span-1)

		with, err := calc.WorkingDays(Request{Country: "TR", Start: start, End: end, IncludeEndDate: true})
		if err != nil {
			t.Fatalf("WorkingDays() error = %v", err)
		}
		without, err := calc.WorkingDays(Request{Country: "TR", Start: start, End: end, IncludeEndDate: false})
		if err != nil {
			t.Fatalf("WorkingDays() error = %v", err)
		}

		if with.TotalDays != span {
			t.Errorf("span %d: TotalDays = %d, want %d", span, with.TotalDays, span)
		}
		if without.TotalDays != with.TotalDays-1 {
			t.Errorf("span %d: TotalDays without end = %d, want %d", span, without.TotalDays, with.TotalDays-1)
		}
	}
}

func TestCalculator_Errors(t *testing.T) {
	calc := newTestCalculator(t)

	_, err := calc.WorkingDays(Request{Country: "TR", Start: dateutil.Date(2025, 1, 5), End: dateutil.Date(2025, 1, 1)})
	if !errors.Is(err, holiday.ErrInvalidRange) {
		t.Errorf("WorkingDays(reversed) error = %v, want ErrInvalidRange", err)
	}

	_, err = calc.WorkingDays(Request{Country: "ZZ", Start: dateutil.Date(2025, 1, 1), End: dateutil.Date(2025, 1, 5)})
	if !errors.Is(err, holiday.ErrInvalidCountry) {
		t.Errorf("WorkingDays(ZZ) error = %v, want ErrInvalidCountry", err)
	}

	_, err = calc.GetMonthInfo("TR", 2025, time.Month(13), "")
	if !errors.Is(err, holiday.ErrInvalidDate) {
		t.Errorf("GetMonthInfo(month 13) error = %v, want ErrInvalidDate", err)
	}
}

func TestCalculator_GetDayInfo(t *testing.T) {
	calc := newTestCalculator(t,
		trHoliday("New Year's Day", dateutil.Date(2025, 1, 1)),
		trHoliday("Saturday Holiday", dateutil.Date(2025, 1, 4)),
	)

	tests := []struct {
		name        string
		date        time.Time
		wantType    DayType
		wantWorkday bool
		wantWeekend bool
	}{
		{"holiday on weekday", dateutil.Date(2025, 1, 1), DayTypeHoliday, false, false},
		{"ordinary weekday", dateutil.Date(2025, 1, 2), DayTypeWorkday, true, false},
		{"holiday on saturday", dateutil.Date(2025, 1, 4), DayTypeHoliday, false, true},
		{"plain sunday", dateutil.Date(2025, 1, 5), DayTypeWeekend, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, err := calc.GetDayInfo("TR", tt.date, "")
			if err != nil {
				t.Fatalf("GetDayInfo() error = %v", err)
			}
			if day.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", day.Type, tt.wantType)
			}
			if day.IsWorkday != tt.wantWorkday {
				t.Errorf("IsWorkday = %v, want %v", day.IsWorkday, tt.wantWorkday)
			}
			if day.Weekend != tt.wantWeekend {
				t.Errorf("Weekend = %v, want %v", day.Weekend, tt.wantWeekend)
			}

			isWorkday, err := calc.IsWorkday("TR", tt.date, "")
			if err != nil {
				t.Fatalf("IsWorkday() error = %v", err)
			}
			if isWorkday != tt.wantWorkday {
				t.Errorf("IsWorkday() = %v, want %v", isWorkday, tt.wantWorkday)
			}
		})
	}
}

func TestCalculator_GetMonthInfo(t *testing.T) {
	calc := newTestCalculator(t, trHoliday("New Year's Day", dateutil.Date(2025, 1, 1)))

	month, err := calc.GetMonthInfo("TR", 2025, time.January, "")
	if err != nil {
		t.Fatalf("GetMonthInfo() error = %v", err)
	}

	// January 2025: 23 weekdays, 8 weekend days
	if len(month.Days) != 31 {
		t.Errorf("Days count = %d, want 31", len(month.Days))
	}
	if month.WorkDays != 22 {
		t.Errorf("WorkDays = %d, want 22", month.WorkDays)
	}
	if month.Weekends != 8 {
		t.Errorf("Weekends = %d, want 8", month.Weekends)
	}
	if month.Holidays != 1 {
		t.Errorf("Holidays = %d, want 1", month.Holidays)
	}
}

func TestDayType_String(t *testing.T) {
	tests := []struct {
		typ  DayType
		want string
	}{
		{DayTypeWorkday, "workday"},
		{DayTypeWeekend, "weekend"},
		{DayTypeHoliday, "holiday"},
		{DayType(0), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("DayType(%d).String() = %q, want %q", int(tt.typ), got, tt.want)
		}
	}
}
