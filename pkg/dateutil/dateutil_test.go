package dateutil

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	input := time.Date(2025, 1, 15, 1, 30, 0, 0, loc)
	expected := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	result := Normalize(input)

	if !result.Equal(expected) {
		t.Errorf("Normalize(%v) = %v, want %v", input, result, expected)
	}
}

func TestEndOfMonth(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		want  int
	}{
		{"January", 2025, time.January, 31},
		{"February leap year", 2024, time.February, 29},
		{"February common year", 2025, time.February, 28},
		{"April", 2025, time.April, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EndOfMonth(tt.year, tt.month)
			if got.Day() != tt.want || got.Month() != tt.month {
				t.Errorf("EndOfMonth(%d, %v) = %v, want day %d", tt.year, tt.month, got, tt.want)
			}
		})
	}
}

func TestIsWeekend(t *testing.T) {
	tests := []struct {
		name     string
		date     time.Time
		expected bool
	}{
		{"Monday", time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC), false},
		{"Friday", time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC), false},
		{"Saturday", time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC), true},
		{"Sunday", time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWeekend(tt.date); got != tt.expected {
				t.Errorf("IsWeekend(%v) = %v, want %v", tt.date.Format("Mon"), got, tt.expected)
			}
		})
	}
}

func TestDaysInclusive(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"single day", Date(2025, 1, 1), Date(2025, 1, 1), 1},
		{"five days", Date(2025, 1, 1), Date(2025, 1, 5), 5},
		{"across leap day", Date(2024, 2, 28), Date(2024, 3, 1), 3},
		{"whole year", Date(2025, 1, 1), Date(2025, 12, 31), 365},
		{"end before start", Date(2025, 1, 5), Date(2025, 1, 1), 0},
		{"whole calendar", Date(1, 1, 1), Date(9999, 12, 31), 3652059},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysInclusive(tt.start, tt.end); got != tt.want {
				t.Errorf("DaysInclusive(%s, %s) = %d, want %d",
					FormatDate(tt.start), FormatDate(tt.end), got, tt.want)
			}
		})
	}
}

func TestWeekendDays(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"weekday only", Date(2025, 1, 13), Date(2025, 1, 17), 0},
		{"saturday only", Date(2025, 1, 18), Date(2025, 1, 18), 1},
		{"friday to monday", Date(2025, 1, 17), Date(2025, 1, 20), 2},
		{"october 2025", Date(2025, 10, 1), Date(2025, 10, 31), 8},
		{"whole year", Date(2025, 1, 1), Date(2025, 12, 31), 104},
		{"end before start", Date(2025, 1, 5), Date(2025, 1, 1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekendDays(tt.start, tt.end); got != tt.want {
				t.Errorf("WeekendDays(%s, %s) = %d, want %d",
					FormatDate(tt.start), FormatDate(tt.end), got, tt.want)
			}

			walked := 0
			EachDay(tt.start, tt.end, func(d time.Time) {
				if IsWeekend(d) {
					walked++
				}
			})
			if walked != tt.want {
				t.Errorf("walked weekend count = %d, want %d", walked, tt.want)
			}
		})
	}
}

func TestEachDay(t *testing.T) {
	var days []string
	EachDay(Date(2024, 12, 30), Date(2025, 1, 2), func(d time.Time) {
		days = append(days, FormatDate(d))
	})

	want := []string{"2024-12-30", "2024-12-31", "2025-01-01", "2025-01-02"}
	if len(days) != len(want) {
		t.Fatalf("EachDay visited %d days, want %d", len(days), len(want))
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("day[%d] = %s, want %s", i, days[i], want[i])
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"valid", "2025-01-15", Date(2025, 1, 15), false},
		{"surrounding spaces", " 2025-01-15 ", Date(2025, 1, 15), false},
		{"empty", "", time.Time{}, true},
		{"dotted format rejected", "15.01.2025", time.Time{}, true},
		{"impossible date", "2025-02-30", time.Time{}, true},
		{"garbage", "tomorrow", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestToday(t *testing.T) {
	today := Today(time.UTC)
	if today.Hour() != 0 || today.Minute() != 0 || today.Location() != time.UTC {
		t.Errorf("Today() = %v, want midnight UTC", today)
	}
}
