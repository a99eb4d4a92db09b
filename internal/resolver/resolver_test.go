package resolver

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/username/holiday-api/internal/holiday"
	"github.com/username/holiday-api/internal/i18n"
	"github.com/username/holiday-api/pkg/dateutil"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()

	ds := &holiday.Dataset{
		Countries: []holiday.Country{{Code: "TR", Name: "Turkey"}, {Code: "US", Name: "United States"}},
		Audiences: []holiday.Audience{
			{Code: "general", Name: "General Public"},
			{Code: "government", Name: "Government"},
			{Code: "students", Name: "Students"},
		},
		Holidays: []holiday.Holiday{
			{Name: "New Year's Day", Date: dateutil.Date(2025, 1, 1), CountryCode: "TR", Type: holiday.TypePublic, Global: true, Fixed: true,
				Translations: map[string]string{"tr": "Yılbaşı"}},
			{Name: "Democracy and National Unity Day", Date: dateutil.Date(2016, 7, 15), CountryCode: "TR", Type: holiday.TypeNational, LaunchYear: 2017},
			{Name: "Democracy and National Unity Day", Date: dateutil.Date(2017, 7, 15), CountryCode: "TR", Type: holiday.TypeNational, LaunchYear: 2017},
			{Name: "Teachers' Day", Date: dateutil.Date(2025, 11, 24), CountryCode: "TR", Type: holiday.TypeObservance, Audiences: []string{"students"}},
			{Name: "Civil Servants Day", Date: dateutil.Date(2025, 11, 24), CountryCode: "TR", Type: holiday.TypeOfficial, Audiences: []string{"government"}},
			{Name: "Atatürk Memorial", Date: dateutil.Date(2025, 11, 10), CountryCode: "TR", Type: holiday.TypeObservance, Global: false, Counties: []string{"TR-06"}},
		},
	}

	snap, err := holiday.NewSnapshot(ds, "test", time.Now())
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}
	translator, err := i18n.New()
	if err != nil {
		t.Fatalf("i18n.New() error = %v", err)
	}

	logger, _ := zap.NewDevelopment()
	return New(holiday.NewStore(snap), translator, time.UTC, logger)
}

func names(views []HolidayView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.Name)
	}
	return out
}

func TestResolver_Range(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name    string
		query   Query
		want    []string
		wantErr error
	}{
		{
			name:  "whole year sorted",
			query: Query{Country: "TR", Start: dateutil.Date(2025, 1, 1), End: dateutil.Date(2025, 12, 31)},
			want:  []string{"New Year's Day", "Atatürk Memorial", "Civil Servants Day", "Teachers' Day"},
		},
		{
			name:  "audience keeps universal holidays",
			query: Query{Country: "TR", Start: dateutil.Date(2025, 1, 1), End: dateutil.Date(2025, 12, 31), Audience: "students"},
			want:  []string{"New Year's Day", "Atatürk Memorial", "Teachers' Day"},
		},
		{
			name:  "unknown audience matches nothing",
			query: Query{Country: "TR", Start: dateutil.Date(2025, 1, 1), End: dateutil.Date(2025, 12, 31), Audience: "astronauts"},
			want:  []string{},
		},
		{
			name:  "type filter",
			query: Query{Country: "TR", Start: dateutil.Date(2025, 1, 1), End: dateutil.Date(2025, 12, 31), Type: "observance"},
			want:  []string{"Atatürk Memorial", "Teachers' Day"},
		},
		{
			name:  "unknown type matches nothing",
			query: Query{Country: "TR", Start: dateutil.Date(2025, 1, 1), End: dateutil.Date(2025, 12, 31), Type: "festival"},
			want:  []string{},
		},
		{
			name:  "instance before launch year excluded",
			query: Query{Country: "TR", Start: dateutil.Date(2016, 1, 1), End: dateutil.Date(2017, 12, 31)},
			want:  []string{"Democracy and National Unity Day"},
		},
		{
			name:  "translated names",
			query: Query{Country: "TR", Start: dateutil.Date(2025, 1, 1), End: dateutil.Date(2025, 1, 1), Language: "tr"},
			want:  []string{"Yılbaşı"},
		},
		{
			name:    "invalid range",
			query:   Query{Country: "TR", Start: dateutil.Date(2025, 2, 1), End: dateutil.Date(2025, 1, 1)},
			wantErr: holiday.ErrInvalidRange,
		},
		{
			name:    "invalid country with unknown audience still fails",
			query:   Query{Country: "XX", Start: dateutil.Date(2025, 1, 1), End: dateutil.Date(2025, 1, 1), Audience: "astronauts"},
			wantErr: holiday.ErrInvalidCountry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Range(tt.query)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Range() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Range() error = %v", err)
			}
			gotNames := names(got)
			if strings.Join(gotNames, "|") != strings.Join(tt.want, "|") {
				t.Errorf("Range() = %v, want %v", gotNames, tt.want)
			}
		})
	}
}

func TestResolver_DisplayNameFilters(t *testing.T) {
	r := newTestResolver(t)
	start, end := dateutil.Date(2025, 1, 1), dateutil.Date(2025, 12, 31)

	tests := []struct {
		name    string
		byName  Query
		byCode  Query
		wantLen int
	}{
		{
			name:    "turkish audience name",
			byName:  Query{Country: "TR", Start: start, End: end, Audience: "Öğrenciler", Language: "tr"},
			byCode:  Query{Country: "TR", Start: start, End: end, Audience: "students", Language: "tr"},
			wantLen: 3,
		},
		{
			name:    "english audience name in other case",
			byName:  Query{Country: "TR", Start: start, End: end, Audience: "GOVERNMENT", Language: "en"},
			byCode:  Query{Country: "TR", Start: start, End: end, Audience: "government", Language: "en"},
			wantLen: 3,
		},
		{
			name:    "turkish type name",
			byName:  Query{Country: "TR", Start: start, End: end, Type: "Anma Günü", Language: "tr"},
			byCode:  Query{Country: "TR", Start: start, End: end, Type: "observance", Language: "tr"},
			wantLen: 2,
		},
		{
			name:    "unknown display name matches nothing",
			byName:  Query{Country: "TR", Start: start, End: end, Audience: "Astronotlar", Language: "tr"},
			byCode:  Query{Country: "TR", Start: start, End: end, Audience: "astronauts", Language: "tr"},
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Range(tt.byName)
			if err != nil {
				t.Fatalf("Range(by name) error = %v", err)
			}
			want, err := r.Range(tt.byCode)
			if err != nil {
				t.Fatalf("Range(by code) error = %v", err)
			}
			if len(got) != tt.wantLen || strings.Join(names(got), "|") != strings.Join(names(want), "|") {
				t.Errorf("Range(by name) = %v, want %v (%d)", names(got), names(want), tt.wantLen)
			}
		})
	}

	if code := r.AudienceCode(" Öğrenciler ", "tr"); code != "students" {
		t.Errorf("AudienceCode(Öğrenciler) = %q, want students", code)
	}
	if code := r.TypeCode("Anma Günü", "tr"); code != "observance" {
		t.Errorf("TypeCode(Anma Günü) = %q, want observance", code)
	}
}

func TestResolver_LaunchYearView(t *testing.T) {
	r := newTestResolver(t)

	got, err := r.Range(Query{Country: "TR", Start: dateutil.Date(2017, 7, 15), End: dateutil.Date(2017, 7, 15)})
	if err != nil {
		t.Fatalf("Range() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Range() returned %d holidays, want 1", len(got))
	}
	if got[0].LaunchYear == nil || *got[0].LaunchYear != 2017 {
		t.Errorf("LaunchYear = %v, want 2017", got[0].LaunchYear)
	}
	if got[0].Date != "2017-07-15" {
		t.Errorf("Date = %q, want 2017-07-15", got[0].Date)
	}
	if got[0].TypeName != "National Holiday" {
		t.Errorf("TypeName = %q, want National Holiday", got[0].TypeName)
	}
}

func TestResolver_Today(t *testing.T) {
	r := newTestResolver(t)

	onHoliday := r.WithClock(func() time.Time { return time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC) })
	got, err := onHoliday.Today("TR", "", "en")
	if err != nil {
		t.Fatalf("Today() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "New Year's Day" {
		t.Errorf("Today() = %v, want New Year's Day", names(got))
	}

	ordinary := r.WithClock(func() time.Time { return time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC) })
	got, err = ordinary.Today("TR", "", "en")
	if err != nil {
		t.Fatalf("Today() error = %v", err)
	}
	data, _ := json.Marshal(got)
	if string(data) != "[]" {
		t.Errorf("Today() JSON = %s, want []", data)
	}
}

func TestResolver_TodayUsesLocation(t *testing.T) {
	r := newTestResolver(t)
	r.location = time.FixedZone("UTC+3", 3*60*60)

	// 22:30 UTC on Dec 31 is already Jan 1 at UTC+3
	late := r.WithClock(func() time.Time { return time.Date(2024, 12, 31, 22, 30, 0, 0, time.UTC) })
	got, err := late.Today("TR", "", "en")
	if err != nil {
		t.Fatalf("Today() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Today() returned %d holidays, want 1", len(got))
	}
}

func TestResolver_ReferenceLists(t *testing.T) {
	r := newTestResolver(t)

	countries := r.Countries("tr")
	if len(countries) != 2 || countries[0].Name != "Türkiye" {
		t.Errorf("Countries(tr) = %v, want Türkiye first", countries)
	}

	raw := r.Audiences("tr", false)
	if raw[0].Code != "general" || raw[0].Name != "General Public" {
		t.Errorf("Audiences(raw)[0] = %+v, want general/General Public", raw[0])
	}
	translated := r.Audiences("tr", true)
	if translated[0].Name != "Genel Halk" {
		t.Errorf("Audiences(translated)[0] = %+v, want Genel Halk", translated[0])
	}

	types := r.Types()
	if len(types) != 6 || types[0] != "official" {
		t.Errorf("Types() = %v", types)
	}
	typeNames := r.TypeNames("tr")
	if typeNames[0] != "Resmi Tatil" {
		t.Errorf("TypeNames(tr)[0] = %q, want Resmi Tatil", typeNames[0])
	}
}
