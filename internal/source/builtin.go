package source

import (
	"context"
	"fmt"
	"sort"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
	"go.uber.org/zap"

	"github.com/username/holiday-api/internal/holiday"
	"github.com/username/holiday-api/pkg/dateutil"
)

type builtinCalendar struct {
	name     string
	holidays []*cal.Holiday
}

var builtinCalendars = map[string]builtinCalendar{
	"US": {
		name: "United States",
		holidays: []*cal.Holiday{
			us.NewYear,
			us.MlkDay,
			us.PresidentsDay,
			us.MemorialDay,
			us.Juneteenth,
			us.IndependenceDay,
			us.LaborDay,
			us.ColumbusDay,
			us.VeteransDay,
			us.ThanksgivingDay,
			us.ChristmasDay,
		},
	},
}

// BuiltinCountries lists the country codes with a built-in calendar
func BuiltinCountries() []string {
	codes := make([]string, 0, len(builtinCalendars))
	for code := range builtinCalendars {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// BuiltinSource computes a country's holidays from a rule-based calendar
type BuiltinSource struct {
	country string
	window  WindowFunc
	logger  *zap.Logger
}

// NewBuiltinSource creates a new BuiltinSource
func NewBuiltinSource(country string, window WindowFunc, logger *zap.Logger) (*BuiltinSource, error) {
	country = holiday.NormalizeCountryCode(country)
	if _, ok := builtinCalendars[country]; !ok {
		return nil, fmt.Errorf("%w: no built-in calendar for %q (available: %v)",
			holiday.ErrInvalidCountry, country, BuiltinCountries())
	}
	if window == nil {
		return nil, fmt.Errorf("built-in calendar %s needs an expansion window", country)
	}
	return &BuiltinSource{country: country, window: window, logger: logger}, nil
}

// Name returns the source name
func (bs *BuiltinSource) Name() string {
	return "builtin:" + bs.country
}

// Load computes the actual dates of every holiday in the window
func (bs *BuiltinSource) Load(ctx context.Context) (*holiday.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bc := builtinCalendars[bs.country]
	window := bs.window()

	ds := &holiday.Dataset{
		Countries: []holiday.Country{{Code: bs.country, Name: bc.name}},
	}

	for _, h := range bc.holidays {
		fixed := isFixed(h, window.From)
		for year := window.From; year <= window.To; year++ {
			actual, _ := h.Calc(year)
			if actual.IsZero() {
				continue
			}
			ds.Holidays = append(ds.Holidays, holiday.Holiday{
				Code:        Slug(h.Name),
				Name:        h.Name,
				Date:        dateutil.Normalize(actual),
				CountryCode: bs.country,
				Type:        observanceType(h.Type),
				Fixed:       fixed,
				Global:      true,
				LaunchYear:  h.StartYear,
			})
		}
	}

	bs.logger.Info("Built-in calendar computed",
		zap.String("country", bs.country),
		zap.Int("from_year", window.From),
		zap.Int("to_year", window.To),
		zap.Int("holidays", len(ds.Holidays)))

	return ds, nil
}

// fixed holidays land on the same month and day in consecutive years
func isFixed(h *cal.Holiday, year int) bool {
	if h.StartYear > year {
		year = h.StartYear
	}
	a, _ := h.Calc(year)
	b, _ := h.Calc(year + 1)
	if a.IsZero() || b.IsZero() {
		return false
	}
	return a.Month() == b.Month() && a.Day() == b.Day()
}

func observanceType(t cal.ObservanceType) holiday.Type {
	switch t {
	case cal.ObservancePublic:
		return holiday.TypePublic
	case cal.ObservanceBank:
		return holiday.TypeOfficial
	default:
		return holiday.TypeObservance
	}
}
