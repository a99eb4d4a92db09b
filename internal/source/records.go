package source

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/username/holiday-api/internal/holiday"
	"github.com/username/holiday-api/pkg/dateutil"
)

// datasetRecord is the on-disk and over-the-wire dataset layout
type datasetRecord struct {
	Countries []referenceRecord `yaml:"countries" json:"countries"`
	Audiences []referenceRecord `yaml:"audiences" json:"audiences"`
	Holidays  []holidayRecord   `yaml:"holidays" json:"holidays"`
}

type referenceRecord struct {
	Code         string            `yaml:"code" json:"code"`
	Name         string            `yaml:"name" json:"name"`
	Translations map[string]string `yaml:"translations" json:"translations,omitempty"`
}

type holidayRecord struct {
	Code         string            `yaml:"code" json:"code,omitempty"`
	Name         string            `yaml:"name" json:"name"`
	Country      string            `yaml:"country" json:"country"`
	Date         string            `yaml:"date" json:"date,omitempty"`
	Rule         string            `yaml:"rule" json:"rule,omitempty"`
	Type         string            `yaml:"type" json:"type"`
	Audiences    []string          `yaml:"audiences" json:"audiences,omitempty"`
	Fixed        bool              `yaml:"fixed" json:"fixed"`
	Global       *bool             `yaml:"global" json:"global,omitempty"`
	Counties     []string          `yaml:"counties" json:"counties,omitempty"`
	LaunchYear   int               `yaml:"launch_year" json:"launch_year,omitempty"`
	Translations map[string]string `yaml:"translations" json:"translations,omitempty"`
}

// toDataset converts records into holiday instances, expanding recurring ones.
// Malformed holiday records are logged and skipped.
func (r *datasetRecord) toDataset(window YearWindow, logger *zap.Logger) *holiday.Dataset {
	ds := &holiday.Dataset{
		Countries: make([]holiday.Country, 0, len(r.Countries)),
		Audiences: make([]holiday.Audience, 0, len(r.Audiences)),
		Holidays:  make([]holiday.Holiday, 0, len(r.Holidays)),
	}

	for _, c := range r.Countries {
		ds.Countries = append(ds.Countries, holiday.Country{
			Code:         holiday.NormalizeCountryCode(c.Code),
			Name:         c.Name,
			Translations: c.Translations,
		})
	}
	for _, a := range r.Audiences {
		ds.Audiences = append(ds.Audiences, holiday.Audience{
			Code:         strings.TrimSpace(a.Code),
			Name:         a.Name,
			Translations: a.Translations,
		})
	}

	for i, rec := range r.Holidays {
		instances, err := rec.expand(window)
		if err != nil {
			logger.Warn("Skipping invalid holiday record",
				zap.Int("index", i),
				zap.String("name", rec.Name),
				zap.Error(err))
			continue
		}
		ds.Holidays = append(ds.Holidays, instances...)
	}

	return ds
}

func (rec holidayRecord) template() (holiday.Holiday, error) {
	typ, ok := holiday.ParseType(rec.Type)
	if !ok {
		return holiday.Holiday{}, fmt.Errorf("unknown holiday type %q", rec.Type)
	}

	global := len(rec.Counties) == 0
	if rec.Global != nil {
		global = *rec.Global
	}

	code := rec.Code
	if code == "" {
		code = Slug(rec.Name)
	}

	return holiday.Holiday{
		Code:         code,
		Name:         strings.TrimSpace(rec.Name),
		CountryCode:  holiday.NormalizeCountryCode(rec.Country),
		Type:         typ,
		Audiences:    rec.Audiences,
		Fixed:        rec.Fixed,
		Global:       global,
		Counties:     rec.Counties,
		LaunchYear:   rec.LaunchYear,
		Translations: rec.Translations,
	}, nil
}

// expand turns a record into dated instances:
// a rule is expanded over the window, a fixed date recurs yearly, anything else is a single instance
func (rec holidayRecord) expand(window YearWindow) ([]holiday.Holiday, error) {
	tmpl, err := rec.template()
	if err != nil {
		return nil, err
	}

	var dates []time.Time
	switch {
	case rec.Rule != "":
		if window.IsZero() {
			return nil, fmt.Errorf("rule %q needs an expansion window", rec.Rule)
		}
		var anchor time.Time
		if rec.Date != "" {
			if anchor, err = dateutil.ParseDate(rec.Date); err != nil {
				return nil, err
			}
		}
		dates, err = ExpandRule(rec.Rule, anchor, clampWindow(window, rec.LaunchYear))
	case rec.Fixed && !window.IsZero():
		var date time.Time
		date, err = dateutil.ParseDate(rec.Date)
		if err != nil {
			return nil, err
		}
		dates, err = ExpandFixed(date.Month(), date.Day(), clampWindow(window, rec.LaunchYear))
	default:
		var date time.Time
		date, err = dateutil.ParseDate(rec.Date)
		dates = []time.Time{date}
	}
	if err != nil {
		return nil, err
	}

	out := make([]holiday.Holiday, 0, len(dates))
	for _, d := range dates {
		h := tmpl
		h.Date = d
		if err := h.Validate(); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func clampWindow(w YearWindow, launchYear int) YearWindow {
	if launchYear > w.From {
		w.From = launchYear
	}
	return w
}

// Slug derives a stable code from a display name
func Slug(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('_')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
