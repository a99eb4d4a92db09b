package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/username/holiday-api/internal/holiday"
	"github.com/username/holiday-api/pkg/dateutil"
)

// ICSSource imports the all-day events of an iCalendar feed as holidays of one country
type ICSSource struct {
	location    string // file path or http(s) URL
	country     string
	defaultType holiday.Type
	window      WindowFunc
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewICSSource creates a new ICSSource
func NewICSSource(location, country string, defaultType holiday.Type, window WindowFunc, logger *zap.Logger) *ICSSource {
	if !defaultType.Valid() {
		defaultType = holiday.TypePublic
	}
	return &ICSSource{
		location:    location,
		country:     holiday.NormalizeCountryCode(country),
		defaultType: defaultType,
		window:      window,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// Name returns the source name
func (s *ICSSource) Name() string {
	return "ics:" + s.location
}

// Path returns the local file path, or "" for remote feeds
func (s *ICSSource) Path() string {
	if isURL(s.location) {
		return ""
	}
	return s.location
}

// Load fetches and parses the feed
func (s *ICSSource) Load(ctx context.Context) (*holiday.Dataset, error) {
	body, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty ICS body from %s", s.location)
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ICS feed: %w", err)
	}

	var window YearWindow
	if s.window != nil {
		window = s.window()
	}

	ds := &holiday.Dataset{
		Countries: []holiday.Country{{Code: s.country}},
	}
	seen := make(map[holiday.Key]struct{})

	for _, ev := range cal.Events() {
		instances, err := s.parseEvent(ev, window)
		if err != nil {
			s.logger.Warn("Skipping ICS event", zap.String("source", s.location), zap.Error(err))
			continue
		}
		for _, h := range instances {
			if _, dup := seen[h.Key()]; dup {
				continue
			}
			seen[h.Key()] = struct{}{}
			ds.Holidays = append(ds.Holidays, h)
		}
	}

	s.logger.Info("ICS feed loaded",
		zap.String("source", s.location),
		zap.String("country", s.country),
		zap.Int("holidays", len(ds.Holidays)))

	return ds, nil
}

func (s *ICSSource) read(ctx context.Context) ([]byte, error) {
	if !isURL(s.location) {
		data, err := os.ReadFile(s.location)
		if err != nil {
			return nil, fmt.Errorf("failed to read ICS file: %w", err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch ICS feed: %w", holiday.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: ICS feed returned status %d", holiday.ErrUpstreamUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ICS feed: %w", err)
	}
	return data, nil
}

func (s *ICSSource) parseEvent(ev *ical.VEvent, window YearWindow) ([]holiday.Holiday, error) {
	summary := ""
	if p := ev.GetProperty(ical.ComponentPropertySummary); p != nil {
		summary = strings.TrimSpace(p.Value)
	}
	if summary == "" {
		return nil, fmt.Errorf("event without SUMMARY")
	}

	dtStart := ev.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return nil, fmt.Errorf("event %q without DTSTART", summary)
	}
	date, err := parseICSDate(dtStart.Value)
	if err != nil {
		return nil, fmt.Errorf("event %q: %w", summary, err)
	}

	tmpl := holiday.Holiday{
		Code:        Slug(summary),
		Name:        summary,
		Date:        date,
		CountryCode: s.country,
		Type:        s.defaultType,
		Global:      true,
	}
	if p := ev.GetProperty(ical.ComponentPropertyUniqueId); p != nil && p.Value != "" {
		tmpl.Code = p.Value
	}
	if p := ev.GetProperty(ical.ComponentPropertyCategories); p != nil {
		for _, cat := range strings.Split(p.Value, ",") {
			if typ, ok := holiday.ParseType(cat); ok {
				tmpl.Type = typ
				break
			}
		}
	}

	rule := ev.GetProperty(ical.ComponentPropertyRrule)
	if rule == nil || window.IsZero() {
		if err := tmpl.Validate(); err != nil {
			return nil, err
		}
		return []holiday.Holiday{tmpl}, nil
	}

	dates, err := ExpandRule(rule.Value, date, window)
	if err != nil {
		return nil, err
	}

	out := make([]holiday.Holiday, 0, len(dates))
	for _, d := range dates {
		h := tmpl
		h.Date = d
		h.Fixed = d.Month() == date.Month() && d.Day() == date.Day()
		out = append(out, h)
	}
	return out, nil
}

// parseICSDate reads the date part of a DATE or DATE-TIME value
func parseICSDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if len(value) < 8 {
		return time.Time{}, fmt.Errorf("invalid ICS date %q", value)
	}
	t, err := time.Parse("20060102", value[:8])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid ICS date %q: %w", value, err)
	}
	return dateutil.Normalize(t), nil
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
