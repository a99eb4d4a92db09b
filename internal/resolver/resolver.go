package resolver

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/username/holiday-api/internal/holiday"
	"github.com/username/holiday-api/internal/i18n"
	"github.com/username/holiday-api/pkg/dateutil"
)

// Query describes one range resolution. Audience, Type and Language are optional.
type Query struct {
	Country  string
	Start    time.Time
	End      time.Time
	Audience string
	Type     string
	Language string
}

// HolidayView is the translated, wire-facing form of a holiday
type HolidayView struct {
	Name        string   `json:"name"`
	Date        string   `json:"date"`
	CountryCode string   `json:"countryCode"`
	Type        string   `json:"type"`
	TypeName    string   `json:"typeName"`
	Audiences   []string `json:"audiences"`
	Fixed       bool     `json:"fixed"`
	Global      bool     `json:"global"`
	Counties    []string `json:"counties,omitempty"`
	LaunchYear  *int     `json:"launchYear,omitempty"`
}

// CountryView is a translated country entry
type CountryView struct {
	CountryCode string `json:"countryCode"`
	Name        string `json:"name"`
}

// AudienceView is an audience entry
type AudienceView struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Resolver answers range and "today" queries against the current snapshot
type Resolver struct {
	store      *holiday.Store
	translator *i18n.Translator
	location   *time.Location
	now        func() time.Time
	logger     *zap.Logger
}

// New creates a Resolver. "Today" is evaluated in loc (UTC when nil).
func New(store *holiday.Store, translator *i18n.Translator, loc *time.Location, logger *zap.Logger) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{
		store:      store,
		translator: translator,
		location:   loc,
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock returns a copy of the resolver that reads the current time from now
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	cp := *r
	cp.now = now
	return &cp
}

// Store returns the backing store
func (r *Resolver) Store() *holiday.Store {
	return r.store
}

// Translator returns the translator used for display fields
func (r *Resolver) Translator() *i18n.Translator {
	return r.translator
}

// CurrentDate returns today's date in the configured location
func (r *Resolver) CurrentDate() time.Time {
	return dateutil.Normalize(r.now().In(r.location))
}

// Select resolves holidays against one snapshot without translating them.
// Instances dated before their launch year are dropped; unknown audience or type codes match nothing.
func Select(snap *holiday.Snapshot, q Query) ([]holiday.Holiday, error) {
	found, err := snap.FindByCountryAndRange(q.Country, q.Start, q.End)
	if err != nil {
		return nil, err
	}

	var filter holiday.Filter
	if q.Audience != "" {
		if _, ok := snap.Audience(q.Audience); !ok {
			return []holiday.Holiday{}, nil
		}
		filter.Audience = q.Audience
	}
	if q.Type != "" {
		typ, ok := holiday.ParseType(q.Type)
		if !ok {
			return []holiday.Holiday{}, nil
		}
		filter.Type = typ
	}

	active := make([]holiday.Holiday, 0, len(found))
	for _, h := range found {
		if h.ActiveOn(h.Date) {
			active = append(active, h)
		}
	}

	return filter.Apply(active), nil
}

// Resolve runs Select against the current snapshot. Audience and Type may be
// given as display names in q.Language.
func (r *Resolver) Resolve(q Query) ([]holiday.Holiday, error) {
	snap := r.store.Snapshot()
	q.Audience = r.audienceCode(snap, q.Audience, q.Language)
	q.Type = r.TypeCode(q.Type, q.Language)
	return Select(snap, q)
}

// AudienceCode maps an audience code or display name to its code.
// Unknown names come back trimmed but otherwise unchanged, so they match nothing.
func (r *Resolver) AudienceCode(name, language string) string {
	return r.audienceCode(r.store.Snapshot(), name, language)
}

func (r *Resolver) audienceCode(snap *holiday.Snapshot, name, language string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if _, ok := snap.Audience(name); ok {
		return name
	}
	if code, ok := r.translator.AudienceCode(name, language, snap.Audiences()); ok {
		return code
	}
	return name
}

// TypeCode maps a type code or display name to its code
func (r *Resolver) TypeCode(name, language string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if typ, ok := r.translator.TypeFromName(name, language); ok {
		return typ.String()
	}
	return name
}

// Range resolves and translates holidays for an inclusive date range
func (r *Resolver) Range(q Query) ([]HolidayView, error) {
	holidays, err := r.Resolve(q)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Range resolved",
		zap.String("country", q.Country),
		zap.String("start", dateutil.FormatDate(q.Start)),
		zap.String("end", dateutil.FormatDate(q.End)),
		zap.String("audience", q.Audience),
		zap.Int("count", len(holidays)))

	return r.Views(holidays, q.Language), nil
}

// Today resolves holidays falling on the current date
func (r *Resolver) Today(country, audience, language string) ([]HolidayView, error) {
	today := r.CurrentDate()
	return r.Range(Query{
		Country:  country,
		Start:    today,
		End:      today,
		Audience: audience,
		Language: language,
	})
}

// Views translates holidays into their wire form
func (r *Resolver) Views(holidays []holiday.Holiday, language string) []HolidayView {
	views := make([]HolidayView, 0, len(holidays))
	for _, h := range holidays {
		views = append(views, r.View(h, language))
	}
	return views
}

// View translates one holiday
func (r *Resolver) View(h holiday.Holiday, language string) HolidayView {
	v := HolidayView{
		Name:        r.translator.HolidayName(h, language),
		Date:        dateutil.FormatDate(h.Date),
		CountryCode: h.CountryCode,
		Type:        h.Type.String(),
		TypeName:    r.translator.TypeName(h.Type, language),
		Audiences:   append([]string{}, h.Audiences...),
		Fixed:       h.Fixed,
		Global:      h.Global,
		Counties:    h.Counties,
	}
	if h.LaunchYear > 0 {
		year := h.LaunchYear
		v.LaunchYear = &year
	}
	return v
}

// Countries lists countries with names in the requested language
func (r *Resolver) Countries(language string) []CountryView {
	countries := r.store.Snapshot().Countries()
	out := make([]CountryView, 0, len(countries))
	for _, c := range countries {
		out = append(out, CountryView{CountryCode: c.Code, Name: r.translator.CountryName(c, language)})
	}
	return out
}

// Audiences lists audiences; names are translated when translated is true
func (r *Resolver) Audiences(language string, translated bool) []AudienceView {
	audiences := r.store.Snapshot().Audiences()
	out := make([]AudienceView, 0, len(audiences))
	for _, a := range audiences {
		name := a.Name
		if translated {
			name = r.translator.AudienceName(a, language)
		} else if name == "" {
			name = a.Code
		}
		out = append(out, AudienceView{Code: a.Code, Name: name})
	}
	return out
}

// Types lists holiday type codes
func (r *Resolver) Types() []string {
	types := holiday.Types()
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, t.String())
	}
	return out
}

// TypeNames lists holiday type display names in the requested language
func (r *Resolver) TypeNames(language string) []string {
	types := holiday.Types()
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, r.translator.TypeName(t, language))
	}
	return out
}
