package holiday

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/username/holiday-api/pkg/dateutil"
)

// Dataset is the raw reference data a snapshot is built from
type Dataset struct {
	Countries []Country
	Audiences []Audience
	Holidays  []Holiday
}

// Snapshot is an immutable, indexed view of a dataset. Safe for concurrent reads.
type Snapshot struct {
	byCountry   map[string][]Holiday // sorted by date, then name
	countries   []Country
	countryIdx  map[string]Country
	audiences   []Audience
	audienceIdx map[string]Audience
	holidays    int
	source      string
	loadedAt    time.Time
}

// SnapshotInfo describes a snapshot for health reporting
type SnapshotInfo struct {
	Source    string    `json:"source"`
	LoadedAt  time.Time `json:"loadedAt"`
	Countries int       `json:"countries"`
	Audiences int       `json:"audiences"`
	Holidays  int       `json:"holidays"`
}

// NewSnapshot validates and indexes a dataset
func NewSnapshot(ds *Dataset, source string, loadedAt time.Time) (*Snapshot, error) {
	if ds == nil {
		ds = &Dataset{}
	}

	s := &Snapshot{
		byCountry:   make(map[string][]Holiday),
		countryIdx:  make(map[string]Country, len(ds.Countries)),
		audienceIdx: make(map[string]Audience, len(ds.Audiences)),
		source:      source,
		loadedAt:    loadedAt,
	}

	for _, c := range ds.Countries {
		c.Code = NormalizeCountryCode(c.Code)
		if !ValidCountryCode(c.Code) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCountry, c.Code)
		}
		if _, dup := s.countryIdx[c.Code]; dup {
			return nil, fmt.Errorf("duplicate country %q", c.Code)
		}
		s.countryIdx[c.Code] = c
		s.countries = append(s.countries, c)
	}
	sort.Slice(s.countries, func(i, j int) bool { return s.countries[i].Code < s.countries[j].Code })

	for _, a := range ds.Audiences {
		if a.Code == "" {
			return nil, fmt.Errorf("audience code is required")
		}
		if _, dup := s.audienceIdx[a.Code]; dup {
			return nil, fmt.Errorf("duplicate audience %q", a.Code)
		}
		s.audienceIdx[a.Code] = a
		s.audiences = append(s.audiences, a)
	}
	sort.Slice(s.audiences, func(i, j int) bool { return s.audiences[i].Code < s.audiences[j].Code })

	seen := make(map[Key]struct{}, len(ds.Holidays))
	for _, h := range ds.Holidays {
		h.CountryCode = NormalizeCountryCode(h.CountryCode)
		h.Date = dateutil.Normalize(h.Date)
		if err := h.Validate(); err != nil {
			return nil, err
		}
		if _, ok := s.countryIdx[h.CountryCode]; !ok {
			return nil, fmt.Errorf("holiday %q: %w: %q is not a known country", h.Name, ErrInvalidCountry, h.CountryCode)
		}
		key := h.Key()
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %s %s %q", ErrDuplicateHoliday, key.CountryCode, key.Date, key.Name)
		}
		seen[key] = struct{}{}
		s.byCountry[h.CountryCode] = append(s.byCountry[h.CountryCode], h)
	}

	for code := range s.byCountry {
		list := s.byCountry[code]
		sort.SliceStable(list, func(i, j int) bool { return Less(list[i], list[j]) })
	}
	s.holidays = len(seen)

	return s, nil
}

// Info returns snapshot metadata
func (s *Snapshot) Info() SnapshotInfo {
	return SnapshotInfo{
		Source:    s.source,
		LoadedAt:  s.loadedAt,
		Countries: len(s.countries),
		Audiences: len(s.audiences),
		Holidays:  s.holidays,
	}
}

// Country looks up a country by code
func (s *Snapshot) Country(code string) (Country, bool) {
	c, ok := s.countryIdx[NormalizeCountryCode(code)]
	return c, ok
}

// Countries returns all countries sorted by code
func (s *Snapshot) Countries() []Country {
	return append([]Country(nil), s.countries...)
}

// Audience looks up an audience by code
func (s *Snapshot) Audience(code string) (Audience, bool) {
	a, ok := s.audienceIdx[code]
	return a, ok
}

// Audiences returns all audiences sorted by code
func (s *Snapshot) Audiences() []Audience {
	return append([]Audience(nil), s.audiences...)
}

// ResolveCountry normalizes and validates a country code against the snapshot
func (s *Snapshot) ResolveCountry(code string) (string, error) {
	code = NormalizeCountryCode(code)
	if code == "" {
		return "", fmt.Errorf("%w: country is required", ErrInvalidCountry)
	}
	if !ValidCountryCode(code) {
		return "", fmt.Errorf("%w: %q is not an ISO alpha-2 code", ErrInvalidCountry, code)
	}
	if _, ok := s.countryIdx[code]; !ok {
		return "", fmt.Errorf("%w: unknown country %q", ErrInvalidCountry, code)
	}
	return code, nil
}

// FindByCountryAndRange returns holidays of a country within [start, end], sorted by date then name
func (s *Snapshot) FindByCountryAndRange(countryCode string, start, end time.Time) ([]Holiday, error) {
	code, err := s.ResolveCountry(countryCode)
	if err != nil {
		return nil, err
	}

	start, end = dateutil.Normalize(start), dateutil.Normalize(end)
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s is after end %s",
			ErrInvalidRange, dateutil.FormatDate(start), dateutil.FormatDate(end))
	}

	list := s.byCountry[code]
	from := sort.Search(len(list), func(i int) bool { return !list[i].Date.Before(start) })

	out := make([]Holiday, 0)
	for i := from; i < len(list) && !list[i].Date.After(end); i++ {
		out = append(out, list[i])
	}
	return out, nil
}

// FindByDate returns holidays of a country on one date
func (s *Snapshot) FindByDate(countryCode string, date time.Time) ([]Holiday, error) {
	return s.FindByCountryAndRange(countryCode, date, date)
}

// Store holds the current snapshot and swaps it atomically on refresh
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates a store; a nil snapshot is replaced by an empty one
func NewStore(initial *Snapshot) *Store {
	if initial == nil {
		initial, _ = NewSnapshot(nil, "empty", time.Time{})
	}
	s := &Store{}
	s.current.Store(initial)
	return s
}

// Snapshot returns the snapshot readers should use for one whole query
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Swap publishes a new snapshot and returns the previous one
func (s *Store) Swap(next *Snapshot) *Snapshot {
	return s.current.Swap(next)
}

// FindByCountryAndRange queries the current snapshot
func (s *Store) FindByCountryAndRange(countryCode string, start, end time.Time) ([]Holiday, error) {
	return s.Snapshot().FindByCountryAndRange(countryCode, start, end)
}

// FindByDate queries the current snapshot
func (s *Store) FindByDate(countryCode string, date time.Time) ([]Holiday, error) {
	return s.Snapshot().FindByDate(countryCode, date)
}
