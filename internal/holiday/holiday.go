package holiday

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/username/holiday-api/pkg/dateutil"
)

// Type is the closed set of holiday categories
type Type int

const (
	TypeOfficial Type = iota + 1
	TypeReligious
	TypeCultural
	TypeObservance
	TypeNational
	TypePublic
)

var typeCodes = map[Type]string{
	TypeOfficial:   "official",
	TypeReligious:  "religious",
	TypeCultural:   "cultural",
	TypeObservance: "observance",
	TypeNational:   "national",
	TypePublic:     "public",
}

// Types returns every holiday type in declaration order
func Types() []Type {
	return []Type{TypeOfficial, TypeReligious, TypeCultural, TypeObservance, TypeNational, TypePublic}
}

// String returns the wire code of the type
func (t Type) String() string {
	if code, ok := typeCodes[t]; ok {
		return code
	}
	return ""
}

// Valid reports whether t is one of the declared types
func (t Type) Valid() bool {
	_, ok := typeCodes[t]
	return ok
}

// ParseType parses a wire code, case-insensitively
func ParseType(s string) (Type, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, code := range typeCodes {
		if code == s {
			return t, true
		}
	}
	return 0, false
}

// MarshalJSON encodes the type as its wire code
func (t Type) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid holiday type %d", int(t))
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a wire code
func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParseType(s)
	if !ok {
		return fmt.Errorf("unknown holiday type %q", s)
	}
	*t = parsed
	return nil
}

// Holiday is one dated holiday instance for a country
type Holiday struct {
	Code         string            // translation key shared by all instances of the same holiday
	Name         string            // default display name
	Date         time.Time         // calendar date, midnight UTC
	CountryCode  string
	Type         Type
	Audiences    []string          // empty means every audience
	Fixed        bool              // falls on the same month/day every year
	Global       bool              // nationwide
	Counties     []string          // subdivisions, only when not global
	LaunchYear   int               // 0 when unknown
	Translations map[string]string // language -> name
}

// Key identifies a holiday instance
type Key struct {
	CountryCode string
	Date        string
	Name        string
}

// Key returns the identity of the instance
func (h Holiday) Key() Key {
	return Key{CountryCode: h.CountryCode, Date: dateutil.FormatDate(h.Date), Name: h.Name}
}

// IsUniversal reports whether the holiday applies to every audience
func (h Holiday) IsUniversal() bool {
	return len(h.Audiences) == 0
}

// HasAudience reports whether code is listed in the holiday's audiences
func (h Holiday) HasAudience(code string) bool {
	for _, a := range h.Audiences {
		if a == code {
			return true
		}
	}
	return false
}

// ActiveOn reports whether the instance is not excluded by its launch year
func (h Holiday) ActiveOn(date time.Time) bool {
	if h.LaunchYear == 0 {
		return true
	}
	return !date.Before(dateutil.StartOfYear(h.LaunchYear))
}

// Validate checks the structural rules of a single record
func (h Holiday) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("holiday name is required")
	}
	if h.Date.IsZero() {
		return fmt.Errorf("holiday %q: date is required", h.Name)
	}
	if !ValidCountryCode(h.CountryCode) {
		return fmt.Errorf("holiday %q: %w: %q", h.Name, ErrInvalidCountry, h.CountryCode)
	}
	if !h.Type.Valid() {
		return fmt.Errorf("holiday %q: invalid type", h.Name)
	}
	if h.Global && len(h.Counties) > 0 {
		return fmt.Errorf("holiday %q: counties are only allowed for non-global holidays", h.Name)
	}
	if h.LaunchYear < 0 {
		return fmt.Errorf("holiday %q: launch year must not be negative", h.Name)
	}
	return nil
}

// Country is a country reference entry
type Country struct {
	Code         string
	Name         string
	Translations map[string]string
}

// Audience is an audience reference entry
type Audience struct {
	Code         string
	Name         string
	Translations map[string]string
}

// NormalizeCountryCode upper-cases and trims a country code
func NormalizeCountryCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCountryCode reports whether code has the ISO 3166-1 alpha-2 shape
func ValidCountryCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Less orders holidays by date, then name
func Less(a, b Holiday) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.Name < b.Name
}
