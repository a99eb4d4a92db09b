package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/username/holiday-api/internal/holiday"
)

// DefaultLanguage is used when a requested language cannot be matched
const DefaultLanguage = "en"

//go:embed locales/*.yaml
var localeFS embed.FS

type locale struct {
	Language  string            `yaml:"language"`
	Name      string            `yaml:"name"`
	Types     map[string]string `yaml:"types"`
	Audiences map[string]string `yaml:"audiences"`
	Countries map[string]string `yaml:"countries"`
	Messages  map[string]string `yaml:"messages"`
}

// Translator maps codes to display text and back. Immutable after construction.
type Translator struct {
	locales map[string]*locale
	order   []string
	matcher language.Matcher
}

// New loads the embedded locale tables
func New() (*Translator, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read locales: %w", err)
	}

	var locales []*locale
	for _, e := range entries {
		data, err := localeFS.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", e.Name(), err)
		}
		var loc locale
		if err := yaml.Unmarshal(data, &loc); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", e.Name(), err)
		}
		locales = append(locales, &loc)
	}

	return newTranslator(locales)
}

func newTranslator(locales []*locale) (*Translator, error) {
	t := &Translator{locales: make(map[string]*locale, len(locales))}

	for _, loc := range locales {
		if loc.Language == "" {
			return nil, fmt.Errorf("locale without language code")
		}
		if err := checkInjective(loc.Language, "types", loc.Types); err != nil {
			return nil, err
		}
		if err := checkInjective(loc.Language, "audiences", loc.Audiences); err != nil {
			return nil, err
		}
		t.locales[loc.Language] = loc
		t.order = append(t.order, loc.Language)
	}

	if _, ok := t.locales[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("default locale %q is missing", DefaultLanguage)
	}

	// matcher falls back to the first tag
	sort.SliceStable(t.order, func(i, j int) bool {
		return t.order[i] == DefaultLanguage && t.order[j] != DefaultLanguage
	})
	tags := make([]language.Tag, 0, len(t.order))
	for _, code := range t.order {
		tags = append(tags, language.Make(code))
	}
	t.matcher = language.NewMatcher(tags)

	return t, nil
}

// display names must map back to exactly one code
func checkInjective(lang, table string, m map[string]string) error {
	seen := make(map[string]string, len(m))
	for code, name := range m {
		key := strings.ToLower(name)
		if other, dup := seen[key]; dup {
			return fmt.Errorf("locale %s: %s %q and %q share display name %q", lang, table, other, code, name)
		}
		seen[key] = code
	}
	return nil
}

// Languages returns the supported language codes, default first
func (t *Translator) Languages() []string {
	return append([]string(nil), t.order...)
}

// Resolve returns the supported language that best matches lang
func (t *Translator) Resolve(lang string) string {
	_, idx, _ := t.matcher.Match(language.Make(strings.TrimSpace(lang)))
	return t.order[idx]
}

func (t *Translator) locale(lang string) *locale {
	return t.locales[t.Resolve(lang)]
}

// baseOf returns the primary language subtag of lang, e.g. "tr" for "tr-TR"
func baseOf(lang string) string {
	base, _ := language.Make(strings.TrimSpace(lang)).Base()
	return base.String()
}

// TypeName returns the display name of a holiday type
func (t *Translator) TypeName(typ holiday.Type, lang string) string {
	if name, ok := t.locale(lang).Types[typ.String()]; ok {
		return name
	}
	if name, ok := t.locales[DefaultLanguage].Types[typ.String()]; ok {
		return name
	}
	return typ.String()
}

// TypeFromName maps a display name back to its type
func (t *Translator) TypeFromName(name, lang string) (holiday.Type, bool) {
	for code, display := range t.locale(lang).Types {
		if strings.EqualFold(display, strings.TrimSpace(name)) {
			return holiday.ParseType(code)
		}
	}
	return holiday.ParseType(name)
}

// AudienceName returns the display name of an audience
func (t *Translator) AudienceName(a holiday.Audience, lang string) string {
	if name, ok := a.Translations[baseOf(lang)]; ok && name != "" {
		return name
	}
	if name, ok := t.locale(lang).Audiences[a.Code]; ok {
		return name
	}
	if a.Name != "" {
		return a.Name
	}
	return a.Code
}

// AudienceCode maps a display name back to one of the given audiences
func (t *Translator) AudienceCode(name, lang string, audiences []holiday.Audience) (string, bool) {
	name = strings.TrimSpace(name)
	for _, a := range audiences {
		if strings.EqualFold(t.AudienceName(a, lang), name) {
			return a.Code, true
		}
	}
	return "", false
}

// CountryName returns the display name of a country
func (t *Translator) CountryName(c holiday.Country, lang string) string {
	if name, ok := c.Translations[baseOf(lang)]; ok && name != "" {
		return name
	}
	if name, ok := t.locale(lang).Countries[c.Code]; ok {
		return name
	}
	if c.Name != "" {
		return c.Name
	}
	return c.Code
}

// HolidayName returns the display name of a holiday
func (t *Translator) HolidayName(h holiday.Holiday, lang string) string {
	if name, ok := h.Translations[baseOf(lang)]; ok && name != "" {
		return name
	}
	if name, ok := h.Translations[t.Resolve(lang)]; ok && name != "" {
		return name
	}
	return h.Name
}

// Message returns a localized UI message, falling back to the default language and then the key
func (t *Translator) Message(key, lang string) string {
	if msg, ok := t.locale(lang).Messages[key]; ok {
		return msg
	}
	if msg, ok := t.locales[DefaultLanguage].Messages[key]; ok {
		return msg
	}
	return key
}
