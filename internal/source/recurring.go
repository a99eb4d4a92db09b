package source

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/username/holiday-api/pkg/dateutil"
)

// ExpandFixed returns every occurrence of month/day within the window.
// Feb 29 only occurs in leap years.
func ExpandFixed(month time.Month, day int, w YearWindow) ([]time.Time, error) {
	if w.To < w.From {
		return nil, nil
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:       rrule.YEARLY,
		Dtstart:    dateutil.StartOfYear(w.From),
		Bymonth:    []int{int(month)},
		Bymonthday: []int{day},
		Until:      dateutil.EndOfYear(w.To),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build yearly rule for %02d-%02d: %w", int(month), day, err)
	}

	return normalizeAll(r.All()), nil
}

// ExpandRule returns the occurrences of an RRULE (e.g. "FREQ=YEARLY;BYEASTER=-2") within the window.
// The rule starts at anchor, or at the start of the window when anchor is zero.
func ExpandRule(rule string, anchor time.Time, w YearWindow) ([]time.Time, error) {
	if w.To < w.From {
		return nil, nil
	}

	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rule %q: %w", rule, err)
	}
	if anchor.IsZero() {
		anchor = dateutil.StartOfYear(w.From)
	}
	r.DTStart(dateutil.Normalize(anchor))

	return normalizeAll(r.Between(dateutil.StartOfYear(w.From), dateutil.EndOfYear(w.To), true)), nil
}

func normalizeAll(times []time.Time) []time.Time {
	out := make([]time.Time, 0, len(times))
	for _, t := range times {
		out = append(out, dateutil.Normalize(t))
	}
	return out
}
