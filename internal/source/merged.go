package source

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/username/holiday-api/internal/holiday"
)

// MergedSource combines several sources into one dataset. Earlier sources win on conflicts.
type MergedSource struct {
	sources []Source
	logger  *zap.Logger
}

// NewMergedSource creates a new MergedSource
func NewMergedSource(sources []Source, logger *zap.Logger) *MergedSource {
	return &MergedSource{sources: sources, logger: logger}
}

// Name returns the source name
func (ms *MergedSource) Name() string {
	names := make([]string, 0, len(ms.sources))
	for _, s := range ms.sources {
		names = append(names, s.Name())
	}
	return strings.Join(names, ", ")
}

// Sources returns the merged sources
func (ms *MergedSource) Sources() []Source {
	return ms.sources
}

// Load loads every source; any failure fails the whole load
func (ms *MergedSource) Load(ctx context.Context) (*holiday.Dataset, error) {
	datasets := make([]*holiday.Dataset, 0, len(ms.sources))
	for _, s := range ms.sources {
		ds, err := s.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", s.Name(), err)
		}
		datasets = append(datasets, ds)
	}
	return Merge(datasets, ms.logger), nil
}

// Merge unions datasets. The first country or audience entry wins, but a later
// entry can fill in a missing name. Duplicate holiday instances are dropped.
func Merge(datasets []*holiday.Dataset, logger *zap.Logger) *holiday.Dataset {
	out := &holiday.Dataset{}
	countryIdx := make(map[string]int)
	audienceIdx := make(map[string]int)
	seen := make(map[holiday.Key]struct{})

	for _, ds := range datasets {
		if ds == nil {
			continue
		}

		for _, c := range ds.Countries {
			c.Code = holiday.NormalizeCountryCode(c.Code)
			if i, ok := countryIdx[c.Code]; ok {
				if out.Countries[i].Name == "" {
					out.Countries[i].Name = c.Name
				}
				continue
			}
			countryIdx[c.Code] = len(out.Countries)
			out.Countries = append(out.Countries, c)
		}

		for _, a := range ds.Audiences {
			if i, ok := audienceIdx[a.Code]; ok {
				if out.Audiences[i].Name == "" {
					out.Audiences[i].Name = a.Name
				}
				continue
			}
			audienceIdx[a.Code] = len(out.Audiences)
			out.Audiences = append(out.Audiences, a)
		}

		for _, h := range ds.Holidays {
			h.CountryCode = holiday.NormalizeCountryCode(h.CountryCode)
			key := h.Key()
			if _, dup := seen[key]; dup {
				logger.Warn("Dropping duplicate holiday",
					zap.String("country", key.CountryCode),
					zap.String("date", key.Date),
					zap.String("name", key.Name))
				continue
			}
			seen[key] = struct{}{}
			out.Holidays = append(out.Holidays, h)
		}
	}

	return out
}
