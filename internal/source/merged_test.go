package source

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/username/holiday-api/internal/holiday"
	"github.com/username/holiday-api/pkg/dateutil"
)

type stubSource struct {
	name string
	ds   *holiday.Dataset
	err  error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Load(ctx context.Context) (*holiday.Dataset, error) {
	return s.ds, s.err
}

func TestMerge(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	first := &holiday.Dataset{
		Countries: []holiday.Country{{Code: "TR"}},
		Audiences: []holiday.Audience{{Code: "general", Name: "General Public"}},
		Holidays: []holiday.Holiday{
			{Name: "Republic Day", Date: dateutil.Date(2025, 10, 29), CountryCode: "TR", Type: holiday.TypeNational},
		},
	}
	second := &holiday.Dataset{
		Countries: []holiday.Country{{Code: "tr", Name: "Turkey"}, {Code: "US", Name: "United States"}},
		Audiences: []holiday.Audience{{Code: "general", Name: "Everyone"}},
		Holidays: []holiday.Holiday{
			{Name: "Republic Day", Date: dateutil.Date(2025, 10, 29), CountryCode: "tr", Type: holiday.TypePublic},
			{Name: "Independence Day", Date: dateutil.Date(2025, 7, 4), CountryCode: "US", Type: holiday.TypePublic},
		},
	}

	got := Merge([]*holiday.Dataset{first, nil, second}, logger)

	if len(got.Countries) != 2 {
		t.Fatalf("Countries count = %d, want 2", len(got.Countries))
	}
	if got.Countries[0].Name != "Turkey" {
		t.Errorf("TR name = %q, want filled in from later dataset", got.Countries[0].Name)
	}
	if len(got.Audiences) != 1 || got.Audiences[0].Name != "General Public" {
		t.Errorf("Audiences = %+v, want first entry to win", got.Audiences)
	}
	if len(got.Holidays) != 2 {
		t.Fatalf("Holidays count = %d, want 2", len(got.Holidays))
	}
	if got.Holidays[0].Type != holiday.TypeNational {
		t.Errorf("duplicate resolution kept type %v, want national", got.Holidays[0].Type)
	}
}

func TestMergedSource_Load(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	ok := &stubSource{name: "a", ds: &holiday.Dataset{Countries: []holiday.Country{{Code: "TR"}}}}
	failing := &stubSource{name: "b", err: errors.New("boom")}

	ms := NewMergedSource([]Source{ok, ok}, logger)
	if ms.Name() != "a, a" {
		t.Errorf("Name() = %q, want %q", ms.Name(), "a, a")
	}
	if _, err := ms.Load(context.Background()); err != nil {
		t.Errorf("Load() error = %v", err)
	}

	if _, err := NewMergedSource([]Source{ok, failing}, logger).Load(context.Background()); err == nil {
		t.Error("Load() expected error when one source fails")
	}
}

func TestCompositeSource_Load(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	primaryDS := &holiday.Dataset{Countries: []holiday.Country{{Code: "TR"}}}
	fallbackDS := &holiday.Dataset{Countries: []holiday.Country{{Code: "US"}}}

	tests := []struct {
		name     string
		primary  *stubSource
		fallback *stubSource
		want     *holiday.Dataset
		wantErr  bool
	}{
		{
			name:     "primary succeeds",
			primary:  &stubSource{name: "p", ds: primaryDS},
			fallback: &stubSource{name: "f", ds: fallbackDS},
			want:     primaryDS,
		},
		{
			name:     "primary fails",
			primary:  &stubSource{name: "p", err: holiday.ErrUpstreamUnavailable},
			fallback: &stubSource{name: "f", ds: fallbackDS},
			want:     fallbackDS,
		},
		{
			name:     "both fail",
			primary:  &stubSource{name: "p", err: holiday.ErrUpstreamUnavailable},
			fallback: &stubSource{name: "f", err: errors.New("missing file")},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := NewCompositeSource(tt.primary, tt.fallback, logger)
			got, err := cs.Load(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Load() = %p, want %p", got, tt.want)
			}
		})
	}
}
