package source

import (
	"context"
	"time"

	"github.com/username/holiday-api/internal/holiday"
)

// Source loads a complete holiday dataset
type Source interface {
	// Name identifies the source in logs and health output
	Name() string

	// Load returns a fresh dataset
	Load(ctx context.Context) (*holiday.Dataset, error)
}

// YearWindow is an inclusive range of years that recurring holidays are expanded into
type YearWindow struct {
	From int
	To   int
}

// Contains reports whether year lies within the window
func (w YearWindow) Contains(year int) bool {
	return year >= w.From && year <= w.To
}

// IsZero reports whether the window is unset
func (w YearWindow) IsZero() bool {
	return w.From == 0 && w.To == 0
}

// WindowFunc returns the expansion window at load time
type WindowFunc func() YearWindow

// RollingWindow expands from back years before the current year to ahead years after it
func RollingWindow(back, ahead int) WindowFunc {
	return func() YearWindow {
		year := time.Now().Year()
		return YearWindow{From: year - back, To: year + ahead}
	}
}

// FixedWindow always expands into [from, to]
func FixedWindow(from, to int) WindowFunc {
	return func() YearWindow {
		return YearWindow{From: from, To: to}
	}
}
