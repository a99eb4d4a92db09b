package source

import (
	"context"

	"go.uber.org/zap"

	"github.com/username/holiday-api/internal/holiday"
)

// CompositeSource implements Source with fallback strategy
// Primary: usually remote or database
// Fallback: usually a local file
type CompositeSource struct {
	primary  Source
	fallback Source
	logger   *zap.Logger
}

// NewCompositeSource creates a new CompositeSource
func NewCompositeSource(primary, fallback Source, logger *zap.Logger) *CompositeSource {
	return &CompositeSource{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Name returns the source name
func (cs *CompositeSource) Name() string {
	return cs.primary.Name() + " (fallback " + cs.fallback.Name() + ")"
}

// Load tries the primary source first
func (cs *CompositeSource) Load(ctx context.Context) (*holiday.Dataset, error) {
	ds, err := cs.primary.Load(ctx)
	if err == nil {
		return ds, nil
	}

	cs.logger.Warn("Primary source failed, falling back",
		zap.String("primary", cs.primary.Name()),
		zap.String("fallback", cs.fallback.Name()),
		zap.Error(err))

	return cs.fallback.Load(ctx)
}

// Sources returns the wrapped sources
func (cs *CompositeSource) Sources() []Source {
	return []Source{cs.primary, cs.fallback}
}
