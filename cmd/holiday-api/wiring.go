package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/username/holiday-api/internal/calendar"
	"github.com/username/holiday-api/internal/config"
	"github.com/username/holiday-api/internal/holiday"
	"github.com/username/holiday-api/internal/i18n"
	"github.com/username/holiday-api/internal/resolver"
	"github.com/username/holiday-api/internal/source"
)

// components bundles everything the commands share
type components struct {
	cfg        *config.Config
	source     source.Source
	store      *holiday.Store
	translator *i18n.Translator
	resolver   *resolver.Resolver
	calendar   calendar.Calendar
	db         *sql.DB
}

func (c *components) Close() {
	if c.db != nil {
		c.db.Close()
	}
}

func initializeComponents(cfg *config.Config) (*components, error) {
	loc, err := cfg.Calendar.GetLocation()
	if err != nil {
		return nil, err
	}

	c := &components{cfg: cfg}

	src, err := buildSource(cfg, c)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.source = src

	translator, err := i18n.New()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}
	c.translator = translator

	c.store = holiday.NewStore(nil)
	c.resolver = resolver.New(c.store, translator, loc, logger)
	c.calendar = calendar.NewCalculator(c.store, logger).WithMaxSpan(cfg.Calendar.MaxSpanDays)

	return c, nil
}

// buildSource assembles the configured sources: several primaries are merged,
// and a configured fallback wraps the result.
func buildSource(cfg *config.Config, c *components) (source.Source, error) {
	window := source.RollingWindow(cfg.Calendar.YearsBack, cfg.Calendar.YearsAhead)

	primaries := make([]source.Source, 0, len(cfg.Data.Sources))
	for i, sc := range cfg.Data.Sources {
		src, err := newSource(cfg, sc, window, c)
		if err != nil {
			return nil, fmt.Errorf("data.sources[%d]: %w", i, err)
		}
		primaries = append(primaries, src)
	}

	var primary source.Source
	if len(primaries) == 1 {
		primary = primaries[0]
	} else {
		primary = source.NewMergedSource(primaries, logger)
	}

	if cfg.Data.Fallback == nil {
		return primary, nil
	}

	fallback, err := newSource(cfg, *cfg.Data.Fallback, window, c)
	if err != nil {
		return nil, fmt.Errorf("data.fallback: %w", err)
	}
	return source.NewCompositeSource(primary, fallback, logger), nil
}

func newSource(cfg *config.Config, sc config.SourceConfig, window source.WindowFunc, c *components) (source.Source, error) {
	switch sc.Type {
	case config.SourceFile:
		logger.Info("Using holiday file", zap.String("path", sc.Path))
		return source.NewFileSource(sc.Path, window, logger), nil

	case config.SourceICS:
		location := sc.Path
		if location == "" {
			location = sc.URL
		}
		typ, ok := holiday.ParseType(sc.HolidayType)
		if !ok {
			typ = holiday.TypePublic
		}
		logger.Info("Using iCalendar feed", zap.String("location", location), zap.String("country", sc.Country))
		return source.NewICSSource(location, sc.Country, typ, window, logger), nil

	case config.SourceBuiltin:
		logger.Info("Using built-in rules", zap.String("country", sc.Country))
		return source.NewBuiltinSource(sc.Country, window, logger)

	case config.SourceSQLite:
		if c.db == nil {
			db, err := source.OpenSQLite(cfg.Data.SQLitePath)
			if err != nil {
				return nil, err
			}
			c.db = db
		}
		logger.Info("Using SQLite dataset", zap.String("path", cfg.Data.SQLitePath))
		return source.NewSQLiteSource(c.db, logger), nil

	case config.SourceRemote:
		logger.Info("Using remote dataset", zap.String("url", sc.URL), zap.Duration("cache_ttl", sc.GetCacheTTL()))
		return source.NewRemoteSource(sc.URL, window, sc.GetCacheTTL(), logger), nil

	default:
		return nil, fmt.Errorf("unknown source type: %s", sc.Type)
	}
}

// loadSnapshot performs a one-shot load for the offline commands
func loadSnapshot(c *components, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ds, err := c.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	snap, err := holiday.NewSnapshot(ds, c.source.Name(), time.Now())
	if err != nil {
		return fmt.Errorf("dataset is invalid: %w", err)
	}
	c.store.Swap(snap)
	return nil
}
