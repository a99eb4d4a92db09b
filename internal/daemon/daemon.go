package daemon

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/username/holiday-api/internal/holiday"
	"github.com/username/holiday-api/internal/source"
)

const defaultDebounce = 500 * time.Millisecond

// ErrReloadInProgress is returned when a reload is requested while another one runs
var ErrReloadInProgress = errors.New("reload already in progress")

// Options configures the refresh triggers
type Options struct {
	Schedule   string        // cron expression, empty disables scheduled reloads
	WatchPaths []string      // files whose changes trigger a reload
	Debounce   time.Duration // quiet period after the last file event
}

// Daemon keeps the store's snapshot in sync with the configured source
type Daemon struct {
	source source.Source
	store  *holiday.Store
	opts   Options
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc

	cron   *cron.Cron
	cronID cron.EntryID

	mu            sync.Mutex // Protect against concurrent reloads
	reloadRunning bool
	started       bool
	lastReload    time.Time
	lastErr       error
	reloads       int
}

// NewDaemon creates a new daemon instance
func NewDaemon(src source.Source, store *holiday.Store, opts Options, logger *zap.Logger) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}

	return &Daemon{
		source: src,
		store:  store,
		opts:   opts,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Reload loads the source, validates it and swaps the new snapshot in.
// The previous snapshot stays in place when anything fails.
func (d *Daemon) Reload(ctx context.Context) (holiday.SnapshotInfo, error) {
	d.mu.Lock()
	if d.reloadRunning {
		d.mu.Unlock()
		d.logger.Warn("Reload already running, skipping concurrent execution")
		return holiday.SnapshotInfo{}, ErrReloadInProgress
	}
	d.reloadRunning = true
	d.mu.Unlock()

	info, err := d.reload(ctx)

	d.mu.Lock()
	d.reloadRunning = false
	d.lastErr = err
	if err == nil {
		d.lastReload = info.LoadedAt
		d.reloads++
	}
	d.mu.Unlock()

	return info, err
}

// ForceReload drops cached remote data before reloading
func (d *Daemon) ForceReload(ctx context.Context) (holiday.SnapshotInfo, error) {
	clearCaches(d.source)
	return d.Reload(ctx)
}

func (d *Daemon) reload(ctx context.Context) (holiday.SnapshotInfo, error) {
	start := time.Now()

	ds, err := d.source.Load(ctx)
	if err != nil {
		d.logger.Error("Failed to load dataset",
			zap.String("source", d.source.Name()),
			zap.Error(err))
		return holiday.SnapshotInfo{}, fmt.Errorf("failed to load dataset: %w", err)
	}

	snap, err := holiday.NewSnapshot(ds, d.source.Name(), time.Now())
	if err != nil {
		d.logger.Error("Dataset rejected, keeping previous snapshot",
			zap.String("source", d.source.Name()),
			zap.Error(err))
		return holiday.SnapshotInfo{}, fmt.Errorf("invalid dataset: %w", err)
	}

	previous := d.store.Swap(snap)
	info := snap.Info()

	d.logger.Info("Dataset reloaded",
		zap.String("source", info.Source),
		zap.Int("countries", info.Countries),
		zap.Int("audiences", info.Audiences),
		zap.Int("holidays", info.Holidays),
		zap.Int("previous_holidays", previous.Info().Holidays),
		zap.Duration("took", time.Since(start)))

	return info, nil
}

// Run starts the scheduled and file-triggered reloads and blocks until ctx ends or Stop is called
func (d *Daemon) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return fmt.Errorf("daemon already running")
	}
	d.started = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.started = false
		d.cron = nil
		d.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-d.ctx.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	if d.opts.Schedule != "" {
		c := cron.New()
		id, err := c.AddFunc(d.opts.Schedule, func() { d.runReload(ctx, "schedule") })
		if err != nil {
			return fmt.Errorf("invalid refresh schedule %q: %w", d.opts.Schedule, err)
		}
		c.Start()
		defer func() {
			<-c.Stop().Done()
		}()

		d.mu.Lock()
		d.cron, d.cronID = c, id
		d.mu.Unlock()

		d.logger.Info("Scheduled reloads enabled",
			zap.String("schedule", d.opts.Schedule),
			zap.Time("next_run", c.Entry(id).Next))
	}

	var events <-chan struct{}
	if len(d.opts.WatchPaths) > 0 {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		defer watcher.Close()

		if err := d.watch(watcher); err != nil {
			return err
		}
		ch := make(chan struct{}, 1)
		go d.forwardEvents(ctx, watcher, ch)
		events = ch
	}

	d.logger.Info("Refresh daemon started",
		zap.String("source", d.source.Name()),
		zap.Strings("watch_paths", d.opts.WatchPaths))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Refresh daemon stopped")
			return nil

		case <-events:
			d.runReload(ctx, "file change")
		}
	}
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	d.cancel()
}

func (d *Daemon) runReload(ctx context.Context, trigger string) {
	d.logger.Info("Starting reload", zap.String("trigger", trigger))
	if _, err := d.Reload(ctx); err != nil && !errors.Is(err, ErrReloadInProgress) {
		d.logger.Error("Reload failed", zap.String("trigger", trigger), zap.Error(err))
	}
}

// watch registers the parent directories; editors often replace files instead of writing them
func (d *Daemon) watch(watcher *fsnotify.Watcher) error {
	dirs := make(map[string]struct{})
	for _, p := range d.opts.WatchPaths {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return nil
}

// forwardEvents debounces relevant file events into out
func (d *Daemon) forwardEvents(ctx context.Context, watcher *fsnotify.Watcher, out chan<- struct{}) {
	watched := make(map[string]struct{}, len(d.opts.WatchPaths))
	for _, p := range d.opts.WatchPaths {
		watched[filepath.Clean(p)] = struct{}{}
	}

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if _, ok := watched[filepath.Clean(ev.Name)]; !ok {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			d.logger.Debug("Watched file changed",
				zap.String("file", ev.Name),
				zap.String("op", ev.Op.String()))

			if timer == nil {
				timer = time.NewTimer(d.opts.Debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(d.opts.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case out <- struct{}{}:
			default:
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			d.logger.Warn("File watcher error", zap.Error(err))
		}
	}
}

// GetStatus returns daemon status
func (d *Daemon) GetStatus() map[string]interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := map[string]interface{}{
		"running":     d.started && d.ctx.Err() == nil,
		"reloading":   d.reloadRunning,
		"reloads":     d.reloads,
		"schedule":    d.opts.Schedule,
		"watch_paths": d.opts.WatchPaths,
		"snapshot":    d.store.Snapshot().Info(),
	}
	if !d.lastReload.IsZero() {
		status["last_reload"] = d.lastReload.Format(time.RFC3339)
	}
	if d.lastErr != nil {
		status["last_error"] = d.lastErr.Error()
	}
	if d.cron != nil {
		if next := d.cron.Entry(d.cronID).Next; !next.IsZero() {
			status["next_reload"] = next.Format(time.RFC3339)
		}
	}

	return status
}

type cacheClearer interface {
	ClearCache()
}

type sourceGroup interface {
	Sources() []source.Source
}

// clearCaches walks composite sources and clears every cache found
func clearCaches(src source.Source) {
	if c, ok := src.(cacheClearer); ok {
		c.ClearCache()
	}
	if g, ok := src.(sourceGroup); ok {
		for _, s := range g.Sources() {
			clearCaches(s)
		}
	}
}

// WatchPaths returns the local files behind src
func WatchPaths(src source.Source) []string {
	type pather interface {
		Path() string
	}

	var paths []string
	if p, ok := src.(pather); ok && p.Path() != "" {
		paths = append(paths, p.Path())
	}
	if g, ok := src.(sourceGroup); ok {
		for _, s := range g.Sources() {
			paths = append(paths, WatchPaths(s)...)
		}
	}
	return paths
}
