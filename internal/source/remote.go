package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/username/holiday-api/internal/holiday"
)

const (
	defaultTimeout = 10 * time.Second
)

// RemoteSource fetches a JSON dataset over HTTP and caches it for cacheTTL
type RemoteSource struct {
	url        string
	window     WindowFunc
	cacheTTL   time.Duration
	httpClient *http.Client
	logger     *zap.Logger
	cache      *cachedDataset
	cacheMu    sync.RWMutex
}

type cachedDataset struct {
	data      *holiday.Dataset
	fetchedAt time.Time
}

// NewRemoteSource creates a new RemoteSource
func NewRemoteSource(url string, window WindowFunc, cacheTTL time.Duration, logger *zap.Logger) *RemoteSource {
	return &RemoteSource{
		url:      url,
		window:   window,
		cacheTTL: cacheTTL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// Name returns the source name
func (rs *RemoteSource) Name() string {
	return "remote:" + rs.url
}

// Load returns the cached dataset while fresh, otherwise fetches it
func (rs *RemoteSource) Load(ctx context.Context) (*holiday.Dataset, error) {
	rs.cacheMu.RLock()
	if cached := rs.cache; cached != nil && time.Since(cached.fetchedAt) < rs.cacheTTL {
		rs.cacheMu.RUnlock()
		rs.logger.Debug("Using cached remote dataset", zap.String("url", rs.url))
		return cached.data, nil
	}
	rs.cacheMu.RUnlock()

	ds, err := rs.fetch(ctx)
	if err != nil {
		return nil, err
	}

	rs.cacheMu.Lock()
	rs.cache = &cachedDataset{data: ds, fetchedAt: time.Now()}
	rs.cacheMu.Unlock()

	rs.logger.Info("Remote dataset fetched and cached",
		zap.String("url", rs.url),
		zap.Int("holidays", len(ds.Holidays)))

	return ds, nil
}

// ClearCache forces the next Load to fetch
func (rs *RemoteSource) ClearCache() {
	rs.cacheMu.Lock()
	rs.cache = nil
	rs.cacheMu.Unlock()
}

func (rs *RemoteSource) fetch(ctx context.Context) (*holiday.Dataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rs.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	rs.logger.Debug("Fetching remote dataset", zap.String("url", rs.url))

	resp, err := rs.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch dataset: %w", holiday.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: dataset endpoint returned status %d", holiday.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var rec datasetRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: failed to parse dataset: %w", holiday.ErrUpstreamUnavailable, err)
	}

	var window YearWindow
	if rs.window != nil {
		window = rs.window()
	}
	return rec.toDataset(window, rs.logger), nil
}
