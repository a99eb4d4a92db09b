package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/username/holiday-api/internal/holiday"
)

// FileSource loads a dataset from a local YAML or JSON file
type FileSource struct {
	filePath string
	window   WindowFunc
	logger   *zap.Logger
}

// NewFileSource creates a new FileSource
func NewFileSource(filePath string, window WindowFunc, logger *zap.Logger) *FileSource {
	return &FileSource{
		filePath: filePath,
		window:   window,
		logger:   logger,
	}
}

// Name returns the source name
func (fs *FileSource) Name() string {
	return "file:" + fs.filePath
}

// Path returns the watched file path
func (fs *FileSource) Path() string {
	return fs.filePath
}

// Load reads and expands the dataset file
func (fs *FileSource) Load(ctx context.Context) (*holiday.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	rec, err := decodeDataset(fs.filePath, data)
	if err != nil {
		return nil, err
	}

	var window YearWindow
	if fs.window != nil {
		window = fs.window()
	}
	ds := rec.toDataset(window, fs.logger)

	fs.logger.Info("Dataset file loaded",
		zap.String("file", fs.filePath),
		zap.Int("countries", len(ds.Countries)),
		zap.Int("audiences", len(ds.Audiences)),
		zap.Int("holidays", len(ds.Holidays)))

	return ds, nil
}

func decodeDataset(name string, data []byte) (*datasetRecord, error) {
	var rec datasetRecord

	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to parse dataset %s: %w", name, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to parse dataset %s: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("unsupported dataset format %q (want .yaml, .yml or .json)", filepath.Ext(name))
	}

	return &rec, nil
}
