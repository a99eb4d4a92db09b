package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Source types
const (
	SourceFile    = "file"
	SourceICS     = "ics"
	SourceBuiltin = "builtin"
	SourceSQLite  = "sqlite"
	SourceRemote  = "remote"
)

// Config represents application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Data     DataConfig     `mapstructure:"data"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Log      LogConfig      `mapstructure:"log"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Listen         string   `mapstructure:"listen"`
	ReadTimeout    string   `mapstructure:"read_timeout"`
	WriteTimeout   string   `mapstructure:"write_timeout"`
	RequestTimeout string   `mapstructure:"request_timeout"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SourceConfig describes one holiday source
type SourceConfig struct {
	Type        string `mapstructure:"type"`         // file, ics, builtin, sqlite or remote
	Path        string `mapstructure:"path"`         // file and ics
	URL         string `mapstructure:"url"`          // remote and ics
	Country     string `mapstructure:"country"`      // ics and builtin
	HolidayType string `mapstructure:"holiday_type"` // default type of ics events
	CacheTTL    string `mapstructure:"cache_ttl"`    // remote
}

// DataConfig represents dataset sources
type DataConfig struct {
	Sources    []SourceConfig `mapstructure:"sources"`
	Fallback   *SourceConfig  `mapstructure:"fallback"`
	SQLitePath string         `mapstructure:"sqlite_path"`
}

// CalendarConfig represents date handling configuration
type CalendarConfig struct {
	Timezone    string `mapstructure:"timezone"`
	YearsBack   int    `mapstructure:"years_back"`
	YearsAhead  int    `mapstructure:"years_ahead"`
	MaxSpanDays int    `mapstructure:"max_span_days"` // longest working-days range
}

// ChatConfig represents the chat upstream
type ChatConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	APIKey          string `mapstructure:"api_key"`
	Model           string `mapstructure:"model"`
	Timeout         string `mapstructure:"timeout"`
	Retries         int    `mapstructure:"retries"`
	RetryDelay      string `mapstructure:"retry_delay"`
	DefaultCountry  string `mapstructure:"default_country"`
	DefaultLanguage string `mapstructure:"default_language"`
}

// RefreshConfig represents dataset refresh configuration
type RefreshConfig struct {
	Schedule   string `mapstructure:"schedule"` // cron expression, empty disables
	WatchFiles bool   `mapstructure:"watch_files"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// AdminConfig represents the credentials for admin endpoints
type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.request_timeout", "45s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("data.sources", []map[string]interface{}{
		{"type": SourceFile, "path": "data/holidays.yaml"},
	})
	v.SetDefault("data.sqlite_path", "holidays.db")

	v.SetDefault("calendar.timezone", "UTC")
	v.SetDefault("calendar.years_back", 2)
	v.SetDefault("calendar.years_ahead", 3)
	v.SetDefault("calendar.max_span_days", 3660)

	v.SetDefault("chat.endpoint", "")
	v.SetDefault("chat.api_key", "")
	v.SetDefault("chat.model", "gpt-4o-mini")
	v.SetDefault("chat.timeout", "30s")
	v.SetDefault("chat.retries", 3)
	v.SetDefault("chat.retry_delay", "1s")
	v.SetDefault("chat.default_country", "TR")
	v.SetDefault("chat.default_language", "en")

	v.SetDefault("refresh.schedule", "0 3 * * *")
	v.SetDefault("refresh.watch_files", true)

	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")

	v.SetDefault("admin.username", "")
	v.SetDefault("admin.password_hash", "")
}

// Load loads configuration from file. With an empty path the usual locations are
// searched and a missing file falls back to defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.holiday-api")
		v.AddConfigPath("/etc/holiday-api")
	}

	// Read environment variables, e.g. HOLIDAY_API_CHAT_API_KEY
	v.SetEnvPrefix("HOLIDAY_API")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ExpandEnvVars()

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}

	// Validate sources
	if len(c.Data.Sources) == 0 {
		return fmt.Errorf("data.sources must list at least one source")
	}
	for i, s := range c.Data.Sources {
		if err := c.validateSource(s); err != nil {
			return fmt.Errorf("data.sources[%d]: %w", i, err)
		}
	}
	if c.Data.Fallback != nil {
		if err := c.validateSource(*c.Data.Fallback); err != nil {
			return fmt.Errorf("data.fallback: %w", err)
		}
	}

	// Validate calendar
	if _, err := c.Calendar.GetLocation(); err != nil {
		return err
	}
	if c.Calendar.YearsBack < 0 || c.Calendar.YearsAhead < 0 {
		return fmt.Errorf("calendar.years_back and calendar.years_ahead must not be negative")
	}
	if c.Calendar.MaxSpanDays < 1 {
		return fmt.Errorf("calendar.max_span_days must be positive")
	}

	// Validate chat
	if c.Chat.Retries < 0 {
		return fmt.Errorf("chat.retries must not be negative")
	}
	if c.Chat.Endpoint != "" && c.Chat.Model == "" {
		return fmt.Errorf("chat.model is required when chat.endpoint is set")
	}

	// Validate refresh
	if c.Refresh.Schedule != "" {
		if _, err := cron.ParseStandard(c.Refresh.Schedule); err != nil {
			return fmt.Errorf("refresh.schedule is not a valid cron expression: %w", err)
		}
	}

	// Validate admin
	if c.Admin.Username != "" && !strings.HasPrefix(c.Admin.PasswordHash, "$argon2id$") {
		return fmt.Errorf("admin.password_hash must be an argon2id hash when admin.username is set")
	}

	return nil
}

func (c *Config) validateSource(s SourceConfig) error {
	switch s.Type {
	case SourceFile:
		if s.Path == "" {
			return fmt.Errorf("path is required for file source")
		}
	case SourceICS:
		if s.Path == "" && s.URL == "" {
			return fmt.Errorf("path or url is required for ics source")
		}
		if s.Country == "" {
			return fmt.Errorf("country is required for ics source")
		}
	case SourceBuiltin:
		if s.Country == "" {
			return fmt.Errorf("country is required for builtin source")
		}
	case SourceSQLite:
		if c.Data.SQLitePath == "" {
			return fmt.Errorf("data.sqlite_path is required for sqlite source")
		}
	case SourceRemote:
		if s.URL == "" {
			return fmt.Errorf("url is required for remote source")
		}
	default:
		return fmt.Errorf("type must be one of file, ics, builtin, sqlite, remote, got '%s'", s.Type)
	}
	return nil
}

// GetLocation returns the configured timezone
func (c *CalendarConfig) GetLocation() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("calendar.timezone %q is invalid: %w", c.Timezone, err)
	}
	return loc, nil
}

// GetReadTimeout returns the server read timeout
func (c *ServerConfig) GetReadTimeout() time.Duration {
	return parseDuration(c.ReadTimeout, 10*time.Second)
}

// GetWriteTimeout returns the server write timeout
func (c *ServerConfig) GetWriteTimeout() time.Duration {
	return parseDuration(c.WriteTimeout, 60*time.Second)
}

// GetRequestTimeout returns the per-request handler timeout
func (c *ServerConfig) GetRequestTimeout() time.Duration {
	return parseDuration(c.RequestTimeout, 45*time.Second)
}

// GetCacheTTL returns the remote cache TTL
func (c *SourceConfig) GetCacheTTL() time.Duration {
	return parseDuration(c.CacheTTL, time.Hour)
}

// GetTimeout returns the chat deadline
func (c *ChatConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// GetRetryDelay returns the base delay between chat retries
func (c *ChatConfig) GetRetryDelay() time.Duration {
	return parseDuration(c.RetryDelay, time.Second)
}

// Enabled reports whether a chat upstream is configured
func (c *ChatConfig) Enabled() bool {
	return c.Endpoint != ""
}

// Enabled reports whether admin endpoints are available
func (c *AdminConfig) Enabled() bool {
	return c.Username != "" && c.PasswordHash != ""
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	duration, err := time.ParseDuration(value)
	if err != nil || duration <= 0 {
		return fallback
	}
	return duration
}

// ExpandEnvVars expands environment variables in config strings
func (c *Config) ExpandEnvVars() {
	c.Chat.APIKey = os.ExpandEnv(c.Chat.APIKey)
	c.Chat.Endpoint = os.ExpandEnv(c.Chat.Endpoint)
	for i := range c.Data.Sources {
		c.Data.Sources[i].URL = os.ExpandEnv(c.Data.Sources[i].URL)
	}
}
