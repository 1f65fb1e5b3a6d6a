package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Timezone    string          `toml:"timezone"`    // IANA timezone for schedules and market times
	Logging     LoggingConfig   `toml:"logging"`
	Events      EventsConfig    `toml:"events"`
	Schedules   SchedulesConfig `toml:"schedules"`
	Scan        ScanConfig      `toml:"scan"`
	Strategy    StrategyConfig  `toml:"strategy"`
	Exchange    ExchangeConfig  `toml:"exchange"`
	Discord     DiscordConfig   `toml:"discord"`
	Email       EmailConfig     `toml:"email"`
	Storage     StorageConfig   `toml:"storage"`
	Data        DataConfig      `toml:"data"`
	Broker      BrokerConfig    `toml:"broker"`
	Shutdown    ShutdownConfig  `toml:"shutdown"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// EventsConfig tunes the in-process event bus.
type EventsConfig struct {
	QueueSize    int    `toml:"queue_size"`    // Bounded publish queue capacity
	DrainTimeout string `toml:"drain_timeout"` // e.g. "10s" - max wait for handlers on stop
}

// SchedulesConfig holds the cron expressions for the recurring jobs.
// Expressions use standard 5-field cron, evaluated in Config.Timezone.
type SchedulesConfig struct {
	Scan     string `toml:"scan" validate:"required"`     // Announcement scan
	Download string `toml:"download" validate:"required"` // Market data download
	Import   string `toml:"import" validate:"required"`   // CSV import
}

// ScanConfig holds gap scan thresholds.
type ScanConfig struct {
	GapThreshold     float64 `toml:"gap_threshold" validate:"gt=0"`  // Minimum absolute gap percent
	MinPrice         float64 `toml:"min_price" validate:"gte=0"`     // Price floor for candidates
	MinVolume        int64   `toml:"min_volume" validate:"gte=0"`    // Volume floor for candidates
	MaxResults       int     `toml:"max_results" validate:"gt=0"`    // Cap on returned candidates
	OpeningRangeTime string  `toml:"opening_range_time"`             // HH:MM local market time to sample the opening range
}

// StrategyConfig holds announcement gap strategy parameters.
type StrategyConfig struct {
	Name            string  `toml:"name"`                            // Strategy to trigger for candidates
	MinGapPercent   float64 `toml:"min_gap_percent" validate:"gt=0"` // Minimum gap for announcement candidates
	MinPrice        float64 `toml:"min_price" validate:"gte=0"`      // Price floor for announcement candidates
	LookbackMonths  int     `toml:"lookback_months" validate:"gt=0"` // High lookback window in months
	OpeningRangeMin int     `toml:"opening_range_minutes"`           // Opening range duration in minutes
	ExitAfterDays   int     `toml:"exit_after_days"`                 // Time-based exit for triggered positions
}

// ExchangeConfig holds the announcement feed settings.
type ExchangeConfig struct {
	AnnouncementsURL string `toml:"announcements_url" validate:"required,url"`
	RequestTimeout   string `toml:"request_timeout"` // e.g. "30s"
	MaxRetries       int    `toml:"max_retries" validate:"gte=0"`
	RetryDelay       string `toml:"retry_delay"` // Base delay, doubled per attempt
	RateLimit        string `toml:"rate_limit"`  // Minimum spacing between requests, e.g. "2s"
	UserAgent        string `toml:"user_agent"`
	// ExcludeTickers are feed codes that are never real listings (index
	// codes, ETO series) and are dropped during parsing.
	ExcludeTickers  []string `toml:"exclude_tickers"`
	MinTickerLength int      `toml:"min_ticker_length" validate:"gt=0"`
	MaxTickerLength int      `toml:"max_ticker_length" validate:"gt=0"`
}

// DiscordConfig holds the webhook notification settings.
type DiscordConfig struct {
	Enabled    bool   `toml:"enabled"`
	WebhookURL string `toml:"webhook_url"`
	Username   string `toml:"username"`
	RateLimit  string `toml:"rate_limit"` // Minimum spacing between webhook posts
}

// EmailConfig holds SMTP notification settings.
type EmailConfig struct {
	Enabled  bool     `toml:"enabled"`
	Host     string   `toml:"host"`
	Port     int      `toml:"port"`
	Username string   `toml:"username"`
	Password string   `toml:"password"`
	From     string   `toml:"from"`
	To       []string `toml:"to"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// DataConfig holds download and import settings.
type DataConfig struct {
	DownloadDir string `toml:"download_dir"` // Where daily CSV files land
	ArchiveDir  string `toml:"archive_dir"`  // Imported files move here
	DownloadURL string `toml:"download_url"` // Template with {date} placeholder, e.g. .../{date}.csv
}

// BrokerConfig holds broker gateway connection settings.
type BrokerConfig struct {
	Enabled bool   `toml:"enabled"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Account string `toml:"account"`
}

type ShutdownConfig struct {
	Timeout string `toml:"timeout"` // Graceful shutdown window, e.g. "15s"
}

// NewDefaultConfig creates a configuration with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Timezone:    "Australia/Sydney",
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Events: EventsConfig{
			QueueSize:    1000,
			DrainTimeout: "10s",
		},
		Schedules: SchedulesConfig{
			Scan:     "30 10 * * 1-5", // Weekdays after market open
			Download: "0 10 * * *",
			Import:   "5 10 * * *",
		},
		Scan: ScanConfig{
			GapThreshold:     3.0,
			MinPrice:         0.20,
			MinVolume:        100000,
			MaxResults:       50,
			OpeningRangeTime: "10:05",
		},
		Strategy: StrategyConfig{
			Name:            "announcement_gap",
			MinGapPercent:   3.0,
			MinPrice:        0.20,
			LookbackMonths:  6,
			OpeningRangeMin: 5,
			ExitAfterDays:   3,
		},
		Exchange: ExchangeConfig{
			AnnouncementsURL: "https://www.asx.com.au/asx/v2/statistics/todayAnns.do",
			RequestTimeout:   "30s",
			MaxRetries:       3,
			RetryDelay:       "2s",
			RateLimit:        "2s",
			UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
			ExcludeTickers:   []string{},
			MinTickerLength:  2,
			MaxTickerLength:  6,
		},
		Discord: DiscordConfig{
			Enabled:   false,
			Username:  "gapscan",
			RateLimit: "1s",
		},
		Email: EmailConfig{
			Enabled: false,
			Port:    587,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/badger",
				ResetOnStartup: false,
			},
		},
		Data: DataConfig{
			DownloadDir: "./data/downloads",
			ArchiveDir:  "./data/archive",
		},
		Broker: BrokerConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    7497,
		},
		Shutdown: ShutdownConfig{
			Timeout: "15s",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("GAPSCAN_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if tz := os.Getenv("GAPSCAN_TIMEZONE"); tz != "" {
		config.Timezone = tz
	}

	// Logging configuration
	if level := os.Getenv("GAPSCAN_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("GAPSCAN_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Schedules
	if s := os.Getenv("GAPSCAN_SCHEDULE_SCAN"); s != "" {
		config.Schedules.Scan = s
	}
	if s := os.Getenv("GAPSCAN_SCHEDULE_DOWNLOAD"); s != "" {
		config.Schedules.Download = s
	}
	if s := os.Getenv("GAPSCAN_SCHEDULE_IMPORT"); s != "" {
		config.Schedules.Import = s
	}

	// Scan thresholds
	if v := os.Getenv("GAPSCAN_GAP_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Scan.GapThreshold = f
		}
	}
	if v := os.Getenv("GAPSCAN_MIN_VOLUME"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Scan.MinVolume = n
		}
	}
	if v := os.Getenv("GAPSCAN_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Scan.MaxResults = n
		}
	}

	// Storage
	if badgerPath := os.Getenv("GAPSCAN_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Discord
	if url := os.Getenv("GAPSCAN_DISCORD_WEBHOOK_URL"); url != "" {
		config.Discord.WebhookURL = url
		config.Discord.Enabled = true
	}

	// Email credentials
	if pw := os.Getenv("GAPSCAN_EMAIL_PASSWORD"); pw != "" {
		config.Email.Password = pw
	}
}

// Validate checks structural constraints, schedules and the timezone.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	for name, schedule := range map[string]string{
		"scan":     c.Schedules.Scan,
		"download": c.Schedules.Download,
		"import":   c.Schedules.Import,
	} {
		if err := ValidateJobSchedule(schedule); err != nil {
			return fmt.Errorf("invalid %s schedule: %w", name, err)
		}
	}

	return nil
}

// Location resolves the configured timezone. Call Validate first; an invalid
// zone falls back to UTC here.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// EventsDrainTimeout parses the configured drain timeout with a 10s fallback.
func (c *Config) EventsDrainTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Events.DrainTimeout); err == nil && d > 0 {
		return d
	}
	return 10 * time.Second
}

// ShutdownTimeout parses the configured shutdown window with a 15s fallback.
func (c *Config) ShutdownTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Shutdown.Timeout); err == nil && d > 0 {
		return d
	}
	return 15 * time.Second
}

// ValidateJobSchedule validates a cron schedule expression and ensures minimum 5-minute interval
func ValidateJobSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]

	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	if strings.HasPrefix(minuteField, "*/") {
		intervalStr := strings.TrimPrefix(minuteField, "*/")
		interval, err := strconv.Atoi(intervalStr)
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
