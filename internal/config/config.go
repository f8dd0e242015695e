// Package config defines the top-level configuration for the listing poller
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by MOTOWATCH_* environment
// variables.
type Config struct {
	Wallapop     WallapopConfig `toml:"wallapop"`
	Search       SearchConfig   `toml:"search"`
	Store        StoreConfig    `toml:"store"`
	Report       ReportConfig   `toml:"report"`
	Notify       NotifyConfig   `toml:"notify"`
	S3           S3Config       `toml:"s3"`
	Mode         string         `toml:"mode"`
	PollInterval duration       `toml:"poll_interval"`
	LogLevel     string         `toml:"log_level"`
}

// WallapopConfig holds the search API endpoint and paging parameters.
type WallapopConfig struct {
	ApiURL    string   `toml:"api_url"`
	PageSize  int      `toml:"page_size"`
	PageDelay duration `toml:"page_delay"`
	Timeout   duration `toml:"timeout"`
}

// SearchConfig holds the single query this instance runs and the geographic
// anchor the marketplace centers results on. The anchor coordinates are also
// used by the scorer to flag listings whose location was never set.
type SearchConfig struct {
	Keywords   string `toml:"keywords"`
	CategoryID string `toml:"category_id"`
	Latitude   string `toml:"latitude"`
	Longitude  string `toml:"longitude"`
}

// StoreConfig holds the daily dataset location and file naming.
type StoreConfig struct {
	Dir        string `toml:"dir"`
	FilePrefix string `toml:"file_prefix"`
}

// ReportConfig holds the risk bucket thresholds for console statistics.
type ReportConfig struct {
	HighRiskThreshold   int `toml:"high_risk_threshold"`
	MediumRiskThreshold int `toml:"medium_risk_threshold"`
}

// NotifyConfig holds notification channel credentials and filtering. Both
// channels are optional; with neither configured notifications are inert.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	MinRiskScore      int      `toml:"min_risk_score"`
}

// S3Config holds the optional cold-archival target for closed daily files.
type S3Config struct {
	Enabled          bool   `toml:"enabled"`
	Endpoint         string `toml:"endpoint"`
	Region           string `toml:"region"`
	Bucket           string `toml:"bucket"`
	AccessKey        string `toml:"access_key"`
	SecretKey        string `toml:"secret_key"`
	UseSSL           bool   `toml:"use_ssl"`
	ForcePathStyle   bool   `toml:"force_path_style"`
	ArchiveAfterDays int    `toml:"archive_after_days"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "500ms", "15m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with the values of the original
// deployment: motorbikes around Zaragoza, daily files in the working
// directory, one-shot mode.
func Defaults() Config {
	return Config{
		Wallapop: WallapopConfig{
			ApiURL:    "https://api.wallapop.com/api/v3/search",
			PageSize:  50,
			PageDelay: duration{500 * time.Millisecond},
			Timeout:   duration{15 * time.Second},
		},
		Search: SearchConfig{
			Keywords:   "moto",
			CategoryID: "14000",
			Latitude:   "41.648823",
			Longitude:  "-0.889085",
		},
		Store: StoreConfig{
			Dir:        ".",
			FilePrefix: "wallapop_motos",
		},
		Report: ReportConfig{
			HighRiskThreshold:   70,
			MediumRiskThreshold: 40,
		},
		Notify: NotifyConfig{
			Events:       []string{"high_risk_listing", "run_truncated"},
			MinRiskScore: 70,
		},
		S3: S3Config{
			Enabled:          false,
			Region:           "us-east-1",
			ForcePathStyle:   true,
			ArchiveAfterDays: 3,
		},
		Mode:         "once",
		PollInterval: duration{15 * time.Minute},
		LogLevel:     "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"once": true,
	"poll": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: once, poll)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}
	if strings.ToLower(c.Mode) == "poll" && c.PollInterval.Duration < time.Minute {
		errs = append(errs, fmt.Sprintf("poll_interval must be at least 1m, got %s", c.PollInterval.Duration))
	}

	// Wallapop
	if c.Wallapop.ApiURL == "" {
		errs = append(errs, "wallapop: api_url must not be empty")
	}
	if c.Wallapop.PageSize < 1 {
		errs = append(errs, "wallapop: page_size must be >= 1")
	}
	if c.Wallapop.Timeout.Duration <= 0 {
		errs = append(errs, "wallapop: timeout must be positive")
	}
	if c.Wallapop.PageDelay.Duration < 0 {
		errs = append(errs, "wallapop: page_delay must not be negative")
	}

	// Search
	if c.Search.Keywords == "" {
		errs = append(errs, "search: keywords must not be empty")
	}
	if c.Search.CategoryID == "" {
		errs = append(errs, "search: category_id must not be empty")
	}
	if c.Search.Latitude == "" || c.Search.Longitude == "" {
		errs = append(errs, "search: latitude and longitude must both be set")
	}

	// Store
	if c.Store.Dir == "" {
		errs = append(errs, "store: dir must not be empty")
	}
	if c.Store.FilePrefix == "" {
		errs = append(errs, "store: file_prefix must not be empty")
	}

	// Report
	if c.Report.HighRiskThreshold < 0 || c.Report.HighRiskThreshold > 100 {
		errs = append(errs, fmt.Sprintf("report: high_risk_threshold must be 0-100, got %d", c.Report.HighRiskThreshold))
	}
	if c.Report.MediumRiskThreshold < 0 || c.Report.MediumRiskThreshold > 100 {
		errs = append(errs, fmt.Sprintf("report: medium_risk_threshold must be 0-100, got %d", c.Report.MediumRiskThreshold))
	}
	if c.Report.MediumRiskThreshold > c.Report.HighRiskThreshold {
		errs = append(errs, "report: medium_risk_threshold must not exceed high_risk_threshold")
	}

	// Notify — telegram credentials must come in pairs.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}
	if c.Notify.MinRiskScore < 0 || c.Notify.MinRiskScore > 100 {
		errs = append(errs, fmt.Sprintf("notify: min_risk_score must be 0-100, got %d", c.Notify.MinRiskScore))
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when enabled")
		}
		if c.S3.ArchiveAfterDays < 1 {
			errs = append(errs, "s3: archive_after_days must be >= 1")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
