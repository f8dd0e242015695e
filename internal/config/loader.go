package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MOTOWATCH_* environment variable overrides, and
// returns the final Config. A missing config file is not an error: the
// poller is designed to run with no local setup at all, so defaults plus
// environment overrides are a complete configuration. The returned Config
// has NOT been validated; the caller should invoke Config.Validate() after
// Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MOTOWATCH_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject credentials at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Wallapop ──
	setStr(&cfg.Wallapop.ApiURL, "MOTOWATCH_WALLAPOP_API_URL")
	setInt(&cfg.Wallapop.PageSize, "MOTOWATCH_WALLAPOP_PAGE_SIZE")
	setDuration(&cfg.Wallapop.PageDelay, "MOTOWATCH_WALLAPOP_PAGE_DELAY")
	setDuration(&cfg.Wallapop.Timeout, "MOTOWATCH_WALLAPOP_TIMEOUT")

	// ── Search ──
	setStr(&cfg.Search.Keywords, "MOTOWATCH_SEARCH_KEYWORDS")
	setStr(&cfg.Search.CategoryID, "MOTOWATCH_SEARCH_CATEGORY_ID")
	setStr(&cfg.Search.Latitude, "MOTOWATCH_SEARCH_LATITUDE")
	setStr(&cfg.Search.Longitude, "MOTOWATCH_SEARCH_LONGITUDE")

	// ── Store ──
	setStr(&cfg.Store.Dir, "MOTOWATCH_STORE_DIR")
	setStr(&cfg.Store.FilePrefix, "MOTOWATCH_STORE_FILE_PREFIX")

	// ── Report ──
	setInt(&cfg.Report.HighRiskThreshold, "MOTOWATCH_REPORT_HIGH_RISK_THRESHOLD")
	setInt(&cfg.Report.MediumRiskThreshold, "MOTOWATCH_REPORT_MEDIUM_RISK_THRESHOLD")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "MOTOWATCH_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "MOTOWATCH_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "MOTOWATCH_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "MOTOWATCH_NOTIFY_EVENTS")
	setInt(&cfg.Notify.MinRiskScore, "MOTOWATCH_NOTIFY_MIN_RISK_SCORE")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "MOTOWATCH_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "MOTOWATCH_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "MOTOWATCH_S3_REGION")
	setStr(&cfg.S3.Bucket, "MOTOWATCH_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "MOTOWATCH_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "MOTOWATCH_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "MOTOWATCH_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "MOTOWATCH_S3_FORCE_PATH_STYLE")
	setInt(&cfg.S3.ArchiveAfterDays, "MOTOWATCH_S3_ARCHIVE_AFTER_DAYS")

	// ── Top-level ──
	setStr(&cfg.Mode, "MOTOWATCH_MODE")
	setDuration(&cfg.PollInterval, "MOTOWATCH_POLL_INTERVAL")
	setStr(&cfg.LogLevel, "MOTOWATCH_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
