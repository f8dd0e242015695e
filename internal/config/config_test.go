package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorHas string
	}{
		{
			name:     "unknown mode",
			mutate:   func(c *Config) { c.Mode = "cron" },
			errorHas: "unknown mode",
		},
		{
			name:     "unknown log level",
			mutate:   func(c *Config) { c.LogLevel = "trace" },
			errorHas: "unknown log_level",
		},
		{
			name: "poll interval too small",
			mutate: func(c *Config) {
				c.Mode = "poll"
				c.PollInterval = duration{30 * time.Second}
			},
			errorHas: "poll_interval",
		},
		{
			name: "short poll interval is fine in once mode",
			mutate: func(c *Config) {
				c.Mode = "once"
				c.PollInterval = duration{30 * time.Second}
			},
		},
		{
			name:     "empty api url",
			mutate:   func(c *Config) { c.Wallapop.ApiURL = "" },
			errorHas: "api_url",
		},
		{
			name:     "zero page size",
			mutate:   func(c *Config) { c.Wallapop.PageSize = 0 },
			errorHas: "page_size",
		},
		{
			name:     "empty keywords",
			mutate:   func(c *Config) { c.Search.Keywords = "" },
			errorHas: "keywords",
		},
		{
			name:     "missing coordinates",
			mutate:   func(c *Config) { c.Search.Latitude = "" },
			errorHas: "latitude",
		},
		{
			name:     "empty file prefix",
			mutate:   func(c *Config) { c.Store.FilePrefix = "" },
			errorHas: "file_prefix",
		},
		{
			name:     "risk threshold out of range",
			mutate:   func(c *Config) { c.Report.HighRiskThreshold = 150 },
			errorHas: "high_risk_threshold",
		},
		{
			name: "medium threshold above high",
			mutate: func(c *Config) {
				c.Report.HighRiskThreshold = 40
				c.Report.MediumRiskThreshold = 70
			},
			errorHas: "medium_risk_threshold must not exceed",
		},
		{
			name:     "telegram token without chat id",
			mutate:   func(c *Config) { c.Notify.TelegramToken = "t" },
			errorHas: "telegram",
		},
		{
			name: "s3 enabled without bucket",
			mutate: func(c *Config) {
				c.S3.Enabled = true
			},
			errorHas: "bucket",
		},
		{
			name: "s3 disabled skips s3 checks",
			mutate: func(c *Config) {
				c.S3.Enabled = false
				c.S3.Bucket = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.errorHas == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorHas)
		})
	}
}

func TestValidateReportsAllProblemsAtOnce(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "cron"
	cfg.Search.Keywords = ""
	cfg.Store.Dir = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "keywords")
	assert.Contains(t, err.Error(), "dir")
}
