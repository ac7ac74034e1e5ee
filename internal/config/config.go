// Package config defines the top-level configuration for the crossover bot
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by CROSSBOT_* environment variables.
type Config struct {
	Binance  BinanceConfig  `toml:"binance"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Strategy StrategyConfig `toml:"strategy"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// BinanceConfig holds market-data REST API parameters.
type BinanceConfig struct {
	BaseURL      string   `toml:"base_url"`
	FetchTimeout duration `toml:"fetch_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. Redis is optional; when
// disabled the snapshot mirror and event bus are simply skipped.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for the closed
// position archive.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	ArchivePrefix  string `toml:"archive_prefix"`
}

// StrategyConfig holds the crossover strategy parameters. The entry pair
// governs opens, the exit pair governs closes; the two are independent.
type StrategyConfig struct {
	Instrument      string   `toml:"instrument"`
	Interval        string   `toml:"interval"`
	EntryFastPeriod int      `toml:"entry_fast_period"`
	EntrySlowPeriod int      `toml:"entry_slow_period"`
	ExitFastPeriod  int      `toml:"exit_fast_period"`
	ExitSlowPeriod  int      `toml:"exit_slow_period"`
	Quantity        float64  `toml:"quantity"`
	WindowMargin    int      `toml:"window_margin"`
	DryRun          bool     `toml:"dry_run"`
	SnapshotMaxAge  duration `toml:"snapshot_max_age"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// validIntervals enumerates the supported sampling intervals and their
// wall-clock lengths.
var validIntervals = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
}

// IntervalDuration returns the wall-clock length of the configured sampling
// interval. The interval must have passed Validate.
func (s StrategyConfig) IntervalDuration() time.Duration {
	return validIntervals[s.Interval]
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Binance: BinanceConfig{
			BaseURL:      "https://api.binance.com",
			FetchTimeout: duration{10 * time.Second},
		},
		Database: DatabaseConfig{
			DSN:           "",
			Host:          "localhost",
			Port:          5432,
			Database:      "crossbot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "crossbot-data",
			UseSSL:         false,
			ForcePathStyle: true,
			ArchivePrefix:  "archive/positions",
		},
		Strategy: StrategyConfig{
			Instrument:      "BTCUSDT",
			Interval:        "1m",
			EntryFastPeriod: 9,
			EntrySlowPeriod: 21,
			ExitFastPeriod:  5,
			ExitSlowPeriod:  13,
			Quantity:        0.001,
			WindowMargin:    10,
			DryRun:          false,
			SnapshotMaxAge:  duration{70 * time.Second},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"position_opened", "position_closed", "error"},
		},
		Mode:     "run",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"run":  true,
	"once": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: run, once)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Binance
	if c.Binance.BaseURL == "" {
		errs = append(errs, "binance: base_url must not be empty")
	}
	if c.Binance.FetchTimeout.Duration <= 0 {
		errs = append(errs, "binance: fetch_timeout must be > 0")
	}

	// Database — persistence is required unless dry_run is on.
	if !c.Strategy.DryRun {
		if strings.TrimSpace(c.Database.DSN) == "" {
			if c.Database.Host == "" {
				errs = append(errs, "database: host must not be empty (or set database.dsn)")
			}
			if c.Database.Port <= 0 || c.Database.Port > 65535 {
				errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
			}
			if c.Database.Database == "" {
				errs = append(errs, "database: database must not be empty")
			}
		}
		if c.Database.PoolMaxConns < 1 {
			errs = append(errs, "database: pool_max_conns must be >= 1")
		}
		if c.Database.PoolMinConns < 0 {
			errs = append(errs, "database: pool_min_conns must be >= 0")
		}
		if c.Database.PoolMinConns > c.Database.PoolMaxConns {
			errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	// Strategy
	if c.Strategy.Instrument == "" {
		errs = append(errs, "strategy: instrument must not be empty")
	}
	if _, ok := validIntervals[c.Strategy.Interval]; !ok {
		errs = append(errs, fmt.Sprintf("strategy: unknown interval %q (valid: 1m, 3m, 5m, 15m, 30m, 1h, 4h, 1d)", c.Strategy.Interval))
	}
	for _, p := range []struct {
		name string
		val  int
	}{
		{"entry_fast_period", c.Strategy.EntryFastPeriod},
		{"entry_slow_period", c.Strategy.EntrySlowPeriod},
		{"exit_fast_period", c.Strategy.ExitFastPeriod},
		{"exit_slow_period", c.Strategy.ExitSlowPeriod},
	} {
		if p.val < 1 {
			errs = append(errs, fmt.Sprintf("strategy: %s must be >= 1, got %d", p.name, p.val))
		}
	}
	if c.Strategy.EntryFastPeriod >= c.Strategy.EntrySlowPeriod {
		errs = append(errs, "strategy: entry_fast_period must be less than entry_slow_period")
	}
	if c.Strategy.ExitFastPeriod >= c.Strategy.ExitSlowPeriod {
		errs = append(errs, "strategy: exit_fast_period must be less than exit_slow_period")
	}
	if c.Strategy.Quantity <= 0 {
		errs = append(errs, "strategy: quantity must be > 0")
	}
	if c.Strategy.WindowMargin < 0 {
		errs = append(errs, "strategy: window_margin must be >= 0")
	}
	if c.Strategy.SnapshotMaxAge.Duration <= 0 {
		errs = append(errs, "strategy: snapshot_max_age must be > 0")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
