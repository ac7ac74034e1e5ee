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
// built-in defaults, applies CROSSBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known CROSSBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Binance ──
	setStr(&cfg.Binance.BaseURL, "CROSSBOT_BINANCE_BASE_URL")
	setDuration(&cfg.Binance.FetchTimeout, "CROSSBOT_BINANCE_FETCH_TIMEOUT")

	// ── Database ──
	setStr(&cfg.Database.DSN, "CROSSBOT_DATABASE_DSN")
	setStr(&cfg.Database.DSN, "CROSSBOT_DATABASE_URL") // compatibility alias
	setStr(&cfg.Database.Host, "CROSSBOT_DATABASE_HOST")
	setInt(&cfg.Database.Port, "CROSSBOT_DATABASE_PORT")
	setStr(&cfg.Database.Database, "CROSSBOT_DATABASE_DATABASE")
	setStr(&cfg.Database.User, "CROSSBOT_DATABASE_USER")
	setStr(&cfg.Database.Password, "CROSSBOT_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "CROSSBOT_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "CROSSBOT_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "CROSSBOT_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "CROSSBOT_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "CROSSBOT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "CROSSBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "CROSSBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "CROSSBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "CROSSBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "CROSSBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "CROSSBOT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "CROSSBOT_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "CROSSBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "CROSSBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "CROSSBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "CROSSBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "CROSSBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "CROSSBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "CROSSBOT_S3_FORCE_PATH_STYLE")
	setStr(&cfg.S3.ArchivePrefix, "CROSSBOT_S3_ARCHIVE_PREFIX")

	// ── Strategy ──
	setStr(&cfg.Strategy.Instrument, "CROSSBOT_STRATEGY_INSTRUMENT")
	setStr(&cfg.Strategy.Interval, "CROSSBOT_STRATEGY_INTERVAL")
	setInt(&cfg.Strategy.EntryFastPeriod, "CROSSBOT_STRATEGY_ENTRY_FAST_PERIOD")
	setInt(&cfg.Strategy.EntrySlowPeriod, "CROSSBOT_STRATEGY_ENTRY_SLOW_PERIOD")
	setInt(&cfg.Strategy.ExitFastPeriod, "CROSSBOT_STRATEGY_EXIT_FAST_PERIOD")
	setInt(&cfg.Strategy.ExitSlowPeriod, "CROSSBOT_STRATEGY_EXIT_SLOW_PERIOD")
	setFloat64(&cfg.Strategy.Quantity, "CROSSBOT_STRATEGY_QUANTITY")
	setInt(&cfg.Strategy.WindowMargin, "CROSSBOT_STRATEGY_WINDOW_MARGIN")
	setBool(&cfg.Strategy.DryRun, "CROSSBOT_STRATEGY_DRY_RUN")
	setDuration(&cfg.Strategy.SnapshotMaxAge, "CROSSBOT_STRATEGY_SNAPSHOT_MAX_AGE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "CROSSBOT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "CROSSBOT_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "CROSSBOT_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "CROSSBOT_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "CROSSBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "CROSSBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "CROSSBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "CROSSBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "CROSSBOT_MODE")
	setStr(&cfg.LogLevel, "CROSSBOT_LOG_LEVEL")
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

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
