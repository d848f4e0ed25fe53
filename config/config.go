package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for configuration values.
const (
	DefaultWorkers       = 8
	DefaultReverseLegCap = 4
	DefaultLockTTL       = 30 * time.Second
	DefaultWriteRetries  = 3
	DefaultRetryBackoff  = 500 * time.Millisecond
	DefaultSweepSpec     = "0 */5 * * * *"
	DefaultIngestSpec    = "30 */5 * * * *"
	DefaultLogLevel      = "info"
)

// Config holds all application configuration.
type Config struct {
	MySQLURL  string
	RedisAddr string // empty: use the in-process locker

	DiscordToken    string // empty: notifications disabled
	SettleChannelID string

	LogLevel       string
	Development    bool
	Workers        int
	ReverseLegCap  int
	LockTTL        time.Duration
	WriteRetries   int
	RetryBackoff   time.Duration
	SweepSpec      string
	IngestSpec     string
	ESPNScoreboard string
}

// Load reads configuration from environment variables (and .env if present).
func Load() Config {
	_ = godotenv.Load() // ignore error if .env doesn't exist

	cfg := Config{
		MySQLURL:        os.Getenv("MYSQL_URL"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		DiscordToken:    os.Getenv("DISCORD_BOT_TOKEN"),
		SettleChannelID: os.Getenv("SETTLEMENT_CHANNEL_ID"),
		LogLevel:        DefaultLogLevel,
		Workers:         DefaultWorkers,
		ReverseLegCap:   DefaultReverseLegCap,
		LockTTL:         DefaultLockTTL,
		WriteRetries:    DefaultWriteRetries,
		RetryBackoff:    DefaultRetryBackoff,
		SweepSpec:       DefaultSweepSpec,
		IngestSpec:      DefaultIngestSpec,
		ESPNScoreboard:  "http://site.api.espn.com/apis/site/v2/sports/basketball/mens-college-basketball/scoreboard",
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ENV"); v != "" && v != "production" {
		cfg.Development = true
	}
	if v, err := strconv.Atoi(os.Getenv("SETTLEMENT_WORKERS")); err == nil && v > 0 {
		cfg.Workers = v
	}
	if v, err := strconv.Atoi(os.Getenv("REVERSE_LEG_CAP")); err == nil && v > 0 {
		cfg.ReverseLegCap = v
	}
	if v, err := time.ParseDuration(os.Getenv("SETTLEMENT_LOCK_TTL")); err == nil && v > 0 {
		cfg.LockTTL = v
	}
	if v, err := strconv.Atoi(os.Getenv("LEDGER_WRITE_RETRIES")); err == nil && v >= 0 {
		cfg.WriteRetries = v
	}
	if v, err := time.ParseDuration(os.Getenv("LEDGER_RETRY_BACKOFF")); err == nil && v > 0 {
		cfg.RetryBackoff = v
	}
	if v := os.Getenv("SETTLEMENT_SWEEP_CRON"); v != "" {
		cfg.SweepSpec = v
	}
	if v := os.Getenv("RESULT_INGEST_CRON"); v != "" {
		cfg.IngestSpec = v
	}
	if v := os.Getenv("ESPN_SCOREBOARD_URL"); v != "" {
		cfg.ESPNScoreboard = v
	}

	return cfg
}
