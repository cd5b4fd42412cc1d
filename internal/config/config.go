package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Storage
	DBPath string

	// Retrieval
	FetchTimeout     time.Duration
	FetchMinInterval time.Duration
	FetchMaxRetries  int
	UserAgent        string

	LogLevel slog.Level
}

const (
	defaultWorkerCount    = 4
	defaultMaxQueueSize   = 100
	defaultMaxUploadBytes = 52428800 // 50MB
	defaultJobTTL         = time.Hour
	defaultFetchTimeout   = 60 * time.Second
	defaultFetchRetries   = 3
)

// Load reads configuration from the environment. Unset or unparsable
// values fall back to defaults.
func Load() Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("port", "8090")
	v.SetDefault("worker_count", defaultWorkerCount)
	v.SetDefault("max_queue_size", defaultMaxQueueSize)
	v.SetDefault("max_upload_bytes", defaultMaxUploadBytes)
	v.SetDefault("job_ttl", defaultJobTTL)
	v.SetDefault("pdf_fallback_pdftotext", "true")
	v.SetDefault("db_path", "data/bteparse.db")
	v.SetDefault("fetch_timeout", defaultFetchTimeout)
	v.SetDefault("fetch_min_interval", time.Second)
	v.SetDefault("fetch_max_retries", defaultFetchRetries)
	v.SetDefault("user_agent", "bteparse/1.0")
	v.SetDefault("log_level", "info")

	cfg := Config{
		Port:   v.GetString("port"),
		APIKey: v.GetString("bteparse_api_key"),

		WorkerCount:  v.GetInt("worker_count"),
		MaxQueueSize: v.GetInt("max_queue_size"),

		MaxUploadBytes: v.GetInt64("max_upload_bytes"),

		JobTTL: v.GetDuration("job_ttl"),

		PDFFallbackPdftotext: parseBool(v.GetString("pdf_fallback_pdftotext"), true),

		DBPath: v.GetString("db_path"),

		FetchTimeout:     v.GetDuration("fetch_timeout"),
		FetchMinInterval: v.GetDuration("fetch_min_interval"),
		FetchMaxRetries:  v.GetInt("fetch_max_retries"),
		UserAgent:        v.GetString("user_agent"),

		LogLevel: parseLevel(v.GetString("log_level")),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultWorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = defaultMaxQueueSize
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = defaultJobTTL
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.FetchMinInterval < 0 {
		cfg.FetchMinInterval = 0
	}
	if cfg.FetchMaxRetries <= 0 {
		cfg.FetchMaxRetries = defaultFetchRetries
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("BTEPARSE_API_KEY is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	return nil
}

func parseBool(s string, fallback bool) bool {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}
