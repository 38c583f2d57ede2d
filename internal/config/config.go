// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Scheduler settings.
	CronExpression string        // Five-field cron expression for scheduled pipeline runs.
	Timezone       string        // IANA timezone name the cron expression is evaluated in.
	RunOnStart     bool          // Trigger one pipeline run immediately on startup.
	MaxRetries     int           // Retries per pipeline stage after the first attempt.
	RetryDelay     time.Duration // Delay between stage retry attempts.

	// Pipeline directories.
	CollectorOutputDir string // Directory the collector writes raw JSON output files to.
	StorageDir         string // Warehouse directory for the columnar store.
	ExportDir          string // Root directory for dataset exports.
	ReportDir          string // Directory for generated Markdown reports.
	BenchmarkFile      string // Path to the benchmark query set JSON file.

	// Audit settings.
	AuditSamplePercent int // Percentage of annotated results sampled for manual audit.

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel        string
	ShutdownTimeout time.Duration // How long Shutdown waits for an in-flight run to finish.
}

// Load reads configuration from environment variables with sensible defaults.
// Out-of-range numeric values are clamped rather than rejected.
func Load() (Config, error) {
	cfg := Config{
		CronExpression:     envStr("SCHEDULER_CRON_EXPRESSION", "0 * * * *"),
		Timezone:           envStr("SCHEDULER_TIMEZONE", "UTC"),
		RunOnStart:         envBool("SCHEDULER_RUN_ON_START", true),
		MaxRetries:         clampInt(envInt("SCHEDULER_MAX_RETRIES", 3), 0, 10),
		RetryDelay:         time.Duration(clampInt(envInt("SCHEDULER_RETRY_DELAY_MS", 10000), 1000, 600000)) * time.Millisecond,
		CollectorOutputDir: envStr("COLLECTOR_OUTPUT_DIR", "data/serp"),
		StorageDir:         envStr("TRUTHLAYER_STORAGE_DIR", "data/warehouse"),
		ExportDir:          envStr("TRUTHLAYER_EXPORT_DIR", "data/exports"),
		ReportDir:          envStr("TRUTHLAYER_REPORT_DIR", "reports"),
		BenchmarkFile:      envStr("TRUTHLAYER_BENCHMARK_FILE", "config/benchmark-queries.json"),
		AuditSamplePercent: clampInt(envInt("SCHEDULER_MANUAL_AUDIT_SAMPLE_PERCENT", 5), 1, 100),
		OTELEndpoint:       envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:       envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:        envStr("OTEL_SERVICE_NAME", "truthlayer"),
		LogLevel:           envStr("TRUTHLAYER_LOG_LEVEL", "info"),
		ShutdownTimeout:    envDuration("TRUTHLAYER_SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present and parseable.
func (c Config) Validate() error {
	if c.CronExpression == "" {
		return fmt.Errorf("config: SCHEDULER_CRON_EXPRESSION is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: SCHEDULER_TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.CollectorOutputDir == "" {
		return fmt.Errorf("config: COLLECTOR_OUTPUT_DIR is required")
	}
	if c.StorageDir == "" {
		return fmt.Errorf("config: TRUTHLAYER_STORAGE_DIR is required")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("config: TRUTHLAYER_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// Location resolves the configured scheduler timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: SCHEDULER_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
