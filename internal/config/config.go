package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Audit sink names accepted in AUDIT_SINKS.
const (
	SinkJSONL  = "jsonl"
	SinkSQLite = "sqlite"
	SinkAMQP   = "amqp"
)

var validSinks = []string{SinkJSONL, SinkSQLite, SinkAMQP}

type Config struct {
	// HTTP Server
	Port            string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Audit
	AuditSinks   []string
	AuditLogPath string
	SQLitePath   string

	// AMQP
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Inbox watcher
	WatchDir    string
	WatchSettle time.Duration

	// Scoring
	ScorerUnclamped bool
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		MaxUploadBytes:  getEnvInt64("MAX_UPLOAD_BYTES", 32<<20),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		AuditSinks:   getEnvList("AUDIT_SINKS", []string{SinkJSONL}),
		AuditLogPath: getEnv("AUDIT_LOG_PATH", "audit.json"),
		SQLitePath:   getEnv("SQLITE_PATH", "sarlens.db"),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "sar.audit"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "audit.record"),

		WatchDir:    getEnv("WATCH_DIR", ""),
		WatchSettle: getEnvDuration("WATCH_SETTLE", 500*time.Millisecond),

		ScorerUnclamped: getEnvBool("SCORER_UNCLAMPED", false),
	}
}

// HasSink reports whether name is among the configured audit sinks.
func (c *Config) HasSink(name string) bool {
	for _, s := range c.AuditSinks {
		if s == name {
			return true
		}
	}
	return false
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if c.MaxUploadBytes < 1 {
		errors = append(errors, fmt.Sprintf("invalid max upload size %d: must be positive", c.MaxUploadBytes))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	for _, s := range c.AuditSinks {
		if !contains(validSinks, s) {
			errors = append(errors, fmt.Sprintf("invalid audit sink '%s': must be one of %v", s, validSinks))
		}
	}

	if c.HasSink(SinkJSONL) && c.AuditLogPath == "" {
		errors = append(errors, "audit log path cannot be empty when using the jsonl sink")
	}

	if c.HasSink(SinkSQLite) && c.SQLitePath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using the sqlite sink")
	}

	if c.HasSink(SinkAMQP) {
		if c.AMQPURL == "" {
			errors = append(errors, "AMQP_URL is required when using the amqp sink")
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when using the amqp sink")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
	}

	if c.WatchDir != "" && c.WatchSettle < 10*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid watch settle delay %v: must be at least 10ms", c.WatchSettle))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value. "none" yields an empty list.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if strings.EqualFold(strings.TrimSpace(value), "none") {
		return []string{}
	}
	var list []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(strings.ToLower(part)); part != "" && !contains(list, part) {
			list = append(list, part)
		}
	}
	return list
}
