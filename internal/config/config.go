package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_URL is required.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Push dispatch schedule. The cron expression is evaluated once at startup
	// and collapsed into a fixed-rate interval; DispatchFallbackInterval is
	// used when the expression does not parse.
	DispatchCron             string
	DispatchFallbackInterval time.Duration

	// Job identity under which the dispatch job is installed. Activation
	// removes any job already registered under the same group+name, so all
	// cluster nodes booting with the same identity end up with one trigger.
	DispatchJobGroup string
	DispatchJobName  string

	// Ceiling for both the per-run drain batch and the worker pool.
	DispatchPoolSize int

	// Upper bound on the per-slot wait while draining a momentarily empty queue.
	DrainSlotWait time.Duration

	// Outbound callback delivery
	CallbackTimeout time.Duration
	SendRateLimit   int

	// Polling
	DefaultMaxEvents int
}

func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		DispatchCron:             getEnv("DISPATCH_CRON", "0 * * * * *"),
		DispatchFallbackInterval: getDuration("DISPATCH_FALLBACK_INTERVAL", 60*time.Second),
		DispatchJobGroup:         getEnv("DISPATCH_JOB_GROUP", "event-notifications"),
		DispatchJobName:          getEnv("DISPATCH_JOB_NAME", "realtime-dispatch"),
		DispatchPoolSize:         getInt("DISPATCH_POOL_SIZE", 20),
		DrainSlotWait:            getDuration("DRAIN_SLOT_WAIT", 100*time.Millisecond),

		CallbackTimeout: getDuration("CALLBACK_TIMEOUT", 10*time.Second),
		SendRateLimit:   getInt("SEND_RATE_LIMIT", 100),

		DefaultMaxEvents: getInt("DEFAULT_MAX_EVENTS", 5),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
