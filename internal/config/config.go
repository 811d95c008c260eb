package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port         string
	DatabasePath string // SQLite file for the conversation sink
	RedisURL     string // optional: alert publishing disabled when empty
	PatternsPath string // optional: YAML pattern registry overriding built-ins

	// Classification
	ClassificationThreshold float64 // minimum score to accept a pattern match
	RoutingThreshold        float64 // minimum confidence for capability routing
	DefaultLanguage         string  // translation target when none is spoken
	ClassifierHistoryCap    int

	// Remote classification (optional)
	RemoteClassifierURL string
	RemoteCacheTTL      time.Duration
	RemoteRatePerSecond float64

	// Pipeline
	CapabilityTimeout time.Duration
	HistoryCap        int

	// Metrics & alerting
	SnapshotInterval       time.Duration
	SampleCap              int
	SnapshotWindow         int
	SnapshotHistoryCap     int
	AlertCap               int
	SlowThreshold          time.Duration
	SuccessRateWindow      int
	LowSuccessRate         float64
	CapabilityLatencyLimit time.Duration
	FallbackLatencyLimit   time.Duration
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "3100"),
		DatabasePath: getEnv("DATABASE_PATH", "data/conversations.db"),
		RedisURL:     getEnv("REDIS_URL", ""),
		PatternsPath: getEnv("PATTERNS_PATH", ""),

		ClassificationThreshold: getFloatEnv("CLASSIFICATION_THRESHOLD", 0.7),
		RoutingThreshold:        getFloatEnv("ROUTING_THRESHOLD", 0.6),
		DefaultLanguage:         getEnv("DEFAULT_LANGUAGE", "spanish"),
		ClassifierHistoryCap:    getIntEnv("CLASSIFIER_HISTORY_CAP", 100),

		RemoteClassifierURL: getEnv("REMOTE_CLASSIFIER_URL", ""),
		RemoteCacheTTL:      getDurationEnv("REMOTE_CACHE_TTL", 5*time.Minute),
		RemoteRatePerSecond: getFloatEnv("REMOTE_RATE_PER_SECOND", 5),

		CapabilityTimeout: getDurationEnv("CAPABILITY_TIMEOUT", 10*time.Second),
		HistoryCap:        getIntEnv("HISTORY_CAP", 100),

		SnapshotInterval:       getDurationEnv("SNAPSHOT_INTERVAL", 10*time.Second),
		SampleCap:              getIntEnv("SAMPLE_CAP", 1000),
		SnapshotWindow:         getIntEnv("SNAPSHOT_WINDOW", 100),
		SnapshotHistoryCap:     getIntEnv("SNAPSHOT_HISTORY_CAP", 288),
		AlertCap:               getIntEnv("ALERT_CAP", 50),
		SlowThreshold:          getDurationEnv("SLOW_THRESHOLD", 5*time.Second),
		SuccessRateWindow:      getIntEnv("SUCCESS_RATE_WINDOW", 20),
		LowSuccessRate:         getFloatEnv("LOW_SUCCESS_RATE", 0.8),
		CapabilityLatencyLimit: getDurationEnv("CAPABILITY_LATENCY_LIMIT", 5*time.Second),
		FallbackLatencyLimit:   getDurationEnv("FALLBACK_LATENCY_LIMIT", 3*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
