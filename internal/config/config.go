// Package config provides configuration management for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings read once at startup
type Config struct {
	Port string
	// SyncInterval is the length of one sync cycle, aligned to the wall clock
	SyncInterval time.Duration
	// BusyFuzz is how far ahead of a boundary a room is shown as about to change
	BusyFuzz time.Duration
	// FetchTimeout bounds a single room's feed request
	FetchTimeout time.Duration
	Location     *time.Location
	Feed         FeedConfig
	RoomsFile    string
	LogLevel     string
	BoardTitle   string
	Redis        RedisConfig
}

// FeedConfig describes where free/busy feeds are fetched from
type FeedConfig struct {
	BaseURL string
	// MailboxFormat turns a room ID into the calendar owner, e.g. "tor-%s@mozilla.com"
	MailboxFormat string
}

// RedisConfig holds Redis/Valkey configuration
type RedisConfig struct {
	Enabled bool
	// URI is prioritized if provided, otherwise individual connection parameters are used
	URI       string
	Host      string
	Port      string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
	// TTL for stored free/busy lists (0 means no expiration)
	FreeBusyTTL time.Duration
}

// Load reads the configuration from environment variables and validates it.
// Every malformed variable is reported in a single error.
func Load() (Config, error) {
	var invalid []string

	interval := getEnvInt("SYNC_INTERVAL_MINUTES", 5, &invalid)
	fuzz := getEnvInt("BUSY_FUZZ_MINUTES", 15, &invalid)
	timeout := getEnvInt("FETCH_TIMEOUT_SECONDS", 30, &invalid)

	if interval <= 0 || interval > 60 {
		invalid = appendOnce(invalid, "SYNC_INTERVAL_MINUTES")
	}
	if fuzz < 0 {
		invalid = appendOnce(invalid, "BUSY_FUZZ_MINUTES")
	}
	if timeout <= 0 {
		invalid = appendOnce(invalid, "FETCH_TIMEOUT_SECONDS")
	}

	port := getEnv("PORT", "5000")
	if p, err := strconv.Atoi(port); err != nil || p <= 0 || p > 65535 {
		invalid = append(invalid, "PORT")
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "America/Toronto"))
	if err != nil {
		invalid = append(invalid, "TIMEZONE")
	}

	redisCfg := redisConfig(&invalid)

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return Config{
		Port:         port,
		SyncInterval: time.Duration(interval) * time.Minute,
		BusyFuzz:     time.Duration(fuzz) * time.Minute,
		FetchTimeout: time.Duration(timeout) * time.Second,
		Location:     loc,
		Feed: FeedConfig{
			BaseURL:       strings.TrimRight(getEnv("FEED_BASE_URL", "https://mail.mozilla.com/home"), "/"),
			MailboxFormat: getEnv("FEED_MAILBOX_FORMAT", "tor-%s@mozilla.com"),
		},
		RoomsFile:  getEnv("ROOMS_FILE", ""),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		BoardTitle: getEnv("BOARD_TITLE", "YYZ Conference Rooms"),
		Redis:      redisCfg,
	}, nil
}

// GetRedisConfig loads Redis/Valkey configuration from environment variables
func GetRedisConfig() (RedisConfig, error) {
	var invalid []string
	cfg := redisConfig(&invalid)
	if len(invalid) > 0 {
		return RedisConfig{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

func redisConfig(invalid *[]string) RedisConfig {
	ttlMinutes := getEnvInt("REDIS_FREEBUSY_TTL_MINUTES", 60, invalid)
	if ttlMinutes < 0 {
		*invalid = appendOnce(*invalid, "REDIS_FREEBUSY_TTL_MINUTES")
	}

	return RedisConfig{
		Enabled:     getEnvBool("REDIS_ENABLED", false, invalid),
		URI:         getEnv("REDIS_URI_ROOMS", ""),
		Host:        getEnv("REDIS_HOST_ROOMS", getEnv("REDIS_ADDRESS", "localhost")),
		Port:        getEnv("REDIS_PORT_ROOMS", "6379"),
		Username:    getEnv("REDIS_USERNAME_ROOMS", ""),
		Password:    getEnv("REDIS_PASSWORD_ROOMS", getEnv("REDIS_PASSWORD", "")),
		DB:          getEnvInt("REDIS_DB", 0, invalid),
		KeyPrefix:   getEnv("REDIS_KEY_PREFIX", "roomstatus:"),
		FreeBusyTTL: time.Duration(ttlMinutes) * time.Minute,
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt parses an integer variable, recording the key in invalid when it is malformed
func getEnvInt(key string, defaultValue int, invalid *[]string) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*invalid = append(*invalid, key)
		return defaultValue
	}
	return n
}

// getEnvBool parses a boolean variable, recording the key in invalid when it is malformed
func getEnvBool(key string, defaultValue bool, invalid *[]string) bool {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		*invalid = append(*invalid, key)
		return defaultValue
	}
	return b
}

func appendOnce(keys []string, key string) []string {
	for _, k := range keys {
		if k == key {
			return keys
		}
	}
	return append(keys, key)
}
