package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names understood by ApplyEnv. The names follow the
// reference deployment so an existing docker-compose environment keeps
// working unchanged.
const (
	// EnvSocksHost overrides the SOCKS proxy host.
	EnvSocksHost = "TOR_SOCKS_HOST"

	// EnvSocksPort overrides the SOCKS proxy port.
	EnvSocksPort = "TOR_SOCKS_PORT"

	// EnvInterval overrides the poll interval, in whole seconds.
	EnvInterval = "MONITOR_INTERVAL_SECONDS"

	// EnvTargetsFile overrides the target list path.
	EnvTargetsFile = "MONITOR_TARGETS_FILE"

	// EnvDatabasePath overrides the store file path.
	EnvDatabasePath = "MONITOR_DB_PATH"

	// EnvFollowRedirects overrides the redirect policy.
	EnvFollowRedirects = "MONITOR_FOLLOW_REDIRECTS"

	// EnvTimeout overrides the per-request timeout, in whole seconds.
	EnvTimeout = "MONITOR_TIMEOUT_SECONDS"

	// EnvConcurrency overrides the per-cycle concurrency.
	EnvConcurrency = "MONITOR_CONCURRENCY"

	// EnvUserAgent overrides the identifying User-Agent header.
	EnvUserAgent = "MONITOR_USER_AGENT"
)

// DefaultEnvFile is the dotenv file loaded when it exists next to the
// working directory. Values from the file never override variables already
// present in the process environment.
const DefaultEnvFile = ".env"

// LoadEnvFile loads environment variables from a dotenv file.
// With an empty path the default .env file is loaded when present and
// silently skipped when absent; an explicit path must exist.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			return nil
		}
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto the config. Unset variables
// leave the current values untouched; a set but unparsable value is a
// configuration error rather than something to guess about.
func ApplyEnv(c *Config) error {
	if v, ok := os.LookupEnv(EnvSocksHost); ok {
		c.SocksHost = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvSocksPort); ok {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSocksPort, err)
		}
		c.SocksPort = port
	}
	if v, ok := os.LookupEnv(EnvInterval); ok {
		secs, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvInterval, err)
		}
		c.Interval = time.Duration(secs) * time.Second
	}
	if v, ok := os.LookupEnv(EnvTargetsFile); ok {
		c.TargetsFile = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvDatabasePath); ok {
		c.DatabasePath = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvFollowRedirects); ok {
		follow, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvFollowRedirects, err)
		}
		c.FollowRedirects = follow
	}
	if v, ok := os.LookupEnv(EnvTimeout); ok {
		secs, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		c.Timeout = time.Duration(secs) * time.Second
	}
	if v, ok := os.LookupEnv(EnvConcurrency); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvConcurrency, err)
		}
		c.Concurrency = n
	}
	if v, ok := os.LookupEnv(EnvUserAgent); ok {
		c.UserAgent = strings.TrimSpace(v)
	}
	return nil
}

// parseBool accepts the spellings common in container environments.
// It is deliberately wider than strconv.ParseBool ("yes"/"no", "on"/"off")
// and deliberately strict about everything else.
func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "yes", "on":
		return true, nil
	case "0", "f", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("unrecognized boolean value %q", v)
	}
}
