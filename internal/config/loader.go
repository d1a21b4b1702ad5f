package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".torwatch.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .torwatch.yaml configuration file.
// All fields are optional; zero values mean "not set" and leave the
// corresponding Config value untouched. Durations are strings in Go
// duration syntax ("45s", "5m").
type File struct {
	// SocksHost is the Tor SOCKS5 proxy host.
	SocksHost string `yaml:"socksHost,omitempty"`

	// SocksPort is the Tor SOCKS5 proxy port.
	SocksPort int `yaml:"socksPort,omitempty"`

	// Interval is the pause between poll cycles, e.g. "5m".
	Interval string `yaml:"interval,omitempty"`

	// Targets is the newline-delimited target list path.
	Targets string `yaml:"targets,omitempty"`

	// Database is the SQLite store file path.
	Database string `yaml:"database,omitempty"`

	// FollowRedirects controls the redirect policy. A pointer so that an
	// absent key is distinguishable from an explicit "false".
	FollowRedirects *bool `yaml:"followRedirects,omitempty"`

	// Timeout is the per-request limit, e.g. "45s".
	Timeout string `yaml:"timeout,omitempty"`

	// Concurrency is the number of targets checked at the same time.
	Concurrency int `yaml:"concurrency,omitempty"`

	// UserAgent is the identifying User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// EmbeddedTor starts an in-process Tor daemon instead of using the
	// external proxy.
	EmbeddedTor *bool `yaml:"embeddedTor,omitempty"`
}

// LoadConfigFile loads monitor settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cf, nil
}

// Apply overlays the file's set values onto the config. Unset fields leave
// the current values untouched. Malformed durations are configuration
// errors.
func (cf *File) Apply(c *Config) error {
	if cf.SocksHost != "" {
		c.SocksHost = cf.SocksHost
	}
	if cf.SocksPort != 0 {
		c.SocksPort = cf.SocksPort
	}
	if cf.Interval != "" {
		d, err := time.ParseDuration(cf.Interval)
		if err != nil {
			return fmt.Errorf("invalid interval in config file: %w", err)
		}
		c.Interval = d
	}
	if cf.Targets != "" {
		c.TargetsFile = cf.Targets
	}
	if cf.Database != "" {
		c.DatabasePath = cf.Database
	}
	if cf.FollowRedirects != nil {
		c.FollowRedirects = *cf.FollowRedirects
	}
	if cf.Timeout != "" {
		d, err := time.ParseDuration(cf.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout in config file: %w", err)
		}
		c.Timeout = d
	}
	if cf.Concurrency != 0 {
		c.Concurrency = cf.Concurrency
	}
	if cf.UserAgent != "" {
		c.UserAgent = cf.UserAgent
	}
	if cf.EmbeddedTor != nil {
		c.UseEmbeddedTor = *cf.EmbeddedTor
	}
	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .torwatch.yaml in the current directory
// 3. Look for .torwatch.yaml in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
