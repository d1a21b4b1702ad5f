package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// This test ensures that defaults are documented through tests and that changes
// to defaults are intentional (tests will fail if defaults change unexpectedly).
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	// Verify each default value explicitly
	// This serves as living documentation of the defaults
	t.Run("default proxy endpoint is 127.0.0.1:9050", func(t *testing.T) {
		t.Parallel()
		if cfg.ProxyAddress() != "127.0.0.1:9050" {
			t.Errorf("expected ProxyAddress() to be '127.0.0.1:9050', got '%s'", cfg.ProxyAddress())
		}
	})

	t.Run("default Interval is 300 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Interval != 300*time.Second {
			t.Errorf("expected Interval to be 300s, got %v", cfg.Interval)
		}
	})

	t.Run("default Timeout is 45 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 45*time.Second {
			t.Errorf("expected Timeout to be 45s, got %v", cfg.Timeout)
		}
	})

	t.Run("default TargetsFile is targets.txt", func(t *testing.T) {
		t.Parallel()
		if cfg.TargetsFile != "targets.txt" {
			t.Errorf("expected TargetsFile to be 'targets.txt', got '%s'", cfg.TargetsFile)
		}
	})

	t.Run("default DatabasePath is under the XDG data dir", func(t *testing.T) {
		t.Parallel()
		expected := filepath.Join(XDGDataDir(), DatabaseFileName)
		if cfg.DatabasePath != expected {
			t.Errorf("expected DatabasePath to be '%s', got '%s'", expected, cfg.DatabasePath)
		}
	})

	t.Run("default FollowRedirects is true", func(t *testing.T) {
		t.Parallel()
		if !cfg.FollowRedirects {
			t.Error("expected FollowRedirects to be true")
		}
	})

	t.Run("default Concurrency is 1", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != 1 {
			t.Errorf("expected Concurrency to be 1, got %d", cfg.Concurrency)
		}
	})

	t.Run("default UseEmbeddedTor is false", func(t *testing.T) {
		t.Parallel()
		if cfg.UseEmbeddedTor {
			t.Error("expected UseEmbeddedTor to be false")
		}
	})

	t.Run("default TorStartupTimeout is 3 minutes", func(t *testing.T) {
		t.Parallel()
		if cfg.TorStartupTimeout != 3*time.Minute {
			t.Errorf("expected TorStartupTimeout to be 3m, got %v", cfg.TorStartupTimeout)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		mutate   func(*Config)
		expected error
	}{
		{
			name:     "default config is valid",
			mutate:   func(*Config) {},
			expected: nil,
		},
		{
			name:     "empty SOCKS host",
			mutate:   func(c *Config) { c.SocksHost = "" },
			expected: ErrEmptySocksHost,
		},
		{
			name:     "zero SOCKS port",
			mutate:   func(c *Config) { c.SocksPort = 0 },
			expected: ErrInvalidSocksPort,
		},
		{
			name:     "SOCKS port above range",
			mutate:   func(c *Config) { c.SocksPort = 70000 },
			expected: ErrInvalidSocksPort,
		},
		{
			name:     "zero interval",
			mutate:   func(c *Config) { c.Interval = 0 },
			expected: ErrInvalidInterval,
		},
		{
			name:     "negative interval",
			mutate:   func(c *Config) { c.Interval = -time.Second },
			expected: ErrInvalidInterval,
		},
		{
			name:     "zero timeout",
			mutate:   func(c *Config) { c.Timeout = 0 },
			expected: ErrInvalidTimeout,
		},
		{
			name:     "empty targets file",
			mutate:   func(c *Config) { c.TargetsFile = "" },
			expected: ErrNoTargetsFile,
		},
		{
			name:     "empty database path",
			mutate:   func(c *Config) { c.DatabasePath = "" },
			expected: ErrNoDatabasePath,
		},
		{
			name:     "zero concurrency",
			mutate:   func(c *Config) { c.Concurrency = 0 },
			expected: ErrInvalidConcurrency,
		},
		{
			name:     "empty user agent",
			mutate:   func(c *Config) { c.UserAgent = "" },
			expected: ErrEmptyUserAgent,
		},
		{
			name:     "negative max body size",
			mutate:   func(c *Config) { c.MaxBodySize = -1 },
			expected: ErrInvalidMaxBodySize,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.expected == nil {
				if err != nil {
					t.Errorf("Validate() = %v, expected nil", err)
				}
				return
			}
			if !errors.Is(err, tc.expected) {
				t.Errorf("Validate() = %v, expected %v", err, tc.expected)
			}
		})
	}
}

// TestProxyAddress tests host:port joining, including IPv6 hosts.
func TestProxyAddress(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		host     string
		port     int
		expected string
	}{
		{"IPv4 host", "127.0.0.1", 9050, "127.0.0.1:9050"},
		{"hostname", "tor", 9150, "tor:9150"},
		{"IPv6 host is bracketed", "::1", 9050, "[::1]:9050"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := Config{SocksHost: tc.host, SocksPort: tc.port}
			if got := cfg.ProxyAddress(); got != tc.expected {
				t.Errorf("ProxyAddress() = %q, expected %q", got, tc.expected)
			}
		})
	}
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	t.Run("data dir ends with app name", func(t *testing.T) {
		t.Parallel()
		if filepath.Base(XDGDataDir()) != AppName {
			t.Errorf("XDGDataDir() = %q, expected to end with %q", XDGDataDir(), AppName)
		}
	})

	t.Run("config dir ends with app name", func(t *testing.T) {
		t.Parallel()
		if filepath.Base(XDGConfigDir()) != AppName {
			t.Errorf("XDGConfigDir() = %q, expected to end with %q", XDGConfigDir(), AppName)
		}
	})

	t.Run("default database path is inside the data dir", func(t *testing.T) {
		t.Parallel()
		if filepath.Dir(DefaultDatabasePath()) != XDGDataDir() {
			t.Errorf("DefaultDatabasePath() = %q, expected inside %q", DefaultDatabasePath(), XDGDataDir())
		}
	})
}
