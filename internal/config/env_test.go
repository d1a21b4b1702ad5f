package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestApplyEnv tests the environment overlay. These subtests use t.Setenv
// and therefore must not run in parallel.
func TestApplyEnv(t *testing.T) {
	t.Run("unset environment leaves defaults untouched", func(t *testing.T) {
		cfg := NewConfig()
		if err := ApplyEnv(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.ProxyAddress() != "127.0.0.1:9050" {
			t.Errorf("ProxyAddress() = %s, expected default", cfg.ProxyAddress())
		}
		if cfg.Interval != DefaultInterval {
			t.Errorf("Interval = %v, expected default", cfg.Interval)
		}
	})

	t.Run("set variables override defaults", func(t *testing.T) {
		t.Setenv(EnvSocksHost, "tor")
		t.Setenv(EnvSocksPort, "9150")
		t.Setenv(EnvInterval, "60")
		t.Setenv(EnvTargetsFile, "/app/targets.txt")
		t.Setenv(EnvDatabasePath, "/data/monitor.db")
		t.Setenv(EnvFollowRedirects, "no")
		t.Setenv(EnvTimeout, "10")
		t.Setenv(EnvConcurrency, "4")
		t.Setenv(EnvUserAgent, "probe/1.0")

		cfg := NewConfig()
		if err := ApplyEnv(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.ProxyAddress() != "tor:9150" {
			t.Errorf("ProxyAddress() = %s, expected tor:9150", cfg.ProxyAddress())
		}
		if cfg.Interval != 60*time.Second {
			t.Errorf("Interval = %v, expected 60s", cfg.Interval)
		}
		if cfg.TargetsFile != "/app/targets.txt" {
			t.Errorf("TargetsFile = %s, expected /app/targets.txt", cfg.TargetsFile)
		}
		if cfg.DatabasePath != "/data/monitor.db" {
			t.Errorf("DatabasePath = %s, expected /data/monitor.db", cfg.DatabasePath)
		}
		if cfg.FollowRedirects {
			t.Error("expected FollowRedirects to be false")
		}
		if cfg.Timeout != 10*time.Second {
			t.Errorf("Timeout = %v, expected 10s", cfg.Timeout)
		}
		if cfg.Concurrency != 4 {
			t.Errorf("Concurrency = %d, expected 4", cfg.Concurrency)
		}
		if cfg.UserAgent != "probe/1.0" {
			t.Errorf("UserAgent = %s, expected probe/1.0", cfg.UserAgent)
		}
	})

	t.Run("surrounding whitespace is trimmed", func(t *testing.T) {
		t.Setenv(EnvSocksPort, " 9050 ")
		t.Setenv(EnvTargetsFile, " /app/targets.txt ")

		cfg := NewConfig()
		if err := ApplyEnv(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.SocksPort != 9050 {
			t.Errorf("SocksPort = %d, expected 9050", cfg.SocksPort)
		}
		if cfg.TargetsFile != "/app/targets.txt" {
			t.Errorf("TargetsFile = %q, expected trimmed path", cfg.TargetsFile)
		}
	})

	t.Run("unparsable port is an error", func(t *testing.T) {
		t.Setenv(EnvSocksPort, "ninety-fifty")

		if err := ApplyEnv(NewConfig()); err == nil {
			t.Error("expected error for unparsable port")
		}
	})

	t.Run("duration syntax in the seconds variable is an error", func(t *testing.T) {
		t.Setenv(EnvInterval, "5m")

		if err := ApplyEnv(NewConfig()); err == nil {
			t.Error("expected error for non-integer interval")
		}
	})

	t.Run("unrecognized boolean is an error", func(t *testing.T) {
		t.Setenv(EnvFollowRedirects, "maybe")

		if err := ApplyEnv(NewConfig()); err == nil {
			t.Error("expected error for unrecognized boolean")
		}
	})
}

// TestParseBool tests the accepted boolean spellings.
func TestParseBool(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected bool
		wantErr  bool
	}{
		{"1", true, false},
		{"true", true, false},
		{"TRUE", true, false},
		{"Yes", true, false},
		{"on", true, false},
		{" t ", true, false},
		{"0", false, false},
		{"false", false, false},
		{"No", false, false},
		{"OFF", false, false},
		{"f", false, false},
		{"maybe", false, true},
		{"", false, true},
		{"2", false, true},
	}

	for _, tc := range testCases {
		t.Run("input "+tc.input, func(t *testing.T) {
			t.Parallel()

			got, err := parseBool(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Errorf("parseBool(%q) expected error, got %v", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseBool(%q) unexpected error: %v", tc.input, err)
			}
			if got != tc.expected {
				t.Errorf("parseBool(%q) = %v, expected %v", tc.input, got, tc.expected)
			}
		})
	}
}

// TestLoadEnvFile tests dotenv loading behavior.
func TestLoadEnvFile(t *testing.T) {
	t.Run("missing default file is not an error", func(t *testing.T) {
		t.Chdir(t.TempDir())

		if err := LoadEnvFile(""); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		if err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err == nil {
			t.Error("expected error for missing explicit env file")
		}
	})

	t.Run("explicit file populates the environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "monitor.env")
		if err := os.WriteFile(path, []byte(EnvSocksHost+"=envfile-host\n"), 0o600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		// t.Setenv records the original value for restore; unset so the
		// dotenv value is observable (dotenv never overrides live env).
		t.Setenv(EnvSocksHost, "")
		os.Unsetenv(EnvSocksHost)

		if err := LoadEnvFile(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := os.Getenv(EnvSocksHost); got != "envfile-host" {
			t.Errorf("%s = %q, expected envfile-host", EnvSocksHost, got)
		}
	})
}
