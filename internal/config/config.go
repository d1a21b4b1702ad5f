package config

import (
	"net"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen based on typical Tor network characteristics
// and the reference monitor deployment defaults where applicable.
const (
	// DefaultSocksHost is the standard host for a local Tor SOCKS5 proxy.
	// We use 127.0.0.1 instead of localhost to avoid DNS resolution overhead
	// and potential issues with IPv6 resolution on some systems.
	DefaultSocksHost = "127.0.0.1"

	// DefaultSocksPort is the default SOCKS port of the Tor daemon.
	DefaultSocksPort = 9050

	// DefaultInterval is the pause between poll cycles. Five minutes keeps
	// the history dense enough to catch outages without hammering hidden
	// services that are often slow and resource constrained.
	DefaultInterval = 300 * time.Second

	// DefaultTimeout is set to 45 seconds because Tor connections are
	// inherently slower than clearnet connections due to the multiple relay
	// hops. A shorter timeout would record many false outages for slower
	// hidden services; a much longer one would stall the whole cycle on one
	// dead target.
	DefaultTimeout = 45 * time.Second

	// DefaultTargetsFile is the target list path when none is configured.
	// A relative path keeps ad-hoc runs simple; deployments set an absolute
	// path via MONITOR_TARGETS_FILE or the config file.
	DefaultTargetsFile = "targets.txt"

	// DefaultConcurrency of 1 checks targets strictly one at a time.
	// Sequential checking is the safest default for a shared local Tor
	// daemon; raising it fans fetches out while store writes stay
	// serialized.
	DefaultConcurrency = 1

	// DefaultUserAgent identifies the monitor in HTTP requests.
	// Using a descriptive User-Agent is good practice and allows operators
	// to identify monitor traffic in their logs.
	DefaultUserAgent = "torwatch/1.0 (+https://github.com/nao1215/torwatch)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for most HTML pages while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap. 3 minutes is typically sufficient for most
	// network conditions, but may need to be increased for slow connections.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultFindMirrorsLimit caps how many mirror candidates a single
	// lookup returns. Five is enough to flag a clone cluster without
	// flooding the logs when many targets serve the same parked page.
	DefaultFindMirrorsLimit = 5

	// AppName is the application name used for XDG directory paths.
	AppName = "torwatch"

	// DatabaseFileName is the store file created under the data directory
	// when no explicit path is configured.
	DatabaseFileName = "torwatch.db"
)

// Config holds all configuration options for the monitor.
// This struct is designed to be populated in layers (defaults, config file,
// environment, CLI flags) and passed through the application via dependency
// injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., ProxyConfig, StoreConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// SocksHost is the host of the Tor SOCKS5 proxy. All outbound HTTP
	// goes through this proxy; the monitor never dials targets directly.
	SocksHost string

	// SocksPort is the port of the Tor SOCKS5 proxy.
	SocksPort int

	// Interval is the pause between poll cycles. The target list is
	// re-read at the start of each cycle, so edits take effect without a
	// restart.
	Interval time.Duration

	// TargetsFile is the path of the newline-delimited target list.
	// Blank lines and lines starting with '#' are skipped; everything
	// else is fetched verbatim.
	TargetsFile string

	// DatabasePath is the SQLite store file. The parent directory is
	// created on demand. Defaults to DatabaseFileName under the XDG data
	// directory.
	DatabasePath string

	// FollowRedirects controls the redirect policy for every fetch.
	// When false the first response is recorded as-is, including 3xx
	// status codes, and final_url stays equal to the target.
	FollowRedirects bool

	// Timeout is the per-request limit covering connection, request, and
	// body read. A timed-out fetch is recorded as a failed check like any
	// other transport failure.
	Timeout time.Duration

	// Concurrency is the number of targets checked at the same time
	// within one cycle. 1 means strictly sequential.
	Concurrency int

	// UserAgent is the identifying User-Agent header sent with every
	// request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated, not failed.
	MaxBodySize int64

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only checks, warnings, and errors are logged.
	Verbose bool

	// JSONLog switches log output from text lines to JSON records.
	JSONLog bool

	// UseEmbeddedTor starts an in-process Tor daemon instead of dialing
	// the external proxy at SocksHost:SocksPort.
	//
	// Note: The embedded Tor daemon takes 1-3 minutes to bootstrap and
	// connect to the Tor network on first start.
	UseEmbeddedTor bool

	// TorStartupTimeout is the maximum time to wait for the embedded Tor
	// daemon to bootstrap. Only used when UseEmbeddedTor is true.
	TorStartupTimeout time.Duration

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .torwatch.yaml in the current
	// directory and then in the user's home directory.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, port
// numbers, redirect following). This also serves as documentation of what
// the defaults are.
func NewConfig() *Config {
	return &Config{
		SocksHost:         DefaultSocksHost,
		SocksPort:         DefaultSocksPort,
		Interval:          DefaultInterval,
		TargetsFile:       DefaultTargetsFile,
		DatabasePath:      DefaultDatabasePath(),
		FollowRedirects:   true,
		Timeout:           DefaultTimeout,
		Concurrency:       DefaultConcurrency,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		TorStartupTimeout: DefaultTorStartupTimeout,
	}
}

// ProxyAddress returns the SOCKS proxy endpoint in "host:port" form.
func (c *Config) ProxyAddress() string {
	return net.JoinHostPort(c.SocksHost, strconv.Itoa(c.SocksPort))
}

// XDGDataDir returns the XDG data directory for torwatch.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/torwatch
// On macOS: ~/Library/Application Support/torwatch
// On Windows: %LOCALAPPDATA%\torwatch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for torwatch.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/torwatch
// On macOS: ~/Library/Application Support/torwatch
// On Windows: %APPDATA%\torwatch
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultDatabasePath returns the store file used when no explicit path is
// configured: DatabaseFileName under the XDG data directory.
func DefaultDatabasePath() string {
	return filepath.Join(XDGDataDir(), DatabaseFileName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after the layers are merged, before the loop starts.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.SocksHost == "" {
		return ErrEmptySocksHost
	}

	// Port must be a real TCP port
	if c.SocksPort < 1 || c.SocksPort > 65535 {
		return ErrInvalidSocksPort
	}

	// Interval must be positive; a zero interval would hammer targets
	if c.Interval <= 0 {
		return ErrInvalidInterval
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.TargetsFile == "" {
		return ErrNoTargetsFile
	}

	if c.DatabasePath == "" {
		return ErrNoDatabasePath
	}

	// Concurrency must be positive; zero would mean no checking at all
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.UserAgent == "" {
		return ErrEmptyUserAgent
	}

	// MaxBodySize must be non-negative; 0 keeps the default at the fetcher
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}
