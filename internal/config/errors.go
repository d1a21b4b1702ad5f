package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrEmptySocksHost is returned when the SOCKS proxy host is empty.
	// The monitor refuses to run without a proxy; it never dials targets
	// directly.
	ErrEmptySocksHost = errors.New("no SOCKS proxy host: the monitor only fetches through a proxy")

	// ErrInvalidSocksPort is returned when the SOCKS proxy port is outside
	// the valid TCP port range.
	ErrInvalidSocksPort = errors.New("invalid SOCKS proxy port: must be in 1-65535")

	// ErrInvalidInterval is returned when the poll interval is not positive.
	// A zero or negative interval would loop without pause.
	ErrInvalidInterval = errors.New("invalid poll interval: must be positive")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	// A timeout of zero or negative would cause immediate connection failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrNoTargetsFile is returned when no target list path is configured.
	ErrNoTargetsFile = errors.New("no targets file: provide a newline-delimited target list path")

	// ErrNoDatabasePath is returned when no store path is configured.
	// Persisting observations is the entire point of the monitor.
	ErrNoDatabasePath = errors.New("no database path: the monitor needs somewhere to record checks")

	// ErrInvalidConcurrency is returned when the per-cycle concurrency is
	// not positive. A concurrency of zero would mean no targets are ever
	// checked.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrEmptyUserAgent is returned when the User-Agent is cleared.
	// The monitor always identifies itself to the services it observes.
	ErrEmptyUserAgent = errors.New("empty user agent: the monitor must identify itself")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
