package model

import (
	"errors"
	"time"
)

// Check record validation errors.
// These errors are returned by CheckRecord.Validate() before a row is
// persisted, so that an invalid observation never reaches the ledger.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrEmptyTargetURL is returned when a check record has no target URL.
	// Every check observes exactly one configured target.
	ErrEmptyTargetURL = errors.New("check record has no target URL")

	// ErrZeroCheckTime is returned when checked_at was never stamped.
	// The ledger orders and correlates observations by this timestamp.
	ErrZeroCheckTime = errors.New("check record has no checked_at timestamp")

	// ErrMissingStatusCode is returned when a successful check carries no
	// HTTP status code. Success means an HTTP response was received, so a
	// status code must exist (non-2xx codes are still successes).
	ErrMissingStatusCode = errors.New("successful check must carry a status code")

	// ErrMissingFailureReason is returned when a failed check carries no
	// error description. A bare failure row would be useless for operators.
	ErrMissingFailureReason = errors.New("failed check must carry an error description")

	// ErrFailureWithResponse is returned when a failed check carries
	// response-derived fields. A transport failure yields no response, so
	// status code, final URL, fingerprint, and title must all be absent.
	ErrFailureWithResponse = errors.New("failed check must not carry response fields")
)

// CheckRecord is one row of the append-only uptime ledger: a single
// observation of a single target at a single point in time.
//
// Exactly one of two shapes is valid:
//   - success: OK is true, StatusCode is set, Error is nil;
//   - failure: OK is false, Error is set, and StatusCode, FinalURL,
//     ContentSig, and Title are all nil.
//
// Design decision: Optional columns are pointers rather than zero values
// because the distinction matters downstream. A failed check must persist
// NULL fingerprints, not "", or two dead mirrors would correlate with each
// other on the empty string.
type CheckRecord struct {
	// ID is the autoincrement row id assigned by the store.
	ID int64 `json:"id"`

	// CheckedAt is the UTC time stamped immediately before the fetch.
	CheckedAt time.Time `json:"checked_at"`

	// TargetURL is the configured target exactly as read from the target
	// list. It is never rewritten, even when the fetch was redirected.
	TargetURL string `json:"target_url"`

	// FinalURL is the URL that produced the recorded response, after any
	// followed redirects. Nil on failure. Equal to TargetURL when no
	// redirect happened or redirect following is disabled.
	FinalURL *string `json:"final_url,omitempty"`

	// StatusCode is the HTTP status of the recorded response. Any code is
	// a success; nil only on transport failure.
	StatusCode *int `json:"status_code,omitempty"`

	// OK reports whether an HTTP response was received at all.
	OK bool `json:"ok"`

	// Error is a human-readable description of the transport failure.
	// Nil on success.
	Error *string `json:"error,omitempty"`

	// ContentSig is the SHA-256 fingerprint of the normalized visible
	// text, hex encoded. Nil on failure and when the page had no visible
	// text at all.
	ContentSig *string `json:"content_sig,omitempty"`

	// Title is the trimmed text of the first <title> element. Nil on
	// failure and when the page had no title.
	Title *string `json:"title,omitempty"`
}

// Validate reports whether the record is one of the two valid shapes.
// The store calls this before every insert.
func (r *CheckRecord) Validate() error {
	if r.TargetURL == "" {
		return ErrEmptyTargetURL
	}
	if r.CheckedAt.IsZero() {
		return ErrZeroCheckTime
	}

	if r.OK {
		if r.StatusCode == nil {
			return ErrMissingStatusCode
		}
		return nil
	}

	if r.Error == nil || *r.Error == "" {
		return ErrMissingFailureReason
	}
	if r.StatusCode != nil || r.FinalURL != nil || r.ContentSig != nil || r.Title != nil {
		return ErrFailureWithResponse
	}
	return nil
}

// Redirected reports whether the check followed a redirect away from the
// configured target URL.
func (r *CheckRecord) Redirected() bool {
	return r.OK && r.FinalURL != nil && *r.FinalURL != r.TargetURL
}
