package model

import "time"

// TargetSummary aggregates the check ledger for one target. It is a
// read-side view computed by the store; nothing is persisted.
type TargetSummary struct {
	// TargetURL is the monitored target.
	TargetURL string `json:"target_url"`

	// Checks is the total number of recorded checks for the target.
	Checks int `json:"checks"`

	// Succeeded is the number of checks that received an HTTP response.
	Succeeded int `json:"succeeded"`

	// LastChecked is the checked_at of the most recent check.
	LastChecked time.Time `json:"last_checked"`
}

// Failed returns the number of checks that ended in transport failure.
func (s *TargetSummary) Failed() int {
	return s.Checks - s.Succeeded
}

// SuccessRate returns the fraction of checks that received a response,
// in [0, 1]. Zero when the target has no checks yet.
func (s *TargetSummary) SuccessRate() float64 {
	if s.Checks == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Checks)
}

// MirrorSet is the result of a mirror lookup: other targets whose most
// recent checks share one content fingerprint.
type MirrorSet struct {
	// TargetURL is the target the lookup was anchored on and excluded
	// from the matches.
	TargetURL string `json:"target_url"`

	// ContentSig is the shared fingerprint.
	ContentSig string `json:"content_sig"`

	// Matches are the other targets that served the same fingerprint,
	// most recently checked first.
	Matches []string `json:"matches"`
}

// History is the payload rendered by the report writers and the JSON
// output of the query commands. Writers render whichever sections are
// populated and skip the rest.
type History struct {
	// GeneratedAt is the UTC time the queries ran.
	GeneratedAt time.Time `json:"generated_at"`

	// Summaries holds per-target aggregates, one per known target.
	Summaries []TargetSummary `json:"summaries,omitempty"`

	// Checks holds individual ledger rows, most recent first.
	Checks []CheckRecord `json:"checks,omitempty"`

	// Discoveries holds discovery ledger rows, most recent first.
	Discoveries []Discovery `json:"discoveries,omitempty"`

	// Mirrors holds the result of a mirror lookup, when one was asked for.
	Mirrors *MirrorSet `json:"mirrors,omitempty"`

	// VerifiedOnions maps discovered URLs to their v3 checksum validity,
	// populated only by the verify option of the discoveries command.
	VerifiedOnions map[string]bool `json:"verified_onions,omitempty"`
}
