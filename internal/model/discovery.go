package model

import "time"

// Discovery is one row of the passive discovery ledger: a v3 onion URL
// seen in a page fetched from a monitored target.
//
// The ledger is keyed by the (SourceURL, DiscoveredURL) pair. Seeing the
// same URL on the same source again is not a new fact, so repeat inserts
// are no-ops; seeing it on a different source is a separate row.
type Discovery struct {
	// ID is the autoincrement row id assigned by the store.
	ID int64 `json:"id"`

	// DiscoveredAt is the UTC time of the check that first surfaced the
	// pair.
	DiscoveredAt time.Time `json:"discovered_at"`

	// SourceURL is the monitored target whose page mentioned the address.
	// This is the configured target URL, not the post-redirect final URL.
	SourceURL string `json:"source_url"`

	// DiscoveredURL is the canonical form of the found address:
	// "http://<56-char-v3-host>.onion/" with a lowercase hostname.
	DiscoveredURL string `json:"discovered_url"`
}
