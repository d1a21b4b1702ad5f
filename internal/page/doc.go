// Package page parses fetched HTML into the monitor's view of a page:
// its title, its visible text, and the onion addresses it mentions.
//
// The visible text feeds content fingerprinting. Fingerprints are
// SHA-256 over normalized text (whitespace collapsed, case folded), so
// markup reshuffles and reformatting do not register as content changes
// while real edits do. Matching fingerprints across different targets
// are how mirrors are detected, which is why normalization lives here
// in one place.
//
// Discovery is deliberately shape-only. An address seen in the wild is
// a lead worth recording even when its checksum is broken; verification
// is a separate, on-demand step.
package page
