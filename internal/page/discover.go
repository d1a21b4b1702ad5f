package page

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/nao1215/torwatch/internal/tor"
)

// onionTextPattern matches v3 onion hostnames mentioned anywhere in page
// source. The word boundaries matter: without them a 57-character label
// would yield a bogus 56-character match from its tail. Case-insensitive
// because addresses survive copy-paste in all sorts of casings.
var onionTextPattern = regexp.MustCompile(`(?i)\b[a-z2-7]{56}\.onion\b`)

// OnionCandidates returns the canonical URLs of all v3 onion addresses
// the page mentions, sorted and deduplicated.
//
// Two passes feed the result:
//  1. A raw-text scan over the page source. This catches addresses in
//     comments, scripts, and plain prose that never became links.
//  2. A walk of the resolved anchors, keeping those whose hostname is a
//     v3 onion address. This catches addresses hidden behind link text
//     and relative hrefs the raw scan cannot see.
//
// Candidates are leads, not verified services: the address shape is
// checked but the embedded checksum is not. Mistyped addresses in page
// content are still worth recording.
func (d *Document) OnionCandidates() []string {
	seen := make(map[string]bool)

	for _, match := range onionTextPattern.FindAllString(d.source, -1) {
		seen[canonicalOnionURL(match)] = true
	}

	for _, anchor := range d.Anchors {
		u, err := url.Parse(anchor)
		if err != nil {
			continue
		}
		host := strings.ToLower(u.Hostname())
		if tor.IsV3Address(host) {
			seen[canonicalOnionURL(host)] = true
		}
	}

	candidates := make([]string, 0, len(seen))
	for candidate := range seen {
		candidates = append(candidates, candidate)
	}
	sort.Strings(candidates)
	return candidates
}

// canonicalOnionURL normalizes a bare onion hostname to the form stored
// in the discovery ledger. One address, one row, regardless of whether
// the page wrote it uppercase, as a link, or with a path attached.
func canonicalOnionURL(host string) string {
	return "http://" + strings.ToLower(host) + "/"
}
