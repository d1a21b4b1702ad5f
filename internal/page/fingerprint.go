package page

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// collapseWhitespace reduces every run of whitespace to a single space
// and trims the ends. This is what makes the fingerprint stable across
// reformatting: an extra newline or a reindented template is not a
// content change.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Normalize produces the canonical form of visible text that fingerprints
// are computed over: whitespace collapsed, Unicode case folded, and
// composed to NFC. Case folding is included so cosmetic markup changes
// (a heading retyped in caps) do not read as content changes, and NFC
// keeps precomposed and decomposed accents from fingerprinting apart
// when mirrors re-encode the same page.
func Normalize(s string) string {
	folded := cases.Fold().String(collapseWhitespace(s))
	return norm.NFC.String(folded)
}

// Fingerprint returns the hex SHA-256 of the normalized text and whether
// a fingerprint exists at all. Pages with no visible text (empty bodies,
// pure-binary responses parsed as HTML) have no fingerprint; the hash of
// an empty string is a real value and recording it would make all empty
// pages look like mirrors of each other.
func Fingerprint(text string) (string, bool) {
	normalized := Normalize(text)
	if normalized == "" {
		return "", false
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:]), true
}

// Fingerprint returns the document's content fingerprint, if it has one.
func (d *Document) Fingerprint() (string, bool) {
	return Fingerprint(d.Text)
}
