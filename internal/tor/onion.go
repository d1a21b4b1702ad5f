package tor

import (
	"encoding/base32"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Onion address constants.
const (
	// OnionV3Length is the length of a v3 onion address without the ".onion" suffix.
	// V3 addresses are 56 characters of base32-encoded data.
	OnionV3Length = 56

	// OnionV3TotalLength is the total length including the ".onion" suffix.
	OnionV3TotalLength = 62

	// OnionV3Version is the version byte for v3 onion addresses.
	OnionV3Version = 0x03

	// OnionSuffix is the common suffix for all onion addresses.
	OnionSuffix = ".onion"
)

// onionV3HostPattern matches a complete v3 onion hostname (56 base32
// characters + .onion). Base32 uses lowercase a-z and digits 2-7
// (no 0, 1, 8, 9 to avoid confusion).
var onionV3HostPattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)

// checksumPrefix is the prefix used in v3 onion address checksum calculation.
// This is specified in the Tor rendezvous specification.
var checksumPrefix = []byte(".onion checksum")

// IsV3Address reports whether host has the shape of a v3 onion address.
// This is a format check only; it does not verify the embedded checksum.
//
// Discovery uses this check deliberately: addresses seen in page content
// are recorded as leads even when mistyped, and the stricter checksum
// verification is applied later, on demand.
func IsV3Address(host string) bool {
	return onionV3HostPattern.MatchString(strings.ToLower(host))
}

// IsValidV3Address checks if the given address is a valid v3 onion address.
// It performs both format validation and checksum verification.
//
// Design decision: We perform full checksum validation rather than just
// pattern matching because:
// 1. It catches typos and corrupted addresses
// 2. It verifies the address was properly generated
// 3. It matches what Tor itself does when connecting
//
// The address should be lowercase and include the ".onion" suffix.
func IsValidV3Address(address string) bool {
	// Normalize to lowercase
	address = strings.ToLower(address)

	// Check basic format with regex
	if !onionV3HostPattern.MatchString(address) {
		return false
	}

	// Extract the base32-encoded part (without .onion suffix)
	onionPart := strings.TrimSuffix(address, OnionSuffix)

	// Decode from base32
	// The Tor spec uses standard base32 encoding (RFC 4648)
	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(onionPart))
	if err != nil {
		return false
	}

	// Decoded data should be exactly 35 bytes:
	// - 32 bytes: ed25519 public key
	// - 2 bytes: checksum
	// - 1 byte: version
	if len(decoded) != 35 {
		return false
	}

	pubkey := decoded[:32]
	checksum := decoded[32:34]
	version := decoded[34]

	// Verify version is 0x03 (v3)
	if version != OnionV3Version {
		return false
	}

	// Verify checksum
	// Checksum = first 2 bytes of SHA3-256(".onion checksum" || pubkey || version)
	expectedChecksum := computeV3Checksum(pubkey, version)

	return checksum[0] == expectedChecksum[0] && checksum[1] == expectedChecksum[1]
}

// computeV3Checksum computes the checksum bytes for a v3 onion address.
// The checksum is the first 2 bytes of SHA3-256(".onion checksum" || pubkey || version).
func computeV3Checksum(pubkey []byte, version byte) []byte {
	// Construct the data to hash
	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, version)

	// Compute SHA3-256 hash
	hash := sha3.Sum256(data)

	// Return first 2 bytes as checksum
	return hash[:2]
}
