// Package tor provides Tor network connectivity for torwatch.
//
// This package dials through a SOCKS5 proxy (an operator-managed Tor daemon
// or an embedded one started via tornago) and builds HTTP clients configured
// for .onion fetching. It also verifies proxy health with a real SOCKS5
// handshake and validates v3 onion addresses, including their checksums.
//
// The package is designed to be used with dependency injection - create a
// Client and pass it to components that need Tor connectivity rather than
// using global state.
package tor
