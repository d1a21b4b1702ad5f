// Package main provides the entry point for the torwatch CLI.
//
// torwatch is an uptime and content-change monitor for Tor hidden services.
// It polls a target list through a SOCKS5 proxy and keeps an append-only
// history of what each target served.
//
// Usage:
//
//	torwatch watch --targets targets.txt
//	torwatch history --summary
//
// See --help for all available options.
package main

// main is the entry point for torwatch.
func main() {
	Execute()
}
