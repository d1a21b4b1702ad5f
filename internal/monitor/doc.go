// Package monitor implements the watch loop that is torwatch's reason
// to exist: reload the target list, check every target through the Tor
// proxy, append each outcome to the store, sleep, repeat.
//
// The loop has no terminal success state. It ends only on context
// cancellation or on the two conditions treated as fatal: an unreadable
// target list and a storage write failure. Everything that can go wrong
// with an individual target, from a refused connection to unparseable
// HTML, is recorded or degraded and never stops the loop, because the
// history of a flaky target is precisely what the monitor is for.
package monitor
