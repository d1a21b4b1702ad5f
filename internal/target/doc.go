// Package target supplies the list of URLs the monitor watches.
//
// The list is operator-owned configuration: the monitor re-reads it at
// the start of every cycle and never rewrites it, so adding or removing
// a target is a file edit, not a restart. Entries are taken verbatim,
// malformed URLs included; a target that cannot be fetched fails at
// fetch time and is ledgered like any other failure.
package target
