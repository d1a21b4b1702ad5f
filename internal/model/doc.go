// Package model defines the core data structures used throughout torwatch.
//
// This package contains the following main types:
//   - CheckRecord: One observation of one target (the uptime ledger row)
//   - Discovery: One passively discovered onion URL (the discovery ledger row)
//   - TargetSummary: Per-target aggregate view of the check ledger
//   - History: The payload rendered by the report writers
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (monitor, database, report) need to use these
// types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for query output and
// database storage.
package model
