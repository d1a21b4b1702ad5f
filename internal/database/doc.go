// Package database provides SQLite-based storage for torwatch.
//
// This package implements the MonitorDB, which stores:
//   - The check ledger: one append-only row per fetch attempt
//   - The discovery ledger: onion addresses seen in checked pages
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// Both ledgers are insert-only. History is the product being built, so
// rows are never updated or deleted once written.
package database
