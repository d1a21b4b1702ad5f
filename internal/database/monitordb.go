package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/torwatch/internal/model"
)

// defaultMirrorLimit caps FindMirrors results when the caller passes no
// explicit limit. Five matches is enough to act on; a fingerprint shared
// by more targets than that is a template, not a mirror set.
const defaultMirrorLimit = 5

// MonitorDB provides SQLite-based storage for the check and discovery
// ledgers. Both ledgers are append-only: rows are never updated or
// deleted, so history can always be replayed.
//
// Design decision: We keep both ledgers in one database file rather
// than separate files because mirror detection joins check rows across
// targets, and a single file keeps backup/restore to one artifact.
type MonitorDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures MonitorDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a MonitorDB at the specified file path.
// If CreateIfNotExists is true, the parent directory and database file
// are created as needed. If false and the database doesn't exist, an
// error is returned; query commands use this so that a typo'd path
// fails loudly instead of presenting an empty history.
func Open(dbPath string, opts Options) (*MonitorDB, error) {
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run 'torwatch watch' to create it)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	// SQLite only supports one writer; a single connection serializes
	// concurrent checks at the store boundary
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	mdb := &MonitorDB{
		db:     db,
		dbPath: dbPath,
	}

	// Enable WAL mode if requested
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Create tables
	if err := mdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return mdb, nil
}

// Close closes the database connection.
func (mdb *MonitorDB) Close() error {
	return mdb.db.Close()
}

// Path returns the database file path.
func (mdb *MonitorDB) Path() string {
	return mdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (mdb *MonitorDB) createTables() error {
	schema := `
	-- The check ledger: one row per fetch attempt, append-only.
	-- Exactly one of two shapes per row: ok=1 with status_code and
	-- final_url set, or ok=0 with error set and the rest null.
	CREATE TABLE IF NOT EXISTS checks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		checked_at TEXT NOT NULL,
		target_url TEXT NOT NULL,
		final_url TEXT,
		status_code INTEGER,
		ok INTEGER NOT NULL,
		error TEXT,
		content_sig TEXT,
		title TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_checks_target ON checks(target_url);
	CREATE INDEX IF NOT EXISTS idx_checks_sig ON checks(content_sig);
	CREATE INDEX IF NOT EXISTS idx_checks_checked_at ON checks(checked_at);

	-- The discovery ledger: onion addresses seen in checked pages.
	-- The unique constraint makes re-seeing an address a no-op, so a
	-- pair means "first seen", not "seen N times".
	CREATE TABLE IF NOT EXISTS discovered_onions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		discovered_at TEXT NOT NULL,
		source_url TEXT NOT NULL,
		discovered_url TEXT NOT NULL,
		UNIQUE(source_url, discovered_url)
	);

	CREATE INDEX IF NOT EXISTS idx_discovered_source ON discovered_onions(source_url);
	`

	_, err := mdb.db.ExecContext(context.Background(), schema)
	return err
}

// RecordCheck appends one check outcome to the ledger and returns its
// row ID. The record is validated first; a row that mixes the success
// and failure shapes never reaches the database.
func (mdb *MonitorDB) RecordCheck(ctx context.Context, rec *model.CheckRecord) (int64, error) {
	if err := rec.Validate(); err != nil {
		return 0, fmt.Errorf("invalid check record: %w", err)
	}

	query := `
	INSERT INTO checks (checked_at, target_url, final_url, status_code, ok, error, content_sig, title)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := mdb.db.ExecContext(ctx, query,
		rec.CheckedAt.UTC().Format(time.RFC3339),
		rec.TargetURL,
		rec.FinalURL,
		rec.StatusCode,
		boolToInt(rec.OK),
		rec.Error,
		rec.ContentSig,
		rec.Title,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record check: %w", err)
	}

	return result.LastInsertId()
}

// RecordDiscoveries inserts discovered onion URLs attributed to
// sourceURL and returns how many were genuinely new. Re-discovering a
// known (source, discovered) pair is a success no-op: the conflict
// policy lives here at the storage boundary, not in caller logic.
func (mdb *MonitorDB) RecordDiscoveries(ctx context.Context, at time.Time, sourceURL string, discoveredURLs []string) (int, error) {
	if len(discoveredURLs) == 0 {
		return 0, nil
	}

	tx, err := mdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	query := `
	INSERT INTO discovered_onions (discovered_at, source_url, discovered_url)
	VALUES (?, ?, ?)
	ON CONFLICT(source_url, discovered_url) DO NOTHING
	`

	discoveredAt := at.UTC().Format(time.RFC3339)
	newRows := 0
	for _, u := range discoveredURLs {
		result, err := tx.ExecContext(ctx, query, discoveredAt, sourceURL, u)
		if err != nil {
			return 0, fmt.Errorf("failed to record discovery: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to count discovery rows: %w", err)
		}
		newRows += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit discoveries: %w", err)
	}

	return newRows, nil
}

// FindMirrors returns the other targets whose checks have carried the
// given content fingerprint, most recently seen first, capped at limit
// (or a small default when limit is not positive).
//
// An empty fingerprint never matches: rows with no fingerprint are
// pages with no content, and "no content" is not shared content.
//
// Design decision: recency is defined per target via GROUP BY with
// MAX(checked_at) rather than DISTINCT over an ordered scan, so every
// target appears once and the ordering is well-defined.
func (mdb *MonitorDB) FindMirrors(ctx context.Context, contentSig, excludeTarget string, limit int) ([]string, error) {
	if contentSig == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultMirrorLimit
	}

	query := `
	SELECT target_url
	FROM checks
	WHERE content_sig = ? AND target_url <> ?
	GROUP BY target_url
	ORDER BY MAX(checked_at) DESC
	LIMIT ?
	`

	rows, err := mdb.db.QueryContext(ctx, query, contentSig, excludeTarget, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find mirrors: %w", err)
	}
	defer rows.Close()

	var mirrors []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("failed to scan mirror row: %w", err)
		}
		mirrors = append(mirrors, target)
	}

	return mirrors, rows.Err()
}

// LastContentSignature returns the most recent recorded fingerprint for
// the target, or nil when the target has never produced one. Rows
// without a fingerprint (failures, empty pages) are skipped so that a
// change notice compares against the last known content, not against an
// outage.
func (mdb *MonitorDB) LastContentSignature(ctx context.Context, targetURL string) (*string, error) {
	query := `
	SELECT content_sig
	FROM checks
	WHERE target_url = ? AND content_sig IS NOT NULL
	ORDER BY checked_at DESC, id DESC
	LIMIT 1
	`

	var sig string
	err := mdb.db.QueryRowContext(ctx, query, targetURL).Scan(&sig)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last content signature: %w", err)
	}

	return &sig, nil
}

// RecentChecks returns the most recent check rows, newest first.
// An empty targetURL returns rows across all targets.
func (mdb *MonitorDB) RecentChecks(ctx context.Context, targetURL string, limit int) ([]model.CheckRecord, error) {
	query := `
	SELECT id, checked_at, target_url, final_url, status_code, ok, error, content_sig, title
	FROM checks
	`
	args := make([]any, 0, 2)
	if targetURL != "" {
		query += " WHERE target_url = ?"
		args = append(args, targetURL)
	}
	query += " ORDER BY checked_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := mdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query checks: %w", err)
	}
	defer rows.Close()

	var checks []model.CheckRecord
	for rows.Next() {
		var rec model.CheckRecord
		var checkedAt string
		var finalURL, errMsg, contentSig, title sql.NullString
		var statusCode sql.NullInt64
		var ok int

		if err := rows.Scan(
			&rec.ID,
			&checkedAt,
			&rec.TargetURL,
			&finalURL,
			&statusCode,
			&ok,
			&errMsg,
			&contentSig,
			&title,
		); err != nil {
			return nil, fmt.Errorf("failed to scan check row: %w", err)
		}

		rec.CheckedAt = parseTimestamp(checkedAt)
		rec.OK = ok != 0
		rec.FinalURL = nullableString(finalURL)
		rec.StatusCode = nullableInt(statusCode)
		rec.Error = nullableString(errMsg)
		rec.ContentSig = nullableString(contentSig)
		rec.Title = nullableString(title)

		checks = append(checks, rec)
	}

	return checks, rows.Err()
}

// Discoveries returns discovery rows, newest first. An empty sourceURL
// returns rows from all sources.
func (mdb *MonitorDB) Discoveries(ctx context.Context, sourceURL string, limit int) ([]model.Discovery, error) {
	query := `
	SELECT id, discovered_at, source_url, discovered_url
	FROM discovered_onions
	`
	args := make([]any, 0, 2)
	if sourceURL != "" {
		query += " WHERE source_url = ?"
		args = append(args, sourceURL)
	}
	query += " ORDER BY discovered_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := mdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query discoveries: %w", err)
	}
	defer rows.Close()

	var discoveries []model.Discovery
	for rows.Next() {
		var d model.Discovery
		var discoveredAt string

		if err := rows.Scan(&d.ID, &discoveredAt, &d.SourceURL, &d.DiscoveredURL); err != nil {
			return nil, fmt.Errorf("failed to scan discovery row: %w", err)
		}

		d.DiscoveredAt = parseTimestamp(discoveredAt)
		discoveries = append(discoveries, d)
	}

	return discoveries, rows.Err()
}

// TargetSummaries returns per-target aggregates over the whole check
// ledger: total checks, successful checks, and the last check time.
func (mdb *MonitorDB) TargetSummaries(ctx context.Context) ([]model.TargetSummary, error) {
	query := `
	SELECT target_url, COUNT(*), SUM(ok), MAX(checked_at)
	FROM checks
	GROUP BY target_url
	ORDER BY target_url
	`

	rows, err := mdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query target summaries: %w", err)
	}
	defer rows.Close()

	var summaries []model.TargetSummary
	for rows.Next() {
		var s model.TargetSummary
		var lastChecked string

		if err := rows.Scan(&s.TargetURL, &s.Checks, &s.Succeeded, &lastChecked); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}

		s.LastChecked = parseTimestamp(lastChecked)
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// boolToInt converts a bool to the 0/1 form stored in the ok column.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullableString converts a scanned nullable column to a pointer.
func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// nullableInt converts a scanned nullable column to a pointer.
func nullableInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	i := int(ni.Int64)
	return &i
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339,              // what this package writes
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	// Return zero time if no format matches
	// This is a fallback to avoid breaking functionality for edge cases
	return time.Time{}
}
