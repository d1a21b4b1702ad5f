package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nao1215/torwatch/internal/config"
	"github.com/nao1215/torwatch/internal/database"
	"github.com/nao1215/torwatch/internal/model"
	"github.com/nao1215/torwatch/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit caps how many ledger rows a query returns when no
// explicit --limit is given.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [target]",
		Short: "Show recorded checks from the store",
		Long: `History reads the check ledger and prints what the monitor has seen.

Without arguments it lists the most recent checks across all targets.
With a target URL it lists that target's checks only. --summary aggregates
the ledger per target, and --mirrors looks up which other targets recently
served the same content as the given target.

The store must already exist; run 'torwatch watch' first.

Examples:
  # Most recent checks across all targets
  torwatch history

  # Checks for one target
  torwatch history http://exampleonion.onion/

  # Per-target totals
  torwatch history --summary

  # Targets serving the same content as a target
  torwatch history --mirrors http://exampleonion.onion/

  # Markdown instead of text
  torwatch history --summary --markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	// Query selection flags
	cmd.Flags().BoolP("summary", "s", false,
		"Aggregate the ledger per target")
	cmd.Flags().StringP("mirrors", "M", "",
		"List targets sharing the given target's latest fingerprint")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of rows to return")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("database", "d", config.DefaultDatabasePath(),
		"SQLite store file path")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	var targetURL string
	if len(args) > 0 {
		targetURL = args[0]
	}

	summary, err := cmd.Flags().GetBool("summary")
	if err != nil {
		return err
	}
	mirrorsTarget, err := cmd.Flags().GetString("mirrors")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	db, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()

	history := &model.History{GeneratedAt: time.Now().UTC()}

	switch {
	case mirrorsTarget != "":
		// An unset --limit defers to the store's own mirror cap
		mirrorLimit := limit
		if !cmd.Flags().Changed("limit") {
			mirrorLimit = 0
		}
		if err := loadMirrors(ctx, db, history, mirrorsTarget, mirrorLimit); err != nil {
			return err
		}
	case summary:
		history.Summaries, err = db.TargetSummaries(ctx)
		if err != nil {
			return fmt.Errorf("failed to load target summaries: %w", err)
		}
	default:
		history.Checks, err = db.RecentChecks(ctx, targetURL, limit)
		if err != nil {
			return fmt.Errorf("failed to load checks: %w", err)
		}
	}

	return writeHistory(cmd, history)
}

// loadMirrors anchors a mirror lookup on the target's latest recorded
// fingerprint.
func loadMirrors(ctx context.Context, db *database.MonitorDB, history *model.History, targetURL string, limit int) error {
	sig, err := db.LastContentSignature(ctx, targetURL)
	if err != nil {
		return fmt.Errorf("failed to load last fingerprint: %w", err)
	}
	if sig == nil {
		return fmt.Errorf("no content fingerprint recorded for %s", targetURL)
	}

	matches, err := db.FindMirrors(ctx, *sig, targetURL, limit)
	if err != nil {
		return fmt.Errorf("failed to find mirrors: %w", err)
	}

	history.Mirrors = &model.MirrorSet{
		TargetURL:  targetURL,
		ContentSig: *sig,
		Matches:    matches,
	}
	return nil
}

// storePath resolves the store file for a query command: the --database
// flag when set, else MONITOR_DB_PATH, else the XDG default.
func storePath(cmd *cobra.Command) (string, error) {
	flagPath, err := cmd.Flags().GetString("database")
	if err != nil {
		return "", err
	}
	if cmd.Flags().Changed("database") {
		return flagPath, nil
	}
	if v, ok := os.LookupEnv(config.EnvDatabasePath); ok && v != "" {
		return v, nil
	}
	return flagPath, nil
}

// openStore opens the existing store for a query command. A missing store
// is an error here; only the watch command creates it.
func openStore(cmd *cobra.Command) (*database.MonitorDB, error) {
	path, err := storePath(cmd)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(path, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// writeHistory renders the history in the requested format on stdout.
func writeHistory(cmd *cobra.Command, history *model.History) error {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return errors.New("--json and --markdown are mutually exclusive")
	}

	var w report.Writer
	switch {
	case jsonOutput:
		w = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint())
	case markdownOutput:
		w = report.NewMarkdownWriter(cmd.OutOrStdout())
	default:
		w = report.NewSimpleWriter(cmd.OutOrStdout())
	}

	_, err = w.Write(history)
	return err
}
