package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/nao1215/torwatch/internal/config"
	"github.com/nao1215/torwatch/internal/model"
	"github.com/nao1215/torwatch/internal/tor"
	"github.com/spf13/cobra"
)

// NewDiscoveriesCmd creates the discoveries command.
func NewDiscoveriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discoveries",
		Short: "Show onion addresses discovered on checked pages",
		Long: `Discoveries lists the v3 onion addresses the monitor has seen on the
pages it checks. Each row records where and when an address was first
seen; the same address on the same page is never recorded twice.

Discovery is passive and shape-based: anything that looks like a v3 onion
address is recorded without being dialed. --verify additionally checks
each address's embedded checksum, which tells real base32-encoded keys
apart from look-alike strings, still without touching the network.

The store must already exist; run 'torwatch watch' first.

Examples:
  # All discovered addresses, newest first
  torwatch discoveries

  # Addresses found on one source page
  torwatch discoveries --source http://exampleonion.onion/

  # Annotate checksum validity per address
  torwatch discoveries --verify

  # JSON for scripting
  torwatch discoveries --json`,
		Args: cobra.NoArgs,
		RunE: runDiscoveriesCmd,
	}

	// Query selection flags
	cmd.Flags().StringP("source", "s", "",
		"Only addresses found on this source URL")
	cmd.Flags().BoolP("verify", "V", false,
		"Annotate v3 checksum validity per address")
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

// runDiscoveriesCmd executes the discoveries command.
func runDiscoveriesCmd(cmd *cobra.Command, _ []string) error {
	source, err := cmd.Flags().GetString("source")
	if err != nil {
		return err
	}
	verify, err := cmd.Flags().GetBool("verify")
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

	discoveries, err := db.Discoveries(ctx, source, limit)
	if err != nil {
		return fmt.Errorf("failed to load discoveries: %w", err)
	}

	history := &model.History{
		GeneratedAt: time.Now().UTC(),
		Discoveries: discoveries,
	}
	if verify {
		history.VerifiedOnions = verifyDiscoveries(discoveries)
	}

	return writeHistory(cmd, history)
}

// verifyDiscoveries checks the v3 checksum of each discovered address.
// Validation is offline; nothing is dialed.
func verifyDiscoveries(discoveries []model.Discovery) map[string]bool {
	verified := make(map[string]bool, len(discoveries))
	for _, d := range discoveries {
		verified[d.DiscoveredURL] = tor.IsValidV3Address(hostOf(d.DiscoveredURL))
	}
	return verified
}

// hostOf extracts the hostname from a canonical discovery URL
// (http://<host>/). Unparsable rows fall through as-is and fail
// validation rather than aborting the listing.
func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
