// Package main provides the entry point for the torwatch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for torwatch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "torwatch",
		Short: "Uptime and content-change monitor for Tor hidden services",
		Long: `torwatch watches a list of web targets (typically .onion services) through
a Tor SOCKS5 proxy. Every cycle it fetches each target, appends the outcome
to a local SQLite ledger, fingerprints the visible page text to detect
content changes and mirror-like clones, and records every v3 onion address
seen on the checked pages.

By default torwatch connects to an external Tor proxy at 127.0.0.1:9050.
Use 'torwatch watch --embedded-tor' to start a Tor daemon in-process.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewDiscoveriesCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
