// Package report renders the monitor's history for humans and tools.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - MarkdownWriter: Tables, alerts, and an outcome chart for sharing
//   - JSONWriter: Structured JSON output for tool integration
//
// Design decision: We separate history rendering from the history data
// structures (which are in the model package) to follow the single
// responsibility principle. This allows adding new output formats
// without modifying the core data structures.
//
// Writers implement the Writer interface over model.History, allowing
// them to be used interchangeably and composed for multi-format output.
// They render whichever sections the history carries and skip the rest,
// so the same code backs every query command regardless of which
// ledgers it consulted.
package report
