package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/torwatch/internal/model"
)

// SimpleWriter outputs human-readable text histories.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no rows are shown.
	showEmpty bool

	// verbose adds content fingerprints to check lines.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with content fingerprints.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the history in human-readable format.
func (w *SimpleWriter) Write(history *model.History) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, history)

	if !hasData(history) {
		sb.WriteString("  No history recorded yet\n\n")
	}

	w.writeSummaries(&sb, history)
	w.writeChecks(&sb, history)
	w.writeDiscoveries(&sb, history)
	w.writeMirrors(&sb, history)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the banner and generation time.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, history *model.History) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         TORWATCH HISTORY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Generated: %s\n", history.GeneratedAt.Format(timeFormat)))
	sb.WriteString("\n")
}

// writeSectionHeader writes a dashed section divider with a title.
func (w *SimpleWriter) writeSectionHeader(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeSummaries writes the per-target aggregates section.
func (w *SimpleWriter) writeSummaries(sb *strings.Builder, history *model.History) {
	if len(history.Summaries) == 0 && !w.showEmpty {
		return
	}

	w.writeSectionHeader(sb, "TARGETS")

	if len(history.Summaries) == 0 {
		sb.WriteString("  No targets recorded\n\n")
		return
	}

	for i := range history.Summaries {
		s := &history.Summaries[i]
		sb.WriteString(fmt.Sprintf("  [+] %s\n", s.TargetURL))
		sb.WriteString(fmt.Sprintf("      checks: %d  ok: %d  failed: %d  success: %.1f%%\n",
			s.Checks, s.Succeeded, s.Failed(), s.SuccessRate()*100))
		sb.WriteString(fmt.Sprintf("      last checked: %s\n", s.LastChecked.Format(timeFormat)))
	}
	sb.WriteString("\n")
}

// writeChecks writes individual ledger rows, newest first.
func (w *SimpleWriter) writeChecks(sb *strings.Builder, history *model.History) {
	if len(history.Checks) == 0 && !w.showEmpty {
		return
	}

	w.writeSectionHeader(sb, "CHECKS")

	if len(history.Checks) == 0 {
		sb.WriteString("  No checks recorded\n\n")
		return
	}

	for i := range history.Checks {
		w.writeCheck(sb, &history.Checks[i])
	}
	sb.WriteString("\n")
}

// writeCheck writes one ledger row in the ok or fail shape.
func (w *SimpleWriter) writeCheck(sb *strings.Builder, c *model.CheckRecord) {
	when := c.CheckedAt.Format(timeFormat)

	if !c.OK {
		reason := ""
		if c.Error != nil {
			reason = *c.Error
		}
		sb.WriteString(fmt.Sprintf("  [fail] %s  %s\n", when, c.TargetURL))
		sb.WriteString(fmt.Sprintf("         %s\n", reason))
		return
	}

	status := 0
	if c.StatusCode != nil {
		status = *c.StatusCode
	}
	line := fmt.Sprintf("  [ok]   %s  %s (%d)", when, c.TargetURL, status)
	if c.Title != nil && *c.Title != "" {
		line += fmt.Sprintf(" %q", *c.Title)
	}
	sb.WriteString(line + "\n")

	if c.Redirected() {
		sb.WriteString(fmt.Sprintf("         redirected to %s\n", *c.FinalURL))
	}
	if w.verbose && c.ContentSig != nil {
		sb.WriteString(fmt.Sprintf("         fingerprint: %s\n", *c.ContentSig))
	}
}

// writeDiscoveries writes the discovery ledger section.
func (w *SimpleWriter) writeDiscoveries(sb *strings.Builder, history *model.History) {
	if len(history.Discoveries) == 0 && !w.showEmpty {
		return
	}

	w.writeSectionHeader(sb, "DISCOVERED ONIONS")

	if len(history.Discoveries) == 0 {
		sb.WriteString("  No discoveries recorded\n\n")
		return
	}

	for _, d := range history.Discoveries {
		line := fmt.Sprintf("  %s  %s found on %s",
			d.DiscoveredAt.Format(timeFormat), d.DiscoveredURL, d.SourceURL)
		if history.VerifiedOnions != nil {
			if history.VerifiedOnions[d.DiscoveredURL] {
				line += "  [checksum ok]"
			} else {
				line += "  [checksum invalid]"
			}
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n")
}

// writeMirrors writes the mirror lookup result when one was asked for.
func (w *SimpleWriter) writeMirrors(sb *strings.Builder, history *model.History) {
	if history.Mirrors == nil {
		return
	}

	w.writeSectionHeader(sb, "MIRROR CANDIDATES")

	sb.WriteString(fmt.Sprintf("  Target:      %s\n", history.Mirrors.TargetURL))
	sb.WriteString(fmt.Sprintf("  Fingerprint: %s\n", history.Mirrors.ContentSig))

	if len(history.Mirrors.Matches) == 0 {
		sb.WriteString("  No other targets share this fingerprint\n\n")
		return
	}

	for _, m := range history.Mirrors.Matches {
		sb.WriteString(fmt.Sprintf("  [+] %s\n", m))
	}
	sb.WriteString("\n")
}

// writeFooter writes the closing banner.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Generated by torwatch\n")
	sb.WriteString("https://github.com/nao1215/torwatch\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
