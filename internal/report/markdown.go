package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/torwatch/internal/model"
)

// MarkdownWriter outputs histories in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the history in Markdown format.
func (w *MarkdownWriter) Write(history *model.History) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, history)

	if !hasData(history) {
		md.PlainText("No history recorded yet.")
		md.PlainText("")
	}

	w.writeSummaries(md, history)
	w.writeAlert(md, history)
	w.writeChecks(md, history)
	w.writeDiscoveries(md, history)
	w.writeMirrors(md, history)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and an overview table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, history *model.History) {
	md.H1("torwatch History")
	md.PlainText("")

	rows := [][]string{
		{"Generated", history.GeneratedAt.Format(timeFormat)},
	}
	if len(history.Summaries) > 0 {
		rows = append(rows, []string{"Targets", strconv.Itoa(len(history.Summaries))})
	}
	if len(history.Checks) > 0 {
		rows = append(rows, []string{"Checks Listed", strconv.Itoa(len(history.Checks))})
	}
	if len(history.Discoveries) > 0 {
		rows = append(rows, []string{"Discoveries Listed", strconv.Itoa(len(history.Discoveries))})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSummaries writes the per-target table and an outcome pie chart.
func (w *MarkdownWriter) writeSummaries(md *markdown.Markdown, history *model.History) {
	if len(history.Summaries) == 0 {
		return
	}

	md.H2("Targets")
	md.PlainText("")

	rows := make([][]string, len(history.Summaries))
	var ok, failed int
	for i := range history.Summaries {
		s := &history.Summaries[i]
		rows[i] = []string{
			"`" + s.TargetURL + "`",
			strconv.Itoa(s.Checks),
			strconv.Itoa(s.Succeeded),
			strconv.Itoa(s.Failed()),
			fmt.Sprintf("%.1f%%", s.SuccessRate()*100),
			s.LastChecked.Format(timeFormat),
		}
		ok += s.Succeeded
		failed += s.Failed()
	}

	md.Table(markdown.TableSet{
		Header: []string{"Target", "Checks", "OK", "Failed", "Success Rate", "Last Checked"},
		Rows:   rows,
	})
	md.PlainText("")

	if ok+failed > 0 {
		w.writePieChart(md, ok, failed)
	}
}

// writePieChart writes a mermaid pie chart of check outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, ok, failed int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Check Outcomes"),
		piechart.WithShowData(true),
	)

	if ok > 0 {
		chart.LabelAndIntValue("OK", uint64(ok))
	}
	if failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(failed))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes the single most important alert for this view.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, history *model.History) {
	unreachable := 0
	for i := range history.Summaries {
		s := &history.Summaries[i]
		if s.Checks > 0 && s.Succeeded == 0 {
			unreachable++
		}
	}

	switch {
	case unreachable > 0:
		md.Cautionf("%d target(s) have failed every recorded check.", unreachable)
	case history.Mirrors != nil && len(history.Mirrors.Matches) > 0:
		md.Warningf("%d other target(s) recently served the same content as `%s`.",
			len(history.Mirrors.Matches), history.Mirrors.TargetURL)
	case len(history.Summaries) > 0:
		md.Tip("Every monitored target has responded at least once.")
	default:
		return
	}
	md.PlainText("")
}

// writeChecks writes individual ledger rows as a table.
func (w *MarkdownWriter) writeChecks(md *markdown.Markdown, history *model.History) {
	if len(history.Checks) == 0 {
		return
	}

	md.H2("Recent Checks")
	md.PlainText("")

	rows := make([][]string, len(history.Checks))
	for i := range history.Checks {
		rows[i] = checkRow(&history.Checks[i])
	}

	md.Table(markdown.TableSet{
		Header: []string{"Checked At", "Target", "Result", "Status", "Title", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

// checkRow flattens one ledger row for table output. The Detail column
// carries the failure reason for failed checks and the final URL for
// redirected ones.
func checkRow(c *model.CheckRecord) []string {
	result := "ok"
	status := "-"
	title := "-"
	detail := "-"

	if c.OK {
		if c.StatusCode != nil {
			status = strconv.Itoa(*c.StatusCode)
		}
		if c.Title != nil && *c.Title != "" {
			title = truncateString(*c.Title, 40)
		}
		if c.Redirected() {
			detail = "redirected to `" + *c.FinalURL + "`"
		}
	} else {
		result = "fail"
		if c.Error != nil {
			detail = truncateString(*c.Error, 60)
		}
	}

	return []string{
		c.CheckedAt.Format(timeFormat),
		"`" + c.TargetURL + "`",
		result,
		status,
		title,
		detail,
	}
}

// writeDiscoveries writes the discovery ledger as a table. A checksum
// column appears only when the view carries verification results.
func (w *MarkdownWriter) writeDiscoveries(md *markdown.Markdown, history *model.History) {
	if len(history.Discoveries) == 0 {
		return
	}

	md.H2("Discoveries")
	md.PlainText("")

	headers := []string{"Discovered At", "Source", "Onion URL"}
	withChecksum := history.VerifiedOnions != nil
	if withChecksum {
		headers = append(headers, "Checksum")
	}

	rows := make([][]string, len(history.Discoveries))
	for i, d := range history.Discoveries {
		row := []string{
			d.DiscoveredAt.Format(timeFormat),
			"`" + d.SourceURL + "`",
			"`" + d.DiscoveredURL + "`",
		}
		if withChecksum {
			if history.VerifiedOnions[d.DiscoveredURL] {
				row = append(row, "valid")
			} else {
				row = append(row, "invalid")
			}
		}
		rows[i] = row
	}

	md.Table(markdown.TableSet{Header: headers, Rows: rows})
	md.PlainText("")
}

// writeMirrors writes the mirror lookup result when one was asked for.
func (w *MarkdownWriter) writeMirrors(md *markdown.Markdown, history *model.History) {
	if history.Mirrors == nil {
		return
	}

	md.H2("Mirror Candidates")
	md.PlainText("")
	md.PlainTextf("Targets whose checks carry the same fingerprint as `%s`:", history.Mirrors.TargetURL)
	md.PlainText("")
	md.PlainTextf("Fingerprint: `%s`", history.Mirrors.ContentSig)
	md.PlainText("")

	if len(history.Mirrors.Matches) == 0 {
		md.PlainText("No other targets share this fingerprint.")
		md.PlainText("")
		return
	}

	md.BulletList(history.Mirrors.Matches...)
	md.PlainText("")
}

// writeFooter writes the history footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [torwatch](https://github.com/nao1215/torwatch)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
