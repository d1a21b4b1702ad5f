package report

import (
	"io"

	"github.com/nao1215/torwatch/internal/model"
)

// timeFormat is how every writer renders ledger timestamps.
const timeFormat = "2006-01-02 15:04:05 MST"

// Writer defines the interface for history output.
// Implementations render the monitor's ledgers in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the history to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(history *model.History) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write histories, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the history to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(history *model.History) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(history)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for history writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// hasData reports whether the history carries anything to render.
// Query commands populate only the sections they were asked for, so an
// all-empty payload means "nothing recorded", not a rendering bug.
func hasData(h *model.History) bool {
	return len(h.Summaries) > 0 || len(h.Checks) > 0 || len(h.Discoveries) > 0 || h.Mirrors != nil
}
