package target

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// maxLineSize caps a single target-list line at 1 MiB. Onion URLs are
// long, but a line past this size is a corrupt file, not a target.
const maxLineSize = 1024 * 1024

// Source supplies the current target list. Load is called at the start
// of every cycle, so implementations must re-read their backing data
// rather than cache it.
type Source interface {
	// Load returns the target URLs in order. Duplicates are preserved:
	// a duplicated line is two poll attempts per cycle, which is the
	// operator's call to make.
	Load() ([]string, error)
}

// FileSource reads targets from a newline-delimited text file, one URL
// per line. Blank lines and lines whose first non-whitespace character
// is '#' are skipped; every other line is returned trimmed but
// otherwise verbatim.
type FileSource struct {
	// path is the target-list file location.
	path string
}

// NewFileSource creates a FileSource reading the given path. The file
// is not opened here; a missing file surfaces as a Load error, which
// the monitor treats as fatal misconfiguration.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the target-list file path.
func (s *FileSource) Path() string {
	return s.path
}

// Load reads the target list fresh from disk.
func (s *FileSource) Load() ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open targets file: %w", err)
	}
	defer f.Close()

	var targets []string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read targets file: %w", err)
	}

	return targets, nil
}
