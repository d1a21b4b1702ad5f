package target

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// writeList writes a targets file and returns its path.
func writeList(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "targets.txt")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write targets file: %v", err)
	}
	return path
}

func TestFileSourceLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "plain list in file order",
			content: "http://one.onion/\nhttp://two.onion/\n",
			want:    []string{"http://one.onion/", "http://two.onion/"},
		},
		{
			name:    "blank lines and comments skipped",
			content: "# watched services\n\nhttp://one.onion/\n\n   # indented comment\nhttp://two.onion/\n",
			want:    []string{"http://one.onion/", "http://two.onion/"},
		},
		{
			name:    "surrounding whitespace trimmed",
			content: "  http://one.onion/  \n\thttp://two.onion/\r\n",
			want:    []string{"http://one.onion/", "http://two.onion/"},
		},
		{
			name:    "duplicate lines preserved",
			content: "http://one.onion/\nhttp://one.onion/\n",
			want:    []string{"http://one.onion/", "http://one.onion/"},
		},
		{
			name:    "malformed entries returned verbatim",
			content: "not a url\nhttp://one.onion/\n",
			want:    []string{"not a url", "http://one.onion/"},
		},
		{
			name:    "no trailing newline",
			content: "http://one.onion/",
			want:    []string{"http://one.onion/"},
		},
		{
			name:    "comments only",
			content: "# nothing enabled yet\n",
			want:    nil,
		},
		{
			name:    "empty file",
			content: "",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := NewFileSource(writeList(t, tt.content))
			got, err := src.Load()
			if err != nil {
				t.Fatalf("Load() returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Load() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFileSourceLoadMissingFile(t *testing.T) {
	t.Parallel()

	src := NewFileSource(filepath.Join(t.TempDir(), "missing.txt"))
	if _, err := src.Load(); err == nil {
		t.Error("Load() should fail for a missing targets file")
	}
}

// Edits to the file must be visible on the next Load without any
// restart; the source holds no cache.
func TestFileSourceLoadSeesEdits(t *testing.T) {
	t.Parallel()

	path := writeList(t, "http://one.onion/\n")
	src := NewFileSource(path)

	got, err := src.Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Load() returned %d targets, want 1", len(got))
	}

	if err := os.WriteFile(path, []byte("http://one.onion/\nhttp://two.onion/\n"), 0600); err != nil {
		t.Fatalf("failed to rewrite targets file: %v", err)
	}

	got, err = src.Load()
	if err != nil {
		t.Fatalf("Load() after edit returned error: %v", err)
	}
	want := []string{"http://one.onion/", "http://two.onion/"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() after edit = %v, want %v", got, want)
	}
}

func TestFileSourcePath(t *testing.T) {
	t.Parallel()

	src := NewFileSource("/etc/torwatch/targets.txt")
	if got := src.Path(); got != "/etc/torwatch/targets.txt" {
		t.Errorf("Path() = %q, want %q", got, "/etc/torwatch/targets.txt")
	}
}
