package page

import (
	"strings"
	"testing"
)

// TestParse tests HTML parsing into the monitor's document view.
func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("extracts title", func(t *testing.T) {
		t.Parallel()

		doc, err := Parse("http://example.onion/", []byte(`<html><head><title>  Hidden Wiki  </title></head><body></body></html>`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.Title != "Hidden Wiki" {
			t.Errorf("Title = %q, expected %q", doc.Title, "Hidden Wiki")
		}
	})

	t.Run("page without title has empty title", func(t *testing.T) {
		t.Parallel()

		doc, err := Parse("http://example.onion/", []byte(`<html><body><p>no title here</p></body></html>`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.Title != "" {
			t.Errorf("Title = %q, expected empty", doc.Title)
		}
	})

	t.Run("visible text includes title and body text", func(t *testing.T) {
		t.Parallel()

		doc, err := Parse("http://example.onion/", []byte(`<html><head><title>Index</title></head><body><h1>Welcome</h1><p>hello world</p></body></html>`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.Text != "Index Welcome hello world" {
			t.Errorf("Text = %q, expected %q", doc.Text, "Index Welcome hello world")
		}
	})

	t.Run("script and style bodies are not visible text", func(t *testing.T) {
		t.Parallel()

		input := `<html><body>
			<style>body { color: red; }</style>
			<p>visible</p>
			<script>var secret = "invisible";</script>
		</body></html>`

		doc, err := Parse("http://example.onion/", []byte(input))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.Text != "visible" {
			t.Errorf("Text = %q, expected %q", doc.Text, "visible")
		}
	})

	t.Run("comments are not visible text", func(t *testing.T) {
		t.Parallel()

		doc, err := Parse("http://example.onion/", []byte(`<html><body><!-- hidden note --><p>shown</p></body></html>`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.Text != "shown" {
			t.Errorf("Text = %q, expected %q", doc.Text, "shown")
		}
	})

	t.Run("whitespace runs collapse to single spaces", func(t *testing.T) {
		t.Parallel()

		doc, err := Parse("http://example.onion/", []byte("<html><body><p>one\n\n\ttwo   three</p></body></html>"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.Text != "one two three" {
			t.Errorf("Text = %q, expected %q", doc.Text, "one two three")
		}
	})

	t.Run("empty body parses to empty document", func(t *testing.T) {
		t.Parallel()

		doc, err := Parse("http://example.onion/", []byte(""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.Title != "" {
			t.Errorf("Title = %q, expected empty", doc.Title)
		}
		if doc.Text != "" {
			t.Errorf("Text = %q, expected empty", doc.Text)
		}
		if len(doc.Anchors) != 0 {
			t.Errorf("Anchors = %v, expected none", doc.Anchors)
		}
	})

	t.Run("malformed HTML still parses", func(t *testing.T) {
		t.Parallel()

		doc, err := Parse("http://example.onion/", []byte(`<html><body><p>unclosed <b>bold<p>more`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(doc.Text, "unclosed") || !strings.Contains(doc.Text, "more") {
			t.Errorf("Text = %q, expected both fragments present", doc.Text)
		}
	})

	t.Run("invalid base URL returns error", func(t *testing.T) {
		t.Parallel()

		_, err := Parse("://not-a-url", []byte(`<html></html>`))
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

// TestParseAnchors tests anchor extraction and URL resolution.
func TestParseAnchors(t *testing.T) {
	t.Parallel()

	t.Run("resolves relative hrefs against the base URL", func(t *testing.T) {
		t.Parallel()

		input := `<html><body>
			<a href="/abs">abs</a>
			<a href="sub/page.html">rel</a>
			<a href="../up.html">up</a>
		</body></html>`

		doc, err := Parse("http://example.onion/dir/index.html", []byte(input))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expected := []string{
			"http://example.onion/abs",
			"http://example.onion/dir/sub/page.html",
			"http://example.onion/up.html",
		}
		if len(doc.Anchors) != len(expected) {
			t.Fatalf("got %d anchors, expected %d: %v", len(doc.Anchors), len(expected), doc.Anchors)
		}
		for i, want := range expected {
			if doc.Anchors[i] != want {
				t.Errorf("Anchors[%d] = %q, expected %q", i, doc.Anchors[i], want)
			}
		}
	})

	t.Run("keeps absolute hrefs", func(t *testing.T) {
		t.Parallel()

		doc, err := Parse("http://example.onion/", []byte(`<html><body><a href="http://other.onion/page">other</a></body></html>`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(doc.Anchors) != 1 || doc.Anchors[0] != "http://other.onion/page" {
			t.Errorf("Anchors = %v, expected [http://other.onion/page]", doc.Anchors)
		}
	})

	t.Run("skips non-navigational hrefs", func(t *testing.T) {
		t.Parallel()

		input := `<html><body>
			<a href="javascript:void(0)">js</a>
			<a href="mailto:admin@example.onion">mail</a>
			<a href="tel:+1234567890">tel</a>
			<a href="data:text/plain,hi">data</a>
			<a href="#">top</a>
			<a href="">empty</a>
		</body></html>`

		doc, err := Parse("http://example.onion/", []byte(input))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(doc.Anchors) != 0 {
			t.Errorf("Anchors = %v, expected none", doc.Anchors)
		}
	})

	t.Run("keeps duplicate hrefs in document order", func(t *testing.T) {
		t.Parallel()

		input := `<html><body>
			<a href="/a">first</a>
			<a href="/a">again</a>
		</body></html>`

		doc, err := Parse("http://example.onion/", []byte(input))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(doc.Anchors) != 2 {
			t.Errorf("got %d anchors, expected 2 (duplicates kept)", len(doc.Anchors))
		}
	})
}
