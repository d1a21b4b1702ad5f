package page

import (
	"strings"
	"testing"
)

// Valid v3 onion addresses generated from deterministic public keys,
// used as fixtures. They do not correspond to real hidden services.
const (
	testOnionAddr1 = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaam2dqd.onion"
	testOnionAddr2 = "aaaqeayeaudaocajbifqydiob4ibceqtcqkrmfyydenbwha5dyp3kead.onion"
)

// parseDoc is a test helper that parses HTML and fails the test on error.
func parseDoc(t *testing.T, baseURL, input string) *Document {
	t.Helper()
	doc, err := Parse(baseURL, []byte(input))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return doc
}

// TestOnionCandidates tests onion address discovery from page content.
func TestOnionCandidates(t *testing.T) {
	t.Parallel()

	t.Run("finds address in plain text", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, "http://example.onion/", "<html><body><p>Mirror at "+testOnionAddr1+"</p></body></html>")
		candidates := doc.OnionCandidates()
		if len(candidates) != 1 {
			t.Fatalf("got %d candidates, expected 1: %v", len(candidates), candidates)
		}
		if candidates[0] != "http://"+testOnionAddr1+"/" {
			t.Errorf("candidate = %q, expected %q", candidates[0], "http://"+testOnionAddr1+"/")
		}
	})

	t.Run("finds address in an HTML comment", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, "http://example.onion/", "<html><body><!-- backup: "+testOnionAddr1+" --></body></html>")
		candidates := doc.OnionCandidates()
		if len(candidates) != 1 {
			t.Errorf("got %d candidates, expected 1 from comment", len(candidates))
		}
	})

	t.Run("finds address behind a link with unrelated text", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, "http://example.onion/", `<html><body><a href="http://`+testOnionAddr1+`/market/login?x=1">click here</a></body></html>`)
		candidates := doc.OnionCandidates()
		if len(candidates) != 1 {
			t.Fatalf("got %d candidates, expected 1: %v", len(candidates), candidates)
		}
		// Paths and queries are stripped; the ledger stores service roots
		if candidates[0] != "http://"+testOnionAddr1+"/" {
			t.Errorf("candidate = %q, expected service root", candidates[0])
		}
	})

	t.Run("uppercase mention is canonicalized to lowercase", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, "http://example.onion/", "<html><body><p>"+strings.ToUpper(testOnionAddr1[:56])+".ONION</p></body></html>")
		candidates := doc.OnionCandidates()
		if len(candidates) != 1 {
			t.Fatalf("got %d candidates, expected 1: %v", len(candidates), candidates)
		}
		if candidates[0] != "http://"+testOnionAddr1+"/" {
			t.Errorf("candidate = %q, expected lowercase canonical form", candidates[0])
		}
	})

	t.Run("same address in text and link yields one candidate", func(t *testing.T) {
		t.Parallel()

		input := `<html><body>
			<p>Find us at ` + testOnionAddr1 + `</p>
			<a href="http://` + testOnionAddr1 + `/home">home</a>
		</body></html>`

		doc := parseDoc(t, "http://example.onion/", input)
		candidates := doc.OnionCandidates()
		if len(candidates) != 1 {
			t.Errorf("got %d candidates, expected 1 after deduplication: %v", len(candidates), candidates)
		}
	})

	t.Run("candidates are sorted", func(t *testing.T) {
		t.Parallel()

		// Mentioned in reverse-sorted order; output must still be sorted
		input := "<html><body><p>" + testOnionAddr2 + " and " + testOnionAddr1 + "</p></body></html>"

		doc := parseDoc(t, "http://example.onion/", input)
		candidates := doc.OnionCandidates()
		if len(candidates) != 2 {
			t.Fatalf("got %d candidates, expected 2: %v", len(candidates), candidates)
		}
		if candidates[0] > candidates[1] {
			t.Errorf("candidates not sorted: %v", candidates)
		}
	})

	t.Run("55 character label is not a candidate", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, "http://example.onion/", "<html><body><p>"+strings.Repeat("a", 55)+".onion</p></body></html>")
		if candidates := doc.OnionCandidates(); len(candidates) != 0 {
			t.Errorf("got %v, expected no candidates for a 55-char label", candidates)
		}
	})

	t.Run("57 character label is not a candidate", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, "http://example.onion/", "<html><body><p>"+strings.Repeat("a", 57)+".onion</p></body></html>")
		if candidates := doc.OnionCandidates(); len(candidates) != 0 {
			t.Errorf("got %v, expected no candidates for a 57-char label", candidates)
		}
	})

	t.Run("v2 address is not a candidate", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, "http://example.onion/", "<html><body><p>facebookcorewwwi.onion</p></body></html>")
		if candidates := doc.OnionCandidates(); len(candidates) != 0 {
			t.Errorf("got %v, expected no candidates for a v2 address", candidates)
		}
	})

	t.Run("shape-valid address with broken checksum is still a lead", func(t *testing.T) {
		t.Parallel()

		broken := testOnionAddr1[:55] + "e.onion"
		doc := parseDoc(t, "http://example.onion/", "<html><body><p>"+broken+"</p></body></html>")
		candidates := doc.OnionCandidates()
		if len(candidates) != 1 {
			t.Errorf("got %d candidates, expected the typo'd address recorded as a lead", len(candidates))
		}
	})

	t.Run("clearnet links are not candidates", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, "http://example.onion/", `<html><body><a href="https://example.com/page">clearnet</a></body></html>`)
		if candidates := doc.OnionCandidates(); len(candidates) != 0 {
			t.Errorf("got %v, expected no candidates from clearnet links", candidates)
		}
	})

	t.Run("page with no addresses yields no candidates", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, "http://example.onion/", "<html><body><p>nothing to see</p></body></html>")
		if candidates := doc.OnionCandidates(); len(candidates) != 0 {
			t.Errorf("got %v, expected none", candidates)
		}
	})
}
