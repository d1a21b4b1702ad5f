package page

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Document is the parsed view of one fetched page: the pieces the monitor
// records (title, visible text) and the pieces discovery walks (anchors,
// raw source).
//
// Design decision: We return a comprehensive result struct rather than
// multiple parse methods because:
//  1. Single parsing pass is more efficient
//  2. Related data can be collected together
//  3. Caller can choose what to use
type Document struct {
	// Title is the page title from the <title> tag, whitespace-trimmed.
	Title string

	// Text is the page's visible text with runs of whitespace collapsed
	// to single spaces. Script and style bodies and HTML comments are
	// excluded; everything else, including the title, counts as visible.
	Text string

	// Anchors contains the resolved absolute URLs of all <a href> links,
	// in document order. Duplicates are kept; discovery deduplicates.
	Anchors []string

	// source is the decoded page source, kept for raw-text discovery.
	// Addresses mentioned in comments, scripts, or attributes are leads
	// too, even though they never show up in Text.
	source string
}

// Parse parses HTML content and extracts the document view used by
// fingerprinting and discovery. baseURL is the URL the body was served
// from (after redirects, if they were followed) and anchors are resolved
// against it.
//
// Design decision: We use golang.org/x/net/html rather than regex because:
//  1. It correctly handles malformed HTML common on hidden services
//  2. Provides a proper DOM-like structure
//  3. More maintainable than complex regex patterns
//  4. Standard library extension, well-maintained
func Parse(baseURL string, body []byte) (*Document, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Anchors: make([]string, 0),
		source:  string(body),
	}

	var text strings.Builder

	// Walk the DOM tree once, collecting title, visible text, and anchors.
	// inRawText tracks whether we are inside a script or style element,
	// whose text content is never rendered.
	var walk func(n *html.Node, inRawText bool)
	walk = func(n *html.Node, inRawText bool) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				inRawText = true
			case "title":
				if doc.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					doc.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "a":
				if href := getAttr(n, "href"); href != "" {
					if resolved := resolveURL(base, href); resolved != "" {
						doc.Anchors = append(doc.Anchors, resolved)
					}
				}
			}
		case html.TextNode:
			if !inRawText {
				text.WriteString(n.Data)
				text.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inRawText)
		}
	}

	walk(root, false)

	doc.Text = collapseWhitespace(text.String())
	return doc, nil
}

// resolveURL resolves a relative href against the base URL.
// Non-navigational schemes and bare fragments produce no URL.
//
// Design decision: We resolve URLs rather than storing them as-is because:
//  1. Makes deduplication easier
//  2. Candidate hostnames can be checked without caring how they were written
//  3. Reduces ambiguity in results
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return ""
	}
	if strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return base.ResolveReference(u).String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
