package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/net/html/charset"
)

// defaultMaxBodySize limits response bodies to 5MB. Pages past the cap
// are silently truncated; the fingerprint covers what was read.
const defaultMaxBodySize = 5 * 1024 * 1024

// Fetcher retrieves pages through a pre-configured HTTP client.
//
// Design decision: We use a struct with the http.Client rather than
// passing the client on each call because:
//  1. Client configuration (proxy, timeouts, redirect policy) should be
//     consistent across all checks in a cycle
//  2. Connection pooling works better with a shared client
//  3. Easier to test with httptest servers
type Fetcher struct {
	// client is the HTTP client, configured for the Tor proxy in
	// production and a plain client in tests.
	client *http.Client

	// userAgent is the User-Agent header sent with every request.
	userAgent string

	// maxBodySize limits the response body size to prevent memory
	// exhaustion from hostile or broken services.
	maxBodySize int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header for all requests.
// An empty string keeps the default.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the maximum response body size in bytes.
// Non-positive sizes keep the default cap.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// New creates a Fetcher around the given HTTP client.
//
// Design decision: We require an external http.Client rather than
// creating one internally because:
//  1. Tor proxy configuration is handled by the tor package
//  2. Allows plain clients in tests
//  3. The redirect policy is baked into the client, not the fetcher
func New(client *http.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      client,
		userAgent:   "torwatch/1.0",
		maxBodySize: defaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Result is one completed fetch: the URL the body actually came from,
// the HTTP status, and the body decoded to UTF-8.
//
// Any Result means the transport succeeded. HTTP-level failures (404,
// 500) are still Results; the service answered, and its error page is
// content like any other.
type Result struct {
	// FinalURL is the URL of the response after any redirects the
	// client followed. With redirects disabled it equals the request URL.
	FinalURL string

	// StatusCode is the HTTP status of the (final) response.
	StatusCode int

	// Body is the response body decoded to UTF-8, truncated at the
	// configured cap.
	Body []byte
}

// Fetch retrieves target and returns the outcome. A non-nil error means
// the transport failed (connection refused, timeout, broken SOCKS
// circuit, body cut off mid-read) and nothing about the page is known.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Connection", "close")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Read body with size limit
	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		// A body that dies mid-read is a transport failure, same as a
		// connection that never opened. Partial pages must not be
		// fingerprinted; they would register as phantom content changes.
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Result{
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       decodeBody(raw, resp.Header.Get("Content-Type")),
	}, nil
}

// decodeBody converts a response body to UTF-8 using the Content-Type
// header and in-document hints (meta charset, BOM). Fingerprints are
// computed over text, so two mirrors that serve the same words in
// different encodings must decode to the same bytes.
//
// If the encoding cannot be determined or the decode fails the raw
// bytes are returned. A wrong-but-stable decode still yields a stable
// fingerprint, which is what the monitor actually needs.
func decodeBody(raw []byte, contentType string) []byte {
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return raw
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return raw
	}
	return decoded
}
