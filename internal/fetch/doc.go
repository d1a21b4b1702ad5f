// Package fetch retrieves pages over a pre-configured HTTP client and
// normalizes the outcome for the check ledger: the final URL after
// redirects, the HTTP status, and the body decoded to UTF-8.
//
// The dividing line this package draws is transport versus content. An
// error return means the network failed and nothing is known about the
// page. A Result, whatever its status code, means the service answered
// and the page can be fingerprinted.
package fetch
