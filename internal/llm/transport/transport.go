// Package transport implements the minimal HTTP transport seam of
// SPEC_FULL.md §4.1: an interface the httpexec executor sends requests
// through, plus a default implementation wrapping *http.Client and the
// teacher's gzip/brotli decompression helper.
//
// Grounded on the teacher's internal/handlers/proxy.go: ServeHTTP's
// http.DefaultClient.Do(req) call and the decompressReader method, lifted
// out of the handler into a reusable, provider-independent component so the
// executor and the tool-loop gateway can share one transport instead of each
// reimplementing response decompression.
package transport

import (
	"compress/gzip"
	"io"
	"net/http"

	"github.com/andybalholm/brotli"
)

// Transport sends one HTTP request and returns the raw response, matching
// the subset of *http.Client's surface the executor needs. Exists mainly so
// tests can substitute a fake without spinning up a real listener.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPTransport is the default Transport, a thin wrapper over *http.Client.
type HTTPTransport struct {
	Client *http.Client
}

// New returns an HTTPTransport. A nil client falls back to http.DefaultClient,
// matching the teacher's proxy handler using http.DefaultClient.Do directly.
func New(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{Client: client}
}

func (t *HTTPTransport) Do(req *http.Request) (*http.Response, error) {
	return t.Client.Do(req)
}

// DecompressReader wraps resp.Body according to its Content-Encoding header,
// ported verbatim from the teacher's ProxyHandler.decompressReader (gzip and
// brotli; anything else passes through unwrapped).
func DecompressReader(resp *http.Response) (io.Reader, error) {
	var body io.Reader = resp.Body

	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		r, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		body = r
	case "br":
		body = brotli.NewReader(resp.Body)
	}

	return body, nil
}
