// Package gemini implements the small slice of the Gemini protocol the
// gateway serves: a TLS listener, one-line requests, status-coded
// responses, and caller identity from client certificates.
package gemini

import (
	"context"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// Gemini response status codes used by the gateway.
const (
	StatusInput            = 10
	StatusSuccess          = 20
	StatusRedirect         = 30
	StatusTemporaryFailure = 40
	StatusNotFound         = 51
	StatusBadRequest       = 59
	StatusCertRequired     = 60
)

// GemtextMIME is the meta line for successful gemtext responses.
const GemtextMIME = "text/gemini; charset=utf-8"

// Request is one parsed Gemini request plus the caller identity derived
// from the TLS client certificate.
type Request struct {
	URL *url.URL

	// Fingerprint identifies the caller's client certificate; empty
	// when no certificate was presented.
	Fingerprint string
}

// Input returns the request's query string, percent-decoded. Gemini
// delivers user input as the query component of a re-requested URL.
func (r *Request) Input() string {
	input, err := url.QueryUnescape(r.URL.RawQuery)
	if err != nil {
		return r.URL.RawQuery
	}
	return input
}

// Response is a single Gemini response: a status plus meta line, and a
// body only on success.
type Response struct {
	Status int
	Meta   string
	Body   []byte
}

// Gemtext builds a successful text/gemini response.
func Gemtext(body string) *Response {
	return &Response{Status: StatusSuccess, Meta: GemtextMIME, Body: []byte(body)}
}

// Input prompts the client to re-request with user input.
func Input(prompt string) *Response {
	return &Response{Status: StatusInput, Meta: prompt}
}

// Redirect sends the client to another path.
func Redirect(target string) *Response {
	return &Response{Status: StatusRedirect, Meta: target}
}

// Failure reports a temporary failure with a human-readable message.
func Failure(message string) *Response {
	return &Response{Status: StatusTemporaryFailure, Meta: message}
}

// NotFound reports that the requested resource does not exist.
func NotFound(message string) *Response {
	return &Response{Status: StatusNotFound, Meta: message}
}

// CertRequired asks the client to present a client certificate.
func CertRequired(message string) *Response {
	return &Response{Status: StatusCertRequired, Meta: message}
}

// Handler responds to a single Gemini request.
type Handler interface {
	ServeGemini(ctx context.Context, req *Request) *Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *Request) *Response

func (f HandlerFunc) ServeGemini(ctx context.Context, req *Request) *Response {
	return f(ctx, req)
}

// Mux routes requests by path. Patterns ending in "/" match any path
// under them; other patterns match exactly. The longest matching
// pattern wins.
type Mux struct {
	routes map[string]Handler
}

// NewMux creates an empty route table.
func NewMux() *Mux {
	return &Mux{routes: make(map[string]Handler)}
}

// Handle registers a handler for a pattern.
func (m *Mux) Handle(pattern string, handler Handler) {
	m.routes[pattern] = handler
}

// HandleFunc registers a handler function for a pattern.
func (m *Mux) HandleFunc(pattern string, handler func(ctx context.Context, req *Request) *Response) {
	m.Handle(pattern, HandlerFunc(handler))
}

// ServeGemini dispatches to the longest matching pattern, or responds
// not-found.
func (m *Mux) ServeGemini(ctx context.Context, req *Request) *Response {
	path := req.URL.Path
	if path == "" {
		path = "/"
	}

	var (
		best    Handler
		bestLen = -1
	)
	for pattern, handler := range m.routes {
		if !patternMatches(pattern, path) || len(pattern) <= bestLen {
			continue
		}
		best = handler
		bestLen = len(pattern)
	}

	if best == nil {
		return NotFound("no such page")
	}
	return best.ServeGemini(ctx, req)
}

func patternMatches(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/") {
		return strings.HasPrefix(path, pattern)
	}
	return pattern == path
}

// Fingerprint derives the caller identity for a client certificate:
// the hex SHA-256 digest of the certificate's DER encoding. This is
// the value account entries in the gateway config are keyed by.
func Fingerprint(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.Raw)
	return hex.EncodeToString(sum[:])
}

// ParseRequestLine parses one raw Gemini request line (without the
// trailing CRLF) into a URL. Gemini requests are absolute URLs.
func ParseRequestLine(line string) (*url.URL, error) {
	u, err := url.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("parse request URL: %w", err)
	}
	if u.Scheme != "" && u.Scheme != "gemini" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u, nil
}
