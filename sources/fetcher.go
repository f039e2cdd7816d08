package sources

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/giygas/nitrosamine-monitor/logging"
)

// DefaultUserAgent mimics a desktop browser; some sources reject bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// DefaultTimeout is the per-request timeout.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps any downloaded document.
const maxBodySize = 64 << 20

// Fetcher issues GET requests with browser-like headers. Certificate
// verification is relaxed because some sources serve incomplete chains.
type Fetcher struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
}

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// Transport overrides the relaxed-TLS transport, mostly for tests.
	Transport http.RoundTripper
}

// NewFetcher builds a Fetcher.
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	transport := opts.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		// #nosec G402 -- regulatory sites serve incomplete certificate chains
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		transport = t
	}
	return &Fetcher{
		client:    &http.Client{Timeout: opts.Timeout, Transport: transport},
		userAgent: opts.UserAgent,
		headers:   opts.Headers,
	}
}

// Document is a fetched response body.
type Document struct {
	URL         string
	ContentType string
	Body        []byte
}

// Get downloads url. Transport errors and non-2xx statuses are NetworkFailure.
func (f *Fetcher) Get(ctx context.Context, source, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newError(NetworkFailure, source, "request", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, newError(NetworkFailure, source, "fetch", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "url", url, "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(NetworkFailure, source, "fetch", &HTTPStatusError{URL: url, StatusCode: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, newError(NetworkFailure, source, "read", fmt.Errorf("reading %s: %w", url, err))
	}

	logging.Debug("Fetched document", "source", source, "url", url, "bytes", len(body), "duration", time.Since(start))
	return &Document{URL: resp.Request.URL.String(), ContentType: resp.Header.Get("Content-Type"), Body: body}, nil
}

// DecodeText returns body as UTF-8, decoding it from ISO-8859-1 when it is
// not valid UTF-8.
func DecodeText(body []byte) ([]byte, error) {
	if utf8.Valid(body) {
		return body, nil
	}
	decoded, err := io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(body)))
	if err != nil {
		return nil, fmt.Errorf("decoding ISO-8859-1: %w", err)
	}
	return decoded, nil
}
