// Package network performs real requests against the application origin on
// behalf of the worker.
package network

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/louisbranch/offlinecache/internal/platform/timeouts"
	"github.com/louisbranch/offlinecache/internal/services/offlinecache/domain"
)

// DefaultMaxBodyBytes caps one origin response body.
const DefaultMaxBodyBytes int64 = 32 << 20

// ErrBodyTooLarge is returned when a response exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// hopHeaders are connection-scoped and never forwarded.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Config controls the origin fetcher.
type Config struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	// Transport overrides the base round tripper, mostly for tests.
	Transport http.RoundTripper
}

// Fetcher implements domain.Network over HTTP.
type Fetcher struct {
	client       *http.Client
	maxBodyBytes int64
}

// New builds a fetcher whose transport is traced with otelhttp.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = timeouts.OriginFetch
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &Fetcher{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(base),
			// Redirects are handed back to the page untouched.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// Fetch sends request to the network and buffers the response.
func (f *Fetcher) Fetch(ctx context.Context, request domain.Request) (domain.Response, error) {
	method := strings.ToUpper(strings.TrimSpace(request.Method))
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if len(request.Body) > 0 {
		body = bytes.NewReader(request.Body)
	}
	httpRequest, err := http.NewRequestWithContext(ctx, method, request.URL, body)
	if err != nil {
		return domain.Response{}, fmt.Errorf("build request: %w", err)
	}
	httpRequest.Header = request.Header.Clone()
	if httpRequest.Header == nil {
		httpRequest.Header = http.Header{}
	}
	StripHopHeaders(httpRequest.Header)

	httpResponse, err := f.client.Do(httpRequest)
	if err != nil {
		return domain.Response{}, err
	}
	defer httpResponse.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(httpResponse.Body, f.maxBodyBytes+1))
	if err != nil {
		return domain.Response{}, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(payload)) > f.maxBodyBytes {
		return domain.Response{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, request.URL, f.maxBodyBytes)
	}

	header := httpResponse.Header.Clone()
	StripHopHeaders(header)
	return domain.Response{
		URL:    request.URL,
		Status: httpResponse.StatusCode,
		Header: header,
		Body:   payload,
	}, nil
}

// StripHopHeaders removes hop-by-hop headers, including any named in Connection.
func StripHopHeaders(header http.Header) {
	if header == nil {
		return
	}
	for _, value := range header.Values("Connection") {
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				header.Del(name)
			}
		}
	}
	for _, name := range hopHeaders {
		header.Del(name)
	}
}

var _ domain.Network = (*Fetcher)(nil)
