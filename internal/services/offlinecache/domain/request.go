package domain

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Request is one outgoing request issued by a controlled page.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a network or cached response.
type Response struct {
	URL    string
	Status int
	Header http.Header
	Body   []byte
}

// OK reports whether the response carries a 2xx status.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Clone returns a deep copy so callers cannot mutate stored entries.
func (r Response) Clone() Response {
	out := Response{URL: r.URL, Status: r.Status, Header: r.Header.Clone()}
	if r.Body != nil {
		out.Body = append([]byte(nil), r.Body...)
	}
	return out
}

// IsReadOnly reports whether method is free of side effects and therefore
// eligible for interception. An empty method means GET.
func IsReadOnly(method string) bool {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case "", http.MethodGet, http.MethodHead:
		return true
	default:
		return false
	}
}

// CacheKey normalizes an absolute URL into the key entries are stored under.
// Scheme and host are lower-cased and the fragment dropped; path and query
// must match exactly.
func CacheKey(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse request url: %w", err)
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return "", fmt.Errorf("request url %q is not absolute", rawURL)
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	parsed.RawFragment = ""
	if parsed.Path == "" {
		parsed.Path = "/"
	}
	return parsed.String(), nil
}
