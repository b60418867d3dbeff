// Package client submits signup forms to the hosted backend function.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/louisbranch/offlinecache/internal/platform/timeouts"
	"github.com/louisbranch/offlinecache/internal/services/signup/domain"
)

// DefaultEndpoint is the hosted signup function.
const DefaultEndpoint = "https://app.example.com/.netlify/functions/signup"

const maxResponseBytes = 1 << 20

// ErrTransport marks failures reaching the backend or reading its reply.
var ErrTransport = errors.New("signup transport failure")

// ServerError is a non-2xx reply from the backend.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("signup rejected (%d): %s", e.Status, e.Message)
}

// Result is a successful signup reply.
type Result struct {
	Status int
	Body   json.RawMessage
}

// Config controls the backend client.
type Config struct {
	Endpoint string
	Timeout  time.Duration
	// Transport overrides the base round tripper, mostly for tests.
	Transport http.RoundTripper
}

// Client posts signup forms.
type Client struct {
	endpoint string
	http     *http.Client
}

// New builds a client with a traced transport.
func New(cfg Config) *Client {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = timeouts.BackendCall
	}
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: cfg.Timeout, Transport: otelhttp.NewTransport(base)},
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// Submit validates form and posts it. Validation failures are returned as
// *domain.ValidationError without any request being made.
func (c *Client) Submit(ctx context.Context, form domain.Form) (Result, error) {
	if err := form.Validate(); err != nil {
		return Result{}, err
	}
	payload, err := json.Marshal(form.Payload())
	if err != nil {
		return Result{}, fmt.Errorf("encode signup payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("%w: build request: %w", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}
	trimmed := bytes.TrimSpace(body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var reply errorBody
		if len(trimmed) > 0 {
			if err := json.Unmarshal(trimmed, &reply); err != nil {
				return Result{}, fmt.Errorf("%w: parse error response: %w", ErrTransport, err)
			}
		}
		message := strings.TrimSpace(reply.Error)
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return Result{}, &ServerError{Status: resp.StatusCode, Message: message}
	}

	if len(trimmed) > 0 && !json.Valid(trimmed) {
		return Result{}, fmt.Errorf("%w: response is not JSON", ErrTransport)
	}
	return Result{Status: resp.StatusCode, Body: json.RawMessage(trimmed)}, nil
}

// Retryable reports whether the user may resubmit the same form. Only server
// and transport failures qualify; validation failures need edits first.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var serverErr *ServerError
	return errors.As(err, &serverErr) || errors.Is(err, ErrTransport)
}
