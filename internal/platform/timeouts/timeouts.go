// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// OriginFetch caps one request forwarded to the application origin.
const OriginFetch = 15 * time.Second

// BackendCall caps one call to the hosted signup backend function.
const BackendCall = 10 * time.Second
