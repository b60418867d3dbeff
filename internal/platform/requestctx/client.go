// Package requestctx carries per-request identity through contexts.
package requestctx

import "context"

// ClientHeader names the request header a controlled page uses to identify
// itself to the proxy.
const ClientHeader = "X-Offline-Cache-Client"

type clientIDContextKey struct{}

// WithClientID stores the requesting client identifier in context.
func WithClientID(ctx context.Context, clientID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, clientIDContextKey{}, clientID)
}

// ClientIDFromContext returns the client identifier stored in context.
func ClientIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(clientIDContextKey{}).(string)
	return value
}
