package domain

import "context"

// CacheStorage is the host's store of named cache generations.
type CacheStorage interface {
	// Open returns the named generation, creating it when absent.
	Open(ctx context.Context, name string) (Cache, error)
	Has(ctx context.Context, name string) (bool, error)
	// Keys lists generation names in creation order.
	Keys(ctx context.Context) ([]string, error)
	// Delete removes a generation and its entries, reporting whether it existed.
	Delete(ctx context.Context, name string) (bool, error)
}

// Cache is one generation of stored responses keyed by CacheKey.
type Cache interface {
	Name() string
	Match(ctx context.Context, key string) (Response, bool, error)
	Put(ctx context.Context, key string, response Response) error
	Keys(ctx context.Context) ([]string, error)
}

// Network performs a real request against the origin.
type Network interface {
	Fetch(ctx context.Context, request Request) (Response, error)
}

// ClientType filters client enumeration.
type ClientType string

const (
	ClientWindow ClientType = "window"
	ClientWorker ClientType = "worker"
	ClientAll    ClientType = "all"
)

// Client is one open application view.
type Client struct {
	ID         string
	URL        string
	Type       ClientType
	Focused    bool
	Controller string
}

// MatchOptions mirrors the host's client query options.
type MatchOptions struct {
	Type                ClientType
	IncludeUncontrolled bool
}

// Clients is the host's registry of open views.
type Clients interface {
	MatchAll(ctx context.Context, opts MatchOptions) ([]Client, error)
	// Claim makes controller the controller of every open client and returns
	// how many clients it now controls.
	Claim(ctx context.Context, controller string) (int, error)
	Focus(ctx context.Context, id string) (Client, error)
	OpenWindow(ctx context.Context, url string) (Client, error)
}

// Notification is a system notification previously shown to the user.
type Notification struct {
	Tag   string
	Title string
	Body  string
	Data  map[string]string
}

// Notifications dismisses displayed notifications.
type Notifications interface {
	Close(ctx context.Context, tag string) error
}
