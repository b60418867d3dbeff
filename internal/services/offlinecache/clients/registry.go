// Package clients tracks the application views (windows and workers) open
// against this proxy.
package clients

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/louisbranch/offlinecache/internal/services/offlinecache/domain"
)

// ErrNotFound indicates an unknown client id.
var ErrNotFound = errors.New("client not found")

type entry struct {
	client   domain.Client
	openedAt time.Time
}

// Registry is an in-memory, transient set of client registrations.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*entry
	now     func() time.Time
	newID   func() string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*entry),
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// Register records a newly opened, uncontrolled view.
func (r *Registry) Register(ctx context.Context, rawURL string, clientType domain.ClientType) (domain.Client, error) {
	if err := ctx.Err(); err != nil {
		return domain.Client{}, err
	}
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !parsed.IsAbs() {
		return domain.Client{}, fmt.Errorf("client url %q must be absolute", rawURL)
	}
	switch clientType {
	case "":
		clientType = domain.ClientWindow
	case domain.ClientWindow, domain.ClientWorker:
	default:
		return domain.Client{}, fmt.Errorf("unknown client type %q", clientType)
	}

	client := domain.Client{ID: r.newID(), URL: parsed.String(), Type: clientType}
	r.mu.Lock()
	r.clients[client.ID] = &entry{client: client, openedAt: r.now()}
	r.mu.Unlock()
	return client, nil
}

// Remove forgets a closed view.
func (r *Registry) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.clients, id)
	return nil
}

// Get returns one client by id.
func (r *Registry) Get(ctx context.Context, id string) (domain.Client, error) {
	if err := ctx.Err(); err != nil {
		return domain.Client{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.clients[id]
	if !ok {
		return domain.Client{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.client, nil
}

// MatchAll lists clients in the order they were opened.
func (r *Registry) MatchAll(ctx context.Context, opts domain.MatchOptions) ([]domain.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	matched := make([]*entry, 0, len(r.clients))
	for _, e := range r.clients {
		if opts.Type != "" && opts.Type != domain.ClientAll && e.client.Type != opts.Type {
			continue
		}
		if !opts.IncludeUncontrolled && e.client.Controller == "" {
			continue
		}
		matched = append(matched, e)
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].openedAt.Equal(matched[j].openedAt) {
			return matched[i].client.ID < matched[j].client.ID
		}
		return matched[i].openedAt.Before(matched[j].openedAt)
	})
	out := make([]domain.Client, 0, len(matched))
	for _, e := range matched {
		out = append(out, e.client)
	}
	return out, nil
}

// Claim hands every registered client to controller.
func (r *Registry) Claim(ctx context.Context, controller string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.clients {
		e.client.Controller = controller
	}
	return len(r.clients), nil
}

// Focus gives id the focus and takes it from every other client.
func (r *Registry) Focus(ctx context.Context, id string) (domain.Client, error) {
	if err := ctx.Err(); err != nil {
		return domain.Client{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.clients[id]
	if !ok {
		return domain.Client{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	for _, e := range r.clients {
		e.client.Focused = false
	}
	target.client.Focused = true
	return target.client, nil
}

// OpenWindow registers and focuses a new window at rawURL. New windows are
// controlled by the same controller as the rest of the registry, if any.
func (r *Registry) OpenWindow(ctx context.Context, rawURL string) (domain.Client, error) {
	client, err := r.Register(ctx, rawURL, domain.ClientWindow)
	if err != nil {
		return domain.Client{}, err
	}
	r.mu.Lock()
	controller := ""
	for _, e := range r.clients {
		if e.client.Controller != "" {
			controller = e.client.Controller
			break
		}
	}
	if opened, ok := r.clients[client.ID]; ok {
		opened.client.Controller = controller
	}
	r.mu.Unlock()
	return r.Focus(ctx, client.ID)
}

var _ domain.Clients = (*Registry)(nil)
