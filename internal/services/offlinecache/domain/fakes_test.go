package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
)

type fakeStorage struct {
	mu        sync.Mutex
	order     []string
	caches    map[string]*fakeCache
	deleteErr error
	keysErr   error
}

func newFakeStorage(names ...string) *fakeStorage {
	s := &fakeStorage{caches: make(map[string]*fakeCache)}
	for _, name := range names {
		_, _ = s.Open(context.Background(), name)
	}
	return s
}

func (s *fakeStorage) Open(_ context.Context, name string) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.caches[name]; ok {
		return c, nil
	}
	c := &fakeCache{name: name, entries: make(map[string]Response)}
	s.caches[name] = c
	s.order = append(s.order, name)
	return c, nil
}

func (s *fakeStorage) Has(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.caches[name]
	return ok, nil
}

func (s *fakeStorage) Keys(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keysErr != nil {
		return nil, s.keysErr
	}
	return append([]string(nil), s.order...), nil
}

func (s *fakeStorage) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return false, s.deleteErr
	}
	if _, ok := s.caches[name]; !ok {
		return false, nil
	}
	delete(s.caches, name)
	for i, candidate := range s.order {
		if candidate == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (s *fakeStorage) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.order...)
	sort.Strings(out)
	return out
}

func (s *fakeStorage) cache(name string) *fakeCache {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caches[name]
}

type fakeCache struct {
	mu      sync.Mutex
	name    string
	entries map[string]Response
	matches int
}

func (c *fakeCache) Name() string { return c.name }

func (c *fakeCache) Match(_ context.Context, key string) (Response, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.matches++
	response, ok := c.entries[key]
	return response, ok, nil
}

func (c *fakeCache) Put(_ context.Context, key string, response Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = response.Clone()
	return nil
}

func (c *fakeCache) Keys(context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (c *fakeCache) matchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matches
}

var errOffline = errors.New("network offline")

// fakeNetwork serves bodies by URL. URLs listed in fail return errOffline,
// URLs missing from bodies return 404.
type fakeNetwork struct {
	mu       sync.Mutex
	bodies   map[string]string
	fail     map[string]bool
	requests []Request
}

func newFakeNetwork(bodies map[string]string) *fakeNetwork {
	return &fakeNetwork{bodies: bodies, fail: make(map[string]bool)}
}

func (n *fakeNetwork) Fetch(_ context.Context, request Request) (Response, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requests = append(n.requests, request)
	if n.fail[request.URL] {
		return Response{}, fmt.Errorf("fetch %s: %w", request.URL, errOffline)
	}
	body, ok := n.bodies[request.URL]
	if !ok {
		return Response{URL: request.URL, Status: http.StatusNotFound}, nil
	}
	return Response{
		URL:    request.URL,
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{"text/plain"}},
		Body:   []byte(body),
	}, nil
}

func (n *fakeNetwork) calls() []Request {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Request(nil), n.requests...)
}

type fakeClients struct {
	mu         sync.Mutex
	clients    []Client
	claimedBy  string
	focused    []string
	opened     []string
	claimErr   error
	nextOpenID int
}

func (c *fakeClients) MatchAll(_ context.Context, opts MatchOptions) ([]Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Client
	for _, client := range c.clients {
		if opts.Type != "" && opts.Type != ClientAll && client.Type != opts.Type {
			continue
		}
		if !opts.IncludeUncontrolled && client.Controller == "" {
			continue
		}
		out = append(out, client)
	}
	return out, nil
}

func (c *fakeClients) Claim(_ context.Context, controller string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.claimErr != nil {
		return 0, c.claimErr
	}
	c.claimedBy = controller
	for i := range c.clients {
		c.clients[i].Controller = controller
	}
	return len(c.clients), nil
}

func (c *fakeClients) Focus(_ context.Context, id string) (Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.clients {
		if c.clients[i].ID == id {
			c.clients[i].Focused = true
			c.focused = append(c.focused, id)
			return c.clients[i], nil
		}
	}
	return Client{}, fmt.Errorf("client %s not found", id)
}

func (c *fakeClients) OpenWindow(_ context.Context, url string) (Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextOpenID++
	client := Client{ID: fmt.Sprintf("opened-%d", c.nextOpenID), URL: url, Type: ClientWindow, Focused: true}
	c.clients = append(c.clients, client)
	c.opened = append(c.opened, url)
	return client, nil
}

type fakeNotifications struct {
	mu     sync.Mutex
	closed []string
}

func (n *fakeNotifications) Close(_ context.Context, tag string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = append(n.closed, tag)
	return nil
}

const testOrigin = "https://shop.example"

func testConfig(t interface{ Fatalf(string, ...any) }, input ConfigInput) Config {
	if input.CacheName == "" {
		input.CacheName = "site-cache-v3"
	}
	if input.Origin == "" {
		input.Origin = testOrigin
	}
	cfg, err := NewConfig(input)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	return cfg
}

type testHarness struct {
	storage       *fakeStorage
	network       *fakeNetwork
	clients       *fakeClients
	notifications *fakeNotifications
	logs          []string
	logMu         sync.Mutex
}

func (h *testHarness) deps() Dependencies {
	return Dependencies{
		Storage:       h.storage,
		Network:       h.network,
		Clients:       h.clients,
		Notifications: h.notifications,
		Logf: func(format string, args ...any) {
			h.logMu.Lock()
			defer h.logMu.Unlock()
			h.logs = append(h.logs, fmt.Sprintf(format, args...))
		},
	}
}

func newHarness(storage *fakeStorage, bodies map[string]string) *testHarness {
	return &testHarness{
		storage:       storage,
		network:       newFakeNetwork(bodies),
		clients:       &fakeClients{},
		notifications: &fakeNotifications{},
	}
}
