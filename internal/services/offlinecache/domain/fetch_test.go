package domain

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func newInterceptFixture(t *testing.T) (*fakeCache, *fakeNetwork) {
	t.Helper()
	storage := newFakeStorage()
	opened, _ := storage.Open(context.Background(), "site-cache-v3")
	cache := opened.(*fakeCache)
	if err := cache.Put(context.Background(), "https://shop.example/index.html", Response{
		URL:    "https://shop.example/index.html",
		Status: http.StatusOK,
		Body:   []byte("cached home"),
	}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	network := newFakeNetwork(map[string]string{
		"https://shop.example/index.html":  "network home",
		"https://shop.example/about.html":  "network about",
		"https://backend.example/signup":   `{"ok":true}`,
	})
	return cache, network
}

func TestInterceptServesCachedResponseWithoutNetwork(t *testing.T) {
	cache, network := newInterceptFixture(t)

	response, source, err := intercept(context.Background(), cache, network, Request{
		Method: http.MethodGet,
		URL:    "https://shop.example/index.html",
	})
	if err != nil {
		t.Fatalf("intercept: %v", err)
	}
	if source != SourceCache || string(response.Body) != "cached home" {
		t.Fatalf("source=%s body=%q", source, response.Body)
	}
	if len(network.calls()) != 0 {
		t.Fatalf("network calls = %d, want 0", len(network.calls()))
	}
}

func TestInterceptHeadHitDropsBody(t *testing.T) {
	cache, network := newInterceptFixture(t)

	response, source, err := intercept(context.Background(), cache, network, Request{
		Method: http.MethodHead,
		URL:    "https://shop.example/index.html",
	})
	if err != nil || source != SourceCache {
		t.Fatalf("source=%s err=%v", source, err)
	}
	if response.Body != nil {
		t.Fatalf("HEAD body = %q", response.Body)
	}
}

func TestInterceptMissCallsNetworkOnceAndDoesNotCache(t *testing.T) {
	cache, network := newInterceptFixture(t)

	response, source, err := intercept(context.Background(), cache, network, Request{
		Method: http.MethodGet,
		URL:    "https://shop.example/about.html",
	})
	if err != nil {
		t.Fatalf("intercept: %v", err)
	}
	if source != SourceNetwork || string(response.Body) != "network about" {
		t.Fatalf("source=%s body=%q", source, response.Body)
	}
	if len(network.calls()) != 1 {
		t.Fatalf("network calls = %d, want 1", len(network.calls()))
	}
	if _, ok, _ := cache.Match(context.Background(), "https://shop.example/about.html"); ok {
		t.Fatal("miss must not be written back into the cache")
	}
}

func TestInterceptQueryMustMatchExactly(t *testing.T) {
	cache, network := newInterceptFixture(t)

	_, source, err := intercept(context.Background(), cache, network, Request{
		Method: http.MethodGet,
		URL:    "https://shop.example/index.html?utm=mail",
	})
	if source != SourceNetwork {
		t.Fatalf("source = %s, want miss for different query", source)
	}
	if err != nil {
		t.Fatalf("intercept: %v", err)
	}
}

func TestInterceptMutatingRequestBypassesCache(t *testing.T) {
	cache, network := newInterceptFixture(t)
	request := Request{
		Method: http.MethodPost,
		URL:    "https://shop.example/index.html",
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   []byte(`{"email":"a@b.c"}`),
	}

	_, source, err := intercept(context.Background(), cache, network, request)
	if err != nil {
		t.Fatalf("intercept: %v", err)
	}
	if source != SourceBypass {
		t.Fatalf("source = %s, want bypass", source)
	}
	if cache.matchCount() != 0 {
		t.Fatalf("mutating request performed %d cache lookups", cache.matchCount())
	}
	calls := network.calls()
	if len(calls) != 1 || calls[0].Method != http.MethodPost || string(calls[0].Body) != string(request.Body) || calls[0].Header.Get("Content-Type") != "application/json" {
		t.Fatalf("request was not passed through unmodified: %+v", calls)
	}
}

func TestInterceptSurfacesNetworkFailureUnmodified(t *testing.T) {
	cache, network := newInterceptFixture(t)
	network.fail["https://shop.example/offline.html"] = true

	_, source, err := intercept(context.Background(), cache, network, Request{
		Method: http.MethodGet,
		URL:    "https://shop.example/offline.html",
	})
	if !errors.Is(err, errOffline) {
		t.Fatalf("err = %v, want network error", err)
	}
	if source != SourceNetwork {
		t.Fatalf("source = %s", source)
	}
}
