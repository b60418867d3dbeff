package domain

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// FetchSource tells where an intercepted response came from.
type FetchSource int

const (
	// SourceCache is a hit in the current generation.
	SourceCache FetchSource = iota
	// SourceNetwork is a read-only request that missed the cache.
	SourceNetwork
	// SourceBypass is a mutating request passed straight to the network.
	SourceBypass
)

func (s FetchSource) String() string {
	switch s {
	case SourceCache:
		return "hit"
	case SourceNetwork:
		return "miss"
	case SourceBypass:
		return "bypass"
	default:
		return fmt.Sprintf("FetchSource(%d)", int(s))
	}
}

// intercept answers request from cache when possible. Responses fetched on a
// miss are returned as-is and never written back: the cache is only
// populated at install time.
func intercept(ctx context.Context, cache Cache, network Network, request Request) (Response, FetchSource, error) {
	if !IsReadOnly(request.Method) {
		response, err := network.Fetch(ctx, request)
		return response, SourceBypass, err
	}

	key, err := CacheKey(request.URL)
	if err != nil {
		return Response{}, SourceNetwork, err
	}
	cached, ok, err := cache.Match(ctx, key)
	if err != nil {
		return Response{}, SourceCache, fmt.Errorf("match %s in %s: %w", key, cache.Name(), err)
	}
	if ok {
		response := cached.Clone()
		if strings.EqualFold(request.Method, http.MethodHead) {
			response.Body = nil
		}
		return response, SourceCache, nil
	}

	response, err := network.Fetch(ctx, request)
	return response, SourceNetwork, err
}
