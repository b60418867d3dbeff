package domain

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	defaultInstallConcurrency = 4
	defaultRootPath           = "/"
)

// InstallPolicy decides what a failed manifest asset does to installation.
type InstallPolicy int

const (
	// InstallLenient logs a failed asset and keeps installing the rest.
	InstallLenient InstallPolicy = iota
	// InstallStrict fails the whole installation if any asset fails, and
	// writes nothing to the cache in that case.
	InstallStrict
)

func (p InstallPolicy) String() string {
	switch p {
	case InstallLenient:
		return "lenient"
	case InstallStrict:
		return "strict"
	default:
		return fmt.Sprintf("InstallPolicy(%d)", int(p))
	}
}

// ParseInstallPolicy maps a config token to an InstallPolicy.
func ParseInstallPolicy(value string) (InstallPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "lenient":
		return InstallLenient, nil
	case "strict":
		return InstallStrict, nil
	default:
		return InstallLenient, fmt.Errorf("%w: unknown install policy %q", ErrInvalidConfig, value)
	}
}

// ConfigInput carries raw worker settings before validation.
type ConfigInput struct {
	// CacheName is the version constant naming the current generation.
	CacheName string
	// Manifest lists asset paths in install order. Relative paths resolve
	// against Origin.
	Manifest []string
	// Origin is the absolute application origin, e.g. https://example.com.
	Origin string
	// RootPath is where notification clicks open a new window. Defaults to "/".
	RootPath           string
	Policy             InstallPolicy
	SkipWaiting        bool
	InstallConcurrency int
}

// Asset is one resolved manifest entry.
type Asset struct {
	Path string
	Key  string
}

// Config is the immutable worker configuration injected at startup.
type Config struct {
	cacheName          string
	assets             []Asset
	origin             url.URL
	rootURL            string
	policy             InstallPolicy
	skipWaiting        bool
	installConcurrency int
}

// NewConfig validates input and returns an immutable Config.
//
// Manifest entries that resolve to the same cache key are kept once, at
// their first position.
func NewConfig(input ConfigInput) (Config, error) {
	cacheName := strings.TrimSpace(input.CacheName)
	if cacheName == "" {
		return Config{}, fmt.Errorf("%w: cache name is required", ErrInvalidConfig)
	}

	origin, err := url.Parse(strings.TrimSpace(input.Origin))
	if err != nil {
		return Config{}, fmt.Errorf("%w: parse origin: %v", ErrInvalidConfig, err)
	}
	if origin.Scheme != "http" && origin.Scheme != "https" {
		return Config{}, fmt.Errorf("%w: origin must be an absolute http(s) URL, got %q", ErrInvalidConfig, input.Origin)
	}
	if origin.Host == "" {
		return Config{}, fmt.Errorf("%w: origin host is required", ErrInvalidConfig)
	}
	origin = &url.URL{Scheme: strings.ToLower(origin.Scheme), Host: strings.ToLower(origin.Host)}

	if input.Policy != InstallLenient && input.Policy != InstallStrict {
		return Config{}, fmt.Errorf("%w: unknown install policy %v", ErrInvalidConfig, input.Policy)
	}

	cfg := Config{
		cacheName:          cacheName,
		origin:             *origin,
		policy:             input.Policy,
		skipWaiting:        input.SkipWaiting,
		installConcurrency: input.InstallConcurrency,
	}
	if cfg.installConcurrency <= 0 {
		cfg.installConcurrency = defaultInstallConcurrency
	}

	rootPath := strings.TrimSpace(input.RootPath)
	if rootPath == "" {
		rootPath = defaultRootPath
	}
	cfg.rootURL, err = cfg.Resolve(rootPath)
	if err != nil {
		return Config{}, fmt.Errorf("%w: root path: %v", ErrInvalidConfig, err)
	}

	seen := make(map[string]struct{}, len(input.Manifest))
	for i, raw := range input.Manifest {
		path := strings.TrimSpace(raw)
		if path == "" {
			return Config{}, fmt.Errorf("%w: manifest entry %d is empty", ErrInvalidConfig, i)
		}
		key, err := cfg.Resolve(path)
		if err != nil {
			return Config{}, fmt.Errorf("%w: manifest entry %q: %v", ErrInvalidConfig, path, err)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cfg.assets = append(cfg.assets, Asset{Path: path, Key: key})
	}
	return cfg, nil
}

// CacheName returns the name of the current cache generation.
func (c Config) CacheName() string { return c.cacheName }

// Assets returns a copy of the resolved manifest in install order.
func (c Config) Assets() []Asset {
	out := make([]Asset, len(c.assets))
	copy(out, c.assets)
	return out
}

// Manifest returns a copy of the manifest paths in install order.
func (c Config) Manifest() []string {
	out := make([]string, 0, len(c.assets))
	for _, asset := range c.assets {
		out = append(out, asset.Path)
	}
	return out
}

// Origin returns the application origin, e.g. "https://example.com".
func (c Config) Origin() string { return c.origin.String() }

// RootURL is the absolute address a notification click opens.
func (c Config) RootURL() string { return c.rootURL }

func (c Config) Policy() InstallPolicy { return c.policy }

func (c Config) SkipWaiting() bool { return c.skipWaiting }

func (c Config) InstallConcurrency() int { return c.installConcurrency }

// Resolve turns a path or URL into the cache key it is stored under.
func (c Config) Resolve(ref string) (string, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return CacheKey(c.origin.ResolveReference(parsed).String())
}

// SameOrigin reports whether rawURL belongs to the application origin.
func (c Config) SameOrigin(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Scheme, c.origin.Scheme) && strings.EqualFold(parsed.Host, c.origin.Host)
}
