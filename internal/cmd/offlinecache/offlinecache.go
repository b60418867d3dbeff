// Package offlinecache parses proxy command flags and launches the offline
// cache runtime.
package offlinecache

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/offlinecache/internal/platform/cmd"
	"github.com/louisbranch/offlinecache/internal/platform/timeouts"
	cacheapp "github.com/louisbranch/offlinecache/internal/services/offlinecache/app"
	"github.com/louisbranch/offlinecache/internal/services/offlinecache/domain"
)

// Config holds offline cache command configuration.
type Config struct {
	HTTPAddr           string        `env:"OFFLINECACHE_HTTP_ADDR" envDefault:":8080"`
	HealthPort         int           `env:"OFFLINECACHE_HEALTH_PORT" envDefault:"8081"`
	Origin             string        `env:"OFFLINECACHE_ORIGIN"`
	CacheName          string        `env:"OFFLINECACHE_CACHE_NAME" envDefault:"site-cache-v1"`
	Manifest           []string      `env:"OFFLINECACHE_MANIFEST" envSeparator:"," envDefault:"/"`
	RootPath           string        `env:"OFFLINECACHE_ROOT_PATH" envDefault:"/"`
	Policy             string        `env:"OFFLINECACHE_INSTALL_POLICY" envDefault:"lenient"`
	SkipWaiting        bool          `env:"OFFLINECACHE_SKIP_WAITING" envDefault:"true"`
	InstallConcurrency int           `env:"OFFLINECACHE_INSTALL_CONCURRENCY" envDefault:"4"`
	Store              string        `env:"OFFLINECACHE_STORE" envDefault:"sqlite"`
	DBPath             string        `env:"OFFLINECACHE_DB_PATH" envDefault:"data/offlinecache.db"`
	RedisAddr          string        `env:"OFFLINECACHE_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPrefix        string        `env:"OFFLINECACHE_REDIS_PREFIX" envDefault:"offlinecache"`
	FetchTimeout       time.Duration `env:"OFFLINECACHE_FETCH_TIMEOUT" envDefault:"15s"`
	MaxBodyBytes       int64         `env:"OFFLINECACHE_MAX_BODY_BYTES" envDefault:"33554432"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The proxy HTTP listen address")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "The health gRPC server port")
	fs.StringVar(&cfg.Origin, "origin", cfg.Origin, "The application origin, e.g. https://shop.example")
	fs.StringVar(&cfg.CacheName, "cache-name", cfg.CacheName, "The versioned cache generation name")
	fs.Func("manifest", "Comma-separated asset paths to pre-cache", func(value string) error {
		cfg.Manifest = splitList(value)
		return nil
	})
	fs.StringVar(&cfg.RootPath, "root-path", cfg.RootPath, "The path opened when a notification finds no window")
	fs.StringVar(&cfg.Policy, "install-policy", cfg.Policy, "Install policy: lenient or strict")
	fs.BoolVar(&cfg.SkipWaiting, "skip-waiting", cfg.SkipWaiting, "Activate as soon as install completes")
	fs.IntVar(&cfg.InstallConcurrency, "install-concurrency", cfg.InstallConcurrency, "Concurrent asset fetches during install")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "Cache backend: sqlite, redis or memory")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The cache SQLite database path")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "The cache Redis address")
	fs.StringVar(&cfg.RedisPrefix, "redis-prefix", cfg.RedisPrefix, "The cache Redis key prefix")
	fs.DurationVar(&cfg.FetchTimeout, "fetch-timeout", cfg.FetchTimeout, "Origin request timeout")
	fs.Int64Var(&cfg.MaxBodyBytes, "max-body-bytes", cfg.MaxBodyBytes, "Largest origin response body buffered")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if _, err := domain.ParseInstallPolicy(cfg.Policy); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.Origin) == "" {
		return Config{}, fmt.Errorf("origin is required")
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = timeouts.OriginFetch
	}
	return cfg, nil
}

// Run starts the offline cache runtime.
func Run(ctx context.Context, cfg Config) error {
	policy, err := domain.ParseInstallPolicy(cfg.Policy)
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceOfflineCache, func(context.Context) error {
		return cacheapp.Run(ctx, cacheapp.RuntimeConfig{
			HTTPAddr:   cfg.HTTPAddr,
			HealthPort: cfg.HealthPort,
			Cache: domain.ConfigInput{
				CacheName:          cfg.CacheName,
				Manifest:           cfg.Manifest,
				Origin:             cfg.Origin,
				RootPath:           cfg.RootPath,
				Policy:             policy,
				SkipWaiting:        cfg.SkipWaiting,
				InstallConcurrency: cfg.InstallConcurrency,
			},
			Store:        cfg.Store,
			DBPath:       cfg.DBPath,
			RedisAddr:    cfg.RedisAddr,
			RedisPrefix:  cfg.RedisPrefix,
			FetchTimeout: cfg.FetchTimeout,
			MaxBodyBytes: cfg.MaxBodyBytes,
		})
	})
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
