package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/offlinecache/internal/platform/timeouts"
	"github.com/louisbranch/offlinecache/internal/services/offlinecache/clients"
	"github.com/louisbranch/offlinecache/internal/services/offlinecache/domain"
	"github.com/louisbranch/offlinecache/internal/services/offlinecache/network"
	"github.com/louisbranch/offlinecache/internal/services/offlinecache/notify"
	"github.com/louisbranch/offlinecache/internal/services/offlinecache/storage"
	"github.com/louisbranch/offlinecache/internal/services/offlinecache/storage/memory"
	cacheredis "github.com/louisbranch/offlinecache/internal/services/offlinecache/storage/redis"
	cachesqlite "github.com/louisbranch/offlinecache/internal/services/offlinecache/storage/sqlite"
)

// HealthService is the gRPC health service name tracking activation.
const HealthService = "offlinecache.worker"

// RuntimeConfig controls proxy startup and its dependencies.
type RuntimeConfig struct {
	HTTPAddr   string
	HealthPort int

	Cache domain.ConfigInput

	Store       string
	DBPath      string
	RedisAddr   string
	RedisPrefix string

	FetchTimeout time.Duration
	MaxBodyBytes int64
}

const (
	defaultHTTPAddr   = ":8080"
	defaultHealthPort = 8081
	defaultDBPath     = "data/offlinecache.db"
	defaultRedisAddr  = "localhost:6379"
)

// Run starts the proxy, installs and activates the configured cache
// generation, and serves until ctx ends.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		cfg.HTTPAddr = defaultHTTPAddr
	}
	if cfg.HealthPort <= 0 {
		cfg.HealthPort = defaultHealthPort
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = timeouts.OriginFetch
	}

	cacheConfig, err := domain.NewConfig(cfg.Cache)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close cache store: %v", closeErr)
		}
	}()

	fetcher := network.New(network.Config{Timeout: cfg.FetchTimeout, MaxBodyBytes: cfg.MaxBodyBytes})
	registry := clients.NewRegistry()
	center := notify.NewCenter()
	worker, err := domain.NewWorker(cacheConfig, domain.Dependencies{
		Storage:       newDomainStoreAdapter(store),
		Network:       fetcher,
		Clients:       registry,
		Notifications: center,
		Logf:          log.Printf,
	})
	if err != nil {
		return fmt.Errorf("build worker: %w", err)
	}
	handler, err := NewHandler(HandlerDeps{
		Worker:        worker,
		Network:       fetcher,
		Store:         store,
		Clients:       registry,
		Notifications: center,
		Logf:          log.Printf,
	})
	if err != nil {
		return fmt.Errorf("build handler: %w", err)
	}

	healthListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HealthPort))
	if err != nil {
		return fmt.Errorf("listen on health port %d: %w", cfg.HealthPort, err)
	}
	defer healthListener.Close()

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(HealthService, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(handler, "offlinecache"),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("health server listening at %v", healthListener.Addr())
		if err := grpcServer.Serve(healthListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve health: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		return nil
	})
	g.Go(func() error {
		return serveHTTP(gctx, httpServer, httpListener, timeouts.Shutdown)
	})
	g.Go(func() error {
		if err := startLifecycle(gctx, worker); err != nil {
			log.Printf("worker lifecycle: %v; serving uncontrolled", err)
			return nil
		}
		healthServer.SetServingStatus(HealthService, grpc_health_v1.HealthCheckResponse_SERVING)
		return nil
	})
	return g.Wait()
}

// startLifecycle runs install then activate, waiting on each event.
func startLifecycle(ctx context.Context, worker *domain.Worker) error {
	installed, err := worker.Install(ctx).Wait(ctx)
	if err != nil {
		return fmt.Errorf("install: %w", err)
	}
	log.Printf("installed %s: %d cached, %d failed", installed.CacheName, len(installed.Cached), len(installed.Failed))

	activated, err := worker.Activate(ctx).Wait(ctx)
	if err != nil {
		return fmt.Errorf("activate: %w", err)
	}
	log.Printf("activated %s: deleted %v, claimed %d clients", activated.CacheName, activated.Deleted, activated.Claimed)
	return nil
}

// serveHTTP runs server until ctx ends, then shuts it down gracefully.
func serveHTTP(ctx context.Context, server *http.Server, listener net.Listener, shutdownTimeout time.Duration) error {
	serveErr := make(chan error, 1)
	log.Printf("offline cache proxy listening on %s", listener.Addr())
	go func() {
		serveErr <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := server.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

func openStore(ctx context.Context, cfg RuntimeConfig) (storage.Store, error) {
	switch backend := strings.ToLower(strings.TrimSpace(cfg.Store)); backend {
	case "", storage.BackendSQLite:
		path := strings.TrimSpace(cfg.DBPath)
		if path == "" {
			path = defaultDBPath
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create cache storage dir: %w", err)
			}
		}
		store, err := cachesqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open cache sqlite store: %w", err)
		}
		return store, nil
	case storage.BackendRedis:
		addr := strings.TrimSpace(cfg.RedisAddr)
		if addr == "" {
			addr = defaultRedisAddr
		}
		store, err := cacheredis.Open(ctx, cacheredis.Config{Addr: addr, KeyPrefix: cfg.RedisPrefix})
		if err != nil {
			return nil, fmt.Errorf("open cache redis store: %w", err)
		}
		return store, nil
	case storage.BackendMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown cache store %q", backend)
	}
}
