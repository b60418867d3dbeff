package domain

import (
	"context"
	"fmt"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/offlinecache/internal/services/offlinecache/domain"

// Dependencies are the host capabilities a Worker consumes.
type Dependencies struct {
	Storage       CacheStorage
	Network       Network
	Clients       Clients
	Notifications Notifications
	// Logf receives non-fatal diagnostics. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// Worker drives one deployed version of the offline cache through
// install, activation and request handling.
type Worker struct {
	cfg           Config
	storage       CacheStorage
	network       Network
	clients       Clients
	notifications Notifications
	logf          func(string, ...any)
	tracer        trace.Tracer

	mu    sync.RWMutex
	state State
	cache Cache
}

// NewWorker builds a worker in StateNew.
func NewWorker(cfg Config, deps Dependencies) (*Worker, error) {
	if cfg.CacheName() == "" {
		return nil, fmt.Errorf("%w: config was not built with NewConfig", ErrInvalidConfig)
	}
	switch {
	case deps.Storage == nil:
		return nil, fmt.Errorf("%w: cache storage", ErrDependencyMissing)
	case deps.Network == nil:
		return nil, fmt.Errorf("%w: network", ErrDependencyMissing)
	case deps.Clients == nil:
		return nil, fmt.Errorf("%w: clients", ErrDependencyMissing)
	case deps.Notifications == nil:
		return nil, fmt.Errorf("%w: notifications", ErrDependencyMissing)
	}
	logf := deps.Logf
	if logf == nil {
		logf = log.Printf
	}
	return &Worker{
		cfg:           cfg,
		storage:       deps.Storage,
		network:       deps.Network,
		clients:       deps.Clients,
		notifications: deps.Notifications,
		logf:          logf,
		tracer:        otel.Tracer(tracerName),
		state:         StateNew,
	}, nil
}

// Config returns the worker configuration.
func (w *Worker) Config() Config {
	return w.cfg
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Worker) transition(from State, to State) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != from {
		return fmt.Errorf("%w: worker is %s, want %s", ErrInvalidTransition, w.state, from)
	}
	next, err := Transition(from, to)
	if err != nil {
		return err
	}
	w.state = next
	return nil
}

// Install handles the install event. The returned handle resolves once
// every manifest asset has been attempted.
func (w *Worker) Install(ctx context.Context) *Pending[InstallReport] {
	if err := w.transition(StateNew, StateInstalling); err != nil {
		return failedPending[InstallReport](err)
	}
	return startPending(ctx, func(ctx context.Context) (InstallReport, error) {
		ctx, span := w.tracer.Start(ctx, "offlinecache.install", trace.WithAttributes(
			attribute.String("offlinecache.cache_name", w.cfg.CacheName()),
			attribute.Int("offlinecache.manifest_size", len(w.cfg.assets)),
			attribute.String("offlinecache.install_policy", w.cfg.Policy().String()),
		))
		defer span.End()

		report, cache, err := install(ctx, w.cfg, w.storage, w.network, w.logf)
		span.SetAttributes(
			attribute.Int("offlinecache.cached", len(report.Cached)),
			attribute.Int("offlinecache.failed", len(report.Failed)),
		)
		if err != nil {
			w.fail(StateInstalling)
			span.RecordError(err)
			span.SetStatus(codes.Error, "install failed")
			return report, err
		}

		w.mu.Lock()
		w.cache = cache
		w.mu.Unlock()
		if err := w.transition(StateInstalling, StateInstalled); err != nil {
			return report, err
		}
		return report, nil
	})
}

// Activate handles the activate event. It must follow a completed Install.
func (w *Worker) Activate(ctx context.Context) *Pending[ActivateReport] {
	if err := w.transition(StateInstalled, StateActivating); err != nil {
		return failedPending[ActivateReport](err)
	}
	return startPending(ctx, func(ctx context.Context) (ActivateReport, error) {
		ctx, span := w.tracer.Start(ctx, "offlinecache.activate", trace.WithAttributes(
			attribute.String("offlinecache.cache_name", w.cfg.CacheName()),
		))
		defer span.End()

		report, err := activate(ctx, w.cfg, w.storage, w.clients, w.logf)
		span.SetAttributes(
			attribute.Int("offlinecache.deleted", len(report.Deleted)),
			attribute.Int("offlinecache.claimed", report.Claimed),
		)
		if err != nil {
			w.fail(StateActivating)
			span.RecordError(err)
			span.SetStatus(codes.Error, "activate failed")
			return report, err
		}
		if err := w.transition(StateActivating, StateActive); err != nil {
			return report, err
		}
		return report, nil
	})
}

func (w *Worker) fail(from State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if next, err := Transition(from, StateRedundant); err == nil && w.state == from {
		w.state = next
	}
}

func (w *Worker) activeCache() (Cache, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.state != StateActive || w.cache == nil {
		return nil, fmt.Errorf("%w: state %s", ErrNotActive, w.state)
	}
	return w.cache, nil
}

// Fetch intercepts one request from a controlled page. Network failures are
// returned unmodified.
func (w *Worker) Fetch(ctx context.Context, request Request) (Response, FetchSource, error) {
	cache, err := w.activeCache()
	if err != nil {
		return Response{}, SourceNetwork, err
	}
	return intercept(ctx, cache, w.network, request)
}

// NotificationClick routes a click on a displayed notification.
func (w *Worker) NotificationClick(ctx context.Context, notification Notification) (ClickOutcome, error) {
	if _, err := w.activeCache(); err != nil {
		return ClickOutcome{}, err
	}
	ctx, span := w.tracer.Start(ctx, "offlinecache.notification_click", trace.WithAttributes(
		attribute.String("offlinecache.notification_tag", notification.Tag),
	))
	defer span.End()

	outcome, err := routeClick(ctx, w.cfg, w.clients, w.notifications, notification)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "notification click failed")
		return outcome, err
	}
	span.SetAttributes(attribute.String("offlinecache.click_action", string(outcome.Action)))
	return outcome, nil
}
