package domain

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pending is the handle of lifecycle work the host awaits.
type Pending[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func startPending[T any](ctx context.Context, run func(context.Context) (T, error)) *Pending[T] {
	p := &Pending[T]{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.value, p.err = run(ctx)
	}()
	return p
}

func failedPending[T any](err error) *Pending[T] {
	p := &Pending[T]{done: make(chan struct{}), err: err}
	close(p.done)
	return p
}

// Done is closed once the work has resolved.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the work resolves or ctx ends. Giving up on the wait
// does not cancel the work itself.
func (p *Pending[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Lifetime keeps one lifecycle event pending until every piece of work
// started under it has finished.
type Lifetime struct {
	ctx   context.Context
	group errgroup.Group

	mu   sync.Mutex
	errs []error
}

// NewLifetime returns a Lifetime running at most limit pieces of work at
// once. A limit <= 0 means unbounded.
func NewLifetime(ctx context.Context, limit int) *Lifetime {
	l := &Lifetime{ctx: ctx}
	if limit > 0 {
		l.group.SetLimit(limit)
	}
	return l
}

// WaitUntil starts fn and extends the event until it returns.
func (l *Lifetime) WaitUntil(fn func(context.Context) error) {
	l.group.Go(func() error {
		if err := fn(l.ctx); err != nil {
			l.mu.Lock()
			l.errs = append(l.errs, err)
			l.mu.Unlock()
		}
		return nil
	})
}

// Wait joins all started work and returns every failure joined together.
func (l *Lifetime) Wait() error {
	_ = l.group.Wait()
	l.mu.Lock()
	defer l.mu.Unlock()
	return errors.Join(l.errs...)
}
