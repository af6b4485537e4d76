// Package view holds the consumer side of the refresh bus: loaders that
// re-fetch on signals, the dashboard aggregate, user-facing notifications
// and mutation helpers that signal after a successful write.
package view

import (
	"context"
	"errors"
	"sync"

	"spesecli/internal/log"
	"spesecli/internal/refresh"
)

type FetchFunc[T any] func(ctx context.Context) (T, error)

// Loader keeps the latest result of fetch and re-runs it whenever one of its
// domains is signalled. A new signal cancels the fetch in flight, and results
// that arrive after Close or after a newer fetch started are dropped.
type Loader[T any] struct {
	bus     *refresh.Bus
	domains []refresh.Domain
	fetch   FetchFunc[T]
	logger  *log.Logger

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	inflight context.CancelFunc
	gen      uint64
	value    T
	err      error
	loaded   bool
	closed   bool
	subs     []*refresh.Subscription
	onUpdate []func(T, error)
	wg       sync.WaitGroup
}

func NewLoader[T any](bus *refresh.Bus, fetch FetchFunc[T], logger *log.Logger, domains ...refresh.Domain) *Loader[T] {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Loader[T]{
		bus:     bus,
		domains: domains,
		fetch:   fetch,
		logger:  logger.WithComponent(log.ComponentView),
	}
}

// OnUpdate registers fn to run after every completed fetch that was not
// superseded.
func (l *Loader[T]) OnUpdate(fn func(T, error)) {
	l.mu.Lock()
	l.onUpdate = append(l.onUpdate, fn)
	l.mu.Unlock()
}

// Start ties the loader to ctx, subscribes to its domains and runs the first
// fetch. Starting twice is a no-op.
func (l *Loader[T]) Start(ctx context.Context) {
	l.mu.Lock()
	if l.ctx != nil || l.closed {
		l.mu.Unlock()
		return
	}
	l.ctx, l.cancel = context.WithCancel(ctx)
	for _, d := range l.domains {
		l.subs = append(l.subs, l.bus.Subscribe(d, func(refresh.Value) { l.Reload() }))
	}
	l.mu.Unlock()

	l.Reload()
}

// Reload starts a new fetch, cancelling the previous one if it is still
// running.
func (l *Loader[T]) Reload() {
	l.mu.Lock()
	if l.closed || l.ctx == nil {
		l.mu.Unlock()
		return
	}
	if l.inflight != nil {
		l.inflight()
	}
	ctx, cancel := context.WithCancel(l.ctx)
	l.inflight = cancel
	l.gen++
	gen := l.gen
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		defer cancel()
		v, err := l.fetch(ctx)
		l.complete(gen, v, err)
	}()
}

func (l *Loader[T]) complete(gen uint64, v T, err error) {
	l.mu.Lock()
	if l.closed || gen != l.gen {
		l.mu.Unlock()
		return
	}
	if errors.Is(err, context.Canceled) {
		l.mu.Unlock()
		return
	}
	l.value, l.err, l.loaded = v, err, true
	l.inflight = nil
	hooks := append(([]func(T, error))(nil), l.onUpdate...)
	l.mu.Unlock()

	if err != nil {
		l.logger.Debug("Fetch failed", log.FieldError, err)
	}
	for _, fn := range hooks {
		fn(v, err)
	}
}

// Latest returns the last completed result. loaded is false until the first
// fetch finishes.
func (l *Loader[T]) Latest() (value T, loaded bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.loaded, l.err
}

// Close cancels the fetch in flight, unsubscribes and waits for the fetch
// goroutines to return.
func (l *Loader[T]) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	subs := l.subs
	l.subs = nil
	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
	l.wg.Wait()
}
