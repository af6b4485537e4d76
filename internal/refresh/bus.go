// Package refresh is the process-wide set of invalidation beacons. A mutation
// site signals a domain; every subscriber of that domain re-fetches through
// the services. A Value carries no data beyond the beacon itself.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"spesecli/internal/log"
)

type Domain string

const (
	Expenses Domain = "expenses"
	Budgets  Domain = "budgets"
	// Data covers everything derived from expenses and budgets: summaries,
	// comparisons and reports.
	Data Domain = "data"
)

var domains = []Domain{Expenses, Budgets, Data}

func Domains() []Domain {
	return append([]Domain(nil), domains...)
}

func ParseDomain(s string) (Domain, error) {
	for _, d := range domains {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown refresh domain %q", s)
}

func (d Domain) valid() bool {
	for _, known := range domains {
		if d == known {
			return true
		}
	}
	return false
}

// Value is the current beacon of a domain. Toggle flips on every signal;
// Stamp strictly increases.
type Value struct {
	Toggle bool
	Stamp  int64
}

// Relay forwards local signals to other processes.
type Relay interface {
	PublishBeacon(ctx context.Context, d Domain, stamp int64) error
}

var ErrDisposed = errors.New("refresh bus disposed")

const (
	relayQueueSize    = 64
	relayPublishLimit = 5 * time.Second
)

type Option func(*Bus)

// WithRelay publishes every local Signal through r. Beacons applied with
// Apply are never re-published.
func WithRelay(r Relay) Option {
	return func(b *Bus) { b.relay = r }
}

func WithLogger(l *log.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// WithClock replaces time.Now as the stamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) { b.now = now }
}

type beacon struct {
	domain Domain
	stamp  int64
}

type Bus struct {
	relay  Relay
	logger *log.Logger
	now    func() time.Time

	mu        sync.Mutex
	values    map[Domain]Value
	subs      map[Domain][]*Subscription
	nextID    int
	active    bool
	disposed  bool
	done      chan struct{}
	outbox    chan beacon
	relayDone chan struct{}
}

func New(opts ...Option) *Bus {
	b := &Bus{
		now:    time.Now,
		values: make(map[Domain]Value, len(domains)),
		subs:   make(map[Domain][]*Subscription, len(domains)),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = log.New(log.DefaultConfig())
	}
	b.logger = b.logger.WithComponent(log.ComponentRefresh)
	return b
}

// Initialize makes the bus live and, with a relay configured, starts the
// publisher goroutine. Calling it twice is harmless; calling it after
// Dispose returns ErrDisposed.
func (b *Bus) Initialize() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return ErrDisposed
	}
	if b.active {
		return nil
	}
	b.active = true
	if b.relay != nil {
		b.outbox = make(chan beacon, relayQueueSize)
		b.relayDone = make(chan struct{})
		go b.publishLoop(b.outbox, b.relayDone)
	}
	b.logger.Debug("Refresh bus initialized", "relay", b.relay != nil)
	return nil
}

// Dispose drops every subscriber, closes Watch channels and flushes the
// relay queue. Later calls on the bus are no-ops.
func (b *Bus) Dispose() {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return
	}
	b.disposed = true
	b.active = false
	b.subs = make(map[Domain][]*Subscription)
	close(b.done)
	outbox, relayDone := b.outbox, b.relayDone
	b.outbox = nil
	b.mu.Unlock()

	if outbox != nil {
		close(outbox)
		<-relayDone
	}
	b.logger.Debug("Refresh bus disposed")
}

// Value returns the current beacon of d.
func (b *Bus) Value(d Domain) Value {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.values[d]
}

// Signal flips d and advances its stamp, then runs d's subscribers. It is
// safe from any goroutine. Every call counts: nothing is coalesced.
func (b *Bus) Signal(d Domain) Value {
	v, ok := b.advance(d, 0, true)
	if ok {
		b.logger.Debug("Signal", log.FieldOperation, log.OpSignal, log.FieldDomain, string(d), log.FieldStamp, v.Stamp)
	}
	return v
}

// Apply records a beacon that arrived from another process. remoteStamp
// only moves the stamp forward; it is never published again.
func (b *Bus) Apply(d Domain, remoteStamp int64) Value {
	v, ok := b.advance(d, remoteStamp, false)
	if ok {
		b.logger.Debug("Remote signal applied", log.FieldDomain, string(d), log.FieldStamp, v.Stamp)
	}
	return v
}

func (b *Bus) advance(d Domain, floor int64, publish bool) (Value, bool) {
	b.mu.Lock()
	if !b.active || !d.valid() {
		v := b.values[d]
		b.mu.Unlock()
		return v, false
	}
	prev := b.values[d]
	stamp := b.now().UnixNano()
	if stamp <= prev.Stamp {
		stamp = prev.Stamp + 1
	}
	if stamp < floor {
		stamp = floor
	}
	v := Value{Toggle: !prev.Toggle, Stamp: stamp}
	b.values[d] = v
	subs := append([]*Subscription(nil), b.subs[d]...)
	if publish && b.outbox != nil {
		select {
		case b.outbox <- beacon{domain: d, stamp: stamp}:
		default:
			b.logger.Warn("Relay queue full, beacon not shared", log.FieldDomain, string(d))
		}
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
	return v, true
}

func (b *Bus) publishLoop(outbox <-chan beacon, done chan<- struct{}) {
	defer close(done)
	for bc := range outbox {
		ctx, cancel := context.WithTimeout(context.Background(), relayPublishLimit)
		if err := b.relay.PublishBeacon(ctx, bc.domain, bc.stamp); err != nil {
			b.logger.Warn("Failed to relay beacon",
				log.FieldDomain, string(bc.domain),
				log.FieldStamp, bc.stamp,
				log.FieldError, err)
		}
		cancel()
	}
}

// Subscription is a registered listener. Unsubscribe may be called any
// number of times.
type Subscription struct {
	bus    *Bus
	domain Domain
	id     int
	fn     func(Value)
	once   sync.Once
}

// Subscribe runs fn after every signal of d, synchronously and outside the
// bus lock. fn must not block.
func (b *Bus) Subscribe(d Domain, fn func(Value)) *Subscription {
	s := &Subscription{bus: b, domain: d, fn: fn}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return s
	}
	b.nextID++
	s.id = b.nextID
	b.subs[d] = append(b.subs[d], s)
	return s
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		b := s.bus
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[s.domain]
		for i, other := range list {
			if other == s {
				b.subs[s.domain] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	})
}

// Watch delivers d's values on a channel until ctx is done or the bus is
// disposed. The channel holds one value: a reader that falls behind gets the
// latest value and misses the ones in between. Stamps on the channel only
// increase; a value that reaches the watcher after a newer one is dropped.
func (b *Bus) Watch(ctx context.Context, d Domain) <-chan Value {
	ch := make(chan Value, 1)

	var (
		mu     sync.Mutex
		closed bool
		newest int64
	)
	sub := b.Subscribe(d, func(v Value) {
		mu.Lock()
		defer mu.Unlock()
		if closed || v.Stamp <= newest {
			return
		}
		newest = v.Stamp
		select {
		case ch <- v:
		default:
			// replace the unread value
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	})

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		sub.Unsubscribe()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()
	return ch
}
