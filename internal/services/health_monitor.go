package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"spesecli/internal/apiclient"
	"spesecli/internal/log"
)

// Guard errors wrap the apiclient sentinels so callers can match either.
var (
	ErrServiceDown   = fmt.Errorf("last health check failed: %w", apiclient.ErrUnreachable)
	ErrDataStoreDown = fmt.Errorf("last health check reported the database down: %w", apiclient.ErrDataStoreDown)
)

// HealthChecker is implemented by *apiclient.Client.
type HealthChecker interface {
	CheckHealth(ctx context.Context) apiclient.Health
}

// HealthStatus is the outcome of the most recent health check. Checked is false
// until the first check completes.
type HealthStatus struct {
	apiclient.Health
	Checked   bool
	CheckedAt time.Time
}

type HealthMonitorConfig struct {
	// Interval between checks (default: 30s)
	Interval time.Duration
}

func DefaultHealthMonitorConfig() HealthMonitorConfig {
	return HealthMonitorConfig{Interval: 30 * time.Second}
}

// HealthMonitor polls the API status endpoint and remembers the result so
// mutation flows can refuse to start while the server or its database is
// known to be down.
type HealthMonitor struct {
	checker HealthChecker
	config  HealthMonitorConfig
	logger  *log.Logger

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	status    HealthStatus
	listeners map[int]func(HealthStatus)
	nextID    int
}

func NewHealthMonitor(checker HealthChecker, config HealthMonitorConfig, logger *log.Logger) *HealthMonitor {
	if config.Interval <= 0 {
		config.Interval = DefaultHealthMonitorConfig().Interval
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &HealthMonitor{
		checker:   checker,
		config:    config,
		logger:    logger.WithComponent(log.ComponentHealth),
		listeners: make(map[int]func(HealthStatus)),
	}
}

// Start checks once immediately and then on every interval. Returns an error if already running.
func (m *HealthMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("health monitor is already running")
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.mu.Unlock()

	go m.runLoop(ctx)

	m.logger.DebugContext(ctx, "Health monitor started", "interval", m.config.Interval)
	return nil
}

// Stop halts the loop and waits for it to exit.
func (m *HealthMonitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	stopCh, doneCh := m.stopCh, m.doneCh
	m.running = false
	m.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		return nil
	case <-ctx.Done():
		m.logger.WarnContext(ctx, "Health monitor stop timed out")
		return ctx.Err()
	}
}

func (m *HealthMonitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *HealthMonitor) runLoop(ctx context.Context) {
	m.mu.Lock()
	stopCh, doneCh := m.stopCh, m.doneCh
	m.mu.Unlock()
	defer close(doneCh)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	m.Check(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check queries the server now, records it and notifies listeners when the
// outcome differs from the previous one.
func (m *HealthMonitor) Check(ctx context.Context) HealthStatus {
	h := m.checker.CheckHealth(ctx)
	st := HealthStatus{Health: h, Checked: true, CheckedAt: time.Now()}

	m.mu.Lock()
	changed := !m.status.Checked || m.status.Health != h
	m.status = st
	var fns []func(HealthStatus)
	if changed {
		for _, fn := range m.listeners {
			fns = append(fns, fn)
		}
	}
	m.mu.Unlock()

	if changed {
		switch {
		case !h.ServiceUp:
			m.logger.WarnContext(ctx, "API server is not reachable")
		case !h.DataStoreUp:
			m.logger.WarnContext(ctx, "API server is up but its database is not connected")
		default:
			m.logger.InfoContext(ctx, "API server and database are up")
		}
	}
	for _, fn := range fns {
		fn(st)
	}
	return st
}

func (m *HealthMonitor) Status() HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// OnChange registers fn for status transitions and returns its unsubscribe func.
func (m *HealthMonitor) OnChange(fn func(HealthStatus)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// Ready runs a check when none has completed yet, then applies Guard.
func (m *HealthMonitor) Ready(ctx context.Context) error {
	if !m.Status().Checked {
		m.Check(ctx)
	}
	return m.Guard()
}

// Guard returns an error when the last check found the server or its
// database down. Before the first check it lets everything through.
func (m *HealthMonitor) Guard() error {
	st := m.Status()
	switch {
	case !st.Checked:
		return nil
	case !st.ServiceUp:
		return ErrServiceDown
	case !st.DataStoreUp:
		return ErrDataStoreDown
	}
	return nil
}
