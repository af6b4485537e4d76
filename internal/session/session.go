// Package session holds the authenticated identity of the running client.
// The session is persisted under a single storage key and rehydrated on
// Initialize; it is never validated against the server at startup.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"spesecli/internal/core"
	"spesecli/internal/log"
	"spesecli/internal/storage"
)

// StorageKey is where the serialized session lives.
const StorageKey = "user"

type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
	// AuthFailed is reported while the last attempt failed and there is no
	// session to fall back to. ClearError returns the store to Anonymous.
	AuthFailed
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case AuthFailed:
		return "auth_failed"
	default:
		return "anonymous"
	}
}

// Authenticator is the pair of auth endpoints. services.AuthAPI implements it.
type Authenticator interface {
	Register(ctx context.Context, name, email, password string) (core.Session, error)
	Login(ctx context.Context, email, password string) (core.Session, error)
}

type listener struct {
	id int
	fn func(State, *core.Session)
}

type Store struct {
	api    Authenticator
	kv     storage.KV
	logger *log.Logger

	mu        sync.Mutex
	current   *core.Session
	inFlight  int
	lastErr   error
	disposed  bool
	listeners []listener
	nextID    int
}

func New(api Authenticator, kv storage.KV, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Store{api: api, kv: kv, logger: logger.WithComponent(log.ComponentSession)}
}

// Initialize loads the persisted session, if any. A stored entry that does
// not decode, or that carries no token, is removed and the store starts
// anonymous.
func (s *Store) Initialize(ctx context.Context) error {
	raw, err := s.kv.Get(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.DebugContext(ctx, "No stored session")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	var sess core.Session
	if err := json.Unmarshal(raw, &sess); err != nil || !sess.Valid() {
		s.logger.WarnContext(ctx, "Discarding unreadable stored session", log.FieldError, err)
		if derr := s.kv.Delete(ctx, StorageKey); derr != nil {
			return fmt.Errorf("discard session: %w", derr)
		}
		return nil
	}

	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "Session restored", log.FieldUserID, sess.UserID)
	s.notify()
	return nil
}

// Dispose detaches every listener. Storage is left as it is.
func (s *Store) Dispose() {
	s.mu.Lock()
	s.disposed = true
	s.listeners = nil
	s.mu.Unlock()
}

// Current returns a copy of the session without touching the network.
func (s *Store) Current() (core.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return core.Session{}, false
	}
	return *s.current, true
}

// Token returns the bearer token, or "" when anonymous. It satisfies
// apiclient.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Store) stateLocked() State {
	switch {
	case s.inFlight > 0:
		return Authenticating
	case s.current != nil:
		return Authenticated
	case s.lastErr != nil:
		return AuthFailed
	default:
		return Anonymous
	}
}

// LastError returns the error of the most recent failed Login or Register,
// until it is cleared or a later call succeeds.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store) ClearError() {
	s.mu.Lock()
	had := s.lastErr != nil
	s.lastErr = nil
	s.mu.Unlock()
	if had {
		s.notify()
	}
}

func (s *Store) Login(ctx context.Context, email, password string) (core.Session, error) {
	return s.authenticate(ctx, log.OpLogin, false, func() (core.Session, error) {
		return s.api.Login(ctx, email, password)
	})
}

func (s *Store) Register(ctx context.Context, name, email, password string) (core.Session, error) {
	return s.authenticate(ctx, log.OpRegister, true, func() (core.Session, error) {
		return s.api.Register(ctx, name, email, password)
	})
}

func (s *Store) authenticate(ctx context.Context, op string, register bool, call func() (core.Session, error)) (core.Session, error) {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
	s.notify()

	sess, err := call()
	if err == nil && !sess.Valid() {
		err = errors.New("server returned a session without token")
	}

	if err != nil {
		authErr := classify(err, register)
		s.mu.Lock()
		s.inFlight--
		s.lastErr = authErr
		s.mu.Unlock()
		s.logger.WarnContext(ctx, "Authentication failed",
			log.NewFields().WithOperation(op).WithError(err).ToSlice()...)
		s.notify()
		return core.Session{}, authErr
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
		s.notify()
		return core.Session{}, fmt.Errorf("encode session: %w", err)
	}

	s.mu.Lock()
	if err := s.kv.Set(ctx, StorageKey, raw); err != nil {
		s.inFlight--
		s.mu.Unlock()
		s.notify()
		return core.Session{}, fmt.Errorf("persist session: %w", err)
	}
	s.current = &sess
	s.inFlight--
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Authenticated",
		log.NewFields().WithOperation(op).ToSlice()...)
	s.notify()
	return sess, nil
}

// Logout forgets the session in memory and in storage. Logging out while
// anonymous is not an error.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	if err := s.kv.Delete(ctx, StorageKey); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("remove session: %w", err)
	}
	had := s.current != nil
	s.current = nil
	s.lastErr = nil
	s.mu.Unlock()

	if had {
		s.logger.InfoContext(ctx, "Logged out",
			log.FieldOperation, log.OpLogout,
			log.FieldState, Anonymous.String())
		s.notify()
	}
	return nil
}

// OnChange registers fn to run after every state transition. The returned
// func removes it and may be called more than once.
func (s *Store) OnChange(fn func(State, *core.Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return func() {}
	}
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	state := s.stateLocked()
	var snapshot *core.Session
	if s.current != nil {
		cp := *s.current
		snapshot = &cp
	}
	fns := make([]func(State, *core.Session), len(s.listeners))
	for i, l := range s.listeners {
		fns[i] = l.fn
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(state, snapshot)
	}
}
