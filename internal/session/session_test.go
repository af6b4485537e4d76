package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spesecli/internal/apiclient"
	"spesecli/internal/core"
	"spesecli/internal/log"
	"spesecli/internal/services"
	"spesecli/internal/storage"
	"spesecli/internal/storage/memory"
)

type fakeAuth struct {
	session core.Session
	err     error
	calls   int
}

func (f *fakeAuth) Login(context.Context, string, string) (core.Session, error) {
	f.calls++
	return f.session, f.err
}

func (f *fakeAuth) Register(context.Context, string, string, string) (core.Session, error) {
	f.calls++
	return f.session, f.err
}

var alice = core.Session{UserID: "u1", Name: "Alice", Email: "a@x", Token: "T1"}

func TestStore_LoginThenLogout(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := New(&fakeAuth{session: alice}, kv, log.Discard())
	require.NoError(t, s.Initialize(ctx))
	assert.Equal(t, Anonymous, s.State())
	assert.Empty(t, s.Token())

	got, err := s.Login(ctx, "a@x", "pw")
	require.NoError(t, err)
	assert.Equal(t, alice, got)
	assert.Equal(t, "T1", s.Token())
	assert.Equal(t, Authenticated, s.State())

	raw, err := kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	var stored core.Session
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, alice, stored)

	require.NoError(t, s.Logout(ctx))
	_, ok := s.Current()
	assert.False(t, ok)
	assert.Empty(t, s.Token())
	_, err = kv.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Logout(ctx), "logout while anonymous")
}

func TestStore_FailedLoginKeepsPriorSession(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuth{session: alice}
	s := New(auth, memory.New(), log.Discard())

	_, err := s.Login(ctx, "a@x", "pw")
	require.NoError(t, err)

	auth.err = &apiclient.Error{Kind: apiclient.KindRemoteRejected, Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	_, err = s.Login(ctx, "a@x", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, apiclient.ErrRemoteRejected)
	assert.Equal(t, MessageInvalidCredentials, err.Error())

	assert.Equal(t, "T1", s.Token())
	assert.Equal(t, Authenticated, s.State())
	assert.ErrorIs(t, s.LastError(), ErrInvalidCredentials)
}

func TestStore_FailedLoginWhenAnonymous(t *testing.T) {
	ctx := context.Background()
	s := New(&fakeAuth{err: &apiclient.Error{Kind: apiclient.KindUnreachable, Status: apiclient.StatusNoResponse}}, memory.New(), log.Discard())

	var states []State
	s.OnChange(func(st State, _ *core.Session) { states = append(states, st) })

	_, err := s.Login(ctx, "a@x", "pw")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.ErrorIs(t, err, apiclient.ErrUnreachable)
	assert.Equal(t, AuthFailed, s.State())

	s.ClearError()
	assert.Equal(t, Anonymous, s.State())
	assert.NoError(t, s.LastError())
	assert.Equal(t, []State{Authenticating, AuthFailed, Anonymous}, states)
}

func TestStore_SessionWithoutTokenIsRejected(t *testing.T) {
	s := New(&fakeAuth{session: core.Session{UserID: "u1"}}, memory.New(), log.Discard())
	_, err := s.Login(context.Background(), "a@x", "pw")
	require.Error(t, err)
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestStore_RehydratesFromSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	kv, err := storage.NewSQLiteStore(path)
	require.NoError(t, err)
	s := New(&fakeAuth{session: alice}, kv, log.Discard())
	_, err = s.Login(ctx, "a@x", "pw")
	require.NoError(t, err)
	require.NoError(t, kv.Close())

	kv, err = storage.NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	auth := &fakeAuth{}
	restored := New(auth, kv, log.Discard())
	require.NoError(t, restored.Initialize(ctx))
	got, ok := restored.Current()
	require.True(t, ok)
	assert.Equal(t, alice, got)
	assert.Equal(t, 0, auth.calls, "rehydration must not hit the network")
}

func TestStore_CorruptEntryIsDiscarded(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Set(ctx, StorageKey, []byte("{not json")))

	s := New(&fakeAuth{}, kv, log.Discard())
	require.NoError(t, s.Initialize(ctx))
	assert.Equal(t, Anonymous, s.State())
	_, err := kv.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_DisposeDetachesListeners(t *testing.T) {
	s := New(&fakeAuth{session: alice}, memory.New(), log.Discard())
	calls := 0
	s.OnChange(func(State, *core.Session) { calls++ })
	s.Dispose()

	_, err := s.Login(context.Background(), "a@x", "pw")
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestStore_ClassificationAgainstAPI(t *testing.T) {
	tests := []struct {
		name     string
		register bool
		status   int
		body     string
		wantKind error
		wantMsg  string
	}{
		{"login unauthorized", false, http.StatusUnauthorized, `{"message":"Invalid credentials"}`, ErrInvalidCredentials, MessageInvalidCredentials},
		{"register duplicate", true, http.StatusBadRequest, `{"message":"User already exists"}`, ErrAccountExists, MessageAccountExists},
		{"register validation", true, http.StatusBadRequest, `{"message":"Please add all fields"}`, ErrRejected, "Please add all fields"},
		{"database down", true, http.StatusServiceUnavailable, `{"message":"db","error":"DATABASE_CONNECTION_ERROR"}`, ErrDataStoreDown, MessageDataStoreDown},
		{"login server error without message", false, http.StatusInternalServerError, `{}`, ErrRejected, MessageLoginFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			s := New(nil, memory.New(), log.Discard())
			c, err := apiclient.New(apiclient.Config{BaseURL: srv.URL}, s, log.Discard())
			require.NoError(t, err)
			s.api = services.NewAuthAPI(c)

			if tt.register {
				_, err = s.Register(context.Background(), "A", "a@x", "pw")
			} else {
				_, err = s.Login(context.Background(), "a@x", "pw")
			}
			var authErr *AuthError
			require.True(t, errors.As(err, &authErr))
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, tt.wantMsg, authErr.Message)
		})
	}
}
