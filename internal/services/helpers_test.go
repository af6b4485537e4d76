package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"spesecli/internal/apiclient"
	"spesecli/internal/log"
)

type call struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
}

// fakeServer records every call and answers from a per-route table keyed by
// "METHOD /path".
type fakeServer struct {
	mu     sync.Mutex
	calls  []call
	routes map[string]func(w http.ResponseWriter, r *http.Request)
}

func newFakeServer(t *testing.T) (*fakeServer, *apiclient.Client) {
	t.Helper()
	f := &fakeServer{routes: make(map[string]func(http.ResponseWriter, *http.Request))}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c, err := apiclient.New(apiclient.Config{BaseURL: srv.URL + "/api"}, apiclient.TokenFunc(func() string { return "T" }), log.Discard())
	require.NoError(t, err)
	return f, c
}

func (f *fakeServer) on(route string, status int, body any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[route] = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	}
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, call{r.Method, r.URL.Path, r.URL.Query(), string(b)})
	h, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"no route"}`))
		return
	}
	h(w, r)
}

func (f *fakeServer) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}
