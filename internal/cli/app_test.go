package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spesecli/internal/apiclient"
	"spesecli/internal/config"
	"spesecli/internal/core"
	"spesecli/internal/log"
	"spesecli/internal/refresh"
	"spesecli/internal/services"
	sheetmem "spesecli/internal/sheets/memory"
)

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	return &config.Config{
		APIBaseURL:            baseURL,
		APITimeout:            5 * time.Second,
		APIRateBurst:          1,
		StorageBackend:        "sqlite",
		SessionDBPath:         filepath.Join(t.TempDir(), "session.db"),
		HealthCheckInterval:   time.Minute,
		AMQPExchange:          "spese.refresh",
		GoogleReportSheetName: "Reports",
		LogFormat:             "text",
	}
}

func fakeServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var auth []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/login", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"_id": "u1", "name": "A", "email": "a@x", "token": "T1"})
	})
	mux.HandleFunc("/api/expenses", func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]any{})
	})
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "database": "connected"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &auth
}

func TestApp_SessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	srv, auth := fakeServer(t)
	cfg := testConfig(t, srv.URL+"/api")

	app := NewApp(cfg, log.Discard())
	require.NoError(t, app.Initialize(ctx))

	_, err := app.Expenses.List(ctx)
	require.NoError(t, err)
	_, err = app.Session.Login(ctx, "a@x", "pw")
	require.NoError(t, err)
	_, err = app.Expenses.List(ctx)
	require.NoError(t, err)
	require.NoError(t, app.Dispose(ctx))

	assert.Equal(t, []string{"", "Bearer T1"}, *auth)

	restarted := NewApp(cfg, log.Discard())
	require.NoError(t, restarted.Initialize(ctx))
	defer func() { _ = restarted.Dispose(ctx) }()
	assert.Equal(t, "T1", restarted.Session.Token())

	require.NoError(t, restarted.Session.Logout(ctx))
	_, err = restarted.Expenses.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", (*auth)[2])
}

func TestApp_BusAndHealth(t *testing.T) {
	ctx := context.Background()
	srv, _ := fakeServer(t)
	cfg := testConfig(t, srv.URL+"/api")
	cfg.StorageBackend = "memory"

	app := NewApp(cfg, log.Discard())
	require.NoError(t, app.Initialize(ctx))

	app.Bus.Signal(refresh.Expenses)
	assert.True(t, app.Bus.Value(refresh.Expenses).Toggle)

	st := app.Health.Check(ctx)
	assert.True(t, st.ServiceUp)
	assert.True(t, st.DataStoreUp)
	assert.NoError(t, app.Health.Guard())

	require.NoError(t, app.StartHealthMonitor(ctx))
	require.NoError(t, app.Dispose(ctx))
	assert.False(t, app.Health.IsRunning())
}

func TestApp_ReportExporterDefaultsToMemory(t *testing.T) {
	ctx := context.Background()
	srv, _ := fakeServer(t)
	cfg := testConfig(t, srv.URL+"/api")
	cfg.StorageBackend = "memory"

	app := NewApp(cfg, log.Discard())
	require.NoError(t, app.Initialize(ctx))
	defer func() { _ = app.Dispose(ctx) }()

	exp, err := app.ReportExporter(ctx)
	require.NoError(t, err)
	assert.False(t, app.ExportRemote)
	_, ok := exp.(*sheetmem.Store)
	assert.True(t, ok)

	ref, err := exp.Export(ctx, core.MonthlyReport{Year: 2024, Month: 6, Categories: []core.CategoryReport{{Category: core.Food}}})
	require.NoError(t, err)
	assert.NotEmpty(t, ref)
}

func TestApp_InvalidBackend(t *testing.T) {
	cfg := testConfig(t, "http://localhost:1/api")
	cfg.StorageBackend = "redis"
	app := NewApp(cfg, log.Discard())
	assert.Error(t, app.Initialize(context.Background()))
	assert.NoError(t, app.Dispose(context.Background()))
}

func TestApp_WritesRefusedWhileDatabaseDown(t *testing.T) {
	ctx := context.Background()
	var writes []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "database": "disconnected"})
	})
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		writes = append(writes, r.Method+" "+r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"_id": "u1", "name": "A", "email": "a@x", "token": "T1"})
	})
	mux.HandleFunc("/api/expenses", func(w http.ResponseWriter, r *http.Request) {
		writes = append(writes, r.Method+" "+r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"_id": "e1"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := testConfig(t, srv.URL+"/api")
	cfg.StorageBackend = "memory"
	app := NewApp(cfg, log.Discard())
	require.NoError(t, app.Initialize(ctx))
	defer func() { _ = app.Dispose(ctx) }()

	_, err := app.Register(ctx, "A", "a@x", "secret1")
	assert.ErrorIs(t, err, services.ErrDataStoreDown)
	_, ok := app.Session.Current()
	assert.False(t, ok)

	_, err = app.Mutations.CreateExpense(ctx, core.ExpenseInput{
		Amount:      core.Rupees(500),
		Description: "Groceries",
		Category:    core.Food,
		Date:        core.NewDate(2024, 6, 15),
	})
	assert.ErrorIs(t, err, services.ErrDataStoreDown)
	assert.ErrorIs(t, err, apiclient.ErrDataStoreDown)

	assert.Empty(t, writes)
	assert.True(t, app.Health.Status().Checked)
}
