package view

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spesecli/internal/apiclient"
	"spesecli/internal/core"
	"spesecli/internal/log"
	"spesecli/internal/refresh"
	"spesecli/internal/services"
)

// fakeAPI is a tiny in-memory stand-in for the remote API: it stores one
// Food budget of 1000 for 6/2024 and derives the comparison from whatever
// expenses were created.
func fakeAPI(t *testing.T) *apiclient.Client {
	t.Helper()
	var spent float64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/expenses", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		spent += in["amount"].(float64)
		in["_id"] = "e1"
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(in)
	})
	mux.HandleFunc("/api/expenses/summary", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{{"_id": "Food", "total": spent, "count": 1}})
	})
	mux.HandleFunc("/api/budgets/comparison", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("month") != "6" || r.URL.Query().Get("year") != "2024" {
			_ = json.NewEncoder(w).Encode([]any{})
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{{
			"category": "Food", "budgeted": 1000, "actual": spent,
			"remaining": 1000 - spent, "percentage": spent / 1000 * 100,
		}})
	})
	mux.HandleFunc("/api/budgets/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/budgets/")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := apiclient.New(apiclient.Config{BaseURL: srv.URL + "/api"}, nil, log.Discard())
	require.NoError(t, err)
	return c
}

func TestMutations_ExpenseThenComparison(t *testing.T) {
	ctx := context.Background()
	bus := newBus(t)
	c := fakeAPI(t)
	expenses := services.NewExpenseService(c, log.Discard())
	budgets := services.NewBudgetService(c, log.Discard())
	m := NewMutations(expenses, budgets, services.NewReportService(c), bus, nil, log.Discard())

	before := map[refresh.Domain]refresh.Value{}
	for _, d := range refresh.Domains() {
		before[d] = bus.Value(d)
	}

	_, err := m.CreateExpense(ctx, core.ExpenseInput{
		Amount:      core.Rupees(500),
		Description: "groceries",
		Category:    core.Food,
		Date:        core.NewDate(2024, 6, 10),
	})
	require.NoError(t, err)

	for _, d := range refresh.Domains() {
		assert.NotEqual(t, before[d].Toggle, bus.Value(d).Toggle, "domain %s must be signalled", d)
	}

	cmp, err := budgets.Comparison(ctx, core.Period{Month: 6, Year: 2024})
	require.NoError(t, err)
	food, ok := core.FindComparison(cmp, core.Food)
	require.True(t, ok)
	assert.Equal(t, core.Rupees(500), food.Actual)
	assert.Equal(t, core.Rupees(500), food.Remaining)
	assert.Equal(t, 50.0, food.Percentage)
}

func TestMutations_BudgetDeleteSkipsExpenses(t *testing.T) {
	bus := newBus(t)
	c := fakeAPI(t)
	m := NewMutations(services.NewExpenseService(c, log.Discard()), services.NewBudgetService(c, log.Discard()), services.NewReportService(c), bus, nil, log.Discard())

	res, err := m.DeleteBudget(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", res.ID)
	assert.Equal(t, refresh.Value{}, bus.Value(refresh.Expenses))
	assert.True(t, bus.Value(refresh.Budgets).Toggle)
	assert.True(t, bus.Value(refresh.Data).Toggle)
}

type blockingGuard struct{ err error }

func (g blockingGuard) Ready(context.Context) error { return g.err }

func TestMutations_GuardBlocksWithoutSignal(t *testing.T) {
	bus := newBus(t)
	c := fakeAPI(t)
	m := NewMutations(services.NewExpenseService(c, log.Discard()), services.NewBudgetService(c, log.Discard()), services.NewReportService(c), bus, blockingGuard{services.ErrDataStoreDown}, log.Discard())

	_, err := m.CreateBudget(context.Background(), core.BudgetInput{Amount: core.Rupees(10), Category: core.Food, Month: 1, Year: 2024})
	assert.ErrorIs(t, err, services.ErrDataStoreDown)
	for _, d := range refresh.Domains() {
		assert.Equal(t, refresh.Value{}, bus.Value(d))
	}
}

func TestMutations_FailedWriteDoesNotSignal(t *testing.T) {
	bus := newBus(t)
	c := fakeAPI(t)
	m := NewMutations(services.NewExpenseService(c, log.Discard()), services.NewBudgetService(c, log.Discard()), services.NewReportService(c), bus, nil, log.Discard())

	_, err := m.DeleteExpense(context.Background(), "")
	assert.ErrorIs(t, err, services.ErrMissingID)
	assert.Equal(t, refresh.Value{}, bus.Value(refresh.Expenses))
}
