package view

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"spesecli/internal/core"
	"spesecli/internal/log"
	"spesecli/internal/refresh"
)

type SummarySource interface {
	Summary(ctx context.Context, p core.Period) ([]core.ExpenseSummary, error)
}

type ComparisonSource interface {
	Comparison(ctx context.Context, p core.Period) ([]core.BudgetComparison, error)
}

type Dashboard struct {
	Period     core.Period
	Summary    []core.ExpenseSummary
	Comparison []core.BudgetComparison
	Totals     core.DashboardTotals
	Alerts     core.BudgetAlerts
}

// LoadDashboard fetches the expense summary and the budget comparison for p
// in parallel. If either call fails the other is cancelled.
func LoadDashboard(ctx context.Context, expenses SummarySource, budgets ComparisonSource, p core.Period) (Dashboard, error) {
	d := Dashboard{Period: p}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := expenses.Summary(gctx, p)
		if err != nil {
			return fmt.Errorf("dashboard summary: %w", err)
		}
		d.Summary = s
		return nil
	})
	g.Go(func() error {
		c, err := budgets.Comparison(gctx, p)
		if err != nil {
			return fmt.Errorf("dashboard comparison: %w", err)
		}
		d.Comparison = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d.Totals = core.Totals(d.Summary, d.Comparison)
	d.Alerts = core.Alerts(d.Comparison)
	return d, nil
}

// NewDashboardLoader reloads the dashboard for period() whenever expenses,
// budgets or derived data change.
func NewDashboardLoader(bus *refresh.Bus, expenses SummarySource, budgets ComparisonSource, period func() core.Period, logger *log.Logger) *Loader[Dashboard] {
	fetch := func(ctx context.Context) (Dashboard, error) {
		return LoadDashboard(ctx, expenses, budgets, period())
	}
	return NewLoader(bus, fetch, logger, refresh.Expenses, refresh.Budgets, refresh.Data)
}
