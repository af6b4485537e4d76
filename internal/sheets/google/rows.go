package google

import (
	"math"
	"time"

	"spesecli/internal/core"
)

const lastColumn = "H"

func headerRow() []any {
	return []any{"Year", "Month", "Category", "Budget", "Spent", "Used %", "Status", "Exported At"}
}

// reportRows lays a report out as one row per category followed by a total
// row. Amounts are plain rupee numbers so that the sheet can sum them.
func reportRows(r core.MonthlyReport, exportedAt time.Time) [][]any {
	stamp := exportedAt.UTC().Format(time.RFC3339)
	rows := make([][]any, 0, len(r.Categories)+1)
	for _, c := range r.Categories {
		rows = append(rows, []any{
			r.Year, r.Month, string(c.Category),
			c.BudgetAmount.Float(), c.AmountSpent.Float(),
			round1(c.PercentageUsed), c.Status(), stamp,
		})
	}

	var used float64
	if r.TotalBudget.Cents > 0 {
		used = float64(r.TotalSpent.Cents) / float64(r.TotalBudget.Cents) * 100
	}
	status := r.BudgetStatus
	if status == "" {
		status = core.CategoryReport{PercentageUsed: used}.Status()
	}
	rows = append(rows, []any{
		r.Year, r.Month, "Total",
		r.TotalBudget.Float(), r.TotalSpent.Float(),
		round1(used), status, stamp,
	})
	return rows
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
