package core

import (
	"math"
	"time"
)

// Thresholds used by budget alerts, in percent of the budgeted amount.
const (
	WarningPercent  = 80.0
	ExceededPercent = 100.0
)

const (
	AlertNone AlertLevel = iota
	AlertWarning
	AlertExceeded
)

type (
	AlertLevel int

	// ExpenseSummary is the per-category aggregate computed by the API.
	ExpenseSummary struct {
		Category Category `json:"_id"`
		Total    Money    `json:"total"`
		Count    int      `json:"count"`
	}

	// BudgetComparison is budget vs actual for one category and month.
	BudgetComparison struct {
		Category   Category `json:"category"`
		Budgeted   Money    `json:"budgeted"`
		Actual     Money    `json:"actual"`
		Remaining  Money    `json:"remaining"`
		Percentage float64  `json:"percentage"`
	}

	// BudgetProjection is what a not-yet-saved expense would do to a category.
	BudgetProjection struct {
		Budgeted     Money
		CurrentSpent Money
		Remaining    Money
		Percentage   int
	}

	// BudgetAlerts groups comparisons that crossed an alert threshold.
	BudgetAlerts struct {
		Exceeded []BudgetComparison
		Warning  []BudgetComparison
	}

	// DashboardTotals is the headline of the dashboard.
	DashboardTotals struct {
		Spent       Money
		Budgeted    Money
		UsedPercent int
		OverBudget  bool
		Difference  Money // absolute distance between Spent and Budgeted
	}

	CategoryReport struct {
		ID             int64    `json:"id"`
		ReportID       int64    `json:"report_id"`
		Category       Category `json:"category"`
		AmountSpent    Money    `json:"amount_spent"`
		BudgetAmount   Money    `json:"budget_amount"`
		IsOverBudget   int      `json:"is_over_budget"`
		PercentageUsed float64  `json:"percentage_used"`
	}

	MonthlyReport struct {
		ID           int64            `json:"id"`
		UserID       string           `json:"user_id"`
		Year         int              `json:"year"`
		Month        int              `json:"month"`
		TotalSpent   Money            `json:"total_spent"`
		TotalBudget  Money            `json:"total_budget"`
		TopCategory  string           `json:"top_category"`
		BudgetStatus string           `json:"budget_status"`
		CreatedAt    time.Time        `json:"created_at"`
		Categories   []CategoryReport `json:"categories"`
	}
)

func (l AlertLevel) String() string {
	switch l {
	case AlertWarning:
		return "warning"
	case AlertExceeded:
		return "exceeded"
	default:
		return "ok"
	}
}

// AlertLevelFor classifies a usage percentage.
func AlertLevelFor(percentage float64) AlertLevel {
	switch {
	case percentage >= ExceededPercent:
		return AlertExceeded
	case percentage >= WarningPercent:
		return AlertWarning
	default:
		return AlertNone
	}
}

// Status is the label shown next to a report category.
func (c CategoryReport) Status() string {
	switch AlertLevelFor(c.PercentageUsed) {
	case AlertExceeded:
		return "Over Budget"
	case AlertWarning:
		return "Near Limit"
	default:
		return "Under Budget"
	}
}

// Period returns the month the report covers.
func (r MonthlyReport) Period() Period {
	return Period{Month: r.Month, Year: r.Year}
}

// ComparisonFor derives remaining and percentage from a budget and what was
// actually spent. A zero budget yields a zero percentage.
func ComparisonFor(category Category, budgeted, actual Money) BudgetComparison {
	cmp := BudgetComparison{
		Category:  category,
		Budgeted:  budgeted,
		Actual:    actual,
		Remaining: budgeted.Sub(actual),
	}
	if budgeted.Cents > 0 {
		cmp.Percentage = float64(actual.Cents) / float64(budgeted.Cents) * 100
	}
	return cmp
}

// Level is the alert level of the comparison.
func (c BudgetComparison) Level() AlertLevel {
	return AlertLevelFor(c.Percentage)
}

// Overspent is how far actual went past the budget, zero when under.
func (c BudgetComparison) Overspent() Money {
	if c.Actual.Cents <= c.Budgeted.Cents {
		return Money{}
	}
	return c.Actual.Sub(c.Budgeted)
}

// ProjectExpense computes the effect of adding amount to the category
// described by cmp.
func ProjectExpense(cmp BudgetComparison, amount Money) BudgetProjection {
	total := cmp.Actual.Add(amount)
	p := BudgetProjection{
		Budgeted:     cmp.Budgeted,
		CurrentSpent: cmp.Actual,
		Remaining:    cmp.Budgeted.Sub(total),
	}
	if cmp.Budgeted.Cents > 0 {
		p.Percentage = int(math.Round(float64(total.Cents) / float64(cmp.Budgeted.Cents) * 100))
	}
	return p
}

// Level is the alert level the projection would reach.
func (p BudgetProjection) Level() AlertLevel {
	return AlertLevelFor(float64(p.Percentage))
}

// FindComparison returns the comparison entry for category, if any.
func FindComparison(list []BudgetComparison, category Category) (BudgetComparison, bool) {
	for _, c := range list {
		if c.Category == category {
			return c, true
		}
	}
	return BudgetComparison{}, false
}

// Alerts splits comparisons into exceeded (>=100%) and warning (80..<100%).
func Alerts(list []BudgetComparison) BudgetAlerts {
	var out BudgetAlerts
	for _, c := range list {
		switch c.Level() {
		case AlertExceeded:
			out.Exceeded = append(out.Exceeded, c)
		case AlertWarning:
			out.Warning = append(out.Warning, c)
		}
	}
	return out
}

// Empty reports whether there is nothing to show.
func (a BudgetAlerts) Empty() bool {
	return len(a.Exceeded) == 0 && len(a.Warning) == 0
}

// Totals sums spending from the summary and budgets from the comparison.
func Totals(summary []ExpenseSummary, comparison []BudgetComparison) DashboardTotals {
	var t DashboardTotals
	for _, s := range summary {
		t.Spent = t.Spent.Add(s.Total)
	}
	for _, c := range comparison {
		t.Budgeted = t.Budgeted.Add(c.Budgeted)
	}
	if t.Budgeted.Cents > 0 {
		t.UsedPercent = int(math.Round(float64(t.Spent.Cents) / float64(t.Budgeted.Cents) * 100))
	}
	t.OverBudget = t.Spent.Cents > t.Budgeted.Cents
	if t.OverBudget {
		t.Difference = t.Spent.Sub(t.Budgeted)
	} else {
		t.Difference = t.Budgeted.Sub(t.Spent)
	}
	return t
}
