package core

import (
	"testing"
	"time"
)

func TestComparisonFor(t *testing.T) {
	c := ComparisonFor(Food, Rupees(1000), Rupees(500))
	if c.Remaining != Rupees(500) || c.Percentage != 50 {
		t.Fatalf("unexpected comparison: %+v", c)
	}
	if c.Level() != AlertNone {
		t.Fatalf("expected no alert, got %v", c.Level())
	}

	zero := ComparisonFor(Food, Money{}, Rupees(10))
	if zero.Percentage != 0 || zero.Remaining != Rupees(-10) {
		t.Fatalf("unexpected zero-budget comparison: %+v", zero)
	}
}

func TestAlertLevelFor(t *testing.T) {
	cases := []struct {
		pct  float64
		want AlertLevel
	}{
		{0, AlertNone},
		{79.9, AlertNone},
		{80, AlertWarning},
		{99.99, AlertWarning},
		{100, AlertExceeded},
		{250, AlertExceeded},
	}
	for _, tc := range cases {
		if got := AlertLevelFor(tc.pct); got != tc.want {
			t.Fatalf("%v: got %v, want %v", tc.pct, got, tc.want)
		}
	}
}

func TestAlerts(t *testing.T) {
	list := []BudgetComparison{
		ComparisonFor(Food, Rupees(100), Rupees(50)),
		ComparisonFor(Housing, Rupees(100), Rupees(85)),
		ComparisonFor(Shopping, Rupees(100), Rupees(120)),
	}
	a := Alerts(list)
	if len(a.Warning) != 1 || a.Warning[0].Category != Housing {
		t.Fatalf("unexpected warnings: %+v", a.Warning)
	}
	if len(a.Exceeded) != 1 || a.Exceeded[0].Category != Shopping {
		t.Fatalf("unexpected exceeded: %+v", a.Exceeded)
	}
	if a.Exceeded[0].Overspent() != Rupees(20) {
		t.Fatalf("unexpected overspent: %v", a.Exceeded[0].Overspent())
	}
	if !Alerts(list[:1]).Empty() {
		t.Fatalf("expected no alerts")
	}
}

func TestProjectExpense(t *testing.T) {
	cmp := ComparisonFor(Food, Rupees(1000), Rupees(700))
	p := ProjectExpense(cmp, Rupees(150))
	if p.Percentage != 85 || p.Remaining != Rupees(150) || p.Level() != AlertWarning {
		t.Fatalf("unexpected projection: %+v", p)
	}
	over := ProjectExpense(cmp, Rupees(400))
	if over.Level() != AlertExceeded || over.Remaining != Rupees(-100) {
		t.Fatalf("unexpected projection: %+v", over)
	}
}

func TestTotals(t *testing.T) {
	summary := []ExpenseSummary{
		{Category: Food, Total: Rupees(500), Count: 2},
		{Category: Housing, Total: Rupees(700), Count: 1},
	}
	comparison := []BudgetComparison{
		ComparisonFor(Food, Rupees(1000), Rupees(500)),
		ComparisonFor(Housing, Rupees(1000), Rupees(700)),
	}
	tot := Totals(summary, comparison)
	if tot.Spent != Rupees(1200) || tot.Budgeted != Rupees(2000) || tot.UsedPercent != 60 {
		t.Fatalf("unexpected totals: %+v", tot)
	}
	if tot.OverBudget || tot.Difference != Rupees(800) {
		t.Fatalf("unexpected difference: %+v", tot)
	}
	if got := Totals(summary, nil); got.UsedPercent != 0 || !got.OverBudget {
		t.Fatalf("no budget must give 0%% and over budget: %+v", got)
	}
}

func TestPeriodValues(t *testing.T) {
	if v := (Period{Month: 6, Year: 2024}).Values(); v.Get("month") != "6" || v.Get("year") != "2024" {
		t.Fatalf("unexpected values: %v", v)
	}
	if v := (Period{Month: 6}).Values(); len(v) != 0 {
		t.Fatalf("partial period must be unfiltered, got %v", v)
	}
	if v := (Period{Year: 2024}).Values(); len(v) != 0 {
		t.Fatalf("partial period must be unfiltered, got %v", v)
	}
	p := CurrentPeriod(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
	if p.Month != 2 || p.Year != 2024 || p.String() != "February 2024" {
		t.Fatalf("unexpected current period: %+v", p)
	}
}

func TestCategoryReportStatus(t *testing.T) {
	if (CategoryReport{PercentageUsed: 120}).Status() != "Over Budget" {
		t.Fatalf("expected Over Budget")
	}
	if (CategoryReport{PercentageUsed: 80}).Status() != "Near Limit" {
		t.Fatalf("expected Near Limit")
	}
	if (CategoryReport{PercentageUsed: 10}).Status() != "Under Budget" {
		t.Fatalf("expected Under Budget")
	}
}
