package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spesecli/internal/core"
)

func TestTableAlignsColumns(t *testing.T) {
	tbl := newTable("CATEGORY", "TOTAL")
	tbl.row("Food", money(core.Rupees(500)))
	tbl.row("Personal Care", money(core.Rupees(1234.5)))

	var buf bytes.Buffer
	tbl.render(&buf)

	want := "CATEGORY       TOTAL\n" +
		"Food           ₹500.00\n" +
		"Personal Care  ₹1,234.50\n"
	assert.Equal(t, want, buf.String())
}

func TestFilterExpenses(t *testing.T) {
	list := []core.Expense{
		{ID: "1", Category: core.Food, Date: core.NewDate(2024, 5, 30)},
		{ID: "2", Category: core.Housing, Date: core.NewDate(2024, 6, 1)},
		{ID: "3", Category: core.Food, Date: core.NewDate(2024, 6, 15)},
		{ID: "4", Category: core.Food, Date: core.NewDate(2023, 6, 10)},
	}

	ids := func(es []core.Expense) []string {
		out := make([]string, len(es))
		for i, e := range es {
			out[i] = e.ID
		}
		return out
	}

	assert.Equal(t, []string{"3", "2", "1", "4"}, ids(filterExpenses(list, core.Period{}, "")))
	assert.Equal(t, []string{"3", "2"}, ids(filterExpenses(list, core.Period{Month: 6, Year: 2024}, "")))
	assert.Equal(t, []string{"3", "4"}, ids(filterExpenses(list, core.Period{Month: 6}, core.Food)))
	assert.Empty(t, filterExpenses(list, core.Period{Year: 2022}, ""))
}

func newPeriodCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addPeriodFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestPeriodFromFlags(t *testing.T) {
	now := time.Date(2024, 6, 20, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, core.Period{}, periodFromFlags(newPeriodCmd(t), false, now))
	assert.Equal(t, core.Period{Month: 6, Year: 2024}, periodFromFlags(newPeriodCmd(t), true, now))
	assert.Equal(t, core.Period{Month: 2}, periodFromFlags(newPeriodCmd(t, "--month", "2"), false, now))
	assert.Equal(t, core.Period{Month: 2, Year: 2024}, periodFromFlags(newPeriodCmd(t, "--month", "2"), true, now))
	assert.Equal(t, core.Period{Month: 6, Year: 2023}, periodFromFlags(newPeriodCmd(t, "--year", "2023"), true, now))
}

func newExpenseFlagsCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringP("amount", "a", "", "")
	cmd.Flags().StringP("description", "d", "", "")
	cmd.Flags().StringP("category", "c", "", "")
	cmd.Flags().String("date", "", "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestExpenseInputFromFlagsOverlaysChangedFlags(t *testing.T) {
	base := core.ExpenseInput{
		Amount:      core.Rupees(100),
		Description: "Lunch",
		Category:    core.Food,
		Date:        core.NewDate(2024, 6, 1),
	}

	in, err := expenseInputFromFlags(newExpenseFlagsCmd(t, "-a", "250,50", "-c", "personal care"), base)
	require.NoError(t, err)
	assert.Equal(t, int64(25050), in.Amount.Cents)
	assert.Equal(t, core.PersonalCare, in.Category)
	assert.Equal(t, "Lunch", in.Description)
	assert.Equal(t, base.Date, in.Date)

	in, err = expenseInputFromFlags(newExpenseFlagsCmd(t, "--date", "2024-02-29"), base)
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2024, 2, 29), in.Date)
}

func TestExpenseInputFromFlagsErrors(t *testing.T) {
	_, err := expenseInputFromFlags(newExpenseFlagsCmd(t, "-a", "-5"), core.ExpenseInput{})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = expenseInputFromFlags(newExpenseFlagsCmd(t, "-c", "Groceries"), core.ExpenseInput{})
	assert.ErrorIs(t, err, core.ErrUnknownCategory)

	_, err = expenseInputFromFlags(newExpenseFlagsCmd(t, "--date", "06/01/2024"), core.ExpenseInput{})
	var uerr *usageError
	assert.ErrorAs(t, err, &uerr)
}

func TestBudgetInputFromFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringP("amount", "a", "", "")
	cmd.Flags().StringP("category", "c", "", "")
	cmd.Flags().StringP("payment", "p", "", "")
	addPeriodFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"-p", "debit card", "--month", "7"}))

	in, err := budgetInputFromFlags(cmd, core.BudgetInput{
		Amount:        core.Rupees(1000),
		Category:      core.Food,
		PaymentMethod: core.Cash,
		Month:         6,
		Year:          2024,
	})
	require.NoError(t, err)
	assert.Equal(t, core.DebitCard, in.PaymentMethod)
	assert.Equal(t, 7, in.Month)
	assert.Equal(t, 2024, in.Year)
	assert.Equal(t, core.Food, in.Category)
}

func TestReportErrorWithoutApp(t *testing.T) {
	app = nil

	var buf bytes.Buffer
	reportError(&buf, errors.New("boom"))
	assert.Equal(t, "Error: boom\n", buf.String())

	buf.Reset()
	cmd := &cobra.Command{Use: "add"}
	reportError(&buf, newUsageError(cmd, "--%s is required", "amount"))
	assert.Equal(t, "Error: --amount is required\nRun 'add --help' for usage.\n", buf.String())
}
