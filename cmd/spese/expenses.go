package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"spesecli/internal/core"
	"spesecli/internal/log"
)

func init() {
	rootCmd.AddCommand(expensesCmd)
	expensesCmd.AddCommand(expensesListCmd)
	expensesCmd.AddCommand(expensesAddCmd)
	expensesCmd.AddCommand(expensesUpdateCmd)
	expensesCmd.AddCommand(expensesDeleteCmd)
	expensesCmd.AddCommand(expensesSummaryCmd)

	addPeriodFlags(expensesListCmd)
	expensesListCmd.Flags().StringP("category", "c", "", "Only show this category")

	for _, c := range []*cobra.Command{expensesAddCmd, expensesUpdateCmd} {
		c.Flags().StringP("amount", "a", "", "Amount in rupees, e.g. 250.50")
		c.Flags().StringP("description", "d", "", "What the money went on")
		c.Flags().StringP("category", "c", "", "Category ("+categoryNames()+")")
		c.Flags().String("date", "", "Date as YYYY-MM-DD (default today)")
	}
	expensesAddCmd.Flags().Bool("no-budget-check", false, "Skip the budget impact preview")

	addPeriodFlags(expensesSummaryCmd)
}

var expensesCmd = &cobra.Command{
	Use:     "expenses",
	Aliases: []string{"expense", "e"},
	Short:   "List and edit expenses",
}

var expensesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List expenses, newest first",
	Args:  cobra.NoArgs,
	RunE:  runExpensesList,
}

func runExpensesList(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	p := periodFromFlags(cmd, false, time.Now())
	catFlag, _ := cmd.Flags().GetString("category")
	var cat core.Category
	if catFlag != "" {
		c, err := core.ParseCategory(catFlag)
		if err != nil {
			return err
		}
		cat = c
	}

	list, err := app.Expenses.List(cmd.Context())
	if err != nil {
		return err
	}
	list = filterExpenses(list, p, cat)
	if len(list) == 0 {
		fmt.Fprintln(os.Stdout, mutedStyle.Render("No expenses found"))
		return nil
	}

	var total core.Money
	t := newTable("ID", "DATE", "CATEGORY", "AMOUNT", "DESCRIPTION")
	for _, e := range list {
		t.row(e.ID, e.Date.Format("2006-01-02"), string(e.Category), money(e.Amount), e.Description)
		total = total.Add(e.Amount)
	}
	t.render(os.Stdout)
	fmt.Fprintf(os.Stdout, "\n%d expenses, total %s\n", len(list), money(total))
	return nil
}

// filterExpenses keeps expenses in p (each set field of a partial period
// still filters) and in cat when given. The result is sorted by date, newest
// first.
func filterExpenses(list []core.Expense, p core.Period, cat core.Category) []core.Expense {
	out := make([]core.Expense, 0, len(list))
	for _, e := range list {
		if p.Month != 0 && e.Date.Month() != p.Month {
			continue
		}
		if p.Year != 0 && e.Date.Year() != p.Year {
			continue
		}
		if cat != "" && e.Category != cat {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out
}

var expensesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an expense",
	Example: `  spese expenses add -a 250 -d "Groceries" -c Food
  spese expenses add -a 1200 -d "Electricity" -c Utilities --date 2024-06-01`,
	Args: cobra.NoArgs,
	RunE: runExpensesAdd,
}

func runExpensesAdd(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	for _, name := range []string{"amount", "description", "category"} {
		if !cmd.Flags().Changed(name) {
			return newUsageError(cmd, "--%s is required", name)
		}
	}
	in, err := expenseInputFromFlags(cmd, core.ExpenseInput{Date: today()})
	if err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}

	if skip, _ := cmd.Flags().GetBool("no-budget-check"); !skip {
		previewBudgetImpact(cmd.Context(), in)
	}

	e, err := app.Mutations.CreateExpense(cmd.Context(), in)
	if err != nil {
		return err
	}
	printNotification(os.Stdout, app.Notifier.Success("Expense added",
		fmt.Sprintf("%s for %s on %s", money(e.Amount), e.Category, e.Date.Format("2006-01-02"))))
	return nil
}

// previewBudgetImpact prints what the expense would do to its category's
// budget. Failures only cost the preview.
func previewBudgetImpact(ctx context.Context, in core.ExpenseInput) {
	list, err := app.Budgets.Comparison(ctx, in.Date.Period())
	if err != nil {
		app.Logger.DebugContext(ctx, "Budget preview unavailable", log.FieldError, err)
		return
	}
	cmp, ok := core.FindComparison(list, in.Category)
	if !ok {
		return
	}
	proj := core.ProjectExpense(cmp, in.Amount)
	switch proj.Level() {
	case core.AlertExceeded:
		fmt.Fprintln(os.Stdout, errorStyle.Render(fmt.Sprintf(
			"This expense puts %s over budget: %d%% of %s used, %s over",
			in.Category, proj.Percentage, money(proj.Budgeted), money(core.Money{}.Sub(proj.Remaining)))))
	case core.AlertWarning:
		fmt.Fprintln(os.Stdout, warningStyle.Render(fmt.Sprintf(
			"%s budget nearly used: %d%% of %s after this expense, %s left",
			in.Category, proj.Percentage, money(proj.Budgeted), money(proj.Remaining))))
	}
}

var expensesUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Change an expense; omitted flags keep their current value",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpensesUpdate,
}

func runExpensesUpdate(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	id := strings.TrimSpace(args[0])
	list, err := app.Expenses.List(cmd.Context())
	if err != nil {
		return err
	}
	var current *core.Expense
	for i := range list {
		if list[i].ID == id {
			current = &list[i]
			break
		}
	}
	if current == nil {
		return fmt.Errorf("expense %q: %w", id, errNotFound)
	}

	in, err := expenseInputFromFlags(cmd, core.ExpenseInput{
		Amount:      current.Amount,
		Description: current.Description,
		Category:    current.Category,
		Date:        current.Date,
	})
	if err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}

	e, err := app.Mutations.UpdateExpense(cmd.Context(), id, in)
	if err != nil {
		return err
	}
	printNotification(os.Stdout, app.Notifier.Success("Expense updated",
		fmt.Sprintf("%s for %s", money(e.Amount), e.Category)))
	return nil
}

// expenseInputFromFlags overlays the flags the user set on base.
func expenseInputFromFlags(cmd *cobra.Command, base core.ExpenseInput) (core.ExpenseInput, error) {
	in := base
	f := cmd.Flags()
	if f.Changed("amount") {
		s, _ := f.GetString("amount")
		m, err := core.ParseMoney(s)
		if err != nil {
			return in, fmt.Errorf("%w: %v", core.ErrInvalidAmount, err)
		}
		in.Amount = m
	}
	if f.Changed("description") {
		in.Description, _ = f.GetString("description")
	}
	if f.Changed("category") {
		s, _ := f.GetString("category")
		c, err := core.ParseCategory(s)
		if err != nil {
			return in, err
		}
		in.Category = c
	}
	if f.Changed("date") {
		s, _ := f.GetString("date")
		d, err := core.ParseDate(s)
		if err != nil {
			return in, newUsageError(cmd, "%v", err)
		}
		in.Date = d
	}
	return in, nil
}

var expensesDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an expense",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpensesDelete,
}

func runExpensesDelete(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	res, err := app.Mutations.DeleteExpense(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printNotification(os.Stdout, app.Notifier.Success("Success", fmt.Sprintf("Expense %s deleted", res.ID)))
	return nil
}

var expensesSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Totals per category",
	Long: `Totals per category as computed by the server. Give both --month and
--year to restrict the summary to one month; otherwise all expenses count.`,
	Args: cobra.NoArgs,
	RunE: runExpensesSummary,
}

func runExpensesSummary(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	p := periodFromFlags(cmd, false, time.Now())
	summary, err := app.Expenses.Summary(cmd.Context(), p)
	if err != nil {
		return err
	}
	if p.Complete() {
		fmt.Fprintln(os.Stdout, headerStyle.Render(p.String()))
	}
	if len(summary) == 0 {
		fmt.Fprintln(os.Stdout, mutedStyle.Render("No expenses found"))
		return nil
	}
	printSummary(summary)
	return nil
}

func printSummary(summary []core.ExpenseSummary) {
	var total core.Money
	t := newTable("CATEGORY", "COUNT", "TOTAL")
	for _, s := range summary {
		t.row(string(s.Category), fmt.Sprint(s.Count), money(s.Total))
		total = total.Add(s.Total)
	}
	t.render(os.Stdout)
	fmt.Fprintf(os.Stdout, "\nTotal %s\n", money(total))
}

func categoryNames() string {
	cats := core.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func today() core.Date {
	now := time.Now()
	return core.NewDate(now.Year(), int(now.Month()), now.Day())
}
