package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"spesecli/internal/core"
)

func init() {
	rootCmd.AddCommand(budgetsCmd)
	budgetsCmd.AddCommand(budgetsListCmd)
	budgetsCmd.AddCommand(budgetsAddCmd)
	budgetsCmd.AddCommand(budgetsUpdateCmd)
	budgetsCmd.AddCommand(budgetsDeleteCmd)
	budgetsCmd.AddCommand(budgetsCompareCmd)
	budgetsCmd.AddCommand(budgetsAlertsCmd)

	addPeriodFlags(budgetsListCmd)
	for _, c := range []*cobra.Command{budgetsAddCmd, budgetsUpdateCmd} {
		c.Flags().StringP("amount", "a", "", "Budgeted amount in rupees")
		c.Flags().StringP("category", "c", "", "Category ("+categoryNames()+")")
		c.Flags().StringP("payment", "p", "", "Payment method ("+paymentNames()+")")
		addPeriodFlags(c)
	}
	addPeriodFlags(budgetsCompareCmd)
	addPeriodFlags(budgetsAlertsCmd)
}

var budgetsCmd = &cobra.Command{
	Use:     "budgets",
	Aliases: []string{"budget", "b"},
	Short:   "Manage monthly budgets",
}

var budgetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List budgets",
	Long:  `List budgets. Both --month and --year are needed to filter; otherwise all budgets are shown.`,
	Args:  cobra.NoArgs,
	RunE:  runBudgetsList,
}

func runBudgetsList(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	p := periodFromFlags(cmd, false, time.Now())
	list, err := app.Budgets.List(cmd.Context(), p)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(os.Stdout, mutedStyle.Render("No budgets found"))
		return nil
	}
	t := newTable("ID", "PERIOD", "CATEGORY", "PAYMENT", "AMOUNT")
	for _, b := range list {
		period := core.Period{Month: b.Month, Year: b.Year}
		t.row(b.ID, period.String(), string(b.Category), string(b.PaymentMethod), money(b.Amount))
	}
	t.render(os.Stdout)
	return nil
}

var budgetsAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Set a budget for a category and month",
	Example: `  spese budgets add -a 5000 -c Food -p "Debit Card" --month 6 --year 2024`,
	Args:    cobra.NoArgs,
	RunE:    runBudgetsAdd,
}

func runBudgetsAdd(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	for _, name := range []string{"amount", "category"} {
		if !cmd.Flags().Changed(name) {
			return newUsageError(cmd, "--%s is required", name)
		}
	}
	p := periodFromFlags(cmd, true, time.Now())
	in, err := budgetInputFromFlags(cmd, core.BudgetInput{
		PaymentMethod: core.Cash,
		Month:         p.Month,
		Year:          p.Year,
	})
	if err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}

	b, err := app.Mutations.CreateBudget(cmd.Context(), in)
	if err != nil {
		return err
	}
	printNotification(os.Stdout, app.Notifier.Success("Budget added",
		fmt.Sprintf("%s for %s in %s", money(b.Amount), b.Category, core.Period{Month: b.Month, Year: b.Year})))
	return nil
}

var budgetsUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Change a budget; omitted flags keep their current value",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetsUpdate,
}

func runBudgetsUpdate(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	id := strings.TrimSpace(args[0])
	list, err := app.Budgets.List(cmd.Context(), core.Period{})
	if err != nil {
		return err
	}
	var current *core.Budget
	for i := range list {
		if list[i].ID == id {
			current = &list[i]
			break
		}
	}
	if current == nil {
		return fmt.Errorf("budget %q: %w", id, errNotFound)
	}

	in, err := budgetInputFromFlags(cmd, core.BudgetInput{
		Amount:        current.Amount,
		Category:      current.Category,
		PaymentMethod: current.PaymentMethod,
		Month:         current.Month,
		Year:          current.Year,
	})
	if err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}

	b, err := app.Mutations.UpdateBudget(cmd.Context(), id, in)
	if err != nil {
		return err
	}
	printNotification(os.Stdout, app.Notifier.Success("Budget updated",
		fmt.Sprintf("%s for %s", money(b.Amount), b.Category)))
	return nil
}

// budgetInputFromFlags overlays the flags the user set on base.
func budgetInputFromFlags(cmd *cobra.Command, base core.BudgetInput) (core.BudgetInput, error) {
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
	if f.Changed("category") {
		s, _ := f.GetString("category")
		c, err := core.ParseCategory(s)
		if err != nil {
			return in, err
		}
		in.Category = c
	}
	if f.Changed("payment") {
		s, _ := f.GetString("payment")
		m, err := core.ParsePaymentMethod(s)
		if err != nil {
			return in, err
		}
		in.PaymentMethod = m
	}
	if f.Changed("month") {
		in.Month, _ = f.GetInt("month")
	}
	if f.Changed("year") {
		in.Year, _ = f.GetInt("year")
	}
	return in, nil
}

var budgetsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetsDelete,
}

func runBudgetsDelete(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	res, err := app.Mutations.DeleteBudget(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printNotification(os.Stdout, app.Notifier.Success("Success", fmt.Sprintf("Budget %s deleted", res.ID)))
	return nil
}

var budgetsCompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Budget against actual spending for a month (default this month)",
	Args:  cobra.NoArgs,
	RunE:  runBudgetsCompare,
}

func runBudgetsCompare(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	p := periodFromFlags(cmd, true, time.Now())
	list, err := app.Budgets.Comparison(cmd.Context(), p)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, headerStyle.Render(p.String()))
	if len(list) == 0 {
		fmt.Fprintln(os.Stdout, mutedStyle.Render("No budgets set for this month"))
		return nil
	}
	printComparison(list)
	return nil
}

func printComparison(list []core.BudgetComparison) {
	t := newTable("CATEGORY", "BUDGETED", "ACTUAL", "REMAINING", "USED")
	for _, c := range list {
		t.styledRow(alertStyle(c.Level()), string(c.Category), money(c.Budgeted), money(c.Actual),
			money(c.Remaining), fmt.Sprintf("%.0f%%", c.Percentage))
	}
	t.render(os.Stdout)
}

var budgetsAlertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Categories near or over budget",
	Args:  cobra.NoArgs,
	RunE:  runBudgetsAlerts,
}

func runBudgetsAlerts(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	p := periodFromFlags(cmd, true, time.Now())
	list, err := app.Budgets.Comparison(cmd.Context(), p)
	if err != nil {
		return err
	}
	alerts := core.Alerts(list)
	if alerts.Empty() {
		fmt.Fprintln(os.Stdout, successStyle.Render("All budgets on track for "+p.String()))
		return nil
	}
	printAlerts(alerts)
	return nil
}

func printAlerts(a core.BudgetAlerts) {
	for _, c := range a.Exceeded {
		fmt.Fprintln(os.Stdout, errorStyle.Render(fmt.Sprintf("%s over budget by %s (%.0f%%)",
			c.Category, money(c.Overspent()), c.Percentage)))
	}
	for _, c := range a.Warning {
		fmt.Fprintln(os.Stdout, warningStyle.Render(fmt.Sprintf("%s at %.0f%%, %s left",
			c.Category, c.Percentage, money(c.Remaining))))
	}
}

func paymentNames() string {
	methods := core.PaymentMethods()
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
