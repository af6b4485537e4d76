package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"spesecli/internal/cli"
	"spesecli/internal/core"
	"spesecli/internal/services"
	"spesecli/internal/view"
)

func init() {
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(watchCmd)

	addPeriodFlags(dashboardCmd)
	addPeriodFlags(watchCmd)
	watchCmd.Flags().Duration("refresh", 0, "Also reload on this interval (0 reloads only when data changes)")
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Spending, budgets and alerts for a month (default this month)",
	Args:  cobra.NoArgs,
	RunE:  runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	d, err := view.LoadDashboard(cmd.Context(), app.Expenses, app.Budgets, periodFromFlags(cmd, true, time.Now()))
	if err != nil {
		return err
	}
	printDashboard(d)
	return nil
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the dashboard on screen and redraw it when data changes",
	Long: `Keep the dashboard on screen. It is redrawn whenever expenses or budgets
change, including changes made by other spese processes when AMQP_URL is set.
Connection problems are reported as they happen. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	interval, _ := cmd.Flags().GetDuration("refresh")

	// without flags the month follows the clock
	period := func() core.Period { return periodFromFlags(cmd, true, time.Now()) }

	var out sync.Mutex
	app.Notifier.OnNotify(func(n view.Notification) {
		out.Lock()
		defer out.Unlock()
		printNotification(os.Stderr, n)
	})

	loader := view.NewDashboardLoader(app.Bus, app.Expenses, app.Budgets, period, app.Logger)
	loader.OnUpdate(func(d view.Dashboard, err error) {
		if err != nil {
			app.Notifier.Notify(err)
			return
		}
		out.Lock()
		defer out.Unlock()
		fmt.Fprintln(os.Stdout, mutedStyle.Render("── "+time.Now().Format("15:04:05")))
		printDashboard(d)
	})

	unsubscribe := app.Health.OnChange(func(services.HealthStatus) {
		if err := app.Health.Guard(); err != nil {
			app.Notifier.Notify(err)
			return
		}
		app.Notifier.Success("Success", "Connection restored")
		loader.Reload()
	})

	ctx, done := cli.GracefulShutdown(app.Logger, disposeTimeout, func(context.Context) {
		unsubscribe()
		loader.Close()
	})

	if err := app.StartHealthMonitor(ctx); err != nil {
		return err
	}
	loader.Start(ctx)

	if interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					loader.Reload()
				}
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
	return nil
}

func printDashboard(d view.Dashboard) {
	fmt.Fprintln(os.Stdout, headerStyle.Render(d.Period.String()))

	tot := d.Totals
	status := successStyle.Render(fmt.Sprintf("%s under budget", money(tot.Difference)))
	if tot.OverBudget {
		status = errorStyle.Render(fmt.Sprintf("%s over budget", money(tot.Difference)))
	}
	fmt.Fprintf(os.Stdout, "Spent %s of %s (%d%%), %s\n\n", money(tot.Spent), money(tot.Budgeted), tot.UsedPercent, status)

	if len(d.Summary) > 0 {
		printSummary(d.Summary)
		fmt.Fprintln(os.Stdout)
	}
	if len(d.Comparison) > 0 {
		printComparison(d.Comparison)
		fmt.Fprintln(os.Stdout)
	}
	if !d.Alerts.Empty() {
		printAlerts(d.Alerts)
	}
}
