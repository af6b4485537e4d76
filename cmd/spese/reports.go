package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"spesecli/internal/core"
	"spesecli/internal/services"
)

func init() {
	rootCmd.AddCommand(reportsCmd)
	reportsCmd.AddCommand(reportsGenerateCmd)
	reportsCmd.AddCommand(reportsCurrentCmd)
	reportsCmd.AddCommand(reportsShowCmd)
	reportsCmd.AddCommand(reportsRecentCmd)
	reportsCmd.AddCommand(reportsExportCmd)

	addPeriodFlags(reportsGenerateCmd)
	addPeriodFlags(reportsShowCmd)
	addPeriodFlags(reportsExportCmd)
	reportsRecentCmd.Flags().IntP("count", "n", services.DefaultRecentReports, "Number of reports")
	reportsExportCmd.Flags().Bool("generate", false, "Regenerate the report before exporting")
}

var reportsCmd = &cobra.Command{
	Use:     "reports",
	Aliases: []string{"report", "r"},
	Short:   "Monthly spending reports",
}

var reportsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Build the report for a month (default the current month)",
	Args:  cobra.NoArgs,
	RunE:  runReportsGenerate,
}

func runReportsGenerate(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	var (
		r   core.MonthlyReport
		err error
	)
	if !cmd.Flags().Changed("month") && !cmd.Flags().Changed("year") {
		r, err = app.Mutations.GenerateCurrentReport(cmd.Context())
	} else {
		r, err = app.Mutations.GenerateReport(cmd.Context(), periodFromFlags(cmd, true, time.Now()))
	}
	if err != nil {
		return err
	}
	printNotification(os.Stdout, app.Notifier.Success("Report Generated", r.Period().String()))
	printReport(r)
	return nil
}

var reportsCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Rebuild and show the report for the server's current month",
	Args:  cobra.NoArgs,
	RunE:  runReportsCurrent,
}

func runReportsCurrent(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	r, err := app.Mutations.GenerateCurrentReport(cmd.Context())
	if err != nil {
		return err
	}
	printReport(r)
	return nil
}

var reportsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored report for a month (default the current month)",
	Args:  cobra.NoArgs,
	RunE:  runReportsShow,
}

func runReportsShow(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	r, err := app.Reports.Get(cmd.Context(), periodFromFlags(cmd, true, time.Now()))
	if err != nil {
		return err
	}
	printReport(r)
	return nil
}

var reportsRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Headline figures of the latest reports",
	Args:  cobra.NoArgs,
	RunE:  runReportsRecent,
}

func runReportsRecent(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	count, _ := cmd.Flags().GetInt("count")
	list, err := app.Reports.Recent(cmd.Context(), count)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(os.Stdout, mutedStyle.Render("No reports yet, run 'spese reports generate'"))
		return nil
	}
	t := newTable("PERIOD", "SPENT", "BUDGET", "TOP CATEGORY", "STATUS")
	for _, r := range list {
		t.row(r.Period().String(), money(r.TotalSpent), money(r.TotalBudget), r.TopCategory, r.BudgetStatus)
	}
	t.render(os.Stdout)
	return nil
}

var reportsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Append a month's report to the configured spreadsheet",
	Long: `Append a month's report to the Google spreadsheet set in
GOOGLE_SPREADSHEET_ID. Without a spreadsheet the rows are kept in memory and
only the row count is printed.`,
	Args: cobra.NoArgs,
	RunE: runReportsExport,
}

func runReportsExport(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	ctx := cmd.Context()
	p := periodFromFlags(cmd, true, time.Now())

	var (
		r   core.MonthlyReport
		err error
	)
	if regen, _ := cmd.Flags().GetBool("generate"); regen {
		r, err = app.Mutations.GenerateReport(ctx, p)
	} else {
		r, err = app.Reports.Get(ctx, p)
	}
	if err != nil {
		return err
	}

	exporter, err := app.ReportExporter(ctx)
	if err != nil {
		return err
	}
	ref, err := exporter.Export(ctx, r)
	if err != nil {
		return err
	}
	if !app.ExportRemote {
		fmt.Fprintln(os.Stdout, mutedStyle.Render("No spreadsheet configured, report kept in memory"))
	}
	printNotification(os.Stdout, app.Notifier.Success("Success", fmt.Sprintf("Exported %s to %s", p, ref)))
	return nil
}

func printReport(r core.MonthlyReport) {
	fmt.Fprintln(os.Stdout, headerStyle.Render(r.Period().String()))
	fmt.Fprintf(os.Stdout, "Spent %s of %s, %s\n", money(r.TotalSpent), money(r.TotalBudget), r.BudgetStatus)
	if r.TopCategory != "" {
		fmt.Fprintf(os.Stdout, "Top category: %s\n", r.TopCategory)
	}
	if len(r.Categories) == 0 {
		return
	}
	fmt.Fprintln(os.Stdout)
	t := newTable("CATEGORY", "SPENT", "BUDGET", "USED", "STATUS")
	for _, c := range r.Categories {
		t.styledRow(alertStyle(core.AlertLevelFor(c.PercentageUsed)), string(c.Category),
			money(c.AmountSpent), money(c.BudgetAmount), fmt.Sprintf("%.0f%%", c.PercentageUsed), c.Status())
	}
	t.render(os.Stdout)
}
