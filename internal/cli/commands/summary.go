package commands

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fintrack-dev/fintrack/internal/cli/client"
)

const monthLayout = "2006-01"

// NewSummaryCmd creates the summary command
func NewSummaryCmd(app *App) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show income, expenses and balance for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runSummary(cmd.Context(), month)
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month to summarize (YYYY-MM, defaults to the current month)")

	return protect(cmd)
}

func (a *App) runSummary(ctx context.Context, month string) error {
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}

	filters, label, err := monthFilters(month, a.now())
	if err != nil {
		return err
	}

	summary, err := a.API.MonthlySummary(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to load summary: %w", err)
	}
	alert, err := a.API.SummaryAlerts(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to load budget alerts: %w", err)
	}

	out := a.out()
	fmt.Fprintf(out, "Summary for %s\n\n", label)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Income\t%s\n", formatAmount(summary.TotalIncome))
	fmt.Fprintf(w, "Expenses\t%s\n", formatAmount(summary.TotalExpenses))
	fmt.Fprintf(w, "Balance\t%s\n", formatAmount(summary.Balance))
	if err := w.Flush(); err != nil {
		return err
	}

	if len(summary.ExpensesByCategory) > 0 {
		fmt.Fprintln(out, "\nBy category:")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, name := range sortedCategories(summary) {
			fmt.Fprintf(w, "  %s\t%s\n", name, formatAmount(summary.ExpensesByCategory[name]))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if alert.Alert {
		fmt.Fprintf(out, "\n⚠ %s\n", alert.Message)
	}
	return nil
}

// monthFilters turns YYYY-MM into an inclusive date range. Empty means the month of now.
func monthFilters(month string, now time.Time) (client.Filters, string, error) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if month != "" {
		parsed, err := time.Parse(monthLayout, month)
		if err != nil {
			return client.Filters{}, "", fmt.Errorf("invalid --month %q: expected YYYY-MM", month)
		}
		start = parsed
	}
	end := start.AddDate(0, 1, -1)

	return client.Filters{
		Start: start.Format(dateLayout),
		End:   end.Format(dateLayout),
	}, start.Format("January 2006"), nil
}

// sortedCategories orders categories by spending, largest first
func sortedCategories(summary *client.Summary) []string {
	names := make([]string, 0, len(summary.ExpensesByCategory))
	for name := range summary.ExpensesByCategory {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := summary.ExpensesByCategory[names[i]], summary.ExpensesByCategory[names[j]]
		if a != b {
			return a > b
		}
		return names[i] < names[j]
	})
	return names
}
