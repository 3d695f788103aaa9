package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewIncomesCmd creates the incomes command
func NewIncomesCmd(app *App) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "incomes",
		Short: "List your incomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runIncomes(cmd.Context(), from, to)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "End date, inclusive (YYYY-MM-DD)")

	return protect(cmd)
}

func (a *App) runIncomes(ctx context.Context, from, to string) error {
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}

	filters, err := dateFilters(from, to)
	if err != nil {
		return err
	}

	incomes, err := a.API.ListIncomes(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list incomes: %w", err)
	}

	if len(incomes) == 0 {
		fmt.Fprintln(a.out(), "No incomes found.")
		return nil
	}

	w := tabwriter.NewWriter(a.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tSOURCE\tDESCRIPTION\tAMOUNT")
	fmt.Fprintln(w, "────\t──────\t───────────\t──────")

	var total float64
	for _, inc := range incomes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			formatDate(inc.Date),
			inc.Source,
			inc.Description,
			formatAmount(inc.Amount),
		)
		total += inc.Amount
	}
	fmt.Fprintf(w, "\t\tTOTAL\t%s\n", formatAmount(total))

	return w.Flush()
}
