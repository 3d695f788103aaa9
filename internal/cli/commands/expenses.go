package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fintrack-dev/fintrack/internal/cli/client"
)

type expensesOptions struct {
	category string
	kind     string
	from     string
	to       string
	pick     bool
}

// NewExpensesCmd creates the expenses command
func NewExpensesCmd(app *App) *cobra.Command {
	var opts expensesOptions

	cmd := &cobra.Command{
		Use:     "expenses",
		Aliases: []string{"ls"},
		Short:   "List your expenses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runExpenses(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.category, "category", "", "Only show this category")
	cmd.Flags().StringVar(&opts.kind, "type", "", "Only show one-time or recurring expenses")
	cmd.Flags().StringVar(&opts.from, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.to, "to", "", "End date, inclusive (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "Choose the category interactively")

	return protect(cmd)
}

func (a *App) runExpenses(ctx context.Context, opts expensesOptions) error {
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}

	filters, err := dateFilters(opts.from, opts.to)
	if err != nil {
		return err
	}
	switch opts.kind {
	case "", "one-time", "recurring":
		filters.Type = opts.kind
	default:
		return fmt.Errorf("invalid --type %q: expected one-time or recurring", opts.kind)
	}
	filters.Category = opts.category

	if opts.pick && filters.Category == "" {
		category, err := a.pickCategory(ctx)
		if err != nil {
			return err
		}
		filters.Category = category.ID
	}

	expenses, err := a.API.ListExpenses(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list expenses: %w", err)
	}

	if len(expenses) == 0 {
		fmt.Fprintln(a.out(), "No expenses found.")
		return nil
	}

	w := tabwriter.NewWriter(a.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tCATEGORY\tDESCRIPTION\tTYPE\tAMOUNT")
	fmt.Fprintln(w, "────\t────────\t───────────\t────\t──────")

	var total float64
	for _, e := range expenses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			formatDate(e.Date),
			e.Category.Name,
			e.Description,
			e.Type,
			formatAmount(e.Amount),
		)
		total += e.Amount
	}
	fmt.Fprintf(w, "\t\t\tTOTAL\t%s\n", formatAmount(total))

	return w.Flush()
}

func (a *App) pickCategory(ctx context.Context) (*client.Category, error) {
	if a.Prompt == nil || !a.Prompt.Interactive() {
		return nil, fmt.Errorf("--pick needs an interactive terminal (use --category instead)")
	}
	categories, err := a.API.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return a.Prompt.SelectCategory(categories)
}

// dateFilters validates --from/--to
func dateFilters(from, to string) (client.Filters, error) {
	var (
		filters client.Filters
		err     error
	)
	if filters.Start, err = parseDate("from", from); err != nil {
		return filters, err
	}
	if filters.End, err = parseDate("to", to); err != nil {
		return filters, err
	}
	if filters.Start != "" && filters.End != "" && filters.End < filters.Start {
		return filters, fmt.Errorf("--to %s is before --from %s", filters.End, filters.Start)
	}
	return filters, nil
}
