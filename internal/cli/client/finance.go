package client

import (
	"context"
	"time"
)

// Category groups expenses
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Expense is a single spending record. Type is "one-time" or "recurring".
type Expense struct {
	ID          string     `json:"id"`
	Amount      float64    `json:"amount"`
	Description string     `json:"description"`
	Type        string     `json:"type"`
	Date        *time.Time `json:"date,omitempty"`
	Category    Category   `json:"category"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// Income is a single earning record
type Income struct {
	ID          string     `json:"id"`
	Amount      float64    `json:"amount"`
	Source      string     `json:"source"`
	Description string     `json:"description"`
	Date        *time.Time `json:"date,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// Summary aggregates a period
type Summary struct {
	TotalIncome        float64            `json:"totalIncome"`
	TotalExpenses      float64            `json:"totalExpenses"`
	Balance            float64            `json:"balance"`
	ExpensesByCategory map[string]float64 `json:"expensesByCategory"`
}

// BudgetAlert reports whether spending crossed the configured budget
type BudgetAlert struct {
	Alert   bool   `json:"alert"`
	Message string `json:"message"`
}

// Filters narrows list and summary queries. Empty fields are not sent.
type Filters struct {
	Start    string // YYYY-MM-DD
	End      string // YYYY-MM-DD
	Category string
	Type     string
}

func (f Filters) params() map[string]string {
	return map[string]string{
		"start":    f.Start,
		"end":      f.End,
		"category": f.Category,
		"type":     f.Type,
	}
}

// ListExpenses returns the expenses matching filters
func (c *Client) ListExpenses(ctx context.Context, filters Filters) ([]Expense, error) {
	var expenses []Expense
	if err := c.get(ctx, "/api/expenses", filters.params(), &expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// ListIncomes returns the incomes in the filter's date range
func (c *Client) ListIncomes(ctx context.Context, filters Filters) ([]Income, error) {
	var incomes []Income
	params := map[string]string{"start": filters.Start, "end": filters.End}
	if err := c.get(ctx, "/api/incomes", params, &incomes); err != nil {
		return nil, err
	}
	return incomes, nil
}

// ListCategories returns the user's expense categories
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.get(ctx, "/api/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// MonthlySummary returns totals for the filtered period
func (c *Client) MonthlySummary(ctx context.Context, filters Filters) (*Summary, error) {
	var summary Summary
	if err := c.get(ctx, "/api/summary/monthly", filters.params(), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// SummaryAlerts returns the budget alert for the filtered period
func (c *Client) SummaryAlerts(ctx context.Context, filters Filters) (*BudgetAlert, error) {
	var alert BudgetAlert
	if err := c.get(ctx, "/api/summary/alerts", filters.params(), &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}
