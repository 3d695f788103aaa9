package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fintrack-dev/fintrack/internal/apitest"
	"github.com/fintrack-dev/fintrack/internal/cli/auth"
	"github.com/fintrack-dev/fintrack/internal/cli/session"
)

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// TestProtectedCommands_RequireLogin tests that every protected command refuses without a session
func TestProtectedCommands_RequireLogin(t *testing.T) {
	ta := newTestApp(t)
	ta.Session.Initialize(context.Background())
	ctx := context.Background()

	runs := map[string]func() error{
		"whoami":   func() error { return ta.runWhoami(ctx) },
		"expenses": func() error { return ta.runExpenses(ctx, expensesOptions{}) },
		"incomes":  func() error { return ta.runIncomes(ctx, "", "") },
		"summary":  func() error { return ta.runSummary(ctx, "") },
	}
	for name, run := range runs {
		t.Run(name, func(t *testing.T) {
			err := run()
			if !errors.Is(err, session.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got: %v", err)
			}
		})
	}

	if len(ta.server.Requests()) != 0 {
		t.Errorf("expected no API requests, got %d", len(ta.server.Requests()))
	}
}

// TestProtectedCommands_Annotated tests which commands get the startup check
func TestProtectedCommands_Annotated(t *testing.T) {
	app := &App{}
	for _, cmd := range []struct {
		name      string
		protected bool
		protect   bool
	}{
		{"login", IsProtected(NewLoginCmd(app)), false},
		{"signup", IsProtected(NewSignupCmd(app)), false},
		{"logout", IsProtected(NewLogoutCmd(app)), false},
		{"whoami", IsProtected(NewWhoamiCmd(app)), true},
		{"expenses", IsProtected(NewExpensesCmd(app)), true},
		{"incomes", IsProtected(NewIncomesCmd(app)), true},
		{"summary", IsProtected(NewSummaryCmd(app)), true},
	} {
		if cmd.protected != cmd.protect {
			t.Errorf("%s: expected protected=%v", cmd.name, cmd.protect)
		}
	}
}

// TestWhoami tests the user details and the token expiry line
func TestWhoami(t *testing.T) {
	ta := newTestApp(t)
	ta.loggedIn(t, "good@x.com")

	if err := ta.runWhoami(context.Background()); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	out := ta.out.String()
	for _, want := range []string{"Email:   good@x.com", "Server:  " + ta.server.URL, "Expires:"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got: %s", want, out)
		}
	}
}

func TestTokenExpiry_NotAJWT(t *testing.T) {
	if _, ok := tokenExpiry("opaque-token"); ok {
		t.Error("expected no expiry for a non-JWT token")
	}
	if _, ok := tokenExpiry(""); ok {
		t.Error("expected no expiry for an empty token")
	}
}

// TestExpenses_ListsWithFilters tests the table and the query parameters
func TestExpenses_ListsWithFilters(t *testing.T) {
	ta := newTestApp(t)
	ta.loggedIn(t, "good@x.com")
	ta.server.AddExpense(t, "good@x.com", apitest.Expense{Amount: 12.5, Description: "Lunch", Type: "one-time", Category: "food", Date: day("2026-03-02")})
	ta.server.AddExpense(t, "good@x.com", apitest.Expense{Amount: 30, Description: "Groceries", Type: "one-time", Category: "food", Date: day("2026-03-09")})
	ta.server.AddExpense(t, "good@x.com", apitest.Expense{Amount: 900, Description: "Rent", Type: "recurring", Category: "rent", Date: day("2026-03-01")})
	ta.server.AddExpense(t, "good@x.com", apitest.Expense{Amount: 7, Description: "Old lunch", Type: "one-time", Category: "food", Date: day("2026-02-27")})

	err := ta.runExpenses(context.Background(), expensesOptions{category: "food", from: "2026-03-01", to: "2026-03-31"})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	out := ta.out.String()
	for _, want := range []string{"DATE", "Lunch", "Groceries", "42.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got: %s", want, out)
		}
	}
	for _, unwanted := range []string{"Rent", "Old lunch"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("did not expect %q in output, got: %s", unwanted, out)
		}
	}

	reqs := ta.server.Requests()
	last := reqs[len(reqs)-1]
	if last.Path != "/api/expenses" {
		t.Fatalf("expected last request to /api/expenses, got %s", last.Path)
	}
	if last.Authorization != "Bearer "+ta.Session.Token() {
		t.Errorf("expected current bearer token, got %q", last.Authorization)
	}
}

// TestExpenses_PickCategory tests the interactive category picker
func TestExpenses_PickCategory(t *testing.T) {
	ta := newTestApp(t)
	ta.loggedIn(t, "good@x.com")
	ta.server.AddExpense(t, "good@x.com", apitest.Expense{Amount: 12.5, Description: "Lunch", Type: "one-time", Category: "food", Date: day("2026-03-02")})
	ta.server.AddExpense(t, "good@x.com", apitest.Expense{Amount: 900, Description: "Rent", Type: "recurring", Category: "rent", Date: day("2026-03-01")})
	ta.prompt.interactive = true
	ta.prompt.category = 1 // categories are sorted: food, rent

	if err := ta.runExpenses(context.Background(), expensesOptions{pick: true}); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	out := ta.out.String()
	if !strings.Contains(out, "Rent") || strings.Contains(out, "Lunch") {
		t.Errorf("expected only rent expenses, got: %s", out)
	}
}

func TestExpenses_InvalidFlags(t *testing.T) {
	ta := newTestApp(t)
	ta.loggedIn(t, "good@x.com")
	before := len(ta.server.Requests())

	if err := ta.runExpenses(context.Background(), expensesOptions{from: "March"}); err == nil {
		t.Error("expected error for malformed --from")
	}
	if err := ta.runExpenses(context.Background(), expensesOptions{kind: "weekly"}); err == nil {
		t.Error("expected error for unknown --type")
	}
	if after := len(ta.server.Requests()); after != before {
		t.Errorf("expected no API requests for invalid flags, got %d", after-before)
	}
}

// TestExpenses_SessionExpired tests that a 401 clears the session and tells the user to log in
func TestExpenses_SessionExpired(t *testing.T) {
	ta := newTestApp(t)
	ta.loggedIn(t, "good@x.com")
	ta.server.RevokeTokens()

	err := ta.runExpenses(context.Background(), expensesOptions{})
	if err == nil {
		t.Fatal("expected error after the server rejected the token")
	}

	if ta.Session.IsAuthenticated() {
		t.Error("expected session to be cleared")
	}
	if _, err := ta.store.Load(); !errors.Is(err, auth.ErrNoToken) {
		t.Errorf("expected stored token to be deleted, got: %v", err)
	}
	if !strings.Contains(ta.notice.String(), "fintrack login") {
		t.Errorf("expected session-expired notice, got: %q", ta.notice.String())
	}
}

func TestIncomes(t *testing.T) {
	ta := newTestApp(t)
	ta.loggedIn(t, "good@x.com")

	if err := ta.runIncomes(context.Background(), "", ""); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if !strings.Contains(ta.out.String(), "No incomes found.") {
		t.Errorf("expected empty message, got: %s", ta.out.String())
	}

	ta.out.Reset()
	ta.server.AddIncome(t, "good@x.com", apitest.Income{Amount: 2500, Source: "Salary", Date: day("2026-03-01")})

	if err := ta.runIncomes(context.Background(), "2026-03-01", "2026-03-01"); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if !strings.Contains(ta.out.String(), "Salary") || !strings.Contains(ta.out.String(), "2500.00") {
		t.Errorf("expected salary row, got: %s", ta.out.String())
	}
}

// TestSummary tests totals, the per-category breakdown and the budget alert
func TestSummary(t *testing.T) {
	ta := newTestApp(t)
	ta.loggedIn(t, "good@x.com")
	ta.server.AddIncome(t, "good@x.com", apitest.Income{Amount: 1000, Source: "Salary", Date: day("2026-02-01")})
	ta.server.AddExpense(t, "good@x.com", apitest.Expense{Amount: 900, Type: "recurring", Category: "rent", Date: day("2026-02-01")})
	ta.server.AddExpense(t, "good@x.com", apitest.Expense{Amount: 200, Type: "one-time", Category: "food", Date: day("2026-02-28")})
	ta.server.AddExpense(t, "good@x.com", apitest.Expense{Amount: 50, Type: "one-time", Category: "food", Date: day("2026-03-01")})

	if err := ta.runSummary(context.Background(), "2026-02"); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	out := ta.out.String()
	for _, want := range []string{"Summary for February 2026", "1000.00", "1100.00", "-100.00", "exceed your income"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got: %s", want, out)
		}
	}
	if strings.Index(out, "rent") > strings.Index(out, "food") {
		t.Errorf("expected categories ordered by spending, got: %s", out)
	}
}

func TestMonthFilters(t *testing.T) {
	now := time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)

	filters, label, err := monthFilters("", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filters.Start != "2024-02-01" || filters.End != "2024-02-29" || label != "February 2024" {
		t.Errorf("unexpected current month range: %+v %s", filters, label)
	}

	filters, _, err = monthFilters("2025-12", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filters.Start != "2025-12-01" || filters.End != "2025-12-31" {
		t.Errorf("unexpected range: %+v", filters)
	}

	if _, _, err := monthFilters("12/2025", now); err == nil {
		t.Error("expected error for malformed month")
	}
}
