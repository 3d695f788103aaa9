package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fintrack-dev/fintrack/internal/cli/credentials"
	"github.com/fintrack-dev/fintrack/internal/cli/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd(app *App) *cobra.Command {
	var (
		email, password string
		remember        bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to your FinTrack account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var rememberFlag *bool
			if cmd.Flags().Changed("remember") {
				rememberFlag = &remember
			}
			return app.runLogin(cmd.Context(), email, password, rememberFlag)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set FINTRACK_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set FINTRACK_PASSWORD, will prompt if not provided)")
	cmd.Flags().BoolVar(&remember, "remember", false, "Remember the email for the next login (kept if already remembered)")

	return cmd
}

// runLogin validates the credentials locally, then asks the session manager to log in.
// remember nil keeps remembering an email that was remembered before.
func (a *App) runLogin(ctx context.Context, email, password string, remember *bool) error {
	email, err := a.resolveEmail(email)
	if err != nil {
		return err
	}
	password, err = a.resolvePassword(password, "Password")
	if err != nil {
		return err
	}

	form := credentials.Login{Email: email, Password: password}
	if err := form.Validate(); err != nil {
		return err
	}

	fmt.Fprintf(a.out(), "Logging in to %s...\n", a.API.BaseURL())

	result := a.Session.Login(ctx, form.Email, form.Password)
	if !result.Success {
		return errors.New(result.Error)
	}

	keep := false
	if remember != nil {
		keep = *remember
	} else if a.Prefs != nil {
		remembered, _ := a.Prefs.RememberedEmail()
		keep = remembered != ""
	}
	a.rememberEmail(form.Email, keep)

	printWelcome(a.out(), "Login successful!", a.Session)
	return nil
}

func printWelcome(w io.Writer, headline string, m *session.Manager) {
	fmt.Fprintf(w, "✓ %s\n", headline)
	user := m.User()
	if user == nil {
		return
	}
	if user.Name != "" {
		fmt.Fprintf(w, "  User: %s (%s)\n", user.Name, user.Email)
	} else {
		fmt.Fprintf(w, "  User: %s\n", user.Email)
	}
}
