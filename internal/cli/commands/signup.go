package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fintrack-dev/fintrack/internal/cli/credentials"
)

// NewSignupCmd creates the signup command
func NewSignupCmd(app *App) *cobra.Command {
	var email, password, confirm string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a FinTrack account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runSignup(cmd.Context(), email, password, confirm)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set FINTRACK_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set FINTRACK_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&confirm, "confirm-password", "", "Password confirmation (defaults to --password when that is given)")

	return cmd
}

func (a *App) runSignup(ctx context.Context, email, password, confirm string) error {
	email, err := a.resolveEmail(email)
	if err != nil {
		return err
	}

	given := password != "" || a.getenv("FINTRACK_PASSWORD") != ""
	password, err = a.resolvePassword(password, "Password")
	if err != nil {
		return err
	}

	if confirm == "" {
		if given {
			confirm = password
		} else if confirm, err = a.Prompt.Password("Confirm password"); err != nil {
			return err
		}
	}

	strength := credentials.PasswordStrength(password)
	fmt.Fprintf(a.out(), "Password strength: %s (%d/4)\n", credentials.StrengthLabel(strength), strength)

	form := credentials.Signup{Email: email, Password: password, ConfirmPassword: confirm}
	if err := form.Validate(); err != nil {
		return err
	}

	fmt.Fprintf(a.out(), "Creating account on %s...\n", a.API.BaseURL())

	result := a.Session.Signup(ctx, form.Email, form.Password)
	if !result.Success {
		return errors.New(result.Error)
	}

	printWelcome(a.out(), "Account created!", a.Session)
	return nil
}
