package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(app *App) *cobra.Command {
	return protect(&cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runWhoami(cmd.Context())
		},
	})
}

func (a *App) runWhoami(ctx context.Context) error {
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}

	w := a.out()
	fmt.Fprintf(w, "Email:   %s\n", user.Email)
	if user.Name != "" {
		fmt.Fprintf(w, "Name:    %s\n", user.Name)
	}
	if user.ID != "" {
		fmt.Fprintf(w, "ID:      %s\n", user.ID)
	}
	if user.CreatedAt != nil {
		fmt.Fprintf(w, "Joined:  %s\n", formatDate(user.CreatedAt))
	}
	fmt.Fprintf(w, "Server:  %s\n", a.API.BaseURL())

	if expires, ok := tokenExpiry(a.Session.Token()); ok {
		fmt.Fprintf(w, "Expires: %s (in %s)\n",
			expires.Format(time.RFC3339),
			expires.Sub(a.now()).Round(time.Minute))
	}
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature.
// The server is the only authority on validity; this is informational.
func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
