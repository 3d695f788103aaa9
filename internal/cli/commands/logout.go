package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runLogout()
		},
	}
}

func (a *App) runLogout() error {
	a.Session.Logout()
	fmt.Fprintln(a.out(), "✓ Logged out")
	return nil
}
