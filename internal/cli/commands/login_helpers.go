package commands

import (
	"fmt"
	"strings"

	"github.com/fintrack-dev/fintrack/internal/cli/userconfig"
)

// DefaultPreferences wraps the userconfig package for production use
type DefaultPreferences struct{}

// RememberedEmail returns the email saved by a previous login
func (DefaultPreferences) RememberedEmail() (string, error) {
	return userconfig.GetRememberedEmail()
}

// RememberEmail saves email for the next login. An empty email forgets it.
func (DefaultPreferences) RememberEmail(email string) error {
	return userconfig.SetRememberedEmail(email)
}

// resolveEmail picks the email from the flag, then FINTRACK_EMAIL, then an interactive prompt
// pre-filled with the remembered email
func (a *App) resolveEmail(email string) (string, error) {
	if email == "" {
		email = a.getenv("FINTRACK_EMAIL")
	}
	if email != "" {
		return strings.TrimSpace(email), nil
	}
	if a.Prompt == nil || !a.Prompt.Interactive() {
		return "", fmt.Errorf("email is required in non-interactive mode (use --email flag or FINTRACK_EMAIL env var)")
	}

	var remembered string
	if a.Prefs != nil {
		// A broken preferences file only loses the pre-fill
		remembered, _ = a.Prefs.RememberedEmail()
	}
	return a.Prompt.Email(remembered)
}

// resolvePassword picks the password from the flag, then FINTRACK_PASSWORD, then a hidden prompt
func (a *App) resolvePassword(password, label string) (string, error) {
	if password == "" {
		password = a.getenv("FINTRACK_PASSWORD")
	}
	if password != "" {
		return password, nil
	}
	if a.Prompt == nil || !a.Prompt.Interactive() {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or FINTRACK_PASSWORD env var)")
	}
	return a.Prompt.Password(label)
}

// rememberEmail stores or forgets the email. Failing to save a preference never fails a login.
func (a *App) rememberEmail(email string, remember bool) {
	if a.Prefs == nil {
		return
	}
	if !remember {
		email = ""
	}
	if err := a.Prefs.RememberEmail(email); err != nil {
		fmt.Fprintf(a.out(), "Warning: failed to save preferences: %v\n", err)
	}
}
