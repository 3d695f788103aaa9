package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/fintrack-dev/fintrack/internal/cli/client"
	"github.com/fintrack-dev/fintrack/internal/cli/session"
)

// AnnotationProtected marks commands that need a logged-in user.
// The root command runs the startup token check before them.
const AnnotationProtected = "fintrack/protected"

const dateLayout = "2006-01-02"

// Prompter reads input from the user
type Prompter interface {
	Interactive() bool
	Email(def string) (string, error)
	Password(label string) (string, error)
	SelectCategory(categories []client.Category) (*client.Category, error)
}

// Preferences remembers non-secret choices between runs
type Preferences interface {
	RememberedEmail() (string, error)
	RememberEmail(email string) error
}

// App is what every command shares
type App struct {
	Session *session.Manager
	API     *client.Client
	Prompt  Prompter
	Prefs   Preferences
	Out     io.Writer
	Getenv  func(string) string
	Now     func() time.Time
}

func (a *App) getenv(key string) string {
	if a.Getenv == nil {
		return os.Getenv(key)
	}
	return a.Getenv(key)
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a *App) out() io.Writer {
	if a.Out == nil {
		return os.Stdout
	}
	return a.Out
}

// protect marks cmd as requiring a session
func protect(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[AnnotationProtected] = "true"
	return cmd
}

// IsProtected reports whether cmd needs a session
func IsProtected(cmd *cobra.Command) bool {
	return cmd.Annotations[AnnotationProtected] == "true"
}

// requireUser waits for the startup check and returns the logged-in user
func (a *App) requireUser(ctx context.Context) (*client.User, error) {
	return a.Session.RequireUser(ctx)
}

// LoginRedirect tells the user to log in again after the API rejected the session.
// It prints at most once per run.
type LoginRedirect struct {
	w    io.Writer
	once sync.Once
}

// NewLoginRedirect returns a navigator that writes its notice to w
func NewLoginRedirect(w io.Writer) *LoginRedirect {
	return &LoginRedirect{w: w}
}

// RedirectToLogin implements session.Navigator
func (r *LoginRedirect) RedirectToLogin() {
	r.once.Do(func() {
		fmt.Fprintln(r.w, "Your session has expired. Please run 'fintrack login' again.")
	})
}

// parseDate checks an optional YYYY-MM-DD flag value
func parseDate(flag, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return "", fmt.Errorf("invalid --%s %q: expected YYYY-MM-DD", flag, value)
	}
	return value, nil
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
