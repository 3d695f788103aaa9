package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fintrack-dev/fintrack/internal/cli/auth"
	"github.com/fintrack-dev/fintrack/internal/cli/client"
	"github.com/fintrack-dev/fintrack/internal/cli/commands"
	"github.com/fintrack-dev/fintrack/internal/cli/prompt"
	"github.com/fintrack-dev/fintrack/internal/cli/session"
	"github.com/fintrack-dev/fintrack/internal/config"
	"github.com/fintrack-dev/fintrack/internal/logger"
)

var version = "dev" // Will be set during build

// NewApp builds the shared command dependencies from configuration
func NewApp(cfg *config.Config) (*commands.App, error) {
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	store, err := auth.NewStore(cfg.Session)
	if err != nil {
		return nil, err
	}

	manager := session.New(store, log)
	api := client.New(cfg.API.BaseURL, client.Options{
		Timeout:      cfg.API.Timeout,
		Tokens:       manager,
		Unauthorized: manager,
		Logger:       log.With().Str("component", "api").Logger(),
	})
	manager.SetAPI(api)
	manager.SetNavigator(commands.NewLoginRedirect(os.Stderr))

	return &commands.App{
		Session: manager,
		API:     api,
		Prompt:  prompt.Terminal{},
		Prefs:   commands.DefaultPreferences{},
		Out:     os.Stdout,
	}, nil
}

// NewRootCmd creates the command tree around app
func NewRootCmd(app *commands.App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fintrack",
		Short: "FinTrack - personal finance from your terminal",
		Long: `FinTrack CLI - Track your expenses and incomes.

Log in once with 'fintrack login'; the session is kept in your system keyring
and checked against the server before every command that needs it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate the stored session only where a user is needed
			if commands.IsProtected(cmd) {
				app.Session.Initialize(cmd.Context())
			}
			return nil
		},
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fintrack version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewLoginCmd(app))
	rootCmd.AddCommand(commands.NewSignupCmd(app))
	rootCmd.AddCommand(commands.NewLogoutCmd(app))
	rootCmd.AddCommand(commands.NewWhoamiCmd(app))
	rootCmd.AddCommand(commands.NewExpensesCmd(app))
	rootCmd.AddCommand(commands.NewIncomesCmd(app))
	rootCmd.AddCommand(commands.NewSummaryCmd(app))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	app, err := NewApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	if err := NewRootCmd(app).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
