// Package cli provides the gridctl command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/gridview/internal/config"
	_ "github.com/JonMunkholm/gridview/internal/core/views" // Register all views
	"github.com/JonMunkholm/gridview/internal/logging"
)

// Version is set at build time.
var Version = "dev"

// configKey stores the loaded config in the command context.
type configKey struct{}

var errNoConfig = errors.New("configuration not loaded")

// NewRootCmd creates the gridctl root command.
func NewRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "gridctl",
		Short: "Query and administer gridview table views",
		Long: `gridctl runs the gridview rule engine from the terminal.

It queries registered views with the same filter, sort and paging rules the
web pages use, shows the OData query a remote view would send, browses views
interactively and manages the PostgreSQL ticket store.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			// A missing .env file is fine
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error), overrides LOG_LEVEL")

	rootCmd.AddCommand(newQueryCommand())
	rootCmd.AddCommand(newCompileCommand())
	rootCmd.AddCommand(newBrowseCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newSeedCommand())
	rootCmd.AddCommand(newResetCommand())
	rootCmd.AddCommand(newViewsCommand())

	return rootCmd
}

// configFrom returns the config loaded by the root command.
func configFrom(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey{}).(*config.Config)
	if !ok || cfg == nil {
		return nil, errNoConfig
	}
	return cfg, nil
}

// httpClient is the client used for remote views. Tests replace it.
var httpClient = func(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.Remote.FetchTimeout}
}

func printf(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
