package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/gridview/internal/admin"
	"github.com/JonMunkholm/gridview/internal/application"
	"github.com/JonMunkholm/gridview/internal/bootstrap"
)

// newBrowseCommand creates the interactive browse command.
func newBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse views interactively in the terminal",
		Long: `Open a terminal browser over every bound view. The filter and sort
editors behave like the web rule builder: edits stay in a draft until
applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			stack, err := bootstrap.Open(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer stack.Close()

			return application.Run(cmd.Context(), application.Options{
				Sources:      stack.Sources(httpClient(cfg)),
				Tasks:        stack.Tasks,
				FetchTimeout: cfg.Remote.FetchTimeout,
			})
		},
	}
}

// openTasks connects the admin tasks of the configured database.
func openTasks(cmd *cobra.Command) (*admin.Tasks, func(), error) {
	cfg, err := configFrom(cmd)
	if err != nil {
		return nil, nil, err
	}
	return bootstrap.OpenTasks(cmd.Context(), cfg, nil)
}

// newMigrateCommand creates the migrate command.
func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending ticket store migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, closeDB, err := openTasks(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := tasks.Migrate(cmd.Context()); err != nil {
				return err
			}
			printf(cmd, "Migrations applied\n")
			return nil
		},
	}
}

// newSeedCommand creates the seed command.
func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample tickets that are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, closeDB, err := openTasks(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			n, err := tasks.Seed(cmd.Context())
			if err != nil {
				return err
			}
			printf(cmd, "Seeded %d tickets\n", n)
			return nil
		},
	}
}

// newResetCommand creates the reset command.
func newResetCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every ticket and restore the sample data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("reset deletes every ticket; rerun with --yes to confirm")
			}
			tasks, closeDB, err := openTasks(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := tasks.ResetAll(cmd.Context()); err != nil {
				return err
			}
			printf(cmd, "Tickets reset\n")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}
