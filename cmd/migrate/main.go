// Package main implements the database migration utility for the cadence service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/popeskul/cadence/internal/infrastructure/migrate"
)

const (
	defaultMigrationsPath = "./migrations"
	defaultMigrateSteps   = 1
)

var (
	migrationsPath string
	steps          int
	logger         *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back cadence database migrations",
	Long: `Apply or roll back cadence database migrations.

The database is read from the DATABASE_URL environment variable.

Examples:
  migrate up               # apply every pending migration
  migrate up --steps 1     # apply one migration
  migrate down --steps 2   # roll back two migrations
  migrate version          # print the current version`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := newRunner()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("steps") {
			return runner.Steps(steps)
		}
		return runner.Up()
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := newRunner()
		if err != nil {
			return err
		}
		return runner.Steps(-steps)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current migration version",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := newRunner()
		if err != nil {
			return err
		}
		version, dirty, err := runner.Version()
		if err != nil {
			return err
		}
		if dirty {
			fmt.Fprintf(cmd.OutOrStdout(), "Current version: %d (dirty)\n", version)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Current version: %d\n", version)
		}
		return nil
	},
}

func newRunner() (*migrate.Runner, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	return migrate.NewRunner(&migrate.Config{
		DatabaseURL:    databaseURL,
		MigrationsPath: migrationsPath,
	}, logger), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsPath, "path", defaultMigrationsPath, "Path to migrations directory")
	upCmd.Flags().IntVar(&steps, "steps", defaultMigrateSteps, "Number of migrations to apply")
	downCmd.Flags().IntVar(&steps, "steps", defaultMigrateSteps, "Number of migrations to roll back")

	rootCmd.AddCommand(upCmd, downCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
