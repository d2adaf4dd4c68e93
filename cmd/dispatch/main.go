// Package main runs one delivery pipeline step from the command line, for
// hosts that trigger cadence from an external cron instead of over HTTP.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/popeskul/cadence/internal/config"
	"github.com/popeskul/cadence/internal/infrastructure/connect"
	"github.com/popeskul/cadence/internal/models"
	"github.com/popeskul/cadence/internal/repository"
	"github.com/popeskul/cadence/internal/service"
)

var (
	configPath   string
	submissionID string
	runTimeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Run one cadence pipeline step and print the result as JSON",
	Long: `Run one cadence pipeline step and print the result as JSON.

Examples:
  dispatch process                    # chunk pending submissions
  dispatch run                        # deliver every due submission
  dispatch run --submission <uuid>    # send one submission's next message now`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Deliver due messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts models.DispatchOptions
		if submissionID != "" {
			id, err := uuid.Parse(submissionID)
			if err != nil {
				return fmt.Errorf("invalid --submission: %w", err)
			}
			opts.SubmissionID = &id
		}

		return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
			result, err := svc.Dispatch.Run(ctx, time.Now(), opts)
			if printErr := printJSON(cmd.OutOrStdout(), result); printErr != nil {
				return printErr
			}
			return err
		})
	},
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Build message chains for pending submissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
			result, err := svc.Processing.ProcessPending(ctx)
			if printErr := printJSON(cmd.OutOrStdout(), result); printErr != nil {
				return printErr
			}
			return err
		})
	},
}

func withService(parent context.Context, fn func(context.Context, *service.Service) error) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(parent, runTimeout)
	defer cancel()

	db, err := connect.Postgres(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	redisClient, err := connect.Redis(ctx, &cfg.Redis)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	svc, err := service.NewService(cfg, repository.NewRepository(db), redisClient, logger)
	if err != nil {
		return err
	}

	return fn(ctx, svc)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().DurationVar(&runTimeout, "timeout", 5*time.Minute, "Upper bound for the whole run")
	runCmd.Flags().StringVar(&submissionID, "submission", "", "Send the next message of this submission immediately")

	rootCmd.AddCommand(runCmd, processCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
