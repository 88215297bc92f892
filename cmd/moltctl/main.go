package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moltbook/api/internal/db"
	"github.com/moltbook/api/internal/recount"
	"github.com/moltbook/api/pkg/config"
	"github.com/moltbook/api/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "moltctl",
		Short:        "Administrative tasks for the Moltbook API database",
		SilenceUsage: true,
	}

	root.AddCommand(newMigrateCmd(), newRecountCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context, database *db.DB) error {
				if err := database.Migrate(ctx); err != nil {
					return err
				}
				logging.GetLogger().Info("Schema migrated")
				return nil
			})
		},
	}
}

func newRecountCmd() *cobra.Command {
	var opts recount.Options

	cmd := &cobra.Command{
		Use:   "recount",
		Short: "Rebuild denormalized counters from source rows",
		Long: "Recomputes submolt post and member counts, post comment counts and vote tallies, " +
			"and user karma. With no flags every counter is rebuilt.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context, database *db.DB) error {
				report, err := recount.New(database).Run(ctx, opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "submolts=%d posts=%d users=%d\n",
					report.Submolts, report.Posts, report.Users)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Submolts, "submolts", false, "rebuild submolt post and member counts")
	cmd.Flags().BoolVar(&opts.Posts, "posts", false, "rebuild post comment counts and vote tallies")
	cmd.Flags().BoolVar(&opts.Karma, "karma", false, "rebuild user karma from post scores")
	return cmd
}

// withDatabase loads config, sets up logging and opens the database for fn
func withDatabase(ctx context.Context, fn func(ctx context.Context, database *db.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logging.InitLogger(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logging.GetLogger().Sync()

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := fn(ctx, database); err != nil {
		logging.GetLogger().Error("Command failed", zap.Error(err))
		return err
	}
	return nil
}
