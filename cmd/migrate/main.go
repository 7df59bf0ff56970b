package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/flexprice/billing-notifier/internal/config"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/postgres"
	"github.com/spf13/cobra"
)

var timeout time.Duration

func main() {
	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the billing notifier database schema",
	}
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "abort when the command runs longer than this")

	rootCmd.AddCommand(
		migrationCmd("up", "Apply every pending migration", postgres.RunMigrations),
		migrationCmd("down", "Roll back the most recent migration", postgres.RollbackMigration),
		migrationCmd("status", "Print the state of every migration", postgres.MigrationStatus),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrationCmd(use, short string, run func(ctx context.Context, db *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log, err := logger.NewLogger(cfg)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}

			log.Infow("connecting to database", "host", cfg.Postgres.Host, "dbname", cfg.Postgres.DBName)
			db, err := postgres.NewDB(cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			log.Infow("running migration command", "command", use)
			if err := run(ctx, db.DB.DB); err != nil {
				log.Errorw("migration command failed", "command", use, "error", err)
				return err
			}

			log.Infow("migration command completed", "command", use)
			return nil
		},
	}
}
