package main

import (
	"fmt"
	"time"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-functions/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-functions/pkg/config"
	"github.com/johnquangdev/meeting-functions/pkg/logger"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the meetings schema",
	}

	var steps int
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *gorm.DB, log *zap.Logger) error {
				n, err := database.Migrate(db, migrate.Up, steps, log)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", n)
				return nil
			})
		},
	}
	up.Flags().IntVar(&steps, "steps", 0, "maximum number of migrations to apply (0 = all)")

	var downSteps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *gorm.DB, log *zap.Logger) error {
				n, err := database.Migrate(db, migrate.Down, downSteps, log)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", n)
				return nil
			})
		},
	}
	down.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back (0 = all)")

	status := &cobra.Command{
		Use:   "status",
		Short: "List applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *gorm.DB, log *zap.Logger) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				records, err := migrate.GetMigrationRecords(sqlDB, "postgres")
				if err != nil {
					return fmt.Errorf("failed to read migration records: %w", err)
				}
				for _, r := range records {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", r.Id, r.AppliedAt.Format(time.RFC3339))
				}
				return nil
			})
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

// withDB connects to the configured store for the duration of fn
func withDB(fn func(db *gorm.DB, log *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.RequireStore(); err != nil {
		return err
	}

	log, err := logger.New(&cfg.Log, cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(cfg, log)
	if err != nil {
		return err
	}
	defer database.CloseDB(db)

	return fn(db, log)
}
