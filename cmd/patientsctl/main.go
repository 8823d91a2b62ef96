package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/patients-api/internal/config"
	"github.com/jwalitptl/patients-api/internal/repository/postgres"
	"github.com/jwalitptl/patients-api/internal/seed"
	"github.com/jwalitptl/patients-api/pkg/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "patientsctl",
		Short: "Operational tasks for the patients API",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			logger.NewLogger(&logger.Config{
				Level:  logger.ParseLevel(level),
				Format: "console",
				Output: os.Stderr,
			}).SetGlobal()
		},
	}
	rootCmd.PersistentFlags().String("config", "", "Directory containing config.yaml")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openDB loads the config named by --config and connects to Postgres.
func openDB(cmd *cobra.Command) (*sqlx.DB, error) {
	var paths []string
	if dir, _ := cmd.Flags().GetString("config"); dir != "" {
		paths = append(paths, dir)
	}

	cfg, err := config.LoadConfig(paths...)
	if err != nil {
		return nil, err
	}
	if cfg.Database.Driver != "postgres" {
		return nil, fmt.Errorf("database driver %q has no schema to manage", cfg.Database.Driver)
	}
	return postgres.NewDB(cfg.Database)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			count, err := postgres.NewMigrator(db).Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			statuses, err := postgres.NewMigrator(db).Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert fake patients for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			seedValue, _ := cmd.Flags().GetInt64("seed")
			if count <= 0 {
				return fmt.Errorf("count must be positive")
			}
			if seedValue == 0 {
				seedValue = time.Now().UnixNano()
			}

			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			inserted, err := seed.NewSeeder(seedValue).Run(ctx, postgres.NewPatientRepository(db, nil), count)
			if err != nil {
				return err
			}

			fmt.Printf("Inserted %d patient(s).\n", inserted)
			return nil
		},
	}
	cmd.Flags().Int("count", 25, "Number of patients to insert")
	cmd.Flags().Int64("seed", 0, "Faker seed; 0 picks a random one")
	return cmd
}
