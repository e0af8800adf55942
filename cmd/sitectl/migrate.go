package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sitecraft/backend/internal/repository"
)

func migrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "migrations directory (default: ./migrations)")

	run := func(fn func(cmd *cobra.Command, m *repository.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			_, pool, err := openPool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			if dir == "" {
				dir = repository.FindMigrationDir()
			}
			return fn(cmd, repository.NewMigrator(pool, dir, slog.Default()))
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: run(func(cmd *cobra.Command, m *repository.Migrator) error {
			n, err := m.Up(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied\n", n)
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations not yet applied",
		RunE: run(func(cmd *cobra.Command, m *repository.Migrator) error {
			pending, err := m.Pending(cmd.Context())
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "up to date")
				return nil
			}
			for _, name := range pending {
				fmt.Fprintln(cmd.OutOrStdout(), "pending", name)
			}
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Drop every table and recreate the consolidated schema",
		RunE: run(func(cmd *cobra.Command, m *repository.Migrator) error {
			return m.Reset(cmd.Context())
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "fresh",
		Short: "Drop every table and apply all migrations in order",
		RunE: run(func(cmd *cobra.Command, m *repository.Migrator) error {
			n, err := m.Fresh(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied\n", n)
			return nil
		}),
	})
	return cmd
}
