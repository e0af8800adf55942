// Command sitectl runs maintenance tasks against the site database and mail relay.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/sitecraft/backend/internal/config"
	"github.com/sitecraft/backend/internal/logging"
	"github.com/sitecraft/backend/internal/repository"
)

var (
	envName   string
	configDir string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sitectl",
		Short:         "Maintenance commands for the site backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envName, "env", "", "environment name (default: $APP_ENV or local)")
	root.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory holding base.yaml (default: ./config)")

	root.AddCommand(migrateCmd())
	root.AddCommand(adminCmd())
	root.AddCommand(mailCmd())
	return root
}

// loadConfig reads the configuration and installs the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envName, configDir)
	if err != nil {
		return nil, err
	}
	logging.Setup(logging.FromEnv(cfg.Env))
	return cfg, nil
}

// openPool loads the configuration and connects to the database.
func openPool(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	pool, err := repository.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}
