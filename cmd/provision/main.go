package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/swift-payments-portal/internal/config"
	"github.com/josh-kwaku/swift-payments-portal/internal/logging"
	"github.com/josh-kwaku/swift-payments-portal/internal/repository"
	"github.com/josh-kwaku/swift-payments-portal/internal/service/user"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "provision",
		Short:         "Operator tasks for the payments portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(employeeCmd())
	root.AddCommand(migrateCmd())

	return root
}

func employeeCmd() *cobra.Command {
	var username, password, fullName string

	cmd := &cobra.Command{
		Use:   "employee",
		Short: "Create a staff account",
		Long: `Create an employee account. Employees cannot register through the
portal; their ID and account numbers are generated.

Example:
  provision employee --username clerk01 --password 'S3cure!pass' --full-name "Sam Clerk"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, db, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := repository.Migrate(ctx, db, cfg.DatabaseDriver); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			svc := user.NewService(repository.NewUserRepository(db), cfg.JWTSecret, cfg.JWTExpiry)
			u, err := svc.ProvisionEmployee(ctx, fullName, username, password)
			if err != nil {
				return fmt.Errorf("provision employee: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "employee %s created (id %s, account %s)\n", u.Username, u.ID, u.AccountNumber)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "login name (letters and digits)")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name")
	for _, name := range []string{"username", "password", "full-name"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, db, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := repository.Migrate(ctx, db, cfg.DatabaseDriver)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied\n", applied)
			return nil
		},
	}
}

func openDatabase(ctx context.Context) (*config.Config, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logging.Init("payments-provision", cfg.LogLevel, cfg.AppEnv)

	db, err := repository.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
