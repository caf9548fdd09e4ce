// sabbakctl is the administrative CLI: schema migration, backup snapshots,
// restore, and invoice-counter maintenance.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sabbak-erp/sabbak-erp/internal/app"
	"github.com/sabbak-erp/sabbak-erp/internal/backup"
	"github.com/sabbak-erp/sabbak-erp/internal/invoices"
	"github.com/sabbak-erp/sabbak-erp/internal/platform/db"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "sabbakctl",
		Short:         "Administration commands for the invoicing service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(migrateCmd(), backupCmd(), restoreCmd(), initCounterCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// withEnv loads config, connects to the primary database and hands both to
// the command body.
func withEnv(run func(ctx context.Context, cfg *app.Config, env *cmdEnv) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg, err := app.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		return run(ctx, cfg, &cmdEnv{pool: pool, logger: app.NewLogger(cfg)})
	}
}

type cmdEnv struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema (idempotent)",
		RunE: withEnv(func(ctx context.Context, _ *app.Config, env *cmdEnv) error {
			if err := db.Migrate(ctx, env.pool); err != nil {
				return err
			}
			fmt.Println("schema applied")
			return nil
		}),
	}
}

func backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Write a JSON snapshot of every collection",
		RunE: withEnv(func(ctx context.Context, cfg *app.Config, env *cmdEnv) error {
			svc := backup.NewService(env.pool, env.logger, cfg.BackupDir)
			dir, err := svc.Dump(ctx)
			if err != nil {
				return err
			}
			fmt.Println("snapshot written to", dir)
			return nil
		}),
	}
}

func restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <snapshot-dir>",
		Short: "Upsert a snapshot back into the database and re-sync the invoice counter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(func(ctx context.Context, cfg *app.Config, env *cmdEnv) error {
				svc := backup.NewService(env.pool, env.logger, cfg.BackupDir)
				if err := svc.Restore(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("restore complete")
				return nil
			})(cmd, args)
		},
	}
}

func initCounterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-counter",
		Short: "Seed the invoice-number counter if it does not exist yet",
		RunE: withEnv(func(ctx context.Context, _ *app.Config, env *cmdEnv) error {
			repo := invoices.NewRepository(env.pool)
			if err := repo.InitInvoiceSequence(ctx); err != nil {
				return err
			}
			fmt.Printf("counter ready, next invoice number is at least %d\n", invoices.FirstInvoiceNumber)
			return nil
		}),
	}
}
