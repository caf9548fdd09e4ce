package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/sabbak-erp/sabbak-erp/internal/app"
	"github.com/sabbak-erp/sabbak-erp/internal/backup"
	"github.com/sabbak-erp/sabbak-erp/internal/platform/db"
	"github.com/sabbak-erp/sabbak-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var handlers []jobs.TaskHandler

	if cfg.ReplicaDSN != "" {
		replica, err := db.New(ctx, cfg.ReplicaDSN)
		if err != nil {
			logger.Error("connect replica", slog.Any("error", err))
			os.Exit(1)
		}
		defer replica.Close()
		if err := db.Migrate(ctx, replica); err != nil {
			logger.Error("apply replica schema", slog.Any("error", err))
			os.Exit(1)
		}
		sync := jobs.NewReplicaSync(pool, replica, logger)
		handlers = append(handlers, jobs.TaskHandler{Type: jobs.TaskInvoiceSync, Handler: sync.Handle})
	} else {
		logger.Info("replica sync disabled, no REPLICA_DSN configured")
	}

	backupService := backup.NewService(pool, logger, cfg.BackupDir)
	handlers = append(handlers, jobs.TaskHandler{
		Type:    jobs.TaskBackupDump,
		Handler: jobs.NewBackupDumpHandler(backupService, logger),
	})

	var cron []jobs.CronRegistration
	if cfg.BackupCron != "" {
		cron = append(cron, jobs.CronRegistration{
			Spec:    cfg.BackupCron,
			Task:    jobs.NewBackupDumpTask(),
			Options: []asynq.Option{asynq.MaxRetry(3)},
		})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  handlers,
		Cron:      cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
