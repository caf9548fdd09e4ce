package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/sabbak-erp/sabbak-erp/internal/app"
	"github.com/sabbak-erp/sabbak-erp/internal/catalog"
	"github.com/sabbak-erp/sabbak-erp/internal/customers"
	"github.com/sabbak-erp/sabbak-erp/internal/invoices"
	"github.com/sabbak-erp/sabbak-erp/internal/platform/cache"
	"github.com/sabbak-erp/sabbak-erp/internal/platform/db"
	"github.com/sabbak-erp/sabbak-erp/internal/plumbers"
	"github.com/sabbak-erp/sabbak-erp/internal/reports"
	"github.com/sabbak-erp/sabbak-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Error("apply schema", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report caching disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	validate := validator.New()

	customerRepo := customers.NewRepository(pool)
	customerService := customers.NewService(customerRepo)
	customerHandler := customers.NewHandler(logger, customerService, validate)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService, validate)

	plumberRepo := plumbers.NewRepository(pool)
	plumberService := plumbers.NewService(plumberRepo)
	plumberHandler := plumbers.NewHandler(logger, plumberService, validate)

	// Replica sync is queued only when a replica is configured; a nil
	// notifier is a no-op in the engine.
	var notifier *jobs.Notifier
	if cfg.ReplicaDSN != "" {
		asynqClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := asynqClient.Close(); err != nil {
				logger.Warn("asynq close", slog.Any("error", err))
			}
		}()
		notifier = jobs.NewNotifier(asynqClient, logger)
	}

	invoiceRepo := invoices.NewRepository(pool)
	invoiceService := invoices.NewService(invoiceRepo, customerService, plumberService, catalogService, logger, notifier)
	invoiceHandler := invoices.NewHandler(logger, invoiceService, validate)

	var jsonCache *cache.JSONCache
	if redisClient != nil {
		jsonCache = cache.NewJSONCache(redisClient, cfg.ReportCacheTTL)
	}
	reportRepo := reports.NewRepository(pool)
	reportService := reports.NewService(reportRepo, jsonCache)
	reportHandler := reports.NewHandler(logger, reportService)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Pool:            pool,
		InvoiceHandler:  invoiceHandler,
		CatalogHandler:  catalogHandler,
		CustomerHandler: customerHandler,
		PlumberHandler:  plumberHandler,
		ReportHandler:   reportHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
