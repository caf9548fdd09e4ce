package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/sabbak-erp/sabbak-erp/internal/backup"
)

// NewBackupDumpHandler returns the handler for TaskBackupDump, typically
// registered on a nightly cron.
func NewBackupDumpHandler(svc *backup.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		dir, err := svc.Dump(ctx)
		if err != nil {
			return err
		}
		logger.Info("scheduled backup complete", slog.String("dir", dir))
		return nil
	}
}
