package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInvoiceSync pushes one invoice (with its customer and return) to
	// the replica database.
	TaskInvoiceSync = "invoice:sync"
	// TaskBackupDump writes a full snapshot to the backup directory.
	TaskBackupDump = "backup:dump"
)

// InvoiceSyncPayload identifies the invoice to replicate.
type InvoiceSyncPayload struct {
	InvoiceID string `json:"invoiceId"`
}

// NewInvoiceSyncTask constructs an Asynq task.
func NewInvoiceSyncTask(payload InvoiceSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceSync, data), nil
}

// NewBackupDumpTask constructs the nightly snapshot task.
func NewBackupDumpTask() *asynq.Task {
	return asynq.NewTask(TaskBackupDump, nil)
}
