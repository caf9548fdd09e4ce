package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReplicaSync copies a single invoice document, plus the customer it
// references and its return invoice, from the primary database to a replica.
// Replication is best-effort and eventually consistent; asynq's retry policy
// handles transient replica outages.
type ReplicaSync struct {
	primary *pgxpool.Pool
	replica *pgxpool.Pool
	logger  *slog.Logger
}

func NewReplicaSync(primary, replica *pgxpool.Pool, logger *slog.Logger) *ReplicaSync {
	return &ReplicaSync{primary: primary, replica: replica, logger: logger}
}

// Handle processes TaskInvoiceSync tasks.
func (s *ReplicaSync) Handle(ctx context.Context, t *asynq.Task) error {
	var payload InvoiceSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.InvoiceID == "" {
		return asynq.SkipRetry
	}

	doc, err := s.fetchJSON(ctx, "invoices", "id", payload.InvoiceID)
	if err != nil {
		return err
	}
	if doc == "" {
		// Hard-deleted on the primary; mirror the removal.
		if _, err := s.replica.Exec(ctx, `DELETE FROM return_invoices WHERE invoice_id = $1`, payload.InvoiceID); err != nil {
			return fmt.Errorf("jobs: replica delete return: %w", err)
		}
		if _, err := s.replica.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, payload.InvoiceID); err != nil {
			return fmt.Errorf("jobs: replica delete invoice: %w", err)
		}
		return nil
	}

	var customerID string
	if err := s.primary.QueryRow(ctx,
		`SELECT customer_id FROM invoices WHERE id = $1`, payload.InvoiceID).Scan(&customerID); err != nil {
		return fmt.Errorf("jobs: read invoice customer: %w", err)
	}

	// The replica enforces the same foreign keys, so the customer goes
	// first, then the invoice, then the return.
	customer, err := s.fetchJSON(ctx, "customers", "id", customerID)
	if err != nil {
		return err
	}
	if customer != "" {
		if err := s.upsert(ctx, "customers",
			[]string{"name", "phone", "is_deleted", "deleted_at", "created_at", "updated_at"}, customer); err != nil {
			return err
		}
	}

	if err := s.upsert(ctx, "invoices", []string{
		"invoice_number", "customer_id", "customer_name", "customer_phone", "plumber_name",
		"items", "payments", "total", "remaining", "discount_abogali_percent", "discount_br_percent",
		"notes", "archived", "deleted", "created_at", "updated_at",
	}, doc); err != nil {
		return err
	}

	ret, err := s.fetchJSON(ctx, "return_invoices", "invoice_id", payload.InvoiceID)
	if err != nil {
		return err
	}
	if ret == "" {
		_, err := s.replica.Exec(ctx, `DELETE FROM return_invoices WHERE invoice_id = $1`, payload.InvoiceID)
		if err != nil {
			return fmt.Errorf("jobs: replica prune return: %w", err)
		}
		return nil
	}
	return s.upsert(ctx, "return_invoices",
		[]string{"invoice_id", "items", "created_at", "updated_at"}, ret)
}

// fetchJSON reads one row from the primary as a JSON document; an empty
// string means the row does not exist.
func (s *ReplicaSync) fetchJSON(ctx context.Context, table, keyCol, key string) (string, error) {
	var doc string
	query := fmt.Sprintf(`SELECT row_to_json(t)::text FROM %s t WHERE %s = $1`, table, keyCol)
	err := s.primary.QueryRow(ctx, query, key).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("jobs: read %s: %w", table, err)
	}
	return doc, nil
}

// upsert writes a JSON document into the replica table, overwriting the
// listed columns on conflict. The id column is always the conflict key.
func (s *ReplicaSync) upsert(ctx context.Context, table string, updateCols []string, doc string) error {
	sets := ""
	for i, col := range updateCols {
		if i > 0 {
			sets += ", "
		}
		sets += fmt.Sprintf("%s = EXCLUDED.%s", col, col)
	}
	query := fmt.Sprintf(`
		INSERT INTO %s
		SELECT * FROM json_populate_record(NULL::%s, $1::json)
		ON CONFLICT (id) DO UPDATE SET %s`, table, table, sets)
	if _, err := s.replica.Exec(ctx, query, doc); err != nil {
		return fmt.Errorf("jobs: replica upsert %s: %w", table, err)
	}
	return nil
}
