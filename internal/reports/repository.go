package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sabbak-erp/sabbak-erp/internal/invoices"
)

// Repository reads the raw material for reports. Deleted invoices never
// contribute.
type Repository interface {
	InvoicesBetween(ctx context.Context, from, to time.Time) ([]invoices.Invoice, error)
	ReturnsBetween(ctx context.Context, from, to time.Time) ([]invoices.ReturnInvoice, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) InvoicesBetween(ctx context.Context, from, to time.Time) ([]invoices.Invoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_number, items, payments
		FROM invoices
		WHERE NOT deleted AND created_at >= $1 AND created_at < $2`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("reports: query invoices: %w", err)
	}
	defer rows.Close()

	var out []invoices.Invoice
	for rows.Next() {
		var inv invoices.Invoice
		var itemsRaw, paymentsRaw []byte
		if err := rows.Scan(&inv.ID, &inv.InvoiceNumber, &itemsRaw, &paymentsRaw); err != nil {
			return nil, fmt.Errorf("reports: scan invoice: %w", err)
		}
		if err := json.Unmarshal(itemsRaw, &inv.Items); err != nil {
			return nil, fmt.Errorf("reports: decode items: %w", err)
		}
		if err := json.Unmarshal(paymentsRaw, &inv.Payments); err != nil {
			return nil, fmt.Errorf("reports: decode payments: %w", err)
		}
		inv.Recompute()
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *repository) ReturnsBetween(ctx context.Context, from, to time.Time) ([]invoices.ReturnInvoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.invoice_id, r.items
		FROM return_invoices r
		JOIN invoices i ON i.id = r.invoice_id
		WHERE NOT i.deleted AND r.created_at >= $1 AND r.created_at < $2`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("reports: query returns: %w", err)
	}
	defer rows.Close()

	var out []invoices.ReturnInvoice
	for rows.Next() {
		var ret invoices.ReturnInvoice
		var itemsRaw []byte
		if err := rows.Scan(&ret.ID, &ret.InvoiceID, &itemsRaw); err != nil {
			return nil, fmt.Errorf("reports: scan return: %w", err)
		}
		if err := json.Unmarshal(itemsRaw, &ret.Items); err != nil {
			return nil, fmt.Errorf("reports: decode return items: %w", err)
		}
		out = append(out, ret)
	}
	return out, rows.Err()
}
