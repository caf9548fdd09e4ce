package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sabbak-erp/sabbak-erp/internal/ref"
	"github.com/sabbak-erp/sabbak-erp/internal/shared"
)

// Repository persists invoices, return invoices and the number counter.
// Items and payments live in JSONB columns, so every invoice mutation is a
// single-row write: the only atomicity the engine relies on.
type Repository interface {
	Get(ctx context.Context, id string) (*Invoice, error)
	GetByNumber(ctx context.Context, number int64) (*Invoice, error)
	List(ctx context.Context, q listQuery) ([]Invoice, error)
	Insert(ctx context.Context, inv *Invoice) error
	Save(ctx context.Context, inv *Invoice) error
	HardDelete(ctx context.Context, id string) error

	// NextInvoiceNumber atomically increments the invoice-number counter,
	// creating it at the seed value on first use.
	NextInvoiceNumber(ctx context.Context) (int64, error)
	MaxInvoiceNumber(ctx context.Context) (int64, error)
	// InitInvoiceSequence idempotently seeds the counter; existing values
	// are left untouched.
	InitInvoiceSequence(ctx context.Context) error

	GetReturn(ctx context.Context, id string) (*ReturnInvoice, error)
	GetReturnByInvoice(ctx context.Context, invoiceID string) (*ReturnInvoice, error)
	SaveReturn(ctx context.Context, r *ReturnInvoice) error
	DeleteReturnByInvoice(ctx context.Context, invoiceID string) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const invoiceColumns = `id, invoice_number, customer_id, customer_name, customer_phone, plumber_name,
	items, payments, total, remaining, discount_abogali_percent, discount_br_percent,
	notes, archived, deleted, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var itemsRaw, paymentsRaw []byte
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.CustomerID, &inv.CustomerName, &inv.CustomerPhone, &inv.PlumberName,
		&itemsRaw, &paymentsRaw, &inv.Total, &inv.Remaining, &inv.DiscountAbogaliPercent, &inv.DiscountBrPercent,
		&inv.Notes, &inv.Archived, &inv.Deleted, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(itemsRaw, &inv.Items); err != nil {
		return nil, fmt.Errorf("decode invoice items: %w", err)
	}
	if err := json.Unmarshal(paymentsRaw, &inv.Payments); err != nil {
		return nil, fmt.Errorf("decode invoice payments: %w", err)
	}
	// PaidTotal is derived, not stored.
	inv.Recompute()
	return &inv, nil
}

func (r *repository) Get(ctx context.Context, id string) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	return scanInvoice(row)
}

func (r *repository) GetByNumber(ctx context.Context, number int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE invoice_number = $1`, number)
	return scanInvoice(row)
}

func (r *repository) List(ctx context.Context, q listQuery) ([]Invoice, error) {
	query, args := buildListQuery(q)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func (r *repository) Insert(ctx context.Context, inv *Invoice) error {
	if inv.ID == "" {
		inv.ID = ref.NewID()
	}
	items, payments, err := encodeArrays(inv)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO invoices (
			id, invoice_number, customer_id, customer_name, customer_phone, plumber_name,
			items, payments, total, remaining, discount_abogali_percent, discount_br_percent,
			notes, archived, deleted
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		inv.ID, inv.InvoiceNumber, inv.CustomerID, inv.CustomerName, inv.CustomerPhone, inv.PlumberName,
		items, payments, inv.Total, inv.Remaining, inv.DiscountAbogaliPercent, inv.DiscountBrPercent,
		inv.Notes, inv.Archived, inv.Deleted,
	)
	return err
}

func (r *repository) Save(ctx context.Context, inv *Invoice) error {
	items, payments, err := encodeArrays(inv)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices SET
			customer_id = $1, customer_name = $2, customer_phone = $3, plumber_name = $4,
			items = $5, payments = $6, total = $7, remaining = $8,
			discount_abogali_percent = $9, discount_br_percent = $10,
			notes = $11, archived = $12, deleted = $13, updated_at = NOW()
		WHERE id = $14
	`,
		inv.CustomerID, inv.CustomerName, inv.CustomerPhone, inv.PlumberName,
		items, payments, inv.Total, inv.Remaining,
		inv.DiscountAbogaliPercent, inv.DiscountBrPercent,
		inv.Notes, inv.Archived, inv.Deleted, inv.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) HardDelete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func encodeArrays(inv *Invoice) (items, payments []byte, err error) {
	if inv.Items == nil {
		inv.Items = []InvoiceItem{}
	}
	if inv.Payments == nil {
		inv.Payments = []Payment{}
	}
	items, err = json.Marshal(inv.Items)
	if err != nil {
		return nil, nil, fmt.Errorf("encode invoice items: %w", err)
	}
	payments, err = json.Marshal(inv.Payments)
	if err != nil {
		return nil, nil, fmt.Errorf("encode invoice payments: %w", err)
	}
	return items, payments, nil
}

// Counter operations.

func (r *repository) NextInvoiceNumber(ctx context.Context) (int64, error) {
	var seq int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO counters (name, seq) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET seq = counters.seq + 1
		RETURNING seq
	`, InvoiceSequence, int64(FirstInvoiceNumber)).Scan(&seq)
	if err != nil {
		return 0, err
	}
	return seq, nil
}

func (r *repository) MaxInvoiceNumber(ctx context.Context) (int64, error) {
	var max int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(invoice_number), 0) FROM invoices`).Scan(&max)
	if err != nil {
		return 0, err
	}
	return max, nil
}

func (r *repository) InitInvoiceSequence(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO counters (name, seq) VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`, InvoiceSequence, int64(CounterSeed))
	return err
}

// Return invoice operations.

func scanReturn(row pgx.Row) (*ReturnInvoice, error) {
	var ret ReturnInvoice
	var itemsRaw []byte
	err := row.Scan(&ret.ID, &ret.InvoiceID, &itemsRaw, &ret.CreatedAt, &ret.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(itemsRaw, &ret.Items); err != nil {
		return nil, fmt.Errorf("decode return items: %w", err)
	}
	return &ret, nil
}

const returnColumns = `id, invoice_id, items, created_at, updated_at`

func (r *repository) GetReturn(ctx context.Context, id string) (*ReturnInvoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+returnColumns+` FROM return_invoices WHERE id = $1`, id)
	return scanReturn(row)
}

func (r *repository) GetReturnByInvoice(ctx context.Context, invoiceID string) (*ReturnInvoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+returnColumns+` FROM return_invoices WHERE invoice_id = $1`, invoiceID)
	return scanReturn(row)
}

func (r *repository) SaveReturn(ctx context.Context, ret *ReturnInvoice) error {
	if ret.ID == "" {
		ret.ID = ref.NewID()
	}
	if ret.Items == nil {
		ret.Items = []ReturnItem{}
	}
	items, err := json.Marshal(ret.Items)
	if err != nil {
		return fmt.Errorf("encode return items: %w", err)
	}
	// One return per invoice: merge-writes land on the same row.
	_, err = r.pool.Exec(ctx, `
		INSERT INTO return_invoices (id, invoice_id, items)
		VALUES ($1, $2, $3)
		ON CONFLICT (invoice_id) DO UPDATE SET items = EXCLUDED.items, updated_at = NOW()
	`, ret.ID, ret.InvoiceID, items)
	return err
}

func (r *repository) DeleteReturnByInvoice(ctx context.Context, invoiceID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM return_invoices WHERE invoice_id = $1`, invoiceID)
	return err
}
