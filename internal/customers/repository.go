package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sabbak-erp/sabbak-erp/internal/ref"
	"github.com/sabbak-erp/sabbak-erp/internal/shared"
)

// Repository persists customers.
type Repository interface {
	Get(ctx context.Context, id string) (*Customer, error)
	// GetByPhone matches non-deleted customers only.
	GetByPhone(ctx context.Context, phone string) (*Customer, error)
	// GetByPhoneAny also matches soft-deleted customers, for revival.
	GetByPhoneAny(ctx context.Context, phone string) (*Customer, error)
	List(ctx context.Context, req ListCustomersRequest) ([]Customer, error)
	// SearchIDs returns ids of non-deleted customers whose name or phone
	// contains the text.
	SearchIDs(ctx context.Context, text string) ([]string, error)
	Create(ctx context.Context, c Customer) error
	Update(ctx context.Context, id string, updates map[string]any) error
	SoftDelete(ctx context.Context, id string) error
	// Revive clears the soft-delete flag and renames in one write.
	Revive(ctx context.Context, id, name string) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const customerColumns = `id, name, phone, is_deleted, deleted_at, created_at, updated_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.IsDeleted, &c.DeletedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) Get(ctx context.Context, id string) (*Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	return scanCustomer(row)
}

func (r *repository) GetByPhone(ctx context.Context, phone string) (*Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE phone = $1 AND NOT is_deleted`, phone)
	return scanCustomer(row)
}

func (r *repository) GetByPhoneAny(ctx context.Context, phone string) (*Customer, error) {
	// Prefer the active record when both an active and a soft-deleted one
	// share the phone.
	row := r.pool.QueryRow(ctx, `
		SELECT `+customerColumns+` FROM customers
		WHERE phone = $1
		ORDER BY is_deleted ASC, updated_at DESC
		LIMIT 1
	`, phone)
	return scanCustomer(row)
}

func (r *repository) List(ctx context.Context, req ListCustomersRequest) ([]Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers`
	var conditions []string
	var args []any
	argPos := 1

	if !req.IncludeDeleted {
		conditions = append(conditions, "NOT is_deleted")
	}
	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR phone ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}
	if len(conditions) > 0 {
		query += " WHERE " + conditions[0]
		for i := 1; i < len(conditions); i++ {
			query += " AND " + conditions[i]
		}
	}
	query += fmt.Sprintf(" ORDER BY name LIMIT $%d OFFSET $%d", argPos, argPos+1)
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *repository) SearchIDs(ctx context.Context, text string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM customers
		WHERE NOT is_deleted AND (name ILIKE $1 OR phone ILIKE $1)
	`, "%"+text+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Customer) error {
	if c.ID == "" {
		c.ID = ref.NewID()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO customers (id, name, phone, is_deleted)
		VALUES ($1, $2, $3, FALSE)
	`, c.ID, c.Name, c.Phone)
	return err
}

func (r *repository) Update(ctx context.Context, id string, updates map[string]any) error {
	query := `UPDATE customers SET updated_at = NOW()`
	var args []any
	argPos := 1
	for _, col := range []string{"name", "phone"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}
	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Revive(ctx context.Context, id, name string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers SET is_deleted = FALSE, deleted_at = NULL, name = $1, updated_at = NOW()
		WHERE id = $2
	`, name, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
