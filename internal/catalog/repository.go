package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sabbak-erp/sabbak-erp/internal/ref"
	"github.com/sabbak-erp/sabbak-erp/internal/shared"
)

// Repository persists products.
type Repository interface {
	Get(ctx context.Context, id string) (*Product, error)
	GetByName(ctx context.Context, name string) (*Product, error)
	List(ctx context.Context, req ListProductsRequest) ([]Product, error)
	Create(ctx context.Context, p Product) error
	Update(ctx context.Context, id string, updates map[string]any) error
	Delete(ctx context.Context, id string) error
	// AdjustStock applies a signed delta; negative resulting stock is allowed.
	AdjustStock(ctx context.Context, id string, delta int64) error
	AdjustStockByName(ctx context.Context, name string, delta int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `id, name, category, buying_price, selling_price, stock, reorder_level, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.BuyingPrice, &p.SellingPrice, &p.Stock, &p.ReorderLevel, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) Get(ctx context.Context, id string) (*Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func (r *repository) GetByName(ctx context.Context, name string) (*Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE name = $1`, name)
	return scanProduct(row)
}

func (r *repository) List(ctx context.Context, req ListProductsRequest) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	var args []any
	if req.Search != "" {
		query += ` WHERE name ILIKE $1 OR category ILIKE $1`
		args = append(args, "%"+req.Search+"%")
	}
	query += fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
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

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Product) error {
	if p.ID == "" {
		p.ID = ref.NewID()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, name, category, buying_price, selling_price, stock, reorder_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.Name, p.Category, p.BuyingPrice, p.SellingPrice, p.Stock, p.ReorderLevel)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: product name already exists", shared.ErrConflict)
	}
	return err
}

func (r *repository) Update(ctx context.Context, id string, updates map[string]any) error {
	query := `UPDATE products SET updated_at = NOW()`
	var args []any
	argPos := 1
	for _, col := range []string{"name", "category", "buying_price", "selling_price", "stock", "reorder_level"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}
	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: product name already exists", shared.ErrConflict)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) AdjustStock(ctx context.Context, id string, delta int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET stock = stock + $1, updated_at = NOW() WHERE id = $2`, delta, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) AdjustStockByName(ctx context.Context, name string, delta int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET stock = stock + $1, updated_at = NOW() WHERE name = $2`, delta, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
