package plumbers

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

// Repository persists plumbers.
type Repository interface {
	Get(ctx context.Context, id string) (*Plumber, error)
	// GetByName matches case-insensitively.
	GetByName(ctx context.Context, name string) (*Plumber, error)
	// NamesByPhone returns the names of all plumbers holding the phone.
	NamesByPhone(ctx context.Context, phone string) ([]string, error)
	List(ctx context.Context, req ListPlumbersRequest) ([]Plumber, error)
	Create(ctx context.Context, p Plumber) error
	Update(ctx context.Context, id string, name string, phone *string) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const plumberColumns = `id, name, phone, created_at, updated_at`

func scanPlumber(row pgx.Row) (*Plumber, error) {
	var p Plumber
	err := row.Scan(&p.ID, &p.Name, &p.Phone, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) Get(ctx context.Context, id string) (*Plumber, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+plumberColumns+` FROM plumbers WHERE id = $1`, id)
	return scanPlumber(row)
}

func (r *repository) GetByName(ctx context.Context, name string) (*Plumber, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+plumberColumns+` FROM plumbers WHERE lower(name) = lower($1)`, name)
	return scanPlumber(row)
}

func (r *repository) NamesByPhone(ctx context.Context, phone string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT name FROM plumbers WHERE phone = $1`, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListPlumbersRequest) ([]Plumber, error) {
	query := `SELECT ` + plumberColumns + ` FROM plumbers`
	var args []any
	if req.Search != "" {
		query += ` WHERE name ILIKE $1 OR phone ILIKE $1`
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

	var out []Plumber
	for rows.Next() {
		p, err := scanPlumber(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Plumber) error {
	if p.ID == "" {
		p.ID = ref.NewID()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO plumbers (id, name, phone)
		VALUES ($1, $2, $3)
	`, p.ID, p.Name, p.Phone)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: plumber phone already in use", shared.ErrConflict)
	}
	return err
}

func (r *repository) Update(ctx context.Context, id string, name string, phone *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE plumbers SET name = $1, phone = $2, updated_at = NOW() WHERE id = $3
	`, name, phone, id)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: plumber phone already in use", shared.ErrConflict)
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
	tag, err := r.pool.Exec(ctx, `DELETE FROM plumbers WHERE id = $1`, id)
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
