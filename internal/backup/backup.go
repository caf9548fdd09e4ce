// Package backup dumps and restores the shop's collections as JSON array
// files, one file per collection. A restore upserts by id, so replaying a
// snapshot over live data is safe.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/sabbak-erp/sabbak-erp/internal/invoices"
	"github.com/sabbak-erp/sabbak-erp/internal/platform/db"
)

// collection describes one backed-up table: its columns, for the restore
// upsert, and the conflict key the upsert merges on.
type collection struct {
	table    string
	conflict string
	columns  []string
}

// Restore order matters: invoices reference customers, returns reference
// invoices.
var collections = []collection{
	{"products", "id", []string{"id", "name", "category", "buying_price", "selling_price", "stock", "reorder_level", "created_at", "updated_at"}},
	{"customers", "id", []string{"id", "name", "phone", "is_deleted", "deleted_at", "created_at", "updated_at"}},
	{"plumbers", "id", []string{"id", "name", "phone", "created_at", "updated_at"}},
	{"invoices", "id", []string{"id", "invoice_number", "customer_id", "customer_name", "customer_phone", "plumber_name", "items", "payments", "total", "remaining", "discount_abogali_percent", "discount_br_percent", "notes", "archived", "deleted", "created_at", "updated_at"}},
	{"return_invoices", "id", []string{"id", "invoice_id", "items", "created_at", "updated_at"}},
	{"counters", "name", []string{"name", "seq"}},
}

// Service writes snapshots under a base directory, each in its own
// uuid-named folder.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	dir    string
}

func NewService(pool *pgxpool.Pool, logger *slog.Logger, dir string) *Service {
	return &Service{pool: pool, logger: logger, dir: dir}
}

// Dump snapshots every collection concurrently and returns the snapshot
// directory path.
func (s *Service) Dump(ctx context.Context) (string, error) {
	dir := filepath.Join(s.dir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("backup: create snapshot dir: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, c := range collections {
		g.Go(func() error {
			return s.dumpCollection(ctx, dir, c.table)
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	s.logger.Info("backup written", slog.String("dir", dir))
	return dir, nil
}

func (s *Service) dumpCollection(ctx context.Context, dir, table string) error {
	var payload string
	query := fmt.Sprintf(`SELECT COALESCE(json_agg(t), '[]'::json)::text FROM %s t`, table)
	if err := s.pool.QueryRow(ctx, query).Scan(&payload); err != nil {
		return fmt.Errorf("backup: dump %s: %w", table, err)
	}
	path := filepath.Join(dir, table+".json")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		return fmt.Errorf("backup: write %s: %w", path, err)
	}
	return nil
}

// Restore upserts every collection found in the snapshot directory inside a
// single transaction, then re-synchronizes the invoice-number counter so it
// can never re-issue a restored number. A failed restore leaves live data
// untouched.
func (s *Service) Restore(ctx context.Context, dir string) error {
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, c := range collections {
			path := filepath.Join(dir, c.table+".json")
			data, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					s.logger.Warn("snapshot file missing, skipping", slog.String("file", path))
					continue
				}
				return fmt.Errorf("backup: read %s: %w", path, err)
			}
			if _, err := tx.Exec(ctx, buildUpsert(c), string(data)); err != nil {
				return fmt.Errorf("backup: restore %s: %w", c.table, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.resyncInvoiceCounter(ctx)
}

// buildUpsert renders the restore statement for one collection:
// json_populate_recordset turns the dumped array back into typed rows, and
// the conflict clause overwrites existing documents with snapshot state.
func buildUpsert(c collection) string {
	cols := strings.Join(c.columns, ", ")
	sets := make([]string, 0, len(c.columns))
	for _, col := range c.columns {
		if col == c.conflict {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	return fmt.Sprintf(`
		INSERT INTO %s (%s)
		SELECT %s FROM json_populate_recordset(NULL::%s, $1::json)
		ON CONFLICT (%s) DO UPDATE SET %s`,
		c.table, cols, cols, c.table, c.conflict, strings.Join(sets, ", "))
}

// resyncInvoiceCounter raises the counter to at least the highest restored
// invoice number, with the standard seed as floor. It never lowers an
// existing counter.
func (s *Service) resyncInvoiceCounter(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO counters (name, seq)
		VALUES ($1, GREATEST($2::bigint, (SELECT COALESCE(MAX(invoice_number), 0) FROM invoices)))
		ON CONFLICT (name) DO UPDATE SET seq = GREATEST(counters.seq, EXCLUDED.seq)
	`, invoices.InvoiceSequence, invoices.CounterSeed)
	if err != nil {
		return fmt.Errorf("backup: resync invoice counter: %w", err)
	}
	return nil
}
