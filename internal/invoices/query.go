package invoices

import (
	"fmt"
	"strings"
)

// listQuery is a fully resolved invoice query: every cross-match has already
// been expanded to concrete ids/names by the service, so building SQL from
// it needs no further lookups.
type listQuery struct {
	Archived *bool
	// Deleted nil means "any"; the service fills in the default exclusion.
	Deleted *bool

	// Customer OR-group: customer equals CustomerID, or (cross-match)
	// plumber_name is one of PlumberNames.
	Customer *customerClause
	// Plumber OR-group: plumber_name equals PlumberName case-insensitively,
	// or (cross-match) customer is one of CustomerIDs.
	Plumber *plumberClause
	// Search OR-group over plumber name substring, matched customer ids,
	// exact invoice number and exact document id.
	Search *searchClause
}

type customerClause struct {
	CustomerID   string
	PlumberNames []string
}

type plumberClause struct {
	PlumberName string
	CustomerIDs []string
}

type searchClause struct {
	Text          string
	CustomerIDs   []string
	InvoiceNumber *int64
	ID            string
}

// buildListQuery renders the WHERE clause. Each filter contributes one
// condition (a plain equality or a parenthesized OR-group); conditions are
// ANDed together, so a cross-filter and a free-text search must both hold.
func buildListQuery(q listQuery) (string, []any) {
	var conditions []string
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Archived != nil {
		conditions = append(conditions, "archived = "+next(*q.Archived))
	}
	if q.Deleted != nil {
		conditions = append(conditions, "deleted = "+next(*q.Deleted))
	}

	if c := q.Customer; c != nil {
		group := []string{"customer_id = " + next(c.CustomerID)}
		if len(c.PlumberNames) > 0 {
			group = append(group, "lower(plumber_name) = ANY("+next(lowerAll(c.PlumberNames))+")")
		}
		conditions = append(conditions, "("+strings.Join(group, " OR ")+")")
	}

	if p := q.Plumber; p != nil {
		group := []string{"lower(plumber_name) = " + next(strings.ToLower(p.PlumberName))}
		if len(p.CustomerIDs) > 0 {
			group = append(group, "customer_id = ANY("+next(p.CustomerIDs)+")")
		}
		conditions = append(conditions, "("+strings.Join(group, " OR ")+")")
	}

	if s := q.Search; s != nil {
		group := []string{"plumber_name ILIKE " + next("%"+s.Text+"%")}
		if len(s.CustomerIDs) > 0 {
			group = append(group, "customer_id = ANY("+next(s.CustomerIDs)+")")
		}
		if s.InvoiceNumber != nil {
			group = append(group, "invoice_number = "+next(*s.InvoiceNumber))
		}
		if s.ID != "" {
			group = append(group, "id = "+next(s.ID))
		}
		conditions = append(conditions, "("+strings.Join(group, " OR ")+")")
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY updated_at DESC, created_at DESC"
	return query, args
}

func lowerAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToLower(n)
	}
	return out
}
