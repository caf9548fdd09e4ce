package invoices

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildListQueryNoFilters(t *testing.T) {
	sql, args := buildListQuery(listQuery{})
	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, "ORDER BY updated_at DESC, created_at DESC")
	assert.Empty(t, args)
}

func TestBuildListQueryPlainEquality(t *testing.T) {
	archived := true
	deleted := false
	sql, args := buildListQuery(listQuery{Archived: &archived, Deleted: &deleted})

	assert.Contains(t, sql, "archived = $1")
	assert.Contains(t, sql, "deleted = $2")
	require.Len(t, args, 2)
	assert.Equal(t, true, args[0])
	assert.Equal(t, false, args[1])
}

func TestBuildListQueryCustomerCrossMatchGroup(t *testing.T) {
	sql, args := buildListQuery(listQuery{
		Customer: &customerClause{CustomerID: ahmedID, PlumberNames: []string{"Sami"}},
	})

	assert.Contains(t, sql, "(customer_id = $1 OR lower(plumber_name) = ANY($2))")
	require.Len(t, args, 2)
	assert.Equal(t, ahmedID, args[0])
	assert.Equal(t, []string{"sami"}, args[1], "names are lowered for the case-insensitive match")
}

func TestBuildListQueryGroupsAreConjoined(t *testing.T) {
	deleted := false
	number := int64(1030)
	sql, _ := buildListQuery(listQuery{
		Deleted:  &deleted,
		Customer: &customerClause{CustomerID: ahmedID, PlumberNames: []string{"Sami"}},
		Search:   &searchClause{Text: "1030", InvoiceNumber: &number},
	})

	// A cross-filter OR-group and a search OR-group must both hold.
	assert.Contains(t, sql, ") AND (")
	assert.Contains(t, sql, "plumber_name ILIKE $")
	assert.Contains(t, sql, "invoice_number = $")
}

func TestBuildListQuerySearchIDMatch(t *testing.T) {
	sql, args := buildListQuery(listQuery{
		Search: &searchClause{Text: "507f1f77bcf86cd799439011", ID: "507f1f77bcf86cd799439011"},
	})

	assert.Contains(t, sql, "id = $2")
	require.Len(t, args, 2)
	assert.Equal(t, "%507f1f77bcf86cd799439011%", args[0])
}

func TestBuildListQueryPlumberGroup(t *testing.T) {
	sql, args := buildListQuery(listQuery{
		Plumber: &plumberClause{PlumberName: "Sami", CustomerIDs: []string{ahmedID}},
	})

	assert.Contains(t, sql, "(lower(plumber_name) = $1 OR customer_id = ANY($2))")
	assert.Equal(t, "sami", args[0])
}
