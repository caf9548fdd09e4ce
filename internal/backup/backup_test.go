package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildUpsert(t *testing.T) {
	stmt := buildUpsert(collection{
		table:    "counters",
		conflict: "name",
		columns:  []string{"name", "seq"},
	})

	assert.Contains(t, stmt, "INSERT INTO counters (name, seq)")
	assert.Contains(t, stmt, "json_populate_recordset(NULL::counters, $1::json)")
	assert.Contains(t, stmt, "ON CONFLICT (name) DO UPDATE SET seq = EXCLUDED.seq")
	assert.NotContains(t, stmt, "name = EXCLUDED.name", "conflict key is never overwritten")
}

func TestCollectionsRestoreOrder(t *testing.T) {
	index := map[string]int{}
	for i, c := range collections {
		index[c.table] = i
	}
	assert.Less(t, index["customers"], index["invoices"], "invoices reference customers")
	assert.Less(t, index["invoices"], index["return_invoices"], "returns reference invoices")
}
