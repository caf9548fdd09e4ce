package ref

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDigitStringIsInvoiceNumber(t *testing.T) {
	r, ok := Normalize("1025")
	require.True(t, ok)
	assert.Equal(t, KindNumber, r.Kind)
	assert.Equal(t, int64(1025), r.Number)

	// Digits win over hex even at id length (within int64 range).
	r, ok = Normalize("123456789012345678")
	require.True(t, ok)
	assert.Equal(t, KindNumber, r.Kind)
}

func TestNormalizeOverlongDigitStringFails(t *testing.T) {
	// 24 decimal digits: syntactically an id, but digits never reclassify.
	_, ok := Normalize("123456789012345678901234")
	assert.False(t, ok)

	_, ok = Normalize("99999999999999999999")
	assert.False(t, ok)
}

func TestNormalizeExactIDPreservesCase(t *testing.T) {
	id := "64B1f2E3a4C5d6E7f8A9b0C1"
	r, ok := Normalize(id)
	require.True(t, ok)
	assert.Equal(t, KindID, r.Kind)
	assert.Equal(t, id, r.ID)
}

func TestNormalizeExtractsEmbeddedID(t *testing.T) {
	r, ok := Normalize(`ObjectId("64b1f2e3a4c5d6e7f8a9b0c1")`)
	require.True(t, ok)
	assert.Equal(t, KindID, r.Kind)
	assert.Equal(t, "64b1f2e3a4c5d6e7f8a9b0c1", r.ID)
}

func TestNormalizeObjectUnwrapping(t *testing.T) {
	r, ok := Normalize(map[string]any{"_id": "64b1f2e3a4c5d6e7f8a9b0c1"})
	require.True(t, ok)
	assert.Equal(t, "64b1f2e3a4c5d6e7f8a9b0c1", r.ID)

	// _id takes precedence over id; unwrapping recurses.
	r, ok = Normalize(map[string]any{
		"id":  "ffffffffffffffffffffffff",
		"_id": map[string]any{"id": "64b1f2e3a4c5d6e7f8a9b0c1"},
	})
	require.True(t, ok)
	assert.Equal(t, "64b1f2e3a4c5d6e7f8a9b0c1", r.ID)

	// An invalid _id falls through to id.
	r, ok = Normalize(map[string]any{"_id": true, "id": "1030"})
	require.True(t, ok)
	assert.Equal(t, KindNumber, r.Kind)
	assert.Equal(t, int64(1030), r.Number)
}

func TestNormalizeNumbers(t *testing.T) {
	r, ok := Normalize(float64(1025)) // decoded JSON number
	require.True(t, ok)
	assert.Equal(t, int64(1025), r.Number)

	r, ok = Normalize(json.Number("1040"))
	require.True(t, ok)
	assert.Equal(t, int64(1040), r.Number)

	_, ok = Normalize(10.5)
	assert.False(t, ok)
	_, ok = Normalize(-3)
	assert.False(t, ok)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	for _, v := range []any{nil, true, "", "   ", "not-an-id", "zz64b1", map[string]any{"name": "x"}, []any{"64b1f2e3a4c5d6e7f8a9b0c1"}} {
		_, ok := Normalize(v)
		assert.False(t, ok, "expected %#v to fail normalization", v)
	}
}

func TestNewIDShape(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewID()
		require.True(t, IsID(id), "generated id %q must be 24 hex chars", id)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
