package invoices

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabbak-erp/sabbak-erp/internal/catalog"
	"github.com/sabbak-erp/sabbak-erp/internal/shared"
)

func createReturnFixture(t *testing.T, e *env) *Invoice {
	t.Helper()
	seedCustomer(e, ahmed())
	e.catalog = newStubCatalog(&catalog.Product{
		ID: pipeID, Name: "ماسورة", Category: "ابوغالي",
		SellingPrice: dec("100"), Stock: 20,
	})
	e.service.catalog = e.catalog

	inv, err := e.service.Create(context.Background(), CreateInvoiceRequest{
		CustomerName:  "Ahmed",
		CustomerPhone: "01000000001",
		Items: []ItemRequest{
			{Product: pipeID, Qty: 5},
			{ProductName: "جلبة", Qty: 2, Price: decPtr("30")},
		},
		DiscountAbogaliPercent: 10,
	})
	require.NoError(t, err)
	return inv
}

func TestReturnUsesOriginalEffectivePrice(t *testing.T) {
	e := newEnv(t)
	inv := createReturnFixture(t, e)

	ret, err := e.service.CreateOrMergeReturn(context.Background(), CreateReturnRequest{
		OriginalInvoice: inv.InvoiceNumber,
		Items: []ReturnItemRequest{
			// Caller-supplied price must lose to the original line's
			// discounted price.
			{Product: pipeID, Qty: 2, Price: decPtr("999")},
		},
	})
	require.NoError(t, err)

	require.Len(t, ret.Items, 1)
	assert.True(t, dec("90").Equal(ret.Items[0].Price), "effective price is the discounted 90, got %s", ret.Items[0].Price)
	assert.Equal(t, "ابوغالي", ret.Items[0].Category)
	assert.True(t, dec("180").Equal(ret.Total()))
}

func TestReturnMatchesByNameWhenNoID(t *testing.T) {
	e := newEnv(t)
	inv := createReturnFixture(t, e)

	ret, err := e.service.CreateOrMergeReturn(context.Background(), CreateReturnRequest{
		OriginalInvoice: inv.ID,
		Items:           []ReturnItemRequest{{ProductName: "جلبة", Qty: 1}},
	})
	require.NoError(t, err)

	require.Len(t, ret.Items, 1)
	assert.True(t, dec("30").Equal(ret.Items[0].Price), "undiscounted line keeps its list price")
}

func TestReturnFallbackPriceWithoutOriginalMatch(t *testing.T) {
	e := newEnv(t)
	inv := createReturnFixture(t, e)

	ret, err := e.service.CreateOrMergeReturn(context.Background(), CreateReturnRequest{
		OriginalInvoice: inv.ID,
		Items:           []ReturnItemRequest{{ProductName: "صنف غريب", Qty: 1, Price: decPtr("12.50")}},
	})
	require.NoError(t, err)

	require.Len(t, ret.Items, 1)
	assert.True(t, dec("12.50").Equal(ret.Items[0].Price), "caller price only as a fallback")
}

func TestReturnIdempotentMerge(t *testing.T) {
	e := newEnv(t)
	inv := createReturnFixture(t, e)

	first, err := e.service.CreateOrMergeReturn(context.Background(), CreateReturnRequest{
		OriginalInvoice: inv.InvoiceNumber,
		Items:           []ReturnItemRequest{{Product: pipeID, Qty: 1}},
	})
	require.NoError(t, err)

	second, err := e.service.CreateOrMergeReturn(context.Background(), CreateReturnRequest{
		OriginalInvoice: inv.InvoiceNumber,
		Items:           []ReturnItemRequest{{Product: pipeID, Qty: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "one return document per invoice")
	require.Len(t, second.Items, 1, "one line per distinct product")
	assert.Equal(t, int64(3), second.Items[0].Qty)

	updated, err := e.service.Resolve(context.Background(), inv.ID)
	require.NoError(t, err)
	markers := 0
	for _, p := range updated.Payments {
		if p.IsReturnMarker() {
			markers++
			assert.True(t, dec("270").Equal(p.Amount), "cumulative return value 3×90, got %s", p.Amount)
		}
	}
	assert.Equal(t, 1, markers, "exactly one synthetic return payment")
	assert.True(t, dec("0").Equal(updated.PaidTotal), "marker is not cash received")
}

func TestReturnRestocksNewQuantitiesOnly(t *testing.T) {
	e := newEnv(t)
	inv := createReturnFixture(t, e)
	require.Equal(t, int64(15), e.catalog.stock[pipeID], "sale decremented 5")

	_, err := e.service.CreateOrMergeReturn(context.Background(), CreateReturnRequest{
		OriginalInvoice: inv.ID,
		Items:           []ReturnItemRequest{{Product: pipeID, Qty: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(17), e.catalog.stock[pipeID])

	_, err = e.service.CreateOrMergeReturn(context.Background(), CreateReturnRequest{
		OriginalInvoice: inv.ID,
		Items:           []ReturnItemRequest{{Product: pipeID, Qty: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(18), e.catalog.stock[pipeID], "merge moves only the delta")
}

func TestUpdateReturnReplacesItemsAndCorrectsStock(t *testing.T) {
	e := newEnv(t)
	inv := createReturnFixture(t, e)

	ret, err := e.service.CreateOrMergeReturn(context.Background(), CreateReturnRequest{
		OriginalInvoice: inv.ID,
		Items:           []ReturnItemRequest{{Product: pipeID, Qty: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(18), e.catalog.stock[pipeID])

	updated, err := e.service.UpdateReturn(context.Background(), ret.ID, UpdateReturnRequest{
		Items: []ReturnItemRequest{{Product: pipeID, Qty: 1}},
	})
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	assert.Equal(t, int64(1), updated.Items[0].Qty)
	assert.Equal(t, int64(16), e.catalog.stock[pipeID], "old qty reversed, new qty applied")

	invAfter, err := e.service.Resolve(context.Background(), inv.ID)
	require.NoError(t, err)
	markers := 0
	for _, p := range invAfter.Payments {
		if p.IsReturnMarker() {
			markers++
			assert.True(t, dec("90").Equal(p.Amount))
		}
	}
	assert.Equal(t, 1, markers)
}

func TestReturnRequiresExistingInvoice(t *testing.T) {
	e := newEnv(t)
	_, err := e.service.CreateOrMergeReturn(context.Background(), CreateReturnRequest{
		OriginalInvoice: 9999,
		Items:           []ReturnItemRequest{{ProductName: "x", Qty: 1}},
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestHardDeleteRemovesReturn(t *testing.T) {
	e := newEnv(t)
	inv := createReturnFixture(t, e)

	_, err := e.service.CreateOrMergeReturn(context.Background(), CreateReturnRequest{
		OriginalInvoice: inv.ID,
		Items:           []ReturnItemRequest{{Product: pipeID, Qty: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, e.service.HardDelete(context.Background(), inv.ID))
	_, err = e.service.Resolve(context.Background(), inv.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, e.repo.returns)
}
