package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabbak-erp/sabbak-erp/internal/invoices"
	"github.com/sabbak-erp/sabbak-erp/internal/platform/cache"
)

type fakeRepo struct {
	invoices []invoices.Invoice
	returns  []invoices.ReturnInvoice
	calls    int
}

func (r *fakeRepo) InvoicesBetween(_ context.Context, _, _ time.Time) ([]invoices.Invoice, error) {
	r.calls++
	return r.invoices, nil
}

func (r *fakeRepo) ReturnsBetween(_ context.Context, _, _ time.Time) ([]invoices.ReturnInvoice, error) {
	return r.returns, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixtureInvoice() invoices.Invoice {
	discounted := dec("90")
	inv := invoices.Invoice{
		Items: []invoices.InvoiceItem{
			{Qty: 2, Price: dec("100"), BuyingPrice: dec("70"), DiscountedPrice: &discounted},
			{Qty: 1, Price: dec("50"), BuyingPrice: dec("40")},
		},
		Payments: []invoices.Payment{
			{Amount: dec("50")},
			{Amount: dec("90"), Note: invoices.ReturnMarkerNote},
		},
	}
	inv.Recompute()
	return inv
}

func TestProfitAggregation(t *testing.T) {
	repo := &fakeRepo{
		invoices: []invoices.Invoice{fixtureInvoice()},
		returns: []invoices.ReturnInvoice{
			{Items: []invoices.ReturnItem{{Qty: 1, Price: dec("90")}}},
		},
	}
	svc := NewService(repo, nil)

	to := time.Now()
	report, err := svc.Profit(context.Background(), to.AddDate(0, 0, -1), to)
	require.NoError(t, err)

	assert.Equal(t, 1, report.InvoiceCount)
	assert.True(t, dec("230").Equal(report.SoldTotal), "2×90 + 1×50")
	assert.True(t, dec("180").Equal(report.Cost), "2×70 + 1×40")
	assert.True(t, dec("90").Equal(report.ReturnedTotal))
	assert.True(t, dec("-40").Equal(report.Profit), "230 − 90 − 180")
	assert.True(t, dec("50").Equal(report.CashCollected), "return marker is not cash")
	assert.True(t, dec("90").Equal(report.Outstanding), "230 − 140 net of all payments")
}

func TestProfitRejectsEmptyRange(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil)
	now := time.Now()
	_, err := svc.Profit(context.Background(), now, now)
	assert.Error(t, err)
}

func TestProfitIsCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	jsonCache := cache.NewJSONCache(client, time.Minute)

	repo := &fakeRepo{invoices: []invoices.Invoice{fixtureInvoice()}}
	svc := NewService(repo, jsonCache)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	first, err := svc.Profit(context.Background(), from, to)
	require.NoError(t, err)

	// A second identical request is served from Redis, even though the
	// underlying data changed meanwhile.
	repo.invoices = append(repo.invoices, fixtureInvoice())
	second, err := svc.Profit(context.Background(), from, to)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, first.InvoiceCount, second.InvoiceCount)
	assert.True(t, first.Profit.Equal(second.Profit))
}
