package invoices

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(e *env) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, e.service, validator.New())
	r := chi.NewRouter()
	r.Route("/invoices", h.MountRoutes)
	return r
}

func TestReplaceItemsEndpointCarriesNotes(t *testing.T) {
	e := newEnv(t)
	seedCustomer(e, ahmed())

	inv, err := e.service.Create(context.Background(), CreateInvoiceRequest{
		CustomerName:  "Ahmed",
		CustomerPhone: "01000000001",
		Items:         []ItemRequest{{ProductName: "خلاط", Qty: 1, Price: decPtr("100")}},
		Notes:         "قديم",
	})
	require.NoError(t, err)

	router := newTestRouter(e)
	body := `{"items":[{"productName":"خلاط","qty":2,"price":100}],"notes":"تم تعديل الأصناف"}`
	req := httptest.NewRequest(http.MethodPut,
		"/invoices/"+strconv.FormatInt(inv.InvoiceNumber, 10)+"/items",
		strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "تم تعديل الأصناف", got.Notes)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(2), got.Items[0].Qty)
	assert.True(t, dec("200").Equal(got.Total))
}

func TestReplaceItemsEndpointKeepsNotesWhenAbsent(t *testing.T) {
	e := newEnv(t)
	seedCustomer(e, ahmed())

	inv, err := e.service.Create(context.Background(), CreateInvoiceRequest{
		CustomerName:  "Ahmed",
		CustomerPhone: "01000000001",
		Items:         []ItemRequest{{ProductName: "خلاط", Qty: 1, Price: decPtr("100")}},
		Notes:         "ملاحظة أصلية",
	})
	require.NoError(t, err)

	router := newTestRouter(e)
	req := httptest.NewRequest(http.MethodPut,
		"/invoices/"+strconv.FormatInt(inv.InvoiceNumber, 10)+"/items",
		strings.NewReader(`{"items":[{"productName":"خلاط","qty":3,"price":100}]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ملاحظة أصلية", got.Notes)
	assert.Equal(t, int64(3), got.Items[0].Qty)
}
