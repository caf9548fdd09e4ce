package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sabbak-erp/sabbak-erp/internal/catalog"
	"github.com/sabbak-erp/sabbak-erp/internal/customers"
	"github.com/sabbak-erp/sabbak-erp/internal/invoices"
	"github.com/sabbak-erp/sabbak-erp/internal/plumbers"
	"github.com/sabbak-erp/sabbak-erp/internal/reports"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Pool            *pgxpool.Pool
	InvoiceHandler  *invoices.Handler
	CatalogHandler  *catalog.Handler
	CustomerHandler *customers.Handler
	PlumberHandler  *plumbers.Handler
	ReportHandler   *reports.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Pool != nil {
			if err := params.Pool.Ping(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/invoices", params.InvoiceHandler.MountRoutes)
	r.Route("/returns", params.InvoiceHandler.MountReturnRoutes)
	r.Route("/counters", params.InvoiceHandler.MountCounterRoutes)
	r.Route("/products", params.CatalogHandler.MountRoutes)
	r.Route("/customers", params.CustomerHandler.MountRoutes)
	r.Route("/plumbers", params.PlumberHandler.MountRoutes)
	r.Route("/reports", params.ReportHandler.MountRoutes)

	return r
}
