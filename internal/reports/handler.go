package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sabbak-erp/sabbak-erp/internal/platform/httpx"
)

// Handler exposes report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/profit", h.profit)
}

// profit accepts from/to as YYYY-MM-DD; the default window is the last 30
// days. The range is half-open: [from, to).
func (h *Handler) profit(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		// Inclusive end date from the caller's point of view.
		to = parsed.AddDate(0, 0, 1)
	}

	report, err := h.service.Profit(r.Context(), from, to)
	if err != nil {
		h.logger.Error("profit report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
