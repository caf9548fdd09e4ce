package invoices

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sabbak-erp/sabbak-erp/internal/platform/httpx"
	"github.com/sabbak-erp/sabbak-erp/internal/shared"
)

// Handler exposes invoice, return and counter endpoints. Path references
// accept either an invoice number or a document id; the service side
// normalizes them.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{ref}", h.get)
	r.Patch("/{ref}", h.update)
	r.Delete("/{ref}", h.delete)
	r.Post("/{ref}/payments", h.addPayment)
	r.Put("/{ref}/items", h.replaceItems)
	r.Post("/{ref}/archive", h.archive)
	r.Post("/{ref}/restore", h.restore)
	r.Delete("/{ref}/hard", h.hardDelete)
}

// MountReturnRoutes registers return-invoice routes.
func (h *Handler) MountReturnRoutes(r chi.Router) {
	r.Post("/", h.createReturn)
	r.Get("/{ref}", h.getReturn)
	r.Patch("/{ref}", h.updateReturn)
}

// MountCounterRoutes registers sequence-administration routes.
func (h *Handler) MountCounterRoutes(r chi.Router) {
	r.Post("/invoice-number/init", h.initSequence)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListInvoicesFilter{
		CustomerID:               q.Get("customerId"),
		IncludeCustomerAsPlumber: boolParam(q.Get("includeCustomerAsPlumber")),
		PlumberName:              q.Get("plumberName"),
		IncludePlumberAsCustomer: boolParam(q.Get("includePlumberAsCustomer")),
		Search:                   q.Get("search"),
		IncludeDeleted:           boolParam(q.Get("includeDeleted")),
	}
	if v := q.Get("archived"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "archived must be true or false")
			return
		}
		filter.Archived = &b
	}
	if v := q.Get("deleted"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "deleted must be true or false")
			return
		}
		filter.Deleted = &b
	}

	invs, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if invs == nil {
		invs = []Invoice{}
	}
	httpx.JSON(w, http.StatusOK, invs)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}

	inv, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetByID(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}

	inv, err := h.service.Update(r.Context(), chi.URLParam(r, "ref"), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) addPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	inv, err := h.service.AddPayment(r.Context(), chi.URLParam(r, "ref"), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) replaceItems(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []ItemRequest `json:"items" validate:"required,dive"`
		Notes *string       `json:"notes,omitempty"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}

	inv, err := h.service.Update(r.Context(), chi.URLParam(r, "ref"), UpdateInvoiceRequest{Items: &req.Items, Notes: req.Notes})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Archived bool `json:"archived"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	inv, err := h.service.Archive(r.Context(), chi.URLParam(r, "ref"), req.Archived)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.Delete(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.Restore(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) hardDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.HardDelete(r.Context(), chi.URLParam(r, "ref")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) createReturn(w http.ResponseWriter, r *http.Request) {
	var req CreateReturnRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}

	ret, err := h.service.CreateOrMergeReturn(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ret)
}

func (h *Handler) getReturn(w http.ResponseWriter, r *http.Request) {
	ret, err := h.service.GetReturn(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ret)
}

func (h *Handler) updateReturn(w http.ResponseWriter, r *http.Request) {
	var req UpdateReturnRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}

	ret, err := h.service.UpdateReturn(r.Context(), chi.URLParam(r, "ref"), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ret)
}

func (h *Handler) initSequence(w http.ResponseWriter, r *http.Request) {
	if err := h.service.InitInvoiceSequence(r.Context()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"initialized": true})
}

func boolParam(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}
