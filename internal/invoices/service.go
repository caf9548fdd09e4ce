package invoices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sabbak-erp/sabbak-erp/internal/catalog"
	"github.com/sabbak-erp/sabbak-erp/internal/category"
	"github.com/sabbak-erp/sabbak-erp/internal/customers"
	"github.com/sabbak-erp/sabbak-erp/internal/plumbers"
	"github.com/sabbak-erp/sabbak-erp/internal/ref"
	"github.com/sabbak-erp/sabbak-erp/internal/shared"
)

// CustomerDirectory is what the engine needs from the customers vertical.
type CustomerDirectory interface {
	LookupStrict(ctx context.Context, name, phone string) (*customers.Customer, error)
	Get(ctx context.Context, id string) (*customers.Customer, error)
	SearchIDs(ctx context.Context, text string) ([]string, error)
	IDsByPhone(ctx context.Context, phone string) ([]string, error)
}

// PlumberDirectory is what the engine needs from the plumbers vertical.
type PlumberDirectory interface {
	LookupByName(ctx context.Context, name string) (*plumbers.Plumber, error)
	NamesByPhone(ctx context.Context, phone string) ([]string, error)
}

// ProductCatalog is what the engine needs from the catalog vertical.
type ProductCatalog interface {
	Resolve(ctx context.Context, idOrName string) (*catalog.Product, error)
	AdjustStock(ctx context.Context, id string, delta int64) error
	AdjustStockByName(ctx context.Context, name string, delta int64) error
}

// SyncNotifier queues best-effort replication of a changed invoice. It must
// never block or fail the primary write; implementations log and drop.
type SyncNotifier interface {
	InvoiceChanged(ctx context.Context, invoiceID string)
}

// Service is the invoice computation and query engine.
type Service struct {
	repo      Repository
	customers CustomerDirectory
	plumbers  PlumberDirectory
	catalog   ProductCatalog
	logger    *slog.Logger
	sync      SyncNotifier
}

func NewService(repo Repository, customerDir CustomerDirectory, plumberDir PlumberDirectory, productCat ProductCatalog, logger *slog.Logger, sync SyncNotifier) *Service {
	return &Service{repo: repo, customers: customerDir, plumbers: plumberDir, catalog: productCat, logger: logger, sync: sync}
}

// Resolve looks an invoice up by any accepted reference form: an integer
// (or all-digit string) is an invoice number, a 24-hex id is a document id.
func (s *Service) Resolve(ctx context.Context, reference any) (*Invoice, error) {
	r, ok := ref.Normalize(reference)
	if !ok {
		return nil, fmt.Errorf("%w: cannot interpret invoice reference", shared.ErrInvalidRef)
	}
	switch r.Kind {
	case ref.KindNumber:
		return s.repo.GetByNumber(ctx, r.Number)
	case ref.KindID:
		return s.repo.Get(ctx, r.ID)
	}
	return nil, fmt.Errorf("%w: cannot interpret invoice reference", shared.ErrInvalidRef)
}

// Create builds and persists a new invoice. The customer must already exist
// under this exact phone and name; products and customers are never
// auto-created here.
func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	abogali := clampPercent(req.DiscountAbogaliPercent)
	br := clampPercent(req.DiscountBrPercent)

	cust, err := s.customers.LookupStrict(ctx, req.CustomerName, req.CustomerPhone)
	if err != nil {
		return nil, err
	}

	plumberName := strings.TrimSpace(req.PlumberName)
	if plumberName != "" {
		p, err := s.plumbers.LookupByName(ctx, plumberName)
		if err != nil {
			return nil, err
		}
		plumberName = p.Name
	}

	items, err := s.buildItems(ctx, req.Items, abogali, br)
	if err != nil {
		return nil, err
	}

	payments, err := buildPayments(req.Payments)
	if err != nil {
		return nil, err
	}

	// Stock moves before the invoice write and is best-effort: a failed
	// decrement is logged, never fatal. Financial records win over
	// inventory-count accuracy.
	s.applyStockDeltas(ctx, items, -1)

	number, err := s.allocateInvoiceNumber(ctx)
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		ID:                     ref.NewID(),
		InvoiceNumber:          number,
		CustomerID:             cust.ID,
		CustomerName:           cust.Name,
		CustomerPhone:          cust.Phone,
		PlumberName:            plumberName,
		Items:                  items,
		Payments:               payments,
		DiscountAbogaliPercent: abogali,
		DiscountBrPercent:      br,
		Notes:                  req.Notes,
	}
	inv.Recompute()

	if err := s.repo.Insert(ctx, inv); err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}
	s.notifyChanged(ctx, inv.ID)
	return s.repo.Get(ctx, inv.ID)
}

// AddPayment appends a payment row and recomputes totals.
func (s *Service) AddPayment(ctx context.Context, reference any, req PaymentRequest) (*Invoice, error) {
	inv, err := s.Resolve(ctx, reference)
	if err != nil {
		return nil, err
	}
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: payment amount must not be negative", shared.ErrValidation)
	}
	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}
	inv.Payments = append(inv.Payments, Payment{Amount: req.Amount, Date: date, Note: req.Note})
	inv.Recompute()
	if err := s.repo.Save(ctx, inv); err != nil {
		return nil, err
	}
	s.notifyChanged(ctx, inv.ID)
	return inv, nil
}

// Update applies a partial update. Discount percentages are resolved before
// items so replaced items are re-discounted with the current rates; totals
// are recomputed regardless of which fields changed.
func (s *Service) Update(ctx context.Context, reference any, req UpdateInvoiceRequest) (*Invoice, error) {
	inv, err := s.Resolve(ctx, reference)
	if err != nil {
		return nil, err
	}

	if req.DiscountAbogaliPercent != nil {
		inv.DiscountAbogaliPercent = clampPercent(*req.DiscountAbogaliPercent)
	}
	if req.DiscountBrPercent != nil {
		inv.DiscountBrPercent = clampPercent(*req.DiscountBrPercent)
	}

	if req.CustomerName != nil || req.CustomerPhone != nil {
		name := inv.CustomerName
		phone := inv.CustomerPhone
		if req.CustomerName != nil {
			name = *req.CustomerName
		}
		if req.CustomerPhone != nil {
			phone = *req.CustomerPhone
		}
		cust, err := s.customers.LookupStrict(ctx, name, phone)
		if err != nil {
			return nil, err
		}
		inv.CustomerID = cust.ID
		inv.CustomerName = cust.Name
		inv.CustomerPhone = cust.Phone
	}

	if req.PlumberName != nil {
		name := strings.TrimSpace(*req.PlumberName)
		if name == "" {
			inv.PlumberName = ""
		} else {
			p, err := s.plumbers.LookupByName(ctx, name)
			if err != nil {
				return nil, err
			}
			inv.PlumberName = p.Name
		}
	}

	if req.Items != nil {
		items, err := s.buildItems(ctx, *req.Items, inv.DiscountAbogaliPercent, inv.DiscountBrPercent)
		if err != nil {
			return nil, err
		}
		inv.Items = items
	}

	if req.Payments != nil {
		payments, err := buildPayments(*req.Payments)
		if err != nil {
			return nil, err
		}
		inv.Payments = payments
	}

	if req.Notes != nil {
		inv.Notes = *req.Notes
	}

	inv.Recompute()
	if err := s.repo.Save(ctx, inv); err != nil {
		return nil, err
	}
	s.notifyChanged(ctx, inv.ID)
	return inv, nil
}

// Archive toggles the organizational archived flag.
func (s *Service) Archive(ctx context.Context, reference any, archived bool) (*Invoice, error) {
	inv, err := s.Resolve(ctx, reference)
	if err != nil {
		return nil, err
	}
	if inv.Deleted && archived {
		return nil, fmt.Errorf("%w: cannot archive a deleted invoice", shared.ErrValidation)
	}
	inv.Archived = archived
	if err := s.repo.Save(ctx, inv); err != nil {
		return nil, err
	}
	s.notifyChanged(ctx, inv.ID)
	return inv, nil
}

// Delete soft-deletes. Deletion supersedes archival, so archived is cleared.
func (s *Service) Delete(ctx context.Context, reference any) (*Invoice, error) {
	inv, err := s.Resolve(ctx, reference)
	if err != nil {
		return nil, err
	}
	inv.Deleted = true
	inv.Archived = false
	if err := s.repo.Save(ctx, inv); err != nil {
		return nil, err
	}
	s.notifyChanged(ctx, inv.ID)
	return inv, nil
}

// Restore clears the soft-delete flag.
func (s *Service) Restore(ctx context.Context, reference any) (*Invoice, error) {
	inv, err := s.Resolve(ctx, reference)
	if err != nil {
		return nil, err
	}
	inv.Deleted = false
	if err := s.repo.Save(ctx, inv); err != nil {
		return nil, err
	}
	s.notifyChanged(ctx, inv.ID)
	return inv, nil
}

// HardDelete physically removes the invoice and its return invoice.
// Irreversible; administrative escape hatch only.
func (s *Service) HardDelete(ctx context.Context, reference any) error {
	inv, err := s.Resolve(ctx, reference)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteReturnByInvoice(ctx, inv.ID); err != nil {
		return err
	}
	return s.repo.HardDelete(ctx, inv.ID)
}

// GetByID returns the invoice expanded for display: customer populated, the
// return invoice merged in, and empty item name snapshots backfilled from
// the product records (read-time convenience, never persisted).
func (s *Service) GetByID(ctx context.Context, reference any) (*InvoiceDetail, error) {
	inv, err := s.Resolve(ctx, reference)
	if err != nil {
		return nil, err
	}

	detail := &InvoiceDetail{Invoice: *inv}
	if cust, err := s.customers.Get(ctx, inv.CustomerID); err == nil {
		detail.Customer = cust
	}

	for i, it := range detail.Items {
		if it.ProductName == "" && it.ProductID != nil {
			if p, err := s.catalog.Resolve(ctx, *it.ProductID); err == nil && p != nil {
				detail.Items[i].ProductName = p.Name
			}
		}
	}

	ret, err := s.repo.GetReturnByInvoice(ctx, inv.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if ret != nil {
		s.backfillReturnCategories(ctx, inv, ret)
		detail.ReturnInvoice = ret
	}
	return detail, nil
}

// List runs the combined sparse-filter query. Cross-matches are resolved
// here with explicit lookups before any SQL is built.
func (s *Service) List(ctx context.Context, filter ListInvoicesFilter) ([]Invoice, error) {
	q := listQuery{Archived: filter.Archived}

	// Deleted invoices are excluded unless the caller filters on the flag
	// explicitly or opts in to seeing them.
	if filter.Deleted != nil {
		q.Deleted = filter.Deleted
	} else if !filter.IncludeDeleted {
		notDeleted := false
		q.Deleted = &notDeleted
	}

	if filter.CustomerID != "" {
		if !ref.IsID(filter.CustomerID) {
			return nil, fmt.Errorf("%w: %q is not a customer id", shared.ErrInvalidRef, filter.CustomerID)
		}
		clause := &customerClause{CustomerID: filter.CustomerID}
		if filter.IncludeCustomerAsPlumber {
			if cust, err := s.customers.Get(ctx, filter.CustomerID); err == nil && cust.Phone != "" {
				names, err := s.plumbers.NamesByPhone(ctx, cust.Phone)
				if err != nil {
					return nil, err
				}
				clause.PlumberNames = names
			}
		}
		q.Customer = clause
	}

	if filter.PlumberName != "" {
		clause := &plumberClause{PlumberName: filter.PlumberName}
		if filter.IncludePlumberAsCustomer {
			if p, err := s.plumbers.LookupByName(ctx, filter.PlumberName); err == nil && p.Phone != nil {
				ids, err := s.customers.IDsByPhone(ctx, *p.Phone)
				if err != nil {
					return nil, err
				}
				clause.CustomerIDs = ids
			}
		}
		q.Plumber = clause
	}

	if text := strings.TrimSpace(filter.Search); text != "" {
		clause := &searchClause{Text: text}
		ids, err := s.customers.SearchIDs(ctx, text)
		if err != nil {
			return nil, err
		}
		clause.CustomerIDs = ids
		if r, ok := ref.Normalize(text); ok {
			switch r.Kind {
			case ref.KindNumber:
				clause.InvoiceNumber = &r.Number
			case ref.KindID:
				if ref.IsID(text) {
					clause.ID = text
				}
			}
		}
		q.Search = clause
	}

	return s.repo.List(ctx, q)
}

// InitInvoiceSequence idempotently seeds the number counter.
func (s *Service) InitInvoiceSequence(ctx context.Context) error {
	return s.repo.InitInvoiceSequence(ctx)
}

// buildItems turns requested lines into invoice items: product resolution by
// id then exact name, payload-then-product fallbacks for prices and
// category, and discount derivation from the category bucket.
func (s *Service) buildItems(ctx context.Context, reqs []ItemRequest, abogaliPercent, brPercent int) ([]InvoiceItem, error) {
	items := make([]InvoiceItem, 0, len(reqs))
	for _, req := range reqs {
		if req.Qty < 0 {
			return nil, fmt.Errorf("%w: item qty must not be negative", shared.ErrValidation)
		}

		product, err := s.resolveProduct(ctx, req.Product, req.ProductName)
		if err != nil {
			return nil, err
		}

		item := InvoiceItem{
			ProductName: strings.TrimSpace(req.ProductName),
			Qty:         req.Qty,
			Delivered:   req.Delivered,
		}
		if product != nil {
			item.ProductID = &product.ID
			if item.ProductName == "" {
				item.ProductName = product.Name
			}
		}

		switch {
		case req.Price != nil:
			item.Price = *req.Price
		case product != nil:
			item.Price = product.SellingPrice
		default:
			item.Price = decimal.Zero
		}
		if item.Price.IsNegative() {
			return nil, fmt.Errorf("%w: item price must not be negative", shared.ErrValidation)
		}

		switch {
		case req.BuyingPrice != nil:
			item.BuyingPrice = *req.BuyingPrice
		case product != nil:
			item.BuyingPrice = product.BuyingPrice
		default:
			item.BuyingPrice = decimal.Zero
		}

		raw := ""
		switch {
		case req.Category != nil:
			raw = *req.Category
		case product != nil:
			raw = product.Category
		}
		item.Category = category.Normalize(raw)

		if bucket, ok := category.Bucket(item.Category); ok {
			percent := 0
			switch bucket {
			case category.BucketAbogali:
				percent = abogaliPercent
			case category.BucketBR:
				percent = brPercent
			}
			if percent > 0 {
				discounted := discountPrice(item.Price, percent)
				item.DiscountedPrice = &discounted
			}
		}

		items = append(items, item)
	}
	return items, nil
}

// resolveProduct looks a product up by id when the reference normalizes to
// one, else by exact name. An unresolvable reference is not an error: the
// line simply carries no product reference.
func (s *Service) resolveProduct(ctx context.Context, reference any, name string) (*catalog.Product, error) {
	if reference != nil {
		if r, ok := ref.Normalize(reference); ok && r.Kind == ref.KindID {
			p, err := s.catalog.Resolve(ctx, r.ID)
			if err != nil {
				return nil, err
			}
			if p != nil {
				return p, nil
			}
		}
	}
	if name = strings.TrimSpace(name); name != "" {
		return s.catalog.Resolve(ctx, name)
	}
	return nil, nil
}

// applyStockDeltas adjusts product stock for each resolved line,
// multiplying quantities by sign (-1 for a sale, +1 for a return).
// Best-effort: failures are logged and skipped.
func (s *Service) applyStockDeltas(ctx context.Context, items []InvoiceItem, sign int64) {
	for _, it := range items {
		if it.Qty == 0 {
			continue
		}
		var err error
		switch {
		case it.ProductID != nil:
			err = s.catalog.AdjustStock(ctx, *it.ProductID, sign*it.Qty)
		case it.ProductName != "":
			err = s.catalog.AdjustStockByName(ctx, it.ProductName, sign*it.Qty)
		default:
			continue
		}
		if err != nil {
			s.logger.Warn("stock adjustment failed",
				slog.String("product", it.ProductName),
				slog.Int64("delta", sign*it.Qty),
				slog.Any("error", err))
		}
	}
}

// allocateInvoiceNumber prefers the atomic counter; when the counter is
// unavailable it falls back to max+1 with a floor at the first number,
// accepting the small race window in that path only.
func (s *Service) allocateInvoiceNumber(ctx context.Context) (int64, error) {
	number, err := s.repo.NextInvoiceNumber(ctx)
	if err == nil {
		return number, nil
	}
	s.logger.Warn("invoice counter unavailable, falling back to max+1", slog.Any("error", err))

	max, maxErr := s.repo.MaxInvoiceNumber(ctx)
	if maxErr != nil {
		return 0, fmt.Errorf("allocate invoice number: %w", maxErr)
	}
	if max+1 < FirstInvoiceNumber {
		return FirstInvoiceNumber, nil
	}
	return max + 1, nil
}

func (s *Service) notifyChanged(ctx context.Context, invoiceID string) {
	if s.sync != nil {
		s.sync.InvoiceChanged(ctx, invoiceID)
	}
}

func buildPayments(reqs []PaymentRequest) ([]Payment, error) {
	payments := make([]Payment, 0, len(reqs))
	for _, req := range reqs {
		if req.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: payment amount must not be negative", shared.ErrValidation)
		}
		date := time.Now()
		if req.Date != nil {
			date = *req.Date
		}
		payments = append(payments, Payment{Amount: req.Amount, Date: date, Note: req.Note})
	}
	return payments, nil
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func discountPrice(price decimal.Decimal, percent int) decimal.Decimal {
	factor := decimal.NewFromInt(int64(100 - percent)).Div(decimal.NewFromInt(100))
	return price.Mul(factor).Round(2)
}
