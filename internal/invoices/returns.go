package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sabbak-erp/sabbak-erp/internal/ref"
	"github.com/sabbak-erp/sabbak-erp/internal/shared"
)

// CreateOrMergeReturn records returned goods against an invoice. An invoice
// has at most one return document: a second request merges into it, summing
// quantities per product. The invoice always carries exactly one synthetic
// return-marker payment equal to the cumulative return total.
func (s *Service) CreateOrMergeReturn(ctx context.Context, req CreateReturnRequest) (*ReturnInvoice, error) {
	inv, err := s.Resolve(ctx, req.OriginalInvoice)
	if err != nil {
		return nil, err
	}

	newItems, err := buildReturnItems(inv, req.Items)
	if err != nil {
		return nil, err
	}
	if len(newItems) == 0 {
		return nil, fmt.Errorf("%w: return needs at least one item with a positive qty", shared.ErrValidation)
	}

	ret, err := s.repo.GetReturnByInvoice(ctx, inv.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if ret == nil {
		ret = &ReturnInvoice{ID: ref.NewID(), InvoiceID: inv.ID, Items: newItems}
	} else {
		for _, item := range newItems {
			if idx := findReturnItem(ret.Items, item.ProductID, item.ProductName); idx >= 0 {
				ret.Items[idx].Qty += item.Qty
			} else {
				ret.Items = append(ret.Items, item)
			}
		}
	}

	if err := s.repo.SaveReturn(ctx, ret); err != nil {
		return nil, err
	}

	// Only the newly returned quantities move stock; merged totals already
	// moved theirs on earlier requests.
	s.restock(ctx, newItems, 1)

	if err := s.rebuildReturnPayment(ctx, inv, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// UpdateReturn replaces a return's line items. Stock is corrected by delta:
// the old quantities are reversed and the new ones applied, so editing a
// return never double-counts inventory.
func (s *Service) UpdateReturn(ctx context.Context, reference any, req UpdateReturnRequest) (*ReturnInvoice, error) {
	ret, err := s.resolveReturn(ctx, reference)
	if err != nil {
		return nil, err
	}
	inv, err := s.repo.Get(ctx, ret.InvoiceID)
	if err != nil {
		return nil, err
	}

	newItems, err := buildReturnItems(inv, req.Items)
	if err != nil {
		return nil, err
	}

	s.restock(ctx, ret.Items, -1)
	s.restock(ctx, newItems, 1)

	ret.Items = newItems
	if err := s.repo.SaveReturn(ctx, ret); err != nil {
		return nil, err
	}

	if err := s.rebuildReturnPayment(ctx, inv, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// GetReturn fetches a return by its own id, or by any reference that
// resolves to its original invoice.
func (s *Service) GetReturn(ctx context.Context, reference any) (*ReturnInvoice, error) {
	return s.resolveReturn(ctx, reference)
}

func (s *Service) resolveReturn(ctx context.Context, reference any) (*ReturnInvoice, error) {
	r, ok := ref.Normalize(reference)
	if !ok {
		return nil, fmt.Errorf("%w: cannot interpret return reference", shared.ErrInvalidRef)
	}
	if r.Kind == ref.KindID {
		ret, err := s.repo.GetReturn(ctx, r.ID)
		if err == nil {
			return ret, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		// Fall through: the id may reference the original invoice.
	}
	inv, err := s.Resolve(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.repo.GetReturnByInvoice(ctx, inv.ID)
}

// rebuildReturnPayment removes every prior return-marker payment and writes
// a single fresh one for the cumulative return total, then recomputes and
// saves the invoice.
func (s *Service) rebuildReturnPayment(ctx context.Context, inv *Invoice, ret *ReturnInvoice) error {
	kept := inv.Payments[:0]
	for _, p := range inv.Payments {
		if !p.IsReturnMarker() {
			kept = append(kept, p)
		}
	}
	inv.Payments = kept

	if total := ret.Total(); total.IsPositive() {
		inv.Payments = append(inv.Payments, Payment{
			Amount: total,
			Date:   time.Now(),
			Note:   ReturnMarkerNote,
		})
	}

	inv.Recompute()
	if err := s.repo.Save(ctx, inv); err != nil {
		return err
	}
	s.notifyChanged(ctx, inv.ID)
	return nil
}

// restock adjusts product stock for return lines, best-effort: sign +1 puts
// returned goods back, -1 reverses a prior return.
func (s *Service) restock(ctx context.Context, items []ReturnItem, sign int64) {
	stock := make([]InvoiceItem, 0, len(items))
	for _, it := range items {
		stock = append(stock, InvoiceItem{ProductID: it.ProductID, ProductName: it.ProductName, Qty: it.Qty})
	}
	s.applyStockDeltas(ctx, stock, sign)
}

// buildReturnItems prices each requested line against the original invoice:
// when a matching original line exists (by product id, else case-insensitive
// name) its effective price always wins; a caller-supplied price is honored
// only for lines with no original match. Zero-qty lines are dropped.
func buildReturnItems(inv *Invoice, reqs []ReturnItemRequest) ([]ReturnItem, error) {
	items := make([]ReturnItem, 0, len(reqs))
	for _, req := range reqs {
		if req.Qty < 0 {
			return nil, fmt.Errorf("%w: return qty must not be negative", shared.ErrValidation)
		}
		if req.Qty == 0 {
			continue
		}

		productID := requestedProductID(req.Product)
		name := strings.TrimSpace(req.ProductName)

		item := ReturnItem{Qty: req.Qty, Reason: req.Reason}
		if orig := matchOriginalItem(inv.Items, productID, name); orig != nil {
			item.ProductID = orig.ProductID
			item.ProductName = orig.ProductName
			item.Price = orig.EffectivePrice()
			item.Category = orig.Category
		} else {
			if productID != "" {
				item.ProductID = &productID
			}
			item.ProductName = name
			if req.Price != nil {
				item.Price = *req.Price
			} else {
				item.Price = decimal.Zero
			}
			if item.Price.IsNegative() {
				return nil, fmt.Errorf("%w: return price must not be negative", shared.ErrValidation)
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func matchOriginalItem(items []InvoiceItem, productID, name string) *InvoiceItem {
	if productID != "" {
		for i := range items {
			if items[i].ProductID != nil && *items[i].ProductID == productID {
				return &items[i]
			}
		}
	}
	if name != "" {
		for i := range items {
			if strings.EqualFold(items[i].ProductName, name) {
				return &items[i]
			}
		}
	}
	return nil
}

func findReturnItem(items []ReturnItem, productID *string, name string) int {
	if productID != nil {
		for i := range items {
			if items[i].ProductID != nil && *items[i].ProductID == *productID {
				return i
			}
		}
	}
	if name != "" {
		for i := range items {
			if strings.EqualFold(items[i].ProductName, name) {
				return i
			}
		}
	}
	return -1
}

func requestedProductID(v any) string {
	if v == nil {
		return ""
	}
	if r, ok := ref.Normalize(v); ok && r.Kind == ref.KindID {
		return r.ID
	}
	return ""
}

// backfillReturnCategories fills empty return-item categories from the
// matching original line, read-time only.
func (s *Service) backfillReturnCategories(_ context.Context, inv *Invoice, ret *ReturnInvoice) {
	for i, it := range ret.Items {
		if it.Category != "" {
			continue
		}
		id := ""
		if it.ProductID != nil {
			id = *it.ProductID
		}
		if orig := matchOriginalItem(inv.Items, id, it.ProductName); orig != nil {
			ret.Items[i].Category = orig.Category
		}
	}
}
