package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sabbak-erp/sabbak-erp/internal/category"
	"github.com/sabbak-erp/sabbak-erp/internal/ref"
	"github.com/sabbak-erp/sabbak-erp/internal/shared"
)

// Service owns product lifecycle. Products are only ever created explicitly
// by an operator; the invoice engine never materializes them as a side
// effect.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateProductRequest) (*Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", shared.ErrValidation)
	}
	if req.BuyingPrice.IsNegative() || req.SellingPrice.IsNegative() {
		return nil, fmt.Errorf("%w: prices must not be negative", shared.ErrValidation)
	}

	p := Product{
		ID:           ref.NewID(),
		Name:         name,
		Category:     category.Normalize(req.Category),
		BuyingPrice:  req.BuyingPrice,
		SellingPrice: req.SellingPrice,
		Stock:        req.Stock,
		ReorderLevel: req.ReorderLevel,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, p.ID)
}

func (s *Service) Update(ctx context.Context, id string, req UpdateProductRequest) (*Product, error) {
	if !ref.IsID(id) {
		return nil, fmt.Errorf("%w: %q is not a product id", shared.ErrInvalidRef, id)
	}

	updates := make(map[string]any)
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: product name is required", shared.ErrValidation)
		}
		updates["name"] = name
	}
	if req.Category != nil {
		updates["category"] = category.Normalize(*req.Category)
	}
	if req.BuyingPrice != nil {
		if req.BuyingPrice.IsNegative() {
			return nil, fmt.Errorf("%w: buying price must not be negative", shared.ErrValidation)
		}
		updates["buying_price"] = *req.BuyingPrice
	}
	if req.SellingPrice != nil {
		if req.SellingPrice.IsNegative() {
			return nil, fmt.Errorf("%w: selling price must not be negative", shared.ErrValidation)
		}
		updates["selling_price"] = *req.SellingPrice
	}
	if req.Stock != nil {
		updates["stock"] = *req.Stock
	}
	if req.ReorderLevel != nil {
		if *req.ReorderLevel < 0 {
			return nil, fmt.Errorf("%w: reorder level must not be negative", shared.ErrValidation)
		}
		updates["reorder_level"] = *req.ReorderLevel
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	if !ref.IsID(id) {
		return nil, fmt.Errorf("%w: %q is not a product id", shared.ErrInvalidRef, id)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListProductsRequest) ([]Product, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if !ref.IsID(id) {
		return fmt.Errorf("%w: %q is not a product id", shared.ErrInvalidRef, id)
	}
	// Historical invoices keep their productName snapshot, so deleting a
	// product never rewrites them.
	return s.repo.Delete(ctx, id)
}

// Resolve finds a product by id when the reference is a valid document id,
// falling back to exact-name lookup. A nil result with nil error means the
// reference simply did not resolve, which invoice creation tolerates.
func (s *Service) Resolve(ctx context.Context, idOrName string) (*Product, error) {
	if idOrName == "" {
		return nil, nil
	}
	if ref.IsID(idOrName) {
		p, err := s.repo.Get(ctx, idOrName)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	p, err := s.repo.GetByName(ctx, idOrName)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// AdjustStock moves stock by delta. Stock may go negative; the reorder
// report surfaces the discrepancy instead of the write failing.
func (s *Service) AdjustStock(ctx context.Context, id string, delta int64) error {
	return s.repo.AdjustStock(ctx, id, delta)
}

// AdjustStockByName is AdjustStock for lines that carry only a name snapshot.
func (s *Service) AdjustStockByName(ctx context.Context, name string, delta int64) error {
	return s.repo.AdjustStockByName(ctx, name, delta)
}
