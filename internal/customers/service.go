package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sabbak-erp/sabbak-erp/internal/ref"
	"github.com/sabbak-erp/sabbak-erp/internal/shared"
)

// Service owns the customer identity rules: phone uniqueness among active
// customers, and revival of soft-deleted records instead of duplication.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a customer, or revives a soft-deleted one holding the
// same phone. Registering a phone held by an active, differently-named
// customer is rejected.
func (s *Service) Register(ctx context.Context, req RegisterCustomerRequest) (*Customer, error) {
	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	if name == "" || phone == "" {
		return nil, fmt.Errorf("%w: name and phone are required", shared.ErrValidation)
	}

	existing, err := s.repo.GetByPhoneAny(ctx, phone)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("lookup customer by phone: %w", err)
	}
	if existing != nil {
		if existing.IsDeleted {
			if err := s.repo.Revive(ctx, existing.ID, name); err != nil {
				return nil, fmt.Errorf("revive customer: %w", err)
			}
			return s.repo.Get(ctx, existing.ID)
		}
		if existing.Name != name {
			return nil, fmt.Errorf("%w: phone %s already belongs to %q", shared.ErrConflict, phone, existing.Name)
		}
		return existing, nil
	}

	c := Customer{ID: ref.NewID(), Name: name, Phone: phone}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return s.repo.Get(ctx, c.ID)
}

// LookupStrict resolves the customer invoice creation refers to: an active
// customer with exactly this phone must exist and its stored name must match.
func (s *Service) LookupStrict(ctx context.Context, name, phone string) (*Customer, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return nil, fmt.Errorf("%w: customer name and phone are required", shared.ErrValidation)
	}
	c, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: no customer with phone %s", shared.ErrNotFound, phone)
		}
		return nil, err
	}
	if c.Name != name {
		return nil, fmt.Errorf("%w: phone %s already belongs to %q", shared.ErrConflict, phone, c.Name)
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Customer, error) {
	if !ref.IsID(id) {
		return nil, fmt.Errorf("%w: %q is not a customer id", shared.ErrInvalidRef, id)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Update(ctx context.Context, id string, req UpdateCustomerRequest) (*Customer, error) {
	if !ref.IsID(id) {
		return nil, fmt.Errorf("%w: %q is not a customer id", shared.ErrInvalidRef, id)
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", shared.ErrValidation)
		}
		updates["name"] = name
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			return nil, fmt.Errorf("%w: phone must not be empty", shared.ErrValidation)
		}
		if phone != existing.Phone {
			holder, err := s.repo.GetByPhone(ctx, phone)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return nil, err
			}
			if holder != nil && holder.ID != id {
				return nil, fmt.Errorf("%w: phone %s already belongs to %q", shared.ErrConflict, phone, holder.Name)
			}
		}
		updates["phone"] = phone
	}

	if len(updates) == 0 {
		return existing, nil
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) SoftDelete(ctx context.Context, id string) error {
	if !ref.IsID(id) {
		return fmt.Errorf("%w: %q is not a customer id", shared.ErrInvalidRef, id)
	}
	return s.repo.SoftDelete(ctx, id)
}

// SearchIDs returns ids of non-deleted customers whose name or phone
// contains the text.
func (s *Service) SearchIDs(ctx context.Context, text string) ([]string, error) {
	return s.repo.SearchIDs(ctx, text)
}

// IDsByPhone returns ids of active customers registered under the phone.
// No match is not an error.
func (s *Service) IDsByPhone(ctx context.Context, phone string) ([]string, error) {
	if phone == "" {
		return nil, nil
	}
	c, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return []string{c.ID}, nil
}
