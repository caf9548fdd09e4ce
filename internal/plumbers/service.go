package plumbers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sabbak-erp/sabbak-erp/internal/ref"
	"github.com/sabbak-erp/sabbak-erp/internal/shared"
)

// Service owns plumber lifecycle. Upserts match by name.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Upsert creates a plumber or updates the phone of the existing one with
// the same name (case-insensitive).
func (s *Service) Upsert(ctx context.Context, req UpsertPlumberRequest) (*Plumber, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: plumber name is required", shared.ErrValidation)
	}
	var phone *string
	if req.Phone != nil {
		if p := strings.TrimSpace(*req.Phone); p != "" {
			phone = &p
		}
	}

	existing, err := s.repo.GetByName(ctx, name)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("lookup plumber: %w", err)
	}
	if existing != nil {
		if err := s.repo.Update(ctx, existing.ID, name, phone); err != nil {
			return nil, err
		}
		return s.repo.Get(ctx, existing.ID)
	}

	p := Plumber{ID: ref.NewID(), Name: name, Phone: phone}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, p.ID)
}

// LookupByName resolves a plumber by exact (case-insensitive) name. Used by
// the invoice engine's strict-lookup policy.
func (s *Service) LookupByName(ctx context.Context, name string) (*Plumber, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: plumber name is required", shared.ErrValidation)
	}
	p, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: no plumber named %q", shared.ErrNotFound, name)
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Plumber, error) {
	if !ref.IsID(id) {
		return nil, fmt.Errorf("%w: %q is not a plumber id", shared.ErrInvalidRef, id)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListPlumbersRequest) ([]Plumber, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if !ref.IsID(id) {
		return fmt.Errorf("%w: %q is not a plumber id", shared.ErrInvalidRef, id)
	}
	return s.repo.Delete(ctx, id)
}

// NamesByPhone lists plumber names sharing a phone, for the query engine's
// customer-as-plumber cross-match.
func (s *Service) NamesByPhone(ctx context.Context, phone string) ([]string, error) {
	if strings.TrimSpace(phone) == "" {
		return nil, nil
	}
	return s.repo.NamesByPhone(ctx, phone)
}
