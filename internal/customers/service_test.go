package customers

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabbak-erp/sabbak-erp/internal/shared"
)

type fakeRepo struct {
	byID map[string]*Customer
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[string]*Customer{}}
}

func (r *fakeRepo) Get(_ context.Context, id string) (*Customer, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: customer %s", shared.ErrNotFound, id)
	}
	copied := *c
	return &copied, nil
}

func (r *fakeRepo) GetByPhone(_ context.Context, phone string) (*Customer, error) {
	for _, c := range r.byID {
		if c.Phone == phone && !c.IsDeleted {
			copied := *c
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: phone %s", shared.ErrNotFound, phone)
}

func (r *fakeRepo) GetByPhoneAny(_ context.Context, phone string) (*Customer, error) {
	var deleted *Customer
	for _, c := range r.byID {
		if c.Phone != phone {
			continue
		}
		if !c.IsDeleted {
			copied := *c
			return &copied, nil
		}
		deleted = c
	}
	if deleted != nil {
		copied := *deleted
		return &copied, nil
	}
	return nil, fmt.Errorf("%w: phone %s", shared.ErrNotFound, phone)
}

func (r *fakeRepo) List(_ context.Context, req ListCustomersRequest) ([]Customer, error) {
	var out []Customer
	for _, c := range r.byID {
		if c.IsDeleted && !req.IncludeDeleted {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeRepo) SearchIDs(_ context.Context, text string) ([]string, error) {
	var ids []string
	for _, c := range r.byID {
		if c.IsDeleted {
			continue
		}
		if strings.Contains(c.Name, text) || strings.Contains(c.Phone, text) {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (r *fakeRepo) Create(_ context.Context, c Customer) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	r.byID[c.ID] = &c
	return nil
}

func (r *fakeRepo) Update(_ context.Context, id string, updates map[string]any) error {
	c, ok := r.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		c.Name = v.(string)
	}
	if v, ok := updates["phone"]; ok {
		c.Phone = v.(string)
	}
	c.UpdatedAt = time.Now()
	return nil
}

func (r *fakeRepo) SoftDelete(_ context.Context, id string) error {
	c, ok := r.byID[id]
	if !ok || c.IsDeleted {
		return shared.ErrNotFound
	}
	now := time.Now()
	c.IsDeleted = true
	c.DeletedAt = &now
	return nil
}

func (r *fakeRepo) Revive(_ context.Context, id, name string) error {
	c, ok := r.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	c.IsDeleted = false
	c.DeletedAt = nil
	c.Name = name
	return nil
}

func TestRegisterCreatesNewCustomer(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	c, err := svc.Register(context.Background(), RegisterCustomerRequest{Name: "Ahmed", Phone: "01000000001"})
	require.NoError(t, err)
	assert.Len(t, c.ID, 24)
	assert.Equal(t, "Ahmed", c.Name)
}

func TestRegisterActivePhoneConflict(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.Register(context.Background(), RegisterCustomerRequest{Name: "Ahmed", Phone: "01000000001"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterCustomerRequest{Name: "Mona", Phone: "01000000001"})
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestRegisterSamePersonIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	first, err := svc.Register(context.Background(), RegisterCustomerRequest{Name: "Ahmed", Phone: "01000000001"})
	require.NoError(t, err)
	again, err := svc.Register(context.Background(), RegisterCustomerRequest{Name: "Ahmed", Phone: "01000000001"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, repo.byID, 1)
}

func TestRegisterRevivesSoftDeleted(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	first, err := svc.Register(context.Background(), RegisterCustomerRequest{Name: "Ahmed", Phone: "01000000001"})
	require.NoError(t, err)
	require.NoError(t, svc.SoftDelete(context.Background(), first.ID))

	revived, err := svc.Register(context.Background(), RegisterCustomerRequest{Name: "Ahmed Ali", Phone: "01000000001"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, revived.ID, "same document revived, not a duplicate")
	assert.Equal(t, "Ahmed Ali", revived.Name)
	assert.False(t, revived.IsDeleted)
	assert.Len(t, repo.byID, 1)
}

func TestLookupStrict(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	created, err := svc.Register(context.Background(), RegisterCustomerRequest{Name: "Ahmed", Phone: "01000000001"})
	require.NoError(t, err)

	found, err := svc.LookupStrict(context.Background(), "Ahmed", "01000000001")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.LookupStrict(context.Background(), "Mona", "01000000001")
	assert.ErrorIs(t, err, shared.ErrConflict)

	_, err = svc.LookupStrict(context.Background(), "Ahmed", "01222222222")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// Soft-deleted customers do not satisfy the strict lookup.
	require.NoError(t, svc.SoftDelete(context.Background(), created.ID))
	_, err = svc.LookupStrict(context.Background(), "Ahmed", "01000000001")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateRejectsPhoneTakeover(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.Register(context.Background(), RegisterCustomerRequest{Name: "Ahmed", Phone: "01000000001"})
	require.NoError(t, err)
	mona, err := svc.Register(context.Background(), RegisterCustomerRequest{Name: "Mona", Phone: "01200000000"})
	require.NoError(t, err)

	phone := "01000000001"
	_, err = svc.Update(context.Background(), mona.ID, UpdateCustomerRequest{Phone: &phone})
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestIDsByPhoneIgnoresMissing(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	ids, err := svc.IDsByPhone(context.Background(), "01055555555")
	require.NoError(t, err)
	assert.Nil(t, ids)
}
