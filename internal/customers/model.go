package customers

import "time"

// Customer is a shop customer. Phone is the identity key: at most one
// non-deleted customer may hold a given phone number. Deletion is soft so
// invoice references stay resolvable.
type Customer struct {
	ID        string     `json:"_id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	IsDeleted bool       `json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// RegisterCustomerRequest creates (or revives) a customer.
type RegisterCustomerRequest struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required"`
}

// UpdateCustomerRequest carries a partial update.
type UpdateCustomerRequest struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// ListCustomersRequest filters the customer list.
type ListCustomersRequest struct {
	Search         string `json:"search"`
	IncludeDeleted bool   `json:"includeDeleted"`
	Limit          int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset         int    `json:"offset" validate:"gte=0"`
}
