package plumbers

import "time"

// Plumber is a referral agent. Name is the lookup key (upserts match by
// name, not id); phone is optional but unique across plumbers when present.
type Plumber struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpsertPlumberRequest creates or updates a plumber by name.
type UpsertPlumberRequest struct {
	Name  string  `json:"name" validate:"required"`
	Phone *string `json:"phone,omitempty"`
}

// ListPlumbersRequest filters the plumber list.
type ListPlumbersRequest struct {
	Search string `json:"search"`
	Limit  int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset int    `json:"offset" validate:"gte=0"`
}
