package invoices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sabbak-erp/sabbak-erp/internal/customers"
)

// ItemRequest is one requested line. Product may carry a document id (or a
// wrapper the reference normalizer understands); resolution falls back to
// exact ProductName lookup. Price, BuyingPrice and Category default to the
// resolved product's values when absent.
type ItemRequest struct {
	Product     any              `json:"product,omitempty"`
	ProductName string           `json:"productName"`
	Qty         int64            `json:"qty" validate:"gte=0"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	BuyingPrice *decimal.Decimal `json:"buyingPrice,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Delivered   bool             `json:"delivered"`
}

// PaymentRequest is one requested payment row.
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   *time.Time      `json:"date,omitempty"`
	Note   string          `json:"note"`
}

// CreateInvoiceRequest creates an invoice. Customer is strict-lookup: an
// existing, non-deleted customer with this exact phone and name must exist.
type CreateInvoiceRequest struct {
	CustomerName           string           `json:"customerName" validate:"required"`
	CustomerPhone          string           `json:"customerPhone" validate:"required"`
	PlumberName            string           `json:"plumberName"`
	Items                  []ItemRequest    `json:"items" validate:"dive"`
	Payments               []PaymentRequest `json:"payments"`
	DiscountAbogaliPercent int              `json:"discountAbogaliPercent"`
	DiscountBrPercent      int              `json:"discountBrPercent"`
	Notes                  string           `json:"notes"`
}

// UpdateInvoiceRequest is a partial update; nil fields are left untouched.
// Discount percentages are applied before Items so replaced items are
// re-discounted with the current rates.
type UpdateInvoiceRequest struct {
	CustomerName           *string           `json:"customerName,omitempty"`
	CustomerPhone          *string           `json:"customerPhone,omitempty"`
	PlumberName            *string           `json:"plumberName,omitempty"`
	Items                  *[]ItemRequest    `json:"items,omitempty" validate:"omitempty,dive"`
	Payments               *[]PaymentRequest `json:"payments,omitempty"`
	DiscountAbogaliPercent *int              `json:"discountAbogaliPercent,omitempty"`
	DiscountBrPercent      *int              `json:"discountBrPercent,omitempty"`
	Notes                  *string           `json:"notes,omitempty"`
}

// ListInvoicesFilter is the sparse filter set of invoice.list. All fields
// are optional and independently combinable.
type ListInvoicesFilter struct {
	Archived                 *bool
	Deleted                  *bool
	IncludeDeleted           bool
	CustomerID               string
	IncludeCustomerAsPlumber bool
	PlumberName              string
	IncludePlumberAsCustomer bool
	Search                   string
}

// ReturnItemRequest is one requested return line. Price is only honored
// when no matching original line exists; otherwise the original effective
// price always wins.
type ReturnItemRequest struct {
	Product     any              `json:"product,omitempty"`
	ProductName string           `json:"productName"`
	Qty         int64            `json:"qty" validate:"gte=0"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Reason      string           `json:"reason"`
}

// CreateReturnRequest creates a return against an invoice, or merges into
// the invoice's existing return.
type CreateReturnRequest struct {
	OriginalInvoice any                 `json:"originalInvoice" validate:"required"`
	Items           []ReturnItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateReturnRequest replaces a return's items. Stock is adjusted by the
// per-product quantity delta (old quantities reversed, new ones applied).
type UpdateReturnRequest struct {
	Items []ReturnItemRequest `json:"items" validate:"required,dive"`
}

// InvoiceDetail is an invoice expanded for display: the customer reference
// populated and the associated return invoice (if any) merged in.
type InvoiceDetail struct {
	Invoice
	Customer      *customers.Customer `json:"customer,omitempty"`
	ReturnInvoice *ReturnInvoice      `json:"returnInvoice,omitempty"`
}
