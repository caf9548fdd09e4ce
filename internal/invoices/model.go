package invoices

import (
	"time"

	"github.com/shopspring/decimal"
)

// FirstInvoiceNumber is the lowest invoice number the shop ever issues.
const FirstInvoiceNumber = 1025

// CounterSeed is what the invoice-number counter holds before the first
// allocation, so the first issued number is FirstInvoiceNumber.
const CounterSeed = FirstInvoiceNumber - 1

// ReturnMarkerNote flags a payment row as synthetic return-driven balance
// reduction rather than cash received. The literal matches what the shop's
// historical data uses.
const ReturnMarkerNote = "مرتجع"

// InvoiceSequence is the counter document name for invoice numbers.
const InvoiceSequence = "invoiceNumber"

// InvoiceItem is one sold line. ProductName, BuyingPrice and Category are
// snapshots taken at sale time so the invoice stays legible after the
// product record changes or is deleted.
type InvoiceItem struct {
	ProductID       *string          `json:"product,omitempty"`
	ProductName     string           `json:"productName"`
	Qty             int64            `json:"qty"`
	Price           decimal.Decimal  `json:"price"`
	BuyingPrice     decimal.Decimal  `json:"buyingPrice"`
	Category        string           `json:"category"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice,omitempty"`
	Delivered       bool             `json:"delivered"`
}

// EffectivePrice is the discounted price when a category discount applied,
// else the list price.
func (it InvoiceItem) EffectivePrice() decimal.Decimal {
	if it.DiscountedPrice != nil {
		return *it.DiscountedPrice
	}
	return it.Price
}

// Payment is one payment row. A row whose Note equals ReturnMarkerNote is
// synthetic: it reduces the balance owed but is not cash received.
type Payment struct {
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	Note   string          `json:"note"`
}

// IsReturnMarker reports whether this row is the synthetic return payment.
func (p Payment) IsReturnMarker() bool {
	return p.Note == ReturnMarkerNote
}

// Invoice is the central aggregate.
type Invoice struct {
	ID            string        `json:"_id"`
	InvoiceNumber int64         `json:"invoiceNumber"`
	CustomerID    string        `json:"customer"`
	CustomerName  string        `json:"customerName"`
	CustomerPhone string        `json:"customerPhone"`
	PlumberName   string        `json:"plumberName"`
	Items         []InvoiceItem `json:"items"`
	Payments      []Payment     `json:"payments"`

	// Total is round2(Σ qty × effective price).
	Total decimal.Decimal `json:"total"`
	// Remaining nets total against ALL payments, return markers included.
	// It is stored as-is, never clamped to zero.
	Remaining decimal.Decimal `json:"remaining"`
	// PaidTotal is cash actually received: all payments EXCLUDING return
	// markers. Derived, never stored; the two "amount paid" semantics
	// coexist deliberately.
	PaidTotal decimal.Decimal `json:"paidTotal"`

	DiscountAbogaliPercent int `json:"discountAbogaliPercent"`
	DiscountBrPercent      int `json:"discountBrPercent"`

	Notes    string `json:"notes"`
	Archived bool   `json:"archived"`
	Deleted  bool   `json:"deleted"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Recompute derives Total, Remaining and PaidTotal from the current items
// and payments arrays. Totals are always fully recomputed after a mutation,
// never incrementally patched, so they cannot drift from their defining
// formula.
func (inv *Invoice) Recompute() {
	total := decimal.Zero
	for _, it := range inv.Items {
		total = total.Add(it.EffectivePrice().Mul(decimal.NewFromInt(it.Qty)))
	}
	inv.Total = total.Round(2)

	paid := decimal.Zero
	all := decimal.Zero
	for _, p := range inv.Payments {
		all = all.Add(p.Amount)
		if !p.IsReturnMarker() {
			paid = paid.Add(p.Amount)
		}
	}
	inv.Remaining = inv.Total.Sub(all).Round(2)
	inv.PaidTotal = paid.Round(2)
}

// ReturnItem is one returned line. Price is the effective unit price of the
// matching original line, never the undiscounted list price.
type ReturnItem struct {
	ProductID   *string         `json:"productId,omitempty"`
	ProductName string          `json:"productName"`
	Qty         int64           `json:"qty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Reason      string          `json:"reason,omitempty"`
}

// ReturnInvoice holds all returns against one invoice. At most one exists
// per invoice: later returns merge into it.
type ReturnInvoice struct {
	ID        string       `json:"_id"`
	InvoiceID string       `json:"originalInvoice"`
	Items     []ReturnItem `json:"items"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Total is the cumulative value of all returned lines.
func (r *ReturnInvoice) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range r.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(it.Qty)))
	}
	return total.Round(2)
}
