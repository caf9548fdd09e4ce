package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProfitReport aggregates trading results over a date range. All monetary
// figures come from the price snapshots frozen on the invoice lines, so the
// report is stable against later product-price edits.
type ProfitReport struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	InvoiceCount int `json:"invoiceCount"`

	// SoldTotal is the value of all sold lines at their effective (possibly
	// discounted) prices.
	SoldTotal decimal.Decimal `json:"soldTotal"`
	// ReturnedTotal is the value of returned lines at the prices they were
	// sold for.
	ReturnedTotal decimal.Decimal `json:"returnedTotal"`
	// Cost is the buying value of the sold lines.
	Cost decimal.Decimal `json:"cost"`
	// Profit = SoldTotal − ReturnedTotal − Cost.
	Profit decimal.Decimal `json:"profit"`

	// CashCollected sums real payments only; synthetic return-marker rows
	// are excluded. Outstanding sums the stored remaining balances, which
	// net against all payment rows including return markers. The two
	// figures answer different questions and are reported side by side.
	CashCollected decimal.Decimal `json:"cashCollected"`
	Outstanding   decimal.Decimal `json:"outstanding"`
}
