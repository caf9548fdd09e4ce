package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sabbak-erp/sabbak-erp/internal/platform/cache"
)

// Service computes reports. Results are cached by day-granular range; a nil
// cache degrades to computing on every call.
type Service struct {
	repo  Repository
	cache *cache.JSONCache
}

func NewService(repo Repository, jsonCache *cache.JSONCache) *Service {
	return &Service{repo: repo, cache: jsonCache}
}

// Profit aggregates the range [from, to).
func (s *Service) Profit(ctx context.Context, from, to time.Time) (*ProfitReport, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("reports: range end must be after start")
	}

	key := fmt.Sprintf("reports:profit:%s:%s", from.Format("20060102"), to.Format("20060102"))
	var report ProfitReport
	err := s.cache.Fetch(ctx, key, &report, func(ctx context.Context) (any, error) {
		return s.computeProfit(ctx, from, to)
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *Service) computeProfit(ctx context.Context, from, to time.Time) (*ProfitReport, error) {
	invs, err := s.repo.InvoicesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	rets, err := s.repo.ReturnsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	report := &ProfitReport{
		From:          from,
		To:            to,
		InvoiceCount:  len(invs),
		SoldTotal:     decimal.Zero,
		ReturnedTotal: decimal.Zero,
		Cost:          decimal.Zero,
		Profit:        decimal.Zero,
		CashCollected: decimal.Zero,
		Outstanding:   decimal.Zero,
	}

	for _, inv := range invs {
		for _, it := range inv.Items {
			qty := decimal.NewFromInt(it.Qty)
			report.SoldTotal = report.SoldTotal.Add(it.EffectivePrice().Mul(qty))
			report.Cost = report.Cost.Add(it.BuyingPrice.Mul(qty))
		}
		report.CashCollected = report.CashCollected.Add(inv.PaidTotal)
		report.Outstanding = report.Outstanding.Add(inv.Remaining)
	}
	for _, ret := range rets {
		report.ReturnedTotal = report.ReturnedTotal.Add(ret.Total())
	}

	report.SoldTotal = report.SoldTotal.Round(2)
	report.Cost = report.Cost.Round(2)
	report.ReturnedTotal = report.ReturnedTotal.Round(2)
	report.Profit = report.SoldTotal.Sub(report.ReturnedTotal).Sub(report.Cost).Round(2)
	report.CashCollected = report.CashCollected.Round(2)
	report.Outstanding = report.Outstanding.Round(2)
	return report, nil
}
