// Package obligation derives the financial and scheduling state of invoices
// and recurring inspection tasks. Every function here is pure: results are
// recomputed from the raw record on each call and nothing is cached.
package obligation

import (
	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/shopspring/decimal"
)

// SumPayments adds up all payment amounts
func SumPayments(payments []*domain.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p == nil {
			continue
		}
		total = total.Add(p.Amount)
	}
	return total
}

// Outstanding returns max(0, amount - sum(payments)). It never goes negative,
// even for over-payments.
func Outstanding(amount decimal.Decimal, payments []*domain.Payment) decimal.Decimal {
	rest := amount.Sub(SumPayments(payments))
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}
