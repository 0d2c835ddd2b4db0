package obligation

import (
	"sort"
	"time"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/shopspring/decimal"
)

// Bucket is a count plus the summed outstanding amount
type Bucket struct {
	Count       int             `yaml:"count"`
	Outstanding decimal.Decimal `yaml:"outstanding"`
}

func (b Bucket) add(amount decimal.Decimal) Bucket {
	return Bucket{Count: b.Count + 1, Outstanding: b.Outstanding.Add(amount)}
}

// Entry pairs an invoice with its derived state
type Entry struct {
	Invoice *domain.Invoice
	State   InvoiceState
}

// StatsOptions tunes the derived lists
type StatsOptions struct {
	DueSoonDays         int
	CriticalOverdueDays int
}

// DefaultStatsOptions returns a 7 day due-soon window and a 30 day critical mark
func DefaultStatsOptions() StatsOptions {
	return StatsOptions{
		DueSoonDays:         7,
		CriticalOverdueDays: 30,
	}
}

// Stats summarizes a collection of open invoices
type Stats struct {
	Total          Bucket
	ByStatus       map[domain.InvoiceStatus]Bucket
	ByDunningLevel map[int]Bucket
	ByCategory     map[string]Bucket
	ByCompany      map[string]Bucket

	DueToday []Entry
	DueSoon  []Entry // due within DueSoonDays, today included
	Overdue  []Entry
	Critical []Entry // critical priority, in collection, or long overdue
}

// Aggregate folds invoices into bucketed statistics. Only invoices that are
// not paid or cancelled and still have money outstanding are counted; the
// outstanding check catches paid invoices whose label was never updated.
func Aggregate(invoices []*domain.Invoice, today time.Time, opts StatsOptions) Stats {
	if opts.DueSoonDays <= 0 {
		opts.DueSoonDays = DefaultStatsOptions().DueSoonDays
	}
	if opts.CriticalOverdueDays <= 0 {
		opts.CriticalOverdueDays = DefaultStatsOptions().CriticalOverdueDays
	}

	stats := Stats{
		Total:          Bucket{Outstanding: decimal.Zero},
		ByStatus:       make(map[domain.InvoiceStatus]Bucket),
		ByDunningLevel: make(map[int]Bucket),
		ByCategory:     make(map[string]Bucket),
		ByCompany:      make(map[string]Bucket),
	}

	for _, inv := range invoices {
		if inv == nil || inv.Status.IsClosed() {
			continue
		}
		state := DeriveInvoiceState(inv, today)
		if !state.Outstanding.IsPositive() {
			continue
		}

		amount := state.Outstanding
		stats.Total = stats.Total.add(amount)
		stats.ByStatus[inv.Status] = stats.ByStatus[inv.Status].add(amount)
		stats.ByDunningLevel[inv.DunningLevel] = stats.ByDunningLevel[inv.DunningLevel].add(amount)
		stats.ByCategory[inv.Category] = stats.ByCategory[inv.Category].add(amount)
		stats.ByCompany[companyKey(inv)] = stats.ByCompany[companyKey(inv)].add(amount)

		entry := Entry{Invoice: inv, State: state}

		if state.HasDueDate() {
			if state.IsDueToday {
				stats.DueToday = append(stats.DueToday, entry)
			}
			if state.DaysOverdue <= 0 && state.DaysUntilDue() <= opts.DueSoonDays {
				stats.DueSoon = append(stats.DueSoon, entry)
			}
			if state.IsOverdue {
				stats.Overdue = append(stats.Overdue, entry)
			}
		}

		if inv.Priority == domain.PriorityCritical ||
			inv.Status == domain.StatusCollection ||
			state.DaysOverdue > opts.CriticalOverdueDays {
			stats.Critical = append(stats.Critical, entry)
		}
	}

	byDue := func(list []Entry) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].State.DaysOverdue > list[j].State.DaysOverdue
		})
	}
	byDue(stats.DueToday)
	byDue(stats.DueSoon)
	byDue(stats.Overdue)
	byDue(stats.Critical)

	return stats
}

func companyKey(inv *domain.Invoice) string {
	if inv.Company != "" {
		return inv.Company
	}
	return inv.Ledger
}
