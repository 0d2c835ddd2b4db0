package service

import (
	"context"
	"time"

	"github.com/andy/rechnungsbuch/internal/obligation"
	"github.com/andy/rechnungsbuch/internal/repository"
	"github.com/shopspring/decimal"
)

// ReportService aggregates invoices across one or all ledgers
type ReportService interface {
	// Stats folds the open invoices of a ledger into buckets and lists.
	// An empty ledger key aggregates all ledgers.
	Stats(ctx context.Context, ledger string) (*obligation.Stats, error)

	// Outstanding sums the outstanding amounts of open invoices
	Outstanding(ctx context.Context, ledger string) (decimal.Decimal, error)
}

type reportService struct {
	invoiceRepo repository.InvoiceRepository
	opts        obligation.StatsOptions
	now         func() time.Time
}

// NewReportService creates a new report service
func NewReportService(invoiceRepo repository.InvoiceRepository, opts obligation.StatsOptions) ReportService {
	return &reportService{
		invoiceRepo: invoiceRepo,
		opts:        opts,
		now:         time.Now,
	}
}

func (s *reportService) Stats(ctx context.Context, ledger string) (*obligation.Stats, error) {
	invoices, err := s.invoiceRepo.List(ctx, repository.InvoiceFilter{Ledger: ledger})
	if err != nil {
		return nil, err
	}

	stats := obligation.Aggregate(invoices, s.now(), s.opts)
	return &stats, nil
}

func (s *reportService) Outstanding(ctx context.Context, ledger string) (decimal.Decimal, error) {
	stats, err := s.Stats(ctx, ledger)
	if err != nil {
		return decimal.Zero, err
	}
	return stats.Total.Outstanding, nil
}
