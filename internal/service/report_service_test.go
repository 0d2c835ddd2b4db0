package service

import (
	"context"
	"testing"
	"time"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/andy/rechnungsbuch/internal/obligation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService_Stats(t *testing.T) {
	ctx := context.Background()

	overdue := seedInvoice("inv-1", "100")
	overdue.Payments = []*domain.Payment{
		{ID: "p-1", InvoiceID: "inv-1", Amount: eur("40"), Date: *day(2024, 3, 5)},
	}

	dueSoon := seedInvoice("inv-2", "250")
	dueSoon.DueDate = day(2024, 3, 22)

	paid := seedInvoice("inv-3", "80")
	paid.Status = domain.StatusPaid

	private := seedInvoice("inv-4", "30")
	private.Ledger = "privat-1"
	private.DueDate = day(2024, 3, 20)

	svc := &reportService{
		invoiceRepo: newMockInvoiceRepo(overdue, dueSoon, paid, private),
		opts:        obligation.DefaultStatsOptions(),
		now:         func() time.Time { return fixedNow },
	}

	stats, err := svc.Stats(ctx, "firma-a")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total.Count)
	assert.True(t, stats.Total.Outstanding.Equal(eur("310")))
	require.Len(t, stats.Overdue, 1)
	assert.Equal(t, "inv-1", stats.Overdue[0].Invoice.ID)
	require.Len(t, stats.DueSoon, 1)
	assert.Equal(t, "inv-2", stats.DueSoon[0].Invoice.ID)

	all, err := svc.Outstanding(ctx, "")
	require.NoError(t, err)
	assert.True(t, all.Equal(eur("340")))

	stats, err = svc.Stats(ctx, "privat-1")
	require.NoError(t, err)
	assert.Len(t, stats.DueToday, 1)
}
