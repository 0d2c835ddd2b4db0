package service

import (
	"context"
	"testing"
	"time"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/andy/rechnungsbuch/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)

func eur(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func newTestInvoiceService(invoices ...*domain.Invoice) (*invoiceService, *mockInvoiceRepo, *mockActivityRepo) {
	invRepo := newMockInvoiceRepo(invoices...)
	actRepo := &mockActivityRepo{}
	svc := &invoiceService{
		ledger:       "firma-a",
		invoiceRepo:  invRepo,
		activityRepo: actRepo,
		contactRepo: &mockContactRepo{contacts: map[string]*domain.Contact{
			"c-1": {ID: "c-1", Name: "Stadtwerke", Kind: domain.ContactCreditor},
		}},
		now: func() time.Time { return fixedNow },
		log: zerolog.Nop(),
	}
	return svc, invRepo, actRepo
}

func seedInvoice(id, amount string) *domain.Invoice {
	inv := domain.NewInvoice("firma-a", "Strom Q1", eur(amount), day(2024, 3, 1))
	inv.ID = id
	inv.Version = 1
	return inv
}

func TestInvoiceService_Create(t *testing.T) {
	ctx := context.Background()
	svc, repo, acts := newTestInvoiceService()

	inv, err := svc.Create(ctx, NewInvoiceInput{
		Title:     "  Miete April ",
		Reference: "RE-2024-001",
		ContactID: "c-1",
		Amount:    eur("1200.00"),
		DueDate:   day(2024, 4, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, "firma-a", inv.Ledger)
	assert.Equal(t, "Miete April", inv.Title)
	assert.Equal(t, domain.StatusOpen, inv.Status)
	assert.Equal(t, domain.PriorityNormal, inv.Priority)
	assert.Equal(t, fixedNow, inv.CreatedAt)
	assert.Contains(t, repo.invoices, inv.ID)
	assert.Len(t, acts.activities, 1)
}

func TestInvoiceService_CreateWithPlan(t *testing.T) {
	svc, _, _ := newTestInvoiceService()

	inv, err := svc.Create(context.Background(), NewInvoiceInput{
		Title:              "Steuernachzahlung",
		Amount:             eur("3000"),
		InstallmentAmount:  eur("500"),
		InstallmentDueDate: day(2024, 4, 15),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusInstallments, inv.Status)
	assert.Equal(t, domain.IntervalMonthly, inv.Interval)
	require.NotNil(t, inv.FirstInstallmentDate)
	assert.Equal(t, *day(2024, 4, 15), *inv.FirstInstallmentDate)
}

func TestInvoiceService_CreateRejects(t *testing.T) {
	ctx := context.Background()
	existing := seedInvoice("inv-1", "100")
	existing.Reference = "RE-1"
	svc, _, _ := newTestInvoiceService(existing)

	tests := []struct {
		name    string
		input   NewInvoiceInput
		wantErr error
	}{
		{
			name:  "zero amount",
			input: NewInvoiceInput{Title: "x", Amount: decimal.Zero},
		},
		{
			name:  "missing title",
			input: NewInvoiceInput{Title: "  ", Amount: eur("10")},
		},
		{
			name:    "duplicate reference",
			input:   NewInvoiceInput{Title: "x", Reference: "RE-1", Amount: eur("10")},
			wantErr: ErrDuplicateReference,
		},
		{
			name:    "unknown contact",
			input:   NewInvoiceInput{Title: "x", ContactID: "nope", Amount: eur("10")},
			wantErr: repository.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.input)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestInvoiceService_WrongLedger(t *testing.T) {
	other := seedInvoice("inv-9", "100")
	other.Ledger = "privat-1"
	svc, _, _ := newTestInvoiceService(other)

	_, err := svc.Get(context.Background(), "inv-9")
	assert.ErrorIs(t, err, ErrWrongLedger)

	_, err = svc.AddPayment(context.Background(), "inv-9", eur("10"), fixedNow, "")
	assert.ErrorIs(t, err, ErrWrongLedger)
}

func TestInvoiceService_PartialThenFullPayment(t *testing.T) {
	ctx := context.Background()
	svc, repo, acts := newTestInvoiceService(seedInvoice("inv-1", "500"))

	inv, err := svc.AddPayment(ctx, "inv-1", eur("200"), *day(2024, 3, 10), "Teilzahlung")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, inv.Status)
	assert.Len(t, inv.Payments, 1)
	assert.True(t, svc.State(inv).Outstanding.Equal(eur("300")))

	inv, err = svc.AddPayment(ctx, "inv-1", eur("300"), *day(2024, 3, 18), "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, inv.Status)
	require.NotNil(t, inv.PaidAt)
	assert.Equal(t, fixedNow, *inv.PaidAt)
	assert.True(t, inv.PaidAmount.Equal(eur("500")))
	assert.Equal(t, int64(3), inv.Version)
	assert.Equal(t, 2, repo.updates)

	assert.Len(t, acts.ofType(domain.ActivityPayment), 2)
	assert.Len(t, acts.ofType(domain.ActivityStatusChange), 1)
}

func TestInvoiceService_PaymentExceedsOutstanding(t *testing.T) {
	inv := seedInvoice("inv-1", "100")
	inv.Payments = []*domain.Payment{
		{ID: "p-1", InvoiceID: "inv-1", Amount: eur("60"), Date: *day(2024, 3, 5)},
	}
	svc, repo, _ := newTestInvoiceService(inv)

	_, err := svc.AddPayment(context.Background(), "inv-1", eur("40.01"), fixedNow, "")
	assert.ErrorIs(t, err, ErrPaymentExceedsOutstanding)
	assert.Equal(t, 0, repo.updates)
}

func TestInvoiceService_PaymentOnClosedInvoice(t *testing.T) {
	inv := seedInvoice("inv-1", "100")
	inv.Status = domain.StatusCancelled
	svc, _, _ := newTestInvoiceService(inv)

	_, err := svc.AddPayment(context.Background(), "inv-1", eur("10"), fixedNow, "")
	assert.ErrorIs(t, err, ErrInvoiceClosed)
}

func TestInvoiceService_DeletePaymentReopens(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestInvoiceService(seedInvoice("inv-1", "100"))

	paid, err := svc.AddPayment(ctx, "inv-1", eur("100"), *day(2024, 3, 15), "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPaid, paid.Status)

	inv, err := svc.DeletePayment(ctx, "inv-1", paid.Payments[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, inv.Status)
	assert.Nil(t, inv.PaidAt)
	assert.True(t, inv.PaidAmount.IsZero())
	assert.Empty(t, inv.Payments)

	_, err = svc.DeletePayment(ctx, "inv-1", "missing")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestInvoiceService_SetDunningLevel(t *testing.T) {
	ctx := context.Background()
	svc, _, acts := newTestInvoiceService(seedInvoice("inv-1", "100"))

	inv, err := svc.SetDunningLevel(ctx, "inv-1", 3, "zweite Mahnung")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDunned, inv.Status)
	assert.Equal(t, domain.PriorityHigh, inv.Priority)

	inv, err = svc.SetDunningLevel(ctx, "inv-1", domain.DunningLegal, "")
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityCritical, inv.Priority)
	assert.Len(t, acts.ofType(domain.ActivityDunning), 2)

	_, err = svc.SetDunningLevel(ctx, "inv-1", 5, "")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestInvoiceService_SetStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, acts := newTestInvoiceService(seedInvoice("inv-1", "100"))

	inv, err := svc.SetStatus(ctx, "inv-1", domain.StatusCollection, "an Inkassobüro übergeben")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCollection, inv.Status)
	assert.Equal(t, domain.PriorityCritical, inv.Priority)
	assert.Len(t, acts.ofType(domain.ActivityComment), 1)

	_, err = svc.SetStatus(ctx, "inv-1", domain.InvoiceStatus("unbekannt"), "")
	assert.Error(t, err)
}

func TestInvoiceService_SetupPlan(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestInvoiceService(seedInvoice("inv-1", "1200"))

	inv, err := svc.SetupPlan(ctx, "inv-1", PlanInput{
		InstallmentAmount: eur("200"),
		FirstDueDate:      day(2024, 4, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInstallments, inv.Status)
	assert.Equal(t, domain.IntervalMonthly, inv.Interval)
	assert.Equal(t, *day(2024, 4, 1), *inv.FirstInstallmentDate)

	inv, err = svc.SetupPlan(ctx, "inv-1", PlanInput{InstallmentAmount: eur("300")})
	require.NoError(t, err)
	assert.True(t, inv.InstallmentAmount.Equal(eur("300")))

	_, err = svc.SetupPlan(ctx, "inv-1", PlanInput{
		InstallmentAmount: eur("300"),
		FirstDueDate:      day(2024, 5, 1),
	})
	assert.ErrorIs(t, err, ErrPlanAnchorFixed)
}

func TestInvoiceService_SetupPlan_IntervalChangeReschedules(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestInvoiceService(seedInvoice("inv-1", "1200"))

	inv, err := svc.SetupPlan(ctx, "inv-1", PlanInput{
		InstallmentAmount: eur("200"),
		FirstDueDate:      day(2024, 1, 15),
	})
	require.NoError(t, err)
	require.NotNil(t, inv.InstallmentDueDate)
	assert.Equal(t, *day(2024, 4, 15), *inv.InstallmentDueDate)

	inv, err = svc.SetupPlan(ctx, "inv-1", PlanInput{
		InstallmentAmount: eur("100"),
		Interval:          domain.IntervalWeekly,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IntervalWeekly, inv.Interval)
	assert.Equal(t, *day(2024, 3, 25), *inv.InstallmentDueDate)
	assert.Equal(t, *day(2024, 1, 15), *inv.FirstInstallmentDate)

	stored, err := repo.GetByID(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, *day(2024, 3, 25), *stored.InstallmentDueDate)
}

func TestInvoiceService_EditKeepsDunnedPlanStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestInvoiceService(seedInvoice("inv-1", "1200"))

	_, err := svc.SetupPlan(ctx, "inv-1", PlanInput{
		InstallmentAmount: eur("200"),
		FirstDueDate:      day(2024, 4, 1),
	})
	require.NoError(t, err)
	inv, err := svc.SetDunningLevel(ctx, "inv-1", 1, "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusDunned, inv.Status)

	category := "Energie"
	inv, err = svc.Edit(ctx, "inv-1", InvoiceEdit{Category: &category})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDunned, inv.Status)
}

func TestInvoiceService_ConcurrentModification(t *testing.T) {
	svc, repo, acts := newTestInvoiceService(seedInvoice("inv-1", "100"))
	repo.failNext = repository.ErrConcurrentModification

	_, err := svc.AddPayment(context.Background(), "inv-1", eur("100"), fixedNow, "")
	assert.ErrorIs(t, err, repository.ErrConcurrentModification)
	assert.Empty(t, acts.activities)

	stored, err := repo.GetByID(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.Empty(t, stored.Payments)
	assert.Equal(t, domain.StatusOpen, stored.Status)
}

func TestInvoiceService_Edit(t *testing.T) {
	ctx := context.Background()
	other := seedInvoice("inv-2", "50")
	other.Reference = "RE-2"
	svc, _, _ := newTestInvoiceService(seedInvoice("inv-1", "100"), other)

	title := "Strom Q2"
	inv, err := svc.Edit(ctx, "inv-1", InvoiceEdit{Title: &title, DueDate: day(2024, 6, 30)})
	require.NoError(t, err)
	assert.Equal(t, "Strom Q2", inv.Title)
	assert.Equal(t, *day(2024, 6, 30), *inv.DueDate)
	assert.True(t, inv.Amount.Equal(eur("100")))

	ref := "RE-2"
	_, err = svc.Edit(ctx, "inv-1", InvoiceEdit{Reference: &ref})
	assert.ErrorIs(t, err, ErrDuplicateReference)
}

func TestInvoiceService_Activities(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestInvoiceService(seedInvoice("inv-1", "100"))

	_, err := svc.AddActivity(ctx, "inv-1", domain.ActivityCall, "Rückruf Buchhaltung", "")
	require.NoError(t, err)
	_, err = svc.AddActivity(ctx, "inv-1", domain.ActivityComment, "", "")
	assert.Error(t, err)

	list, err := svc.Activities(ctx, "inv-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.ActivityCall, list[0].Type)
}
