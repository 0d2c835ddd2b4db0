package obligation

import (
	"testing"
	"time"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)

func TestApplyAutoTransitions_FullyPaid(t *testing.T) {
	inv := testInvoice("1000", datePtr(2024, 3, 1), "400", "600")

	out := ApplyAutoTransitions(inv, MutationPaymentAdded, now)

	assert.Equal(t, domain.StatusPaid, out.Status)
	require.NotNil(t, out.PaidAt)
	assert.Equal(t, now, *out.PaidAt)
	assert.True(t, out.PaidAmount.Equal(eur("1000")))
	assert.Equal(t, domain.StatusOpen, inv.Status, "input must stay untouched")
}

func TestApplyAutoTransitions_OverPaymentStillPaid(t *testing.T) {
	inv := testInvoice("1000", nil, "1200")

	out := ApplyAutoTransitions(inv, MutationPaymentAdded, now)
	assert.Equal(t, domain.StatusPaid, out.Status)
	assert.True(t, Outstanding(out.Amount, out.Payments).IsZero())
}

func TestApplyAutoTransitions_PartialPaymentKeepsStatus(t *testing.T) {
	inv := testInvoice("1000", nil, "400")
	inv.Status = domain.StatusDunned

	out := ApplyAutoTransitions(inv, MutationPaymentAdded, now)
	assert.Equal(t, domain.StatusDunned, out.Status)
	assert.Nil(t, out.PaidAt)
}

func TestApplyAutoTransitions_DeleteReopensPaidInvoice(t *testing.T) {
	inv := testInvoice("1000", nil, "400", "600")
	paid := ApplyAutoTransitions(inv, MutationPaymentAdded, now)
	require.Equal(t, domain.StatusPaid, paid.Status)

	paid.Payments = paid.Payments[:1]
	out := ApplyAutoTransitions(paid, MutationPaymentDeleted, now)

	assert.Equal(t, domain.StatusOpen, out.Status)
	assert.Nil(t, out.PaidAt)
	assert.True(t, out.PaidAmount.IsZero())
}

func TestApplyAutoTransitions_CancelledStaysCancelled(t *testing.T) {
	inv := testInvoice("1000", nil, "1000")
	inv.Status = domain.StatusCancelled

	out := ApplyAutoTransitions(inv, MutationPaymentDeleted, now)
	assert.Equal(t, domain.StatusCancelled, out.Status)
}

func TestApplyAutoTransitions_Dunning(t *testing.T) {
	tests := []struct {
		name         string
		status       domain.InvoiceStatus
		priority     domain.Priority
		level        int
		wantStatus   domain.InvoiceStatus
		wantPriority domain.Priority
	}{
		{"level 1 dunns open invoice", domain.StatusOpen, domain.PriorityNormal, 1, domain.StatusDunned, domain.PriorityNormal},
		{"level 0 leaves status", domain.StatusOpen, domain.PriorityNormal, 0, domain.StatusOpen, domain.PriorityNormal},
		{"collection stays collection", domain.StatusCollection, domain.PriorityNormal, 2, domain.StatusCollection, domain.PriorityCritical},
		{"level 3 raises to high", domain.StatusOpen, domain.PriorityNormal, 3, domain.StatusDunned, domain.PriorityHigh},
		{"level 3 keeps critical", domain.StatusDunned, domain.PriorityCritical, 3, domain.StatusDunned, domain.PriorityCritical},
		{"level 4 is critical", domain.StatusOpen, domain.PriorityNormal, 4, domain.StatusDunned, domain.PriorityCritical},
		{"level 4 from low", domain.StatusDue, domain.PriorityLow, 4, domain.StatusDunned, domain.PriorityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := testInvoice("100", nil)
			inv.Status = tt.status
			inv.Priority = tt.priority
			inv.DunningLevel = tt.level

			out := ApplyAutoTransitions(inv, MutationDunning, now)
			assert.Equal(t, tt.wantStatus, out.Status)
			assert.Equal(t, tt.wantPriority, out.Priority)
		})
	}
}

func TestApplyAutoTransitions_DunningOnlyOnDunningMutation(t *testing.T) {
	inv := testInvoice("100", nil)
	inv.DunningLevel = 2
	inv.Status = domain.StatusInProgress

	out := ApplyAutoTransitions(inv, MutationStatus, now)
	assert.Equal(t, domain.StatusInProgress, out.Status)
}

func TestApplyAutoTransitions_CollectionIsCritical(t *testing.T) {
	inv := testInvoice("100", nil)
	inv.Status = domain.StatusCollection

	out := ApplyAutoTransitions(inv, MutationStatus, now)
	assert.Equal(t, domain.PriorityCritical, out.Priority)
}

func TestApplyAutoTransitions_PlanSetup(t *testing.T) {
	inv := testInvoice("1200", datePtr(2024, 1, 1))
	inv.InstallmentAmount = eur("100")
	inv.InstallmentDueDate = datePtr(2024, 4, 1)

	out := ApplyAutoTransitions(inv, MutationPlan, now)

	assert.Equal(t, domain.StatusInstallments, out.Status)
	assert.Equal(t, domain.IntervalMonthly, out.Interval)
	require.NotNil(t, out.FirstInstallmentDate)
	assert.Equal(t, date(2024, 4, 1), *out.FirstInstallmentDate)
}

func TestApplyAutoTransitions_PlanNeedsAmountAndDate(t *testing.T) {
	inv := testInvoice("1200", nil)
	inv.InstallmentDueDate = datePtr(2024, 4, 1)

	out := ApplyAutoTransitions(inv, MutationPlan, now)
	assert.Equal(t, domain.StatusOpen, out.Status)
}

func TestApplyAutoTransitions_PlanSkipsClosed(t *testing.T) {
	for _, status := range []domain.InvoiceStatus{domain.StatusPaid, domain.StatusCancelled} {
		inv := testInvoice("1200", nil)
		inv.Status = status
		inv.InstallmentAmount = eur("100")
		inv.InstallmentDueDate = datePtr(2024, 4, 1)

		out := ApplyAutoTransitions(inv, MutationCreate, now)
		assert.Equal(t, status, out.Status)
	}
}

func planInvoice() *domain.Invoice {
	inv := testInvoice("1200", datePtr(2024, 1, 1))
	inv.Status = domain.StatusInstallments
	inv.InstallmentAmount = eur("100")
	inv.Interval = domain.IntervalMonthly
	inv.FirstInstallmentDate = datePtr(2024, 1, 15)
	inv.InstallmentDueDate = datePtr(2024, 4, 15)
	return inv
}

func TestApplyAutoTransitions_EditKeepsManualStatusOnPlan(t *testing.T) {
	inv := planInvoice()
	inv.DunningLevel = 1

	dunned := ApplyAutoTransitions(inv, MutationDunning, now)
	require.Equal(t, domain.StatusDunned, dunned.Status)

	dunned.Notes = "Ratenvereinbarung telefonisch bestätigt"
	out := ApplyAutoTransitions(dunned, MutationEdit, now)
	assert.Equal(t, domain.StatusDunned, out.Status)

	inProgress := planInvoice()
	inProgress.Status = domain.StatusInProgress
	out = ApplyAutoTransitions(inProgress, MutationEdit, now)
	assert.Equal(t, domain.StatusInProgress, out.Status)
}

func TestApplyAutoTransitions_PlanChangeReschedulesFromAnchor(t *testing.T) {
	inv := planInvoice()
	inv.InstallmentDueDate = datePtr(2024, 1, 15)
	inv.Interval = domain.IntervalWeekly

	out := ApplyAutoTransitions(inv, MutationPlan, now)

	require.NotNil(t, out.InstallmentDueDate)
	assert.Equal(t, date(2024, 3, 25), *out.InstallmentDueDate)
	assert.Equal(t, date(2024, 1, 15), *out.FirstInstallmentDate)
	assert.False(t, DeriveInvoiceState(out, now).IsOverdue)
}

func TestApplyAutoTransitions_FuturePlanKeepsFirstDate(t *testing.T) {
	for _, first := range []*time.Time{datePtr(2024, 3, 20), datePtr(2024, 5, 1)} {
		inv := testInvoice("1200", nil)
		inv.InstallmentAmount = eur("100")
		inv.InstallmentDueDate = first

		out := ApplyAutoTransitions(inv, MutationPlan, now)
		require.NotNil(t, out.InstallmentDueDate)
		assert.Equal(t, *first, *out.InstallmentDueDate)
	}
}

func TestApplyAutoTransitions_PlanChangeAfterTodaysInstallmentPaid(t *testing.T) {
	inv := planInvoice()
	inv.FirstInstallmentDate = datePtr(2024, 3, 20)
	inv.InstallmentDueDate = datePtr(2024, 4, 20)
	inv.Interval = domain.IntervalWeekly

	out := ApplyAutoTransitions(inv, MutationPlan, now)
	require.NotNil(t, out.InstallmentDueDate)
	assert.Equal(t, date(2024, 3, 27), *out.InstallmentDueDate)
}

func TestApplyAutoTransitions_NilInvoice(t *testing.T) {
	assert.Nil(t, ApplyAutoTransitions(nil, MutationPaymentAdded, now))

	inv := testInvoice("100", nil, "40")
	inv.Payments = append(inv.Payments, nil)
	out := ApplyAutoTransitions(inv, MutationPaymentAdded, now)
	require.NotNil(t, out)
	assert.Len(t, out.Payments, 1)
	assert.True(t, Outstanding(out.Amount, out.Payments).Equal(eur("60")))
}

func TestApplyAutoTransitions_PaymentRecomputesInstallmentFromAnchor(t *testing.T) {
	inv := testInvoice("1200", nil, "100")
	inv.Status = domain.StatusInstallments
	inv.InstallmentAmount = eur("100")
	inv.Interval = domain.IntervalMonthly
	inv.FirstInstallmentDate = datePtr(2024, 1, 15)
	inv.InstallmentDueDate = datePtr(2024, 1, 15)

	out := ApplyAutoTransitions(inv, MutationPaymentAdded, now)

	assert.Equal(t, domain.StatusInstallments, out.Status)
	require.NotNil(t, out.InstallmentDueDate)
	assert.Equal(t, date(2024, 4, 15), *out.InstallmentDueDate)
	assert.Equal(t, date(2024, 1, 15), *out.FirstInstallmentDate, "anchor must never move")
}

func TestApplyAutoTransitions_Idempotent(t *testing.T) {
	mutations := []Mutation{
		MutationCreate, MutationEdit, MutationStatus, MutationDunning,
		MutationPlan, MutationPaymentAdded, MutationPaymentDeleted,
	}

	fixtures := func() []*domain.Invoice {
		plain := testInvoice("1000", datePtr(2024, 3, 1), "400")

		paid := testInvoice("1000", datePtr(2024, 3, 1), "400", "600")

		dunned := testInvoice("1000", datePtr(2024, 3, 1))
		dunned.DunningLevel = 3

		legal := testInvoice("1000", datePtr(2024, 3, 1))
		legal.DunningLevel = 4
		legal.Status = domain.StatusCollection

		plan := testInvoice("1200", datePtr(2024, 1, 1), "100")
		plan.InstallmentAmount = eur("100")
		plan.InstallmentDueDate = datePtr(2024, 1, 15)

		reopened := testInvoice("1000", nil, "400")
		reopened.Status = domain.StatusPaid
		paidAt := now.Add(-time.Hour)
		reopened.PaidAt = &paidAt

		return []*domain.Invoice{plain, paid, dunned, legal, plan, reopened}
	}

	for _, m := range mutations {
		for i, inv := range fixtures() {
			once := ApplyAutoTransitions(inv, m, now)
			twice := ApplyAutoTransitions(once, m, now)
			assert.Equal(t, once, twice, "mutation %s fixture %d", m, i)
		}
	}
}
