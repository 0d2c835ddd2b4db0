package obligation

import (
	"time"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/shopspring/decimal"
)

// Mutation names the kind of write an invoice is about to receive
type Mutation string

const (
	MutationCreate         Mutation = "create"
	MutationEdit           Mutation = "edit"
	MutationStatus         Mutation = "status"
	MutationDunning        Mutation = "dunning"
	MutationPlan           Mutation = "plan"
	MutationPaymentAdded   Mutation = "payment_added"
	MutationPaymentDeleted Mutation = "payment_deleted"
)

// ApplyAutoTransitions applies the write-time status policies to a copy of
// inv and returns it. The input is not modified. Applying it twice with the
// same mutation and time yields the same record. A nil invoice yields nil.
func ApplyAutoTransitions(inv *domain.Invoice, m Mutation, now time.Time) *domain.Invoice {
	if inv == nil {
		return nil
	}
	out := inv.Clone()

	if m == MutationDunning {
		applyDunningStatus(out)
	}

	switch m {
	case MutationCreate:
		applyPlanStatus(out)
	case MutationPlan:
		applyPlanStatus(out)
		rescheduleInstallment(out, now)
	case MutationPaymentAdded, MutationPaymentDeleted:
		applyPaymentStatus(out, now)
	}

	applyPriority(out)
	return out
}

// A dunning level above zero marks the invoice as dunned unless it is
// already dunned or in collection.
func applyDunningStatus(inv *domain.Invoice) {
	if inv.DunningLevel <= domain.DunningNone {
		return
	}
	if inv.Status == domain.StatusDunned || inv.Status == domain.StatusCollection {
		return
	}
	inv.Status = domain.StatusDunned
}

// An installment amount together with an installment date puts an open
// invoice into the installment plan. The first installment date becomes the
// plan's anchor and stays fixed afterwards.
func applyPlanStatus(inv *domain.Invoice) {
	if !inv.InstallmentAmount.IsPositive() || inv.InstallmentDueDate == nil {
		return
	}
	if inv.Status.IsClosed() {
		return
	}
	if inv.FirstInstallmentDate == nil {
		anchor := *inv.InstallmentDueDate
		inv.FirstInstallmentDate = &anchor
	}
	if inv.Interval == domain.IntervalNone {
		inv.Interval = domain.IntervalMonthly
	}
	inv.Status = domain.StatusInstallments
}

// A plan write puts the next installment on the grid counted from the
// anchor. An anchor that has not passed stays the next installment unless
// a payment already moved beyond it today.
func rescheduleInstallment(inv *domain.Invoice, now time.Time) {
	if inv.Status != domain.StatusInstallments || !inv.HasPlan() {
		return
	}
	today := DateOnly(now)
	anchor := DateOnly(*inv.FirstInstallmentDate)
	movedOn := inv.InstallmentDueDate != nil && DateOnly(*inv.InstallmentDueDate).After(today)
	if anchor.After(today) || (anchor.Equal(today) && !movedOn) {
		first := *inv.FirstInstallmentDate
		inv.InstallmentDueDate = &first
		return
	}
	inv.InstallmentDueDate = NextInstallmentDue(inv.FirstInstallmentDate, inv.Interval, now)
}

func applyPaymentStatus(inv *domain.Invoice, now time.Time) {
	if inv.Status == domain.StatusCancelled {
		return
	}

	if Outstanding(inv.Amount, inv.Payments).IsZero() {
		inv.Status = domain.StatusPaid
		if inv.PaidAt == nil {
			paidAt := now
			inv.PaidAt = &paidAt
		}
		inv.PaidAmount = SumPayments(inv.Payments)
		return
	}

	// A correction left money outstanding on a paid invoice: reopen it.
	if inv.Status == domain.StatusPaid {
		inv.Status = domain.StatusOpen
		if inv.HasPlan() {
			inv.Status = domain.StatusInstallments
		}
		inv.PaidAt = nil
		inv.PaidAmount = decimal.Zero
	}

	if inv.Status == domain.StatusInstallments && inv.HasPlan() {
		inv.InstallmentDueDate = NextInstallmentDue(inv.FirstInstallmentDate, inv.Interval, now)
	}
}

func applyPriority(inv *domain.Invoice) {
	switch {
	case inv.Status == domain.StatusCollection || inv.DunningLevel == domain.DunningLegal:
		inv.Priority = domain.PriorityCritical
	case inv.DunningLevel == 3 && inv.Priority != domain.PriorityCritical:
		inv.Priority = domain.PriorityHigh
	}
}
