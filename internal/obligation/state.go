package obligation

import (
	"time"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/shopspring/decimal"
)

// InvoiceState holds the facts derived from an invoice snapshot
type InvoiceState struct {
	TotalPaid   decimal.Decimal
	Outstanding decimal.Decimal

	// EffectiveDueDate is the current installment date for invoices in an
	// installment plan, otherwise the nominal due date. Nil if neither exists.
	EffectiveDueDate *time.Time

	// DaysOverdue is today minus the effective due date in calendar days.
	// Negative values mean the due date is still ahead. Zero without a due date.
	DaysOverdue int

	IsOverdue  bool // open, outstanding > 0 and DaysOverdue > 0
	IsDueToday bool // DaysOverdue == 0 with a due date
}

// HasDueDate reports whether an effective due date exists
func (s InvoiceState) HasDueDate() bool {
	return s.EffectiveDueDate != nil
}

// OverdueDays is DaysOverdue clamped at zero
func (s InvoiceState) OverdueDays() int {
	if s.DaysOverdue < 0 {
		return 0
	}
	return s.DaysOverdue
}

// DaysUntilDue is the mirror of DaysOverdue, clamped at zero
func (s InvoiceState) DaysUntilDue() int {
	if s.DaysOverdue > 0 {
		return 0
	}
	return -s.DaysOverdue
}

// DeriveInvoiceState computes paid, outstanding and due facts for inv as of
// today. It reads only the snapshot and never fails: inconsistent input is
// clamped instead of rejected.
func DeriveInvoiceState(inv *domain.Invoice, today time.Time) InvoiceState {
	if inv == nil {
		return InvoiceState{TotalPaid: decimal.Zero, Outstanding: decimal.Zero}
	}

	state := InvoiceState{
		TotalPaid:        SumPayments(inv.Payments),
		Outstanding:      Outstanding(inv.Amount, inv.Payments),
		EffectiveDueDate: EffectiveDueDate(inv),
	}

	if state.EffectiveDueDate == nil {
		return state
	}

	state.DaysOverdue = DaysBetween(*state.EffectiveDueDate, today)
	state.IsDueToday = state.DaysOverdue == 0
	state.IsOverdue = state.DaysOverdue > 0 &&
		state.Outstanding.IsPositive() &&
		!inv.Status.IsClosed()

	return state
}

// EffectiveDueDate picks the installment date for invoices in a plan and the
// nominal due date otherwise.
func EffectiveDueDate(inv *domain.Invoice) *time.Time {
	if inv.Status == domain.StatusInstallments {
		if inv.InstallmentDueDate != nil {
			return inv.InstallmentDueDate
		}
		if inv.FirstInstallmentDate != nil {
			return inv.FirstInstallmentDate
		}
	}
	return inv.DueDate
}
