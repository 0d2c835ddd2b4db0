package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the cached status label of an invoice. Money and overdue
// facts are always derived from the raw fields, never from this label.
type InvoiceStatus string

const (
	StatusOpen         InvoiceStatus = "offen"
	StatusDue          InvoiceStatus = "faellig"
	StatusDunned       InvoiceStatus = "gemahnt"
	StatusInProgress   InvoiceStatus = "in_bearbeitung"
	StatusInstallments InvoiceStatus = "in_ratenzahlung"
	StatusDefault      InvoiceStatus = "verzug"
	StatusCollection   InvoiceStatus = "inkasso"
	StatusPaid         InvoiceStatus = "bezahlt"
	StatusCancelled    InvoiceStatus = "storniert"
)

// AllStatuses lists every status in display order
var AllStatuses = []InvoiceStatus{
	StatusOpen,
	StatusDue,
	StatusDunned,
	StatusInProgress,
	StatusInstallments,
	StatusDefault,
	StatusCollection,
	StatusPaid,
	StatusCancelled,
}

// IsValid reports whether s is a known status
func (s InvoiceStatus) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsClosed reports whether the status is terminal for bookkeeping purposes
func (s InvoiceStatus) IsClosed() bool {
	return s == StatusPaid || s == StatusCancelled
}

// Priority is the handling priority of an invoice
type Priority string

const (
	PriorityLow      Priority = "niedrig"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "hoch"
	PriorityCritical Priority = "kritisch"
)

// IsValid reports whether p is a known priority
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Interval is the cadence of an installment plan
type Interval string

const (
	IntervalNone    Interval = ""
	IntervalMonthly Interval = "monatlich"
	IntervalWeekly  Interval = "woechentlich"
)

// IsValid reports whether i is a known interval (including none)
func (i Interval) IsValid() bool {
	switch i {
	case IntervalNone, IntervalMonthly, IntervalWeekly:
		return true
	}
	return false
}

// Dunning levels: 0 none, 1-3 formal reminders, 4 legal/collection
const (
	DunningNone  = 0
	DunningLegal = 4
)

// Payment is a single partial payment recorded against an invoice
type Payment struct {
	ID        string
	InvoiceID string
	Amount    decimal.Decimal
	Date      time.Time
	Note      string
	CreatedAt time.Time
}

// NewPayment creates a payment with a fresh id
func NewPayment(invoiceID string, amount decimal.Decimal, date time.Time, note string) *Payment {
	return &Payment{
		ID:        uuid.NewString(),
		InvoiceID: invoiceID,
		Amount:    amount,
		Date:      date,
		Note:      strings.TrimSpace(note),
		CreatedAt: time.Now(),
	}
}

// Validate returns an error if the payment is invalid
func (p *Payment) Validate() error {
	if p.InvoiceID == "" {
		return NewValidationError("invoice_id", p.InvoiceID, "is required")
	}
	if !p.Amount.IsPositive() {
		return NewValidationError("amount", p.Amount, "must be greater than zero")
	}
	if p.Date.IsZero() {
		return NewValidationError("date", p.Date, "is required")
	}
	return nil
}

// Invoice is a financial obligation tracked in one ledger
type Invoice struct {
	ID        string
	Ledger    string // owning ledger key
	Company   string // owning entity label within the ledger
	Reference string // external reference number, unique when non-empty
	Title     string
	ContactID string // creditor contact, optional
	Category  string

	Amount      decimal.Decimal // principal, fixed at creation
	VAT         decimal.Decimal // informational
	GrossAmount decimal.Decimal // informational

	InstallmentAmount    decimal.Decimal // zero when no plan
	Interval             Interval
	FirstInstallmentDate *time.Time // plan anchor, immutable once set
	InstallmentDueDate   *time.Time // current installment due date

	IssueDate *time.Time
	DueDate   *time.Time

	Status       InvoiceStatus
	DunningLevel int
	Priority     Priority

	PaidAt     *time.Time
	PaidAmount decimal.Decimal

	Notes     string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time

	// Populated by repository, ordered by creation
	Payments []*Payment
}

// NewInvoice creates an open invoice with an empty payment list
func NewInvoice(ledger, title string, amount decimal.Decimal, dueDate *time.Time) *Invoice {
	now := time.Now()
	return &Invoice{
		ID:        uuid.NewString(),
		Ledger:    ledger,
		Title:     strings.TrimSpace(title),
		Amount:    amount,
		DueDate:   dueDate,
		Status:    StatusOpen,
		Priority:  PriorityNormal,
		CreatedAt: now,
		UpdatedAt: now,
		Payments:  make([]*Payment, 0),
	}
}

// HasPlan returns true if an installment plan is configured
func (i *Invoice) HasPlan() bool {
	return i.Interval != IntervalNone && i.FirstInstallmentDate != nil
}

// Clone returns a deep copy so derivations can work on a value without
// touching the caller's record. Nil payments are dropped.
func (i *Invoice) Clone() *Invoice {
	if i == nil {
		return nil
	}
	c := *i
	c.FirstInstallmentDate = cloneTime(i.FirstInstallmentDate)
	c.InstallmentDueDate = cloneTime(i.InstallmentDueDate)
	c.IssueDate = cloneTime(i.IssueDate)
	c.DueDate = cloneTime(i.DueDate)
	c.PaidAt = cloneTime(i.PaidAt)
	if i.Payments != nil {
		c.Payments = make([]*Payment, 0, len(i.Payments))
		for _, p := range i.Payments {
			if p == nil {
				continue
			}
			pc := *p
			c.Payments = append(c.Payments, &pc)
		}
	}
	return &c
}

// Validate returns an error if the invoice is invalid
func (i *Invoice) Validate() error {
	if i.ID == "" {
		return errors.New("invoice id is required")
	}
	if strings.TrimSpace(i.Ledger) == "" {
		return NewValidationError("ledger", i.Ledger, "is required")
	}
	if strings.TrimSpace(i.Title) == "" {
		return NewValidationError("title", i.Title, "is required")
	}
	if i.Amount.IsNegative() {
		return NewValidationError("amount", i.Amount, "cannot be negative")
	}
	if i.InstallmentAmount.IsNegative() {
		return NewValidationError("installment_amount", i.InstallmentAmount, "cannot be negative")
	}
	if !i.Status.IsValid() {
		return NewValidationError("status", i.Status, "unknown status")
	}
	if !i.Priority.IsValid() {
		return NewValidationError("priority", i.Priority, "unknown priority")
	}
	if !i.Interval.IsValid() {
		return NewValidationError("interval", i.Interval, "unknown interval")
	}
	if i.DunningLevel < DunningNone || i.DunningLevel > DunningLegal {
		return NewValidationError("dunning_level", i.DunningLevel, fmt.Sprintf("must be between %d and %d", DunningNone, DunningLegal))
	}
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
