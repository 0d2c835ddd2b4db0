package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andy/rechnungsbuch/internal/domain"
)

var (
	// ErrNotFound is wrapped by every lookup that matches no row
	ErrNotFound = errors.New("not found")

	// ErrConcurrentModification means the stored invoice version moved
	// between read and write
	ErrConcurrentModification = errors.New("invoice was modified concurrently, reload and retry")
)

// InvoiceFilter narrows List results. Zero values do not filter.
type InvoiceFilter struct {
	Ledger        string
	Statuses      []domain.InvoiceStatus
	ContactID     string
	Category      string
	Search        string // substring of title or reference
	IncludeClosed bool   // include bezahlt and storniert
}

// InvoiceRepository manages invoice persistence. Loaded invoices always carry
// their payments.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *domain.Invoice) error
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	GetByReference(ctx context.Context, reference string) (*domain.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]*domain.Invoice, error)
	// Update writes the invoice if its version still matches the stored one
	// and increments Version on success
	Update(ctx context.Context, invoice *domain.Invoice) error
	// AddPayment inserts the payment and writes the invoice in one transaction
	AddPayment(ctx context.Context, invoice *domain.Invoice, payment *domain.Payment) error
	// DeletePayment removes the payment and writes the invoice in one transaction
	DeletePayment(ctx context.Context, invoice *domain.Invoice, paymentID string) error
	ListPayments(ctx context.Context, invoiceID string) ([]*domain.Payment, error)
	// NextReference returns the next free "PREFIX-YEAR-NNN" reference
	NextReference(ctx context.Context, prefix string, year int) (string, error)
}

// ActivityRepository stores the append-only invoice activity log
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) error
	ListByInvoice(ctx context.Context, invoiceID string) ([]*domain.Activity, error) // newest first
}

// ContactRepository manages contact persistence
type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	GetByName(ctx context.Context, name string) (*domain.Contact, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Contact, error)
	Update(ctx context.Context, contact *domain.Contact) error
	Archive(ctx context.Context, id string) error
	Unarchive(ctx context.Context, id string) error
}

// ChecklistRepository manages inspection checklist templates
type ChecklistRepository interface {
	Create(ctx context.Context, item *domain.ChecklistItem) error
	GetByID(ctx context.Context, id string) (*domain.ChecklistItem, error)
	List(ctx context.Context, cadence *domain.Cadence, includeInactive bool) ([]*domain.ChecklistItem, error)
	Update(ctx context.Context, item *domain.ChecklistItem) error
	Deactivate(ctx context.Context, id string) error
}

// InspectionRepository manages inspection runs and their item snapshots
type InspectionRepository interface {
	Create(ctx context.Context, run *domain.InspectionRun) error
	GetByID(ctx context.Context, id string) (*domain.InspectionRun, error)
	ListByCadence(ctx context.Context, cadence domain.Cadence, limit int) ([]*domain.InspectionRun, error)
	GetActive(ctx context.Context, cadence domain.Cadence) (*domain.InspectionRun, error) // Returns nil if none
	LastCompleted(ctx context.Context, cadence domain.Cadence) (*time.Time, error)        // Returns nil if never completed
	UpdateRun(ctx context.Context, run *domain.InspectionRun) error
	UpdateItem(ctx context.Context, item *domain.RunItem) error
}
