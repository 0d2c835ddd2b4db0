package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/andy/rechnungsbuch/internal/logger"
	"github.com/andy/rechnungsbuch/internal/obligation"
	"github.com/andy/rechnungsbuch/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrInvoiceClosed             = errors.New("invoice is paid or cancelled")
	ErrPaymentExceedsOutstanding = errors.New("payment exceeds outstanding amount")
	ErrDuplicateReference        = errors.New("reference number already in use")
	ErrWrongLedger               = errors.New("invoice belongs to another ledger")
	ErrPaymentNotFound           = errors.New("payment not found")
	ErrPlanAnchorFixed           = errors.New("first installment date cannot change once a plan has started")
)

// NewInvoiceInput carries the fields accepted when an invoice is created
type NewInvoiceInput struct {
	Title       string
	Reference   string
	Company     string
	Category    string
	ContactID   string
	Notes       string
	Amount      decimal.Decimal
	VAT         decimal.Decimal
	GrossAmount decimal.Decimal
	IssueDate   *time.Time
	DueDate     *time.Time
	Priority    domain.Priority

	// Optional installment plan
	InstallmentAmount  decimal.Decimal
	Interval           domain.Interval
	InstallmentDueDate *time.Time
}

// InvoiceEdit holds optional field changes; nil fields are left untouched.
// The principal amount is fixed at creation and cannot be edited.
type InvoiceEdit struct {
	Title       *string
	Reference   *string
	Company     *string
	Category    *string
	ContactID   *string
	Notes       *string
	VAT         *decimal.Decimal
	GrossAmount *decimal.Decimal
	IssueDate   *time.Time
	DueDate     *time.Time
	Priority    *domain.Priority
}

// PlanInput configures an installment plan
type PlanInput struct {
	InstallmentAmount decimal.Decimal
	Interval          domain.Interval
	FirstDueDate      *time.Time // required when the invoice has no plan yet
}

// InvoiceService manages invoices of a single ledger. Every write reads the
// current record, applies the change and the automatic status transitions,
// stores it with a version check and appends to the activity log.
type InvoiceService interface {
	// Ledger returns the ledger key this service is bound to
	Ledger() string

	Create(ctx context.Context, in NewInvoiceInput) (*domain.Invoice, error)
	Get(ctx context.Context, id string) (*domain.Invoice, error)
	GetByReference(ctx context.Context, reference string) (*domain.Invoice, error)
	List(ctx context.Context, filter repository.InvoiceFilter) ([]*domain.Invoice, error)

	Edit(ctx context.Context, id string, edit InvoiceEdit) (*domain.Invoice, error)
	SetStatus(ctx context.Context, id string, status domain.InvoiceStatus, note string) (*domain.Invoice, error)
	SetDunningLevel(ctx context.Context, id string, level int, note string) (*domain.Invoice, error)
	SetupPlan(ctx context.Context, id string, plan PlanInput) (*domain.Invoice, error)

	// AddPayment records a partial payment. Amounts above the outstanding
	// balance are rejected.
	AddPayment(ctx context.Context, id string, amount decimal.Decimal, date time.Time, note string) (*domain.Invoice, error)
	// DeletePayment removes a payment as a correction
	DeletePayment(ctx context.Context, id, paymentID string) (*domain.Invoice, error)

	// AddActivity logs a manual entry (comment, email, call, file)
	AddActivity(ctx context.Context, id string, typ domain.ActivityType, title, description string) (*domain.Activity, error)
	Activities(ctx context.Context, id string) ([]*domain.Activity, error)

	// State derives outstanding and due facts as of now
	State(invoice *domain.Invoice) obligation.InvoiceState
}

type invoiceService struct {
	ledger       string
	invoiceRepo  repository.InvoiceRepository
	activityRepo repository.ActivityRepository
	contactRepo  repository.ContactRepository
	now          func() time.Time
	log          zerolog.Logger
}

// NewInvoiceService creates an invoice service bound to one ledger
func NewInvoiceService(
	ledger string,
	invoiceRepo repository.InvoiceRepository,
	activityRepo repository.ActivityRepository,
	contactRepo repository.ContactRepository,
) InvoiceService {
	return &invoiceService{
		ledger:       ledger,
		invoiceRepo:  invoiceRepo,
		activityRepo: activityRepo,
		contactRepo:  contactRepo,
		now:          time.Now,
		log:          logger.WithLedger("invoice_service", ledger),
	}
}

func (s *invoiceService) Ledger() string {
	return s.ledger
}

func (s *invoiceService) Create(ctx context.Context, in NewInvoiceInput) (*domain.Invoice, error) {
	invoice := domain.NewInvoice(s.ledger, in.Title, in.Amount, in.DueDate)
	now := s.now()
	invoice.CreatedAt = now
	invoice.UpdatedAt = now
	invoice.Reference = strings.TrimSpace(in.Reference)
	invoice.Company = strings.TrimSpace(in.Company)
	invoice.Category = strings.TrimSpace(in.Category)
	invoice.ContactID = in.ContactID
	invoice.Notes = in.Notes
	invoice.VAT = in.VAT
	invoice.GrossAmount = in.GrossAmount
	invoice.IssueDate = in.IssueDate
	invoice.InstallmentAmount = in.InstallmentAmount
	invoice.Interval = in.Interval
	invoice.InstallmentDueDate = in.InstallmentDueDate
	if in.Priority != "" {
		invoice.Priority = in.Priority
	}

	if !invoice.Amount.IsPositive() {
		return nil, domain.NewValidationError("amount", invoice.Amount, "must be greater than zero")
	}
	if err := s.checkReference(ctx, invoice.Reference, ""); err != nil {
		return nil, err
	}
	if err := s.checkContact(ctx, invoice.ContactID); err != nil {
		return nil, err
	}

	invoice = obligation.ApplyAutoTransitions(invoice, obligation.MutationCreate, now)
	if err := invoice.Validate(); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		s.log.Error().Err(err).Str("title", invoice.Title).Msg("failed to create invoice")
		return nil, err
	}

	s.logActivity(ctx, invoice.ID, domain.ActivityStatusChange, "Rechnung angelegt",
		fmt.Sprintf("Betrag %s, Status %s", invoice.Amount.StringFixed(2), invoice.Status))

	s.log.Info().
		Str("invoice", invoice.ID).
		Str("status", string(invoice.Status)).
		Msg("invoice created")

	return invoice, nil
}

func (s *invoiceService) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Ledger != s.ledger {
		return nil, fmt.Errorf("%w: %s is in %s", ErrWrongLedger, id, invoice.Ledger)
	}
	return invoice, nil
}

func (s *invoiceService) GetByReference(ctx context.Context, reference string) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if invoice.Ledger != s.ledger {
		return nil, fmt.Errorf("%w: %s is in %s", ErrWrongLedger, reference, invoice.Ledger)
	}
	return invoice, nil
}

func (s *invoiceService) List(ctx context.Context, filter repository.InvoiceFilter) ([]*domain.Invoice, error) {
	filter.Ledger = s.ledger
	return s.invoiceRepo.List(ctx, filter)
}

func (s *invoiceService) Edit(ctx context.Context, id string, edit InvoiceEdit) (*domain.Invoice, error) {
	if edit.Reference != nil {
		if err := s.checkReference(ctx, strings.TrimSpace(*edit.Reference), id); err != nil {
			return nil, err
		}
	}
	if edit.ContactID != nil {
		if err := s.checkContact(ctx, *edit.ContactID); err != nil {
			return nil, err
		}
	}

	invoice, _, err := s.mutate(ctx, id, obligation.MutationEdit, func(inv *domain.Invoice) error {
		if edit.Title != nil {
			inv.Title = strings.TrimSpace(*edit.Title)
		}
		if edit.Reference != nil {
			inv.Reference = strings.TrimSpace(*edit.Reference)
		}
		if edit.Company != nil {
			inv.Company = strings.TrimSpace(*edit.Company)
		}
		if edit.Category != nil {
			inv.Category = strings.TrimSpace(*edit.Category)
		}
		if edit.ContactID != nil {
			inv.ContactID = *edit.ContactID
		}
		if edit.Notes != nil {
			inv.Notes = *edit.Notes
		}
		if edit.VAT != nil {
			inv.VAT = *edit.VAT
		}
		if edit.GrossAmount != nil {
			inv.GrossAmount = *edit.GrossAmount
		}
		if edit.IssueDate != nil {
			inv.IssueDate = edit.IssueDate
		}
		if edit.DueDate != nil {
			inv.DueDate = edit.DueDate
		}
		if edit.Priority != nil {
			inv.Priority = *edit.Priority
		}
		return nil
	}, s.invoiceRepo.Update)
	return invoice, err
}

func (s *invoiceService) SetStatus(ctx context.Context, id string, status domain.InvoiceStatus, note string) (*domain.Invoice, error) {
	if !status.IsValid() {
		return nil, domain.NewValidationError("status", status, "unknown status")
	}

	invoice, _, err := s.mutate(ctx, id, obligation.MutationStatus, func(inv *domain.Invoice) error {
		if inv.Status == status {
			return nil
		}
		if status == domain.StatusPaid && inv.PaidAt == nil {
			paidAt := s.now()
			inv.PaidAt = &paidAt
			inv.PaidAmount = obligation.SumPayments(inv.Payments)
		}
		if inv.Status == domain.StatusPaid {
			inv.PaidAt = nil
			inv.PaidAmount = decimal.Zero
		}
		inv.Status = status
		return nil
	}, s.invoiceRepo.Update)
	if err != nil {
		return nil, err
	}

	if note != "" {
		s.logActivity(ctx, id, domain.ActivityComment, "Notiz zum Status "+string(invoice.Status), note)
	}
	return invoice, nil
}

func (s *invoiceService) SetDunningLevel(ctx context.Context, id string, level int, note string) (*domain.Invoice, error) {
	if level < domain.DunningNone || level > domain.DunningLegal {
		return nil, domain.NewValidationError("dunning_level", level,
			fmt.Sprintf("must be between %d and %d", domain.DunningNone, domain.DunningLegal))
	}

	invoice, before, err := s.mutate(ctx, id, obligation.MutationDunning, func(inv *domain.Invoice) error {
		if inv.Status.IsClosed() {
			return ErrInvoiceClosed
		}
		inv.DunningLevel = level
		return nil
	}, s.invoiceRepo.Update)
	if err != nil {
		return nil, err
	}

	if before.DunningLevel != invoice.DunningLevel {
		s.logActivity(ctx, id, domain.ActivityDunning,
			fmt.Sprintf("Mahnstufe %d → %d", before.DunningLevel, invoice.DunningLevel), note)
	}
	return invoice, nil
}

func (s *invoiceService) SetupPlan(ctx context.Context, id string, plan PlanInput) (*domain.Invoice, error) {
	if !plan.InstallmentAmount.IsPositive() {
		return nil, domain.NewValidationError("installment_amount", plan.InstallmentAmount, "must be greater than zero")
	}
	interval := plan.Interval
	if interval == domain.IntervalNone {
		interval = domain.IntervalMonthly
	}
	if !interval.IsValid() {
		return nil, domain.NewValidationError("interval", plan.Interval, "unknown interval")
	}

	invoice, _, err := s.mutate(ctx, id, obligation.MutationPlan, func(inv *domain.Invoice) error {
		if inv.Status.IsClosed() {
			return ErrInvoiceClosed
		}

		if inv.FirstInstallmentDate != nil {
			if plan.FirstDueDate != nil && !obligation.DateOnly(*plan.FirstDueDate).Equal(obligation.DateOnly(*inv.FirstInstallmentDate)) {
				return ErrPlanAnchorFixed
			}
		} else {
			if plan.FirstDueDate == nil {
				return domain.NewValidationError("first_due_date", nil, "is required to start a plan")
			}
			first := *plan.FirstDueDate
			inv.InstallmentDueDate = &first
		}

		inv.InstallmentAmount = plan.InstallmentAmount
		inv.Interval = interval
		return nil
	}, s.invoiceRepo.Update)
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("%s %s", invoice.InstallmentAmount.StringFixed(2), invoice.Interval)
	if invoice.FirstInstallmentDate != nil {
		description += " ab " + invoice.FirstInstallmentDate.Format("2006-01-02")
	}
	s.logActivity(ctx, id, domain.ActivityInstallmentPlan, "Ratenzahlung eingerichtet", description)
	return invoice, nil
}

func (s *invoiceService) AddPayment(ctx context.Context, id string, amount decimal.Decimal, date time.Time, note string) (*domain.Invoice, error) {
	var payment *domain.Payment

	invoice, _, err := s.mutate(ctx, id, obligation.MutationPaymentAdded, func(inv *domain.Invoice) error {
		if inv.Status.IsClosed() {
			return ErrInvoiceClosed
		}

		payment = domain.NewPayment(inv.ID, amount, date, note)
		payment.CreatedAt = s.now()
		if err := payment.Validate(); err != nil {
			return err
		}

		outstanding := obligation.Outstanding(inv.Amount, inv.Payments)
		if amount.GreaterThan(outstanding) {
			return fmt.Errorf("%w: %s > %s", ErrPaymentExceedsOutstanding, amount.StringFixed(2), outstanding.StringFixed(2))
		}

		inv.Payments = append(inv.Payments, payment)
		return nil
	}, func(ctx context.Context, inv *domain.Invoice) error {
		return s.invoiceRepo.AddPayment(ctx, inv, payment)
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, id, domain.ActivityPayment,
		fmt.Sprintf("Zahlung %s erfasst", amount.StringFixed(2)), payment.Note)
	return invoice, nil
}

func (s *invoiceService) DeletePayment(ctx context.Context, id, paymentID string) (*domain.Invoice, error) {
	var removed *domain.Payment

	invoice, _, err := s.mutate(ctx, id, obligation.MutationPaymentDeleted, func(inv *domain.Invoice) error {
		kept := make([]*domain.Payment, 0, len(inv.Payments))
		for _, p := range inv.Payments {
			if p.ID == paymentID {
				removed = p
				continue
			}
			kept = append(kept, p)
		}
		if removed == nil {
			return fmt.Errorf("%w: %s", ErrPaymentNotFound, paymentID)
		}
		inv.Payments = kept
		return nil
	}, func(ctx context.Context, inv *domain.Invoice) error {
		return s.invoiceRepo.DeletePayment(ctx, inv, paymentID)
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, id, domain.ActivityPayment,
		fmt.Sprintf("Zahlung %s gelöscht", removed.Amount.StringFixed(2)),
		fmt.Sprintf("vom %s", removed.Date.Format("2006-01-02")))
	return invoice, nil
}

func (s *invoiceService) AddActivity(ctx context.Context, id string, typ domain.ActivityType, title, description string) (*domain.Activity, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	activity := domain.NewActivity(id, typ, strings.TrimSpace(title), description)
	activity.CreatedAt = s.now()
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

func (s *invoiceService) Activities(ctx context.Context, id string) ([]*domain.Activity, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.activityRepo.ListByInvoice(ctx, id)
}

func (s *invoiceService) State(invoice *domain.Invoice) obligation.InvoiceState {
	return obligation.DeriveInvoiceState(invoice, s.now())
}

// mutate runs one read-modify-write cycle. It returns the stored invoice and
// a copy of the record as it was before the change.
func (s *invoiceService) mutate(
	ctx context.Context,
	id string,
	m obligation.Mutation,
	change func(inv *domain.Invoice) error,
	save func(ctx context.Context, inv *domain.Invoice) error,
) (*domain.Invoice, *domain.Invoice, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	before := invoice.Clone()

	if err := change(invoice); err != nil {
		return nil, nil, err
	}

	invoice = obligation.ApplyAutoTransitions(invoice, m, s.now())
	if err := invoice.Validate(); err != nil {
		return nil, nil, err
	}

	if err := save(ctx, invoice); err != nil {
		s.log.Error().Err(err).
			Str("invoice", id).
			Str("mutation", string(m)).
			Msg("failed to save invoice")
		return nil, nil, err
	}

	if before.Status != invoice.Status {
		s.logActivity(ctx, id, domain.ActivityStatusChange,
			fmt.Sprintf("Status %s → %s", before.Status, invoice.Status), "")
	}

	s.log.Info().
		Str("invoice", id).
		Str("mutation", string(m)).
		Str("status", string(invoice.Status)).
		Int64("version", invoice.Version).
		Msg("invoice updated")

	return invoice, before, nil
}

func (s *invoiceService) checkReference(ctx context.Context, reference, selfID string) error {
	if reference == "" {
		return nil
	}
	existing, err := s.invoiceRepo.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != selfID {
		return fmt.Errorf("%w: %s", ErrDuplicateReference, reference)
	}
	return nil
}

func (s *invoiceService) checkContact(ctx context.Context, contactID string) error {
	if contactID == "" {
		return nil
	}
	if _, err := s.contactRepo.GetByID(ctx, contactID); err != nil {
		return fmt.Errorf("invalid contact: %w", err)
	}
	return nil
}

// logActivity appends to the activity log. The log is a side record, so a
// failure is reported but does not undo the write it describes.
func (s *invoiceService) logActivity(ctx context.Context, invoiceID string, typ domain.ActivityType, title, description string) {
	activity := domain.NewActivity(invoiceID, typ, title, description)
	activity.CreatedAt = s.now()
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.log.Warn().Err(err).
			Str("invoice", invoiceID).
			Str("activity", string(typ)).
			Msg("failed to log activity")
	}
}
