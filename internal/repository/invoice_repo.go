package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andy/rechnungsbuch/internal/db"
	"github.com/andy/rechnungsbuch/internal/domain"
)

const invoiceColumns = `
	id, ledger, company, reference, title, contact_id, category,
	amount, vat, gross_amount,
	installment_amount, installment_interval, first_installment_date, installment_due_date,
	issue_date, due_date, status, dunning_level, priority,
	paid_at, paid_amount, notes, version, created_at, updated_at`

const paymentColumns = `id, invoice_id, amount, date, note, created_at`

// InvoiceRepo is a SQLite implementation of InvoiceRepository
type InvoiceRepo struct {
	db  *db.DB
	now func() time.Time
}

// NewInvoiceRepo creates a new InvoiceRepo
func NewInvoiceRepo(database *db.DB) *InvoiceRepo {
	return &InvoiceRepo{db: database, now: time.Now}
}

// execer is satisfied by both *db.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Create inserts a new invoice into the database
func (r *InvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice) error {
	if err := invoice.Validate(); err != nil {
		return fmt.Errorf("invalid invoice: %w", err)
	}

	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if invoice.Version == 0 {
		invoice.Version = 1
	}

	_, err := r.db.ExecContext(ctx, query,
		invoice.ID,
		invoice.Ledger,
		invoice.Company,
		nullString(invoice.Reference),
		invoice.Title,
		nullString(invoice.ContactID),
		invoice.Category,
		invoice.Amount.String(),
		invoice.VAT.String(),
		invoice.GrossAmount.String(),
		invoice.InstallmentAmount.String(),
		string(invoice.Interval),
		nullDate(invoice.FirstInstallmentDate),
		nullDate(invoice.InstallmentDueDate),
		nullDate(invoice.IssueDate),
		nullDate(invoice.DueDate),
		string(invoice.Status),
		invoice.DunningLevel,
		string(invoice.Priority),
		nullTime(invoice.PaidAt),
		invoice.PaidAmount.String(),
		invoice.Notes,
		invoice.Version,
		formatTime(invoice.CreatedAt),
		formatTime(invoice.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	return nil
}

// GetByID retrieves an invoice with its payments
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByReference retrieves an invoice by its external reference number
func (r *InvoiceRepo) GetByReference(ctx context.Context, reference string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE reference = ?`
	return r.getOne(ctx, query, reference)
}

func (r *InvoiceRepo) getOne(ctx context.Context, query string, arg interface{}) (*domain.Invoice, error) {
	invoice, err := scanInvoice(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice %v: %w", arg, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	payments, err := r.ListPayments(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	invoice.Payments = payments

	return invoice, nil
}

// List retrieves invoices matching the filter, newest first, with payments
func (r *InvoiceRepo) List(ctx context.Context, filter InvoiceFilter) ([]*domain.Invoice, error) {
	where, args := buildInvoiceFilter(filter)

	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE ` + where + ` ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]*domain.Invoice, 0)
	byID := make(map[string]*domain.Invoice)
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
		byID[invoice.ID] = invoice
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	if len(invoices) == 0 {
		return invoices, nil
	}

	// Load all payments of the listed invoices in one query
	paymentQuery := `SELECT ` + paymentColumns + ` FROM payments
		WHERE invoice_id IN (SELECT id FROM invoices WHERE ` + where + `)
		ORDER BY created_at, id`

	payments, err := r.queryPayments(ctx, paymentQuery, args...)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		if inv, ok := byID[p.InvoiceID]; ok {
			inv.Payments = append(inv.Payments, p)
		}
	}

	return invoices, nil
}

func buildInvoiceFilter(filter InvoiceFilter) (string, []interface{}) {
	clauses := []string{"1=1"}
	args := make([]interface{}, 0)

	if filter.Ledger != "" {
		clauses = append(clauses, "ledger = ?")
		args = append(args, filter.Ledger)
	}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		clauses = append(clauses, "status IN ("+strings.Join(placeholders, ", ")+")")
	} else if !filter.IncludeClosed {
		clauses = append(clauses, "status NOT IN (?, ?)")
		args = append(args, string(domain.StatusPaid), string(domain.StatusCancelled))
	}

	if filter.ContactID != "" {
		clauses = append(clauses, "contact_id = ?")
		args = append(args, filter.ContactID)
	}

	if filter.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, filter.Category)
	}

	if filter.Search != "" {
		clauses = append(clauses, "(title LIKE ? OR reference LIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	return strings.Join(clauses, " AND "), args
}

// Update writes all mutable invoice fields guarded by the version column
func (r *InvoiceRepo) Update(ctx context.Context, invoice *domain.Invoice) error {
	if err := invoice.Validate(); err != nil {
		return fmt.Errorf("invalid invoice: %w", err)
	}

	return r.updateVersioned(ctx, r.db, invoice)
}

func (r *InvoiceRepo) updateVersioned(ctx context.Context, ex execer, invoice *domain.Invoice) error {
	query := `
		UPDATE invoices
		SET company = ?, reference = ?, title = ?, contact_id = ?, category = ?,
		    vat = ?, gross_amount = ?,
		    installment_amount = ?, installment_interval = ?,
		    first_installment_date = ?, installment_due_date = ?,
		    issue_date = ?, due_date = ?, status = ?, dunning_level = ?, priority = ?,
		    paid_at = ?, paid_amount = ?, notes = ?,
		    version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	updatedAt := r.now()

	result, err := ex.ExecContext(ctx, query,
		invoice.Company,
		nullString(invoice.Reference),
		invoice.Title,
		nullString(invoice.ContactID),
		invoice.Category,
		invoice.VAT.String(),
		invoice.GrossAmount.String(),
		invoice.InstallmentAmount.String(),
		string(invoice.Interval),
		nullDate(invoice.FirstInstallmentDate),
		nullDate(invoice.InstallmentDueDate),
		nullDate(invoice.IssueDate),
		nullDate(invoice.DueDate),
		string(invoice.Status),
		invoice.DunningLevel,
		string(invoice.Priority),
		nullTime(invoice.PaidAt),
		invoice.PaidAmount.String(),
		invoice.Notes,
		formatTime(updatedAt),
		invoice.ID,
		invoice.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("invoice %s at version %d: %w", invoice.ID, invoice.Version, ErrConcurrentModification)
	}

	invoice.Version++
	invoice.UpdatedAt = updatedAt
	return nil
}

// AddPayment stores a payment together with the invoice state it produced
func (r *InvoiceRepo) AddPayment(ctx context.Context, invoice *domain.Invoice, payment *domain.Payment) error {
	if err := payment.Validate(); err != nil {
		return fmt.Errorf("invalid payment: %w", err)
	}

	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO payments (`+paymentColumns+`)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			payment.ID,
			payment.InvoiceID,
			payment.Amount.String(),
			formatDate(payment.Date),
			payment.Note,
			formatTime(payment.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to add payment: %w", err)
		}

		return r.updateVersioned(ctx, tx, invoice)
	})
}

// DeletePayment removes a payment together with the invoice state it produced
func (r *InvoiceRepo) DeletePayment(ctx context.Context, invoice *domain.Invoice, paymentID string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"DELETE FROM payments WHERE id = ? AND invoice_id = ?",
			paymentID, invoice.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete payment: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
		}

		return r.updateVersioned(ctx, tx, invoice)
	})
}

// ListPayments retrieves an invoice's payments in creation order
func (r *InvoiceRepo) ListPayments(ctx context.Context, invoiceID string) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE invoice_id = ? ORDER BY created_at, id`
	return r.queryPayments(ctx, query, invoiceID)
}

func (r *InvoiceRepo) queryPayments(ctx context.Context, query string, args ...interface{}) ([]*domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]*domain.Payment, 0)
	for rows.Next() {
		p := &domain.Payment{}
		var amount, date, createdAt string
		var note sql.NullString

		if err := rows.Scan(&p.ID, &p.InvoiceID, &amount, &date, &note, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}

		if p.Amount, err = parseMoney(amount, "amount"); err != nil {
			return nil, err
		}
		if p.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("failed to parse payment date: %w", err)
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		p.Note = note.String

		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	return payments, nil
}

// NextReference generates the next reference in format "PREFIX-YEAR-SEQUENCE"
// across all ledgers
func (r *InvoiceRepo) NextReference(ctx context.Context, prefix string, year int) (string, error) {
	query := `
		SELECT reference
		FROM invoices
		WHERE reference LIKE ?
		ORDER BY length(reference) DESC, reference DESC
		LIMIT 1
	`

	pattern := fmt.Sprintf("%s-%d-%%", prefix, year)
	var last string

	err := r.db.QueryRowContext(ctx, query, pattern).Scan(&last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Sprintf("%s-%d-001", prefix, year), nil
		}
		return "", fmt.Errorf("failed to get last reference: %w", err)
	}

	var seq int
	if _, err := fmt.Sscanf(strings.TrimPrefix(last, fmt.Sprintf("%s-%d-", prefix, year)), "%d", &seq); err != nil {
		return fmt.Sprintf("%s-%d-001", prefix, year), nil
	}

	return fmt.Sprintf("%s-%d-%03d", prefix, year, seq+1), nil
}

func (r *InvoiceRepo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// scanInvoice reads one invoice row in invoiceColumns order
func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	invoice := &domain.Invoice{Payments: make([]*domain.Payment, 0)}

	var (
		reference, contactID, notes, paidAt         sql.NullString
		firstInstallment, installmentDue            sql.NullString
		issueDate, dueDate                          sql.NullString
		amount, vat, gross, installment, paidAmount string
		interval, status, priority                  string
		createdAt, updatedAt                        string
	)

	err := row.Scan(
		&invoice.ID,
		&invoice.Ledger,
		&invoice.Company,
		&reference,
		&invoice.Title,
		&contactID,
		&invoice.Category,
		&amount,
		&vat,
		&gross,
		&installment,
		&interval,
		&firstInstallment,
		&installmentDue,
		&issueDate,
		&dueDate,
		&status,
		&invoice.DunningLevel,
		&priority,
		&paidAt,
		&paidAmount,
		&notes,
		&invoice.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	invoice.Reference = reference.String
	invoice.ContactID = contactID.String
	invoice.Notes = notes.String
	invoice.Interval = domain.Interval(interval)
	invoice.Status = domain.InvoiceStatus(status)
	invoice.Priority = domain.Priority(priority)

	if invoice.Amount, err = parseMoney(amount, "amount"); err != nil {
		return nil, err
	}
	if invoice.VAT, err = parseMoney(vat, "vat"); err != nil {
		return nil, err
	}
	if invoice.GrossAmount, err = parseMoney(gross, "gross_amount"); err != nil {
		return nil, err
	}
	if invoice.InstallmentAmount, err = parseMoney(installment, "installment_amount"); err != nil {
		return nil, err
	}
	if invoice.PaidAmount, err = parseMoney(paidAmount, "paid_amount"); err != nil {
		return nil, err
	}

	if invoice.FirstInstallmentDate, err = scanNullDate(firstInstallment, "first_installment_date"); err != nil {
		return nil, err
	}
	if invoice.InstallmentDueDate, err = scanNullDate(installmentDue, "installment_due_date"); err != nil {
		return nil, err
	}
	if invoice.IssueDate, err = scanNullDate(issueDate, "issue_date"); err != nil {
		return nil, err
	}
	if invoice.DueDate, err = scanNullDate(dueDate, "due_date"); err != nil {
		return nil, err
	}
	if invoice.PaidAt, err = scanNullTime(paidAt, "paid_at"); err != nil {
		return nil, err
	}

	if invoice.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if invoice.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return invoice, nil
}
