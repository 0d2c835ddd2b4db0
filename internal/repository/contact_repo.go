package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andy/rechnungsbuch/internal/db"
	"github.com/andy/rechnungsbuch/internal/domain"
)

const contactColumns = `id, kind, name, company, email, phone, address, iban, notes, is_archived, created_at, updated_at`

// ContactRepo is a SQLite implementation of ContactRepository
type ContactRepo struct {
	db *db.DB
}

// NewContactRepo creates a new ContactRepo
func NewContactRepo(database *db.DB) *ContactRepo {
	return &ContactRepo{db: database}
}

// Create inserts a new contact into the database
func (r *ContactRepo) Create(ctx context.Context, contact *domain.Contact) error {
	if err := contact.Validate(); err != nil {
		return fmt.Errorf("invalid contact: %w", err)
	}

	query := `
		INSERT INTO contacts (` + contactColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		contact.ID,
		string(contact.Kind),
		contact.Name,
		contact.Company,
		contact.Email,
		contact.Phone,
		contact.Address,
		contact.IBAN,
		contact.Notes,
		contact.IsArchived,
		formatTime(contact.CreatedAt),
		formatTime(contact.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	return nil
}

// GetByID retrieves a contact by ID
func (r *ContactRepo) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = ?`

	contact, err := scanContact(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("contact %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return contact, nil
}

// GetByName retrieves a contact by person or company name, case-insensitive
func (r *ContactRepo) GetByName(ctx context.Context, name string) (*domain.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE name = ? COLLATE NOCASE OR company = ? COLLATE NOCASE
		ORDER BY is_archived, name
		LIMIT 1
	`

	contact, err := scanContact(r.db.QueryRowContext(ctx, query, name, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("contact %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return contact, nil
}

// List retrieves all contacts, optionally including archived ones
func (r *ContactRepo) List(ctx context.Context, includeArchived bool) ([]*domain.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE is_archived = 0 OR ? = 1
		ORDER BY COALESCE(NULLIF(name, ''), company) COLLATE NOCASE
	`

	rows, err := r.db.QueryContext(ctx, query, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]*domain.Contact, 0)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}

	return contacts, nil
}

// Update updates an existing contact
func (r *ContactRepo) Update(ctx context.Context, contact *domain.Contact) error {
	if err := contact.Validate(); err != nil {
		return fmt.Errorf("invalid contact: %w", err)
	}

	contact.UpdatedAt = time.Now()

	query := `
		UPDATE contacts
		SET kind = ?, name = ?, company = ?, email = ?, phone = ?, address = ?,
		    iban = ?, notes = ?, is_archived = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		string(contact.Kind),
		contact.Name,
		contact.Company,
		contact.Email,
		contact.Phone,
		contact.Address,
		contact.IBAN,
		contact.Notes,
		contact.IsArchived,
		formatTime(contact.UpdatedAt),
		contact.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	return expectOneRow(result, "contact", contact.ID)
}

// Archive hides a contact from default listings
func (r *ContactRepo) Archive(ctx context.Context, id string) error {
	return r.setArchived(ctx, id, true)
}

// Unarchive restores an archived contact
func (r *ContactRepo) Unarchive(ctx context.Context, id string) error {
	return r.setArchived(ctx, id, false)
}

func (r *ContactRepo) setArchived(ctx context.Context, id string, archived bool) error {
	query := `
		UPDATE contacts
		SET is_archived = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, archived, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to update contact archive flag: %w", err)
	}

	return expectOneRow(result, "contact", id)
}

func scanContact(row rowScanner) (*domain.Contact, error) {
	contact := &domain.Contact{}
	var kind, createdAt, updatedAt string
	var email, phone, address, iban, notes sql.NullString

	err := row.Scan(
		&contact.ID,
		&kind,
		&contact.Name,
		&contact.Company,
		&email,
		&phone,
		&address,
		&iban,
		&notes,
		&contact.IsArchived,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	contact.Kind = domain.ContactKind(kind)
	contact.Email = email.String
	contact.Phone = phone.String
	contact.Address = address.String
	contact.IBAN = iban.String
	contact.Notes = notes.String

	if contact.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if contact.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return contact, nil
}

// expectOneRow turns a zero-row update into ErrNotFound
func expectOneRow(result sql.Result, entity, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return nil
}
