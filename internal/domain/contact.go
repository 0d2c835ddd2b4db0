package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ContactKind string

const (
	ContactCreditor ContactKind = "kreditor"
	ContactDebtor   ContactKind = "debitor"
	ContactOther    ContactKind = "sonstige"
)

// Contact is an address book entry; invoices may reference one as creditor
type Contact struct {
	ID         string
	Kind       ContactKind
	Name       string
	Company    string
	Email      string
	Phone      string
	Address    string
	IBAN       string
	Notes      string
	IsArchived bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewContact creates a new contact with required fields
func NewContact(name string, kind ContactKind) *Contact {
	now := time.Now()
	return &Contact{
		ID:        uuid.NewString(),
		Kind:      kind,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DisplayName prefers the company name when the contact has one
func (c *Contact) DisplayName() string {
	if c.Company != "" && c.Name != "" {
		return c.Name + " (" + c.Company + ")"
	}
	if c.Company != "" {
		return c.Company
	}
	return c.Name
}

// Validate returns an error if the contact is invalid
func (c *Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" && strings.TrimSpace(c.Company) == "" {
		return errors.New("contact name or company is required")
	}
	switch c.Kind {
	case ContactCreditor, ContactDebtor, ContactOther:
	default:
		return NewValidationError("kind", c.Kind, "unknown contact kind")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return NewValidationError("email", c.Email, "is not an email address")
	}
	return nil
}
