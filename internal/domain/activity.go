package domain

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityEmail           ActivityType = "email"
	ActivityCall            ActivityType = "telefonat"
	ActivityComment         ActivityType = "kommentar"
	ActivityFile            ActivityType = "datei"
	ActivityPayment         ActivityType = "zahlung"
	ActivityStatusChange    ActivityType = "status_aenderung"
	ActivityDunning         ActivityType = "mahnung"
	ActivityInstallmentPlan ActivityType = "rate_anpassung"
)

// IsValid reports whether t is a known activity type
func (t ActivityType) IsValid() bool {
	switch t {
	case ActivityEmail, ActivityCall, ActivityComment, ActivityFile,
		ActivityPayment, ActivityStatusChange, ActivityDunning, ActivityInstallmentPlan:
		return true
	}
	return false
}

// Activity is an immutable audit log entry attached to one invoice
type Activity struct {
	ID          string
	InvoiceID   string
	Type        ActivityType
	Title       string
	Description string
	CreatedAt   time.Time
}

// NewActivity creates a log entry for an invoice
func NewActivity(invoiceID string, typ ActivityType, title, description string) *Activity {
	return &Activity{
		ID:          uuid.NewString(),
		InvoiceID:   invoiceID,
		Type:        typ,
		Title:       title,
		Description: description,
		CreatedAt:   time.Now(),
	}
}

// Validate returns an error if the activity is invalid
func (a *Activity) Validate() error {
	if a.InvoiceID == "" {
		return NewValidationError("invoice_id", a.InvoiceID, "is required")
	}
	if !a.Type.IsValid() {
		return NewValidationError("type", a.Type, "unknown activity type")
	}
	if a.Title == "" {
		return NewValidationError("title", a.Title, "is required")
	}
	return nil
}
