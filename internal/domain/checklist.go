package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Cadence is the fixed rhythm of a facility inspection category
type Cadence string

const (
	CadenceDaily   Cadence = "taeglich"
	CadenceWeekly  Cadence = "woechentlich"
	CadenceMonthly Cadence = "monatlich"
)

// AllCadences lists the cadences in display order
var AllCadences = []Cadence{CadenceDaily, CadenceWeekly, CadenceMonthly}

// IsValid reports whether c is a known cadence
func (c Cadence) IsValid() bool {
	switch c {
	case CadenceDaily, CadenceWeekly, CadenceMonthly:
		return true
	}
	return false
}

// ChecklistItem is a template entry copied into every new inspection run.
// Items are deactivated, never deleted.
type ChecklistItem struct {
	ID          string
	Title       string
	Description string
	Cadence     Cadence
	IsActive    bool
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewChecklistItem creates an active checklist item
func NewChecklistItem(title, description string, cadence Cadence, sortOrder int) *ChecklistItem {
	now := time.Now()
	return &ChecklistItem{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Cadence:     cadence,
		IsActive:    true,
		SortOrder:   sortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate returns an error if the item is invalid
func (c *ChecklistItem) Validate() error {
	if c.Title == "" {
		return NewValidationError("title", c.Title, "is required")
	}
	if !c.Cadence.IsValid() {
		return NewValidationError("cadence", c.Cadence, "unknown cadence")
	}
	if c.SortOrder < 0 {
		return NewValidationError("sort_order", c.SortOrder, "cannot be negative")
	}
	return nil
}
