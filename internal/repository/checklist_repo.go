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

const checklistColumns = `id, title, description, cadence, is_active, sort_order, created_at, updated_at`

// ChecklistRepo is a SQLite implementation of ChecklistRepository
type ChecklistRepo struct {
	db *db.DB
}

// NewChecklistRepo creates a new ChecklistRepo
func NewChecklistRepo(database *db.DB) *ChecklistRepo {
	return &ChecklistRepo{db: database}
}

// Create inserts a new checklist item
func (r *ChecklistRepo) Create(ctx context.Context, item *domain.ChecklistItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("invalid checklist item: %w", err)
	}

	query := `
		INSERT INTO checklist_items (` + checklistColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.Title,
		item.Description,
		string(item.Cadence),
		item.IsActive,
		item.SortOrder,
		formatTime(item.CreatedAt),
		formatTime(item.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create checklist item: %w", err)
	}

	return nil
}

// GetByID retrieves a checklist item by ID
func (r *ChecklistRepo) GetByID(ctx context.Context, id string) (*domain.ChecklistItem, error) {
	query := `SELECT ` + checklistColumns + ` FROM checklist_items WHERE id = ?`

	item, err := scanChecklistItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("checklist item %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get checklist item: %w", err)
	}

	return item, nil
}

// List retrieves checklist items, optionally for one cadence only
func (r *ChecklistRepo) List(ctx context.Context, cadence *domain.Cadence, includeInactive bool) ([]*domain.ChecklistItem, error) {
	query := `SELECT ` + checklistColumns + ` FROM checklist_items WHERE 1=1`
	args := make([]interface{}, 0)

	if cadence != nil {
		query += " AND cadence = ?"
		args = append(args, string(*cadence))
	}

	if !includeInactive {
		query += " AND is_active = 1"
	}

	query += " ORDER BY cadence, sort_order, title"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list checklist items: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.ChecklistItem, 0)
	for rows.Next() {
		item, err := scanChecklistItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checklist item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checklist items: %w", err)
	}

	return items, nil
}

// Update updates an existing checklist item. Runs already started keep their
// own copy of the item.
func (r *ChecklistRepo) Update(ctx context.Context, item *domain.ChecklistItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("invalid checklist item: %w", err)
	}

	item.UpdatedAt = time.Now()

	query := `
		UPDATE checklist_items
		SET title = ?, description = ?, cadence = ?, is_active = ?, sort_order = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		item.Title,
		item.Description,
		string(item.Cadence),
		item.IsActive,
		item.SortOrder,
		formatTime(item.UpdatedAt),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update checklist item: %w", err)
	}

	return expectOneRow(result, "checklist item", item.ID)
}

// Deactivate excludes an item from future runs
func (r *ChecklistRepo) Deactivate(ctx context.Context, id string) error {
	query := `
		UPDATE checklist_items
		SET is_active = 0, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate checklist item: %w", err)
	}

	return expectOneRow(result, "checklist item", id)
}

func scanChecklistItem(row rowScanner) (*domain.ChecklistItem, error) {
	item := &domain.ChecklistItem{}
	var cadence, createdAt, updatedAt string
	var description sql.NullString

	err := row.Scan(
		&item.ID,
		&item.Title,
		&description,
		&cadence,
		&item.IsActive,
		&item.SortOrder,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Cadence = domain.Cadence(cadence)
	item.Description = description.String

	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return item, nil
}
