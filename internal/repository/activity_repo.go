package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andy/rechnungsbuch/internal/db"
	"github.com/andy/rechnungsbuch/internal/domain"
)

// ActivityRepo is a SQLite implementation of ActivityRepository
type ActivityRepo struct {
	db *db.DB
}

// NewActivityRepo creates a new ActivityRepo
func NewActivityRepo(database *db.DB) *ActivityRepo {
	return &ActivityRepo{db: database}
}

// Create appends an activity. Activities are never updated.
func (r *ActivityRepo) Create(ctx context.Context, activity *domain.Activity) error {
	if err := activity.Validate(); err != nil {
		return fmt.Errorf("invalid activity: %w", err)
	}

	query := `
		INSERT INTO activities (id, invoice_id, type, title, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		activity.ID,
		activity.InvoiceID,
		string(activity.Type),
		activity.Title,
		activity.Description,
		formatTime(activity.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	return nil
}

// ListByInvoice returns an invoice's activities, newest first
func (r *ActivityRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]*domain.Activity, error) {
	query := `
		SELECT id, invoice_id, type, title, description, created_at
		FROM activities
		WHERE invoice_id = ?
		ORDER BY created_at DESC, rowid DESC
	`

	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := make([]*domain.Activity, 0)
	for rows.Next() {
		a := &domain.Activity{}
		var typ, createdAt string
		var description sql.NullString

		if err := rows.Scan(&a.ID, &a.InvoiceID, &typ, &a.Title, &description, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}

		a.Type = domain.ActivityType(typ)
		a.Description = description.String
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		activities = append(activities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return activities, nil
}
