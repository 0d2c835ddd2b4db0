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

const (
	runColumns     = `id, cadence, status, started_at, completed_at, notes`
	runItemColumns = `id, run_id, checklist_item_id, title, description, sort_order, is_done, done_at, remark`
)

// InspectionRepo is a SQLite implementation of InspectionRepository
type InspectionRepo struct {
	db *db.DB
}

// NewInspectionRepo creates a new InspectionRepo
func NewInspectionRepo(database *db.DB) *InspectionRepo {
	return &InspectionRepo{db: database}
}

// Create stores a run together with its item snapshot
func (r *InspectionRepo) Create(ctx context.Context, run *domain.InspectionRun) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO inspection_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		string(run.Cadence),
		string(run.Status),
		formatTime(run.StartedAt),
		nullTime(run.CompletedAt),
		run.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to create inspection run: %w", err)
	}

	for _, item := range run.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO inspection_run_items (`+runItemColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			item.ID,
			run.ID,
			item.ChecklistItemID,
			item.Title,
			item.Description,
			item.SortOrder,
			item.IsDone,
			nullTime(item.DoneAt),
			item.Remark,
		)
		if err != nil {
			return fmt.Errorf("failed to create inspection run item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit inspection run: %w", err)
	}

	return nil
}

// GetByID retrieves a run with its items
func (r *InspectionRepo) GetByID(ctx context.Context, id string) (*domain.InspectionRun, error) {
	query := `SELECT ` + runColumns + ` FROM inspection_runs WHERE id = ?`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("inspection run %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get inspection run: %w", err)
	}

	if run.Items, err = r.listItems(ctx, run.ID); err != nil {
		return nil, err
	}

	return run, nil
}

// ListByCadence returns a cadence's runs newest first, without items.
// A limit of zero returns all runs.
func (r *InspectionRepo) ListByCadence(ctx context.Context, cadence domain.Cadence, limit int) ([]*domain.InspectionRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM inspection_runs
		WHERE cadence = ?
		ORDER BY started_at DESC
	`
	args := []interface{}{string(cadence)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list inspection runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*domain.InspectionRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inspection run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inspection runs: %w", err)
	}

	return runs, nil
}

// GetActive returns the in-progress run of a cadence, or nil
func (r *InspectionRepo) GetActive(ctx context.Context, cadence domain.Cadence) (*domain.InspectionRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM inspection_runs
		WHERE cadence = ? AND status = ?
		ORDER BY started_at DESC
		LIMIT 1
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, string(cadence), string(domain.RunInProgress)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active inspection run: %w", err)
	}

	if run.Items, err = r.listItems(ctx, run.ID); err != nil {
		return nil, err
	}

	return run, nil
}

// LastCompleted returns the completion time of the newest completed run.
// Aborted runs do not count.
func (r *InspectionRepo) LastCompleted(ctx context.Context, cadence domain.Cadence) (*time.Time, error) {
	query := `
		SELECT completed_at
		FROM inspection_runs
		WHERE cadence = ? AND status = ? AND completed_at IS NOT NULL
		ORDER BY completed_at DESC
		LIMIT 1
	`

	var completedAt sql.NullString
	err := r.db.QueryRowContext(ctx, query, string(cadence), string(domain.RunCompleted)).Scan(&completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last completed run: %w", err)
	}

	return scanNullTime(completedAt, "completed_at")
}

// UpdateRun writes the run status, completion time and notes
func (r *InspectionRepo) UpdateRun(ctx context.Context, run *domain.InspectionRun) error {
	query := `
		UPDATE inspection_runs
		SET status = ?, completed_at = ?, notes = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		string(run.Status),
		nullTime(run.CompletedAt),
		run.Notes,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update inspection run: %w", err)
	}

	return expectOneRow(result, "inspection run", run.ID)
}

// UpdateItem writes an item's done state and remark
func (r *InspectionRepo) UpdateItem(ctx context.Context, item *domain.RunItem) error {
	query := `
		UPDATE inspection_run_items
		SET is_done = ?, done_at = ?, remark = ?
		WHERE id = ? AND run_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		item.IsDone,
		nullTime(item.DoneAt),
		item.Remark,
		item.ID,
		item.RunID,
	)
	if err != nil {
		return fmt.Errorf("failed to update inspection run item: %w", err)
	}

	return expectOneRow(result, "inspection run item", item.ID)
}

func (r *InspectionRepo) listItems(ctx context.Context, runID string) ([]*domain.RunItem, error) {
	query := `
		SELECT ` + runItemColumns + `
		FROM inspection_run_items
		WHERE run_id = ?
		ORDER BY sort_order, title
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inspection run items: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.RunItem, 0)
	for rows.Next() {
		item := &domain.RunItem{}
		var description, doneAt, remark sql.NullString

		err := rows.Scan(
			&item.ID,
			&item.RunID,
			&item.ChecklistItemID,
			&item.Title,
			&description,
			&item.SortOrder,
			&item.IsDone,
			&doneAt,
			&remark,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inspection run item: %w", err)
		}

		item.Description = description.String
		item.Remark = remark.String
		if item.DoneAt, err = scanNullTime(doneAt, "done_at"); err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inspection run items: %w", err)
	}

	return items, nil
}

func scanRun(row rowScanner) (*domain.InspectionRun, error) {
	run := &domain.InspectionRun{Items: make([]*domain.RunItem, 0)}
	var cadence, status, startedAt string
	var completedAt, notes sql.NullString

	if err := row.Scan(&run.ID, &cadence, &status, &startedAt, &completedAt, &notes); err != nil {
		return nil, err
	}

	run.Cadence = domain.Cadence(cadence)
	run.Status = domain.RunStatus(status)
	run.Notes = notes.String

	var err error
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if run.CompletedAt, err = scanNullTime(completedAt, "completed_at"); err != nil {
		return nil, err
	}

	return run, nil
}
