package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunInProgress RunStatus = "in_bearbeitung"
	RunCompleted  RunStatus = "abgeschlossen"
	RunAborted    RunStatus = "abgebrochen"
)

var (
	ErrRunClosed       = errors.New("inspection run is already closed")
	ErrRunItemNotFound = errors.New("inspection run item not found")
)

// RunItem is a checklist item copied by value into a run
type RunItem struct {
	ID              string
	RunID           string
	ChecklistItemID string
	Title           string
	Description     string
	SortOrder       int
	IsDone          bool
	DoneAt          *time.Time
	Remark          string
}

// InspectionRun ("Begehung") is one timed pass over a cadence's checklist
type InspectionRun struct {
	ID          string
	Cadence     Cadence
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Notes       string
	Items       []*RunItem
}

// NewInspectionRun snapshots the active items of the given cadence. Later
// edits to the checklist do not reach into the run.
func NewInspectionRun(cadence Cadence, items []*ChecklistItem, startedAt time.Time) *InspectionRun {
	run := &InspectionRun{
		ID:        uuid.NewString(),
		Cadence:   cadence,
		Status:    RunInProgress,
		StartedAt: startedAt,
		Items:     make([]*RunItem, 0, len(items)),
	}

	active := make([]*ChecklistItem, 0, len(items))
	for _, item := range items {
		if item.IsActive && item.Cadence == cadence {
			active = append(active, item)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].SortOrder < active[j].SortOrder
	})

	for _, item := range active {
		run.Items = append(run.Items, &RunItem{
			ID:              uuid.NewString(),
			RunID:           run.ID,
			ChecklistItemID: item.ID,
			Title:           item.Title,
			Description:     item.Description,
			SortOrder:       item.SortOrder,
		})
	}
	return run
}

// IsClosed returns true for completed and aborted runs
func (r *InspectionRun) IsClosed() bool {
	return r.Status == RunCompleted || r.Status == RunAborted
}

// Item looks up a run item by id
func (r *InspectionRun) Item(id string) (*RunItem, error) {
	for _, item := range r.Items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRunItemNotFound, id)
}

// Check marks an item done with an optional remark
func (r *InspectionRun) Check(itemID, remark string, at time.Time) (*RunItem, error) {
	if r.IsClosed() {
		return nil, ErrRunClosed
	}
	item, err := r.Item(itemID)
	if err != nil {
		return nil, err
	}
	item.IsDone = true
	item.DoneAt = &at
	if remark != "" {
		item.Remark = remark
	}
	return item, nil
}

// Uncheck clears an item's completion
func (r *InspectionRun) Uncheck(itemID string) (*RunItem, error) {
	if r.IsClosed() {
		return nil, ErrRunClosed
	}
	item, err := r.Item(itemID)
	if err != nil {
		return nil, err
	}
	item.IsDone = false
	item.DoneAt = nil
	return item, nil
}

// Progress returns done and total item counts
func (r *InspectionRun) Progress() (done, total int) {
	for _, item := range r.Items {
		if item.IsDone {
			done++
		}
	}
	return done, len(r.Items)
}

// Complete moves the run to its terminal completed state
func (r *InspectionRun) Complete(at time.Time) error {
	if r.IsClosed() {
		return ErrRunClosed
	}
	r.Status = RunCompleted
	r.CompletedAt = &at
	return nil
}

// Abort moves the run to its terminal aborted state
func (r *InspectionRun) Abort(at time.Time, reason string) error {
	if r.IsClosed() {
		return ErrRunClosed
	}
	r.Status = RunAborted
	r.CompletedAt = &at
	if reason != "" {
		r.Notes = reason
	}
	return nil
}
