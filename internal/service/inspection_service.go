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
)

var (
	ErrRunAlreadyActive = errors.New("an inspection run is already in progress for this cadence")
	ErrEmptyChecklist   = errors.New("no active checklist items for this cadence")
)

// Thresholds maps each cadence to the days after which it counts as overdue
type Thresholds map[domain.Cadence]int

// DefaultThresholds returns 1, 7 and 30 days
func DefaultThresholds() Thresholds {
	return Thresholds{
		domain.CadenceDaily:   1,
		domain.CadenceWeekly:  7,
		domain.CadenceMonthly: 30,
	}
}

// ChecklistEdit holds optional item changes; nil fields are left untouched
type ChecklistEdit struct {
	Title       *string
	Description *string
	SortOrder   *int
	Active      *bool
}

// TaskStatus is the overdue state of one cadence
type TaskStatus struct {
	Cadence         domain.Cadence
	ThresholdDays   int
	LastCompletedAt *time.Time
	ActiveRun       *domain.InspectionRun
	obligation.TaskOverdue
}

// InspectionService manages checklist templates and inspection runs
type InspectionService interface {
	AddItem(ctx context.Context, title, description string, cadence domain.Cadence, sortOrder *int) (*domain.ChecklistItem, error)
	EditItem(ctx context.Context, id string, edit ChecklistEdit) (*domain.ChecklistItem, error)
	DeactivateItem(ctx context.Context, id string) error
	ListItems(ctx context.Context, cadence *domain.Cadence, includeInactive bool) ([]*domain.ChecklistItem, error)

	// StartRun snapshots the cadence's active items into a new run
	StartRun(ctx context.Context, cadence domain.Cadence) (*domain.InspectionRun, error)
	GetRun(ctx context.Context, id string) (*domain.InspectionRun, error)
	ActiveRun(ctx context.Context, cadence domain.Cadence) (*domain.InspectionRun, error)
	History(ctx context.Context, cadence domain.Cadence, limit int) ([]*domain.InspectionRun, error)

	CheckItem(ctx context.Context, runID, itemID, remark string) (*domain.RunItem, error)
	UncheckItem(ctx context.Context, runID, itemID string) (*domain.RunItem, error)
	CompleteRun(ctx context.Context, runID, notes string) (*domain.InspectionRun, error)
	AbortRun(ctx context.Context, runID, reason string) (*domain.InspectionRun, error)

	// Overdue derives the cadence's overdue state from its last completed run
	Overdue(ctx context.Context, cadence domain.Cadence) (*TaskStatus, error)
	OverdueAll(ctx context.Context) ([]*TaskStatus, error)
}

type inspectionService struct {
	checklistRepo  repository.ChecklistRepository
	inspectionRepo repository.InspectionRepository
	thresholds     Thresholds
	now            func() time.Time
	log            zerolog.Logger
}

// NewInspectionService creates a new inspection service
func NewInspectionService(
	checklistRepo repository.ChecklistRepository,
	inspectionRepo repository.InspectionRepository,
	thresholds Thresholds,
) InspectionService {
	merged := DefaultThresholds()
	for c, days := range thresholds {
		merged[c] = days
	}
	return &inspectionService{
		checklistRepo:  checklistRepo,
		inspectionRepo: inspectionRepo,
		thresholds:     merged,
		now:            time.Now,
		log:            logger.WithComponent("inspection_service"),
	}
}

func (s *inspectionService) AddItem(
	ctx context.Context,
	title, description string,
	cadence domain.Cadence,
	sortOrder *int,
) (*domain.ChecklistItem, error) {
	order := 0
	if sortOrder != nil {
		order = *sortOrder
	} else {
		existing, err := s.checklistRepo.List(ctx, &cadence, true)
		if err != nil {
			return nil, err
		}
		for _, item := range existing {
			if item.SortOrder >= order {
				order = item.SortOrder + 1
			}
		}
	}

	item := domain.NewChecklistItem(title, description, cadence, order)
	if err := item.Validate(); err != nil {
		return nil, err
	}

	if err := s.checklistRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.log.Info().Str("item", item.ID).Str("cadence", string(cadence)).Msg("checklist item added")
	return item, nil
}

func (s *inspectionService) EditItem(ctx context.Context, id string, edit ChecklistEdit) (*domain.ChecklistItem, error) {
	item, err := s.checklistRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if edit.Title != nil {
		item.Title = strings.TrimSpace(*edit.Title)
	}
	if edit.Description != nil {
		item.Description = strings.TrimSpace(*edit.Description)
	}
	if edit.SortOrder != nil {
		item.SortOrder = *edit.SortOrder
	}
	if edit.Active != nil {
		item.IsActive = *edit.Active
	}

	if err := s.checklistRepo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *inspectionService) DeactivateItem(ctx context.Context, id string) error {
	if err := s.checklistRepo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("item", id).Msg("checklist item deactivated")
	return nil
}

func (s *inspectionService) ListItems(ctx context.Context, cadence *domain.Cadence, includeInactive bool) ([]*domain.ChecklistItem, error) {
	return s.checklistRepo.List(ctx, cadence, includeInactive)
}

func (s *inspectionService) StartRun(ctx context.Context, cadence domain.Cadence) (*domain.InspectionRun, error) {
	if !cadence.IsValid() {
		return nil, domain.NewValidationError("cadence", cadence, "unknown cadence")
	}

	active, err := s.inspectionRepo.GetActive(ctx, cadence)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, fmt.Errorf("%w: %s", ErrRunAlreadyActive, active.ID)
	}

	items, err := s.checklistRepo.List(ctx, &cadence, false)
	if err != nil {
		return nil, err
	}

	run := domain.NewInspectionRun(cadence, items, s.now())
	if len(run.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyChecklist, cadence)
	}

	if err := s.inspectionRepo.Create(ctx, run); err != nil {
		s.log.Error().Err(err).Str("cadence", string(cadence)).Msg("failed to start inspection run")
		return nil, err
	}

	s.log.Info().
		Str("run", run.ID).
		Str("cadence", string(cadence)).
		Int("items", len(run.Items)).
		Msg("inspection run started")

	return run, nil
}

func (s *inspectionService) GetRun(ctx context.Context, id string) (*domain.InspectionRun, error) {
	return s.inspectionRepo.GetByID(ctx, id)
}

func (s *inspectionService) ActiveRun(ctx context.Context, cadence domain.Cadence) (*domain.InspectionRun, error) {
	return s.inspectionRepo.GetActive(ctx, cadence)
}

func (s *inspectionService) History(ctx context.Context, cadence domain.Cadence, limit int) ([]*domain.InspectionRun, error) {
	return s.inspectionRepo.ListByCadence(ctx, cadence, limit)
}

func (s *inspectionService) CheckItem(ctx context.Context, runID, itemID, remark string) (*domain.RunItem, error) {
	run, err := s.inspectionRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	item, err := run.Check(itemID, strings.TrimSpace(remark), s.now())
	if err != nil {
		return nil, err
	}

	if err := s.inspectionRepo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *inspectionService) UncheckItem(ctx context.Context, runID, itemID string) (*domain.RunItem, error) {
	run, err := s.inspectionRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	item, err := run.Uncheck(itemID)
	if err != nil {
		return nil, err
	}

	if err := s.inspectionRepo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *inspectionService) CompleteRun(ctx context.Context, runID, notes string) (*domain.InspectionRun, error) {
	run, err := s.inspectionRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	if err := run.Complete(s.now()); err != nil {
		return nil, err
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		run.Notes = notes
	}

	if err := s.inspectionRepo.UpdateRun(ctx, run); err != nil {
		return nil, err
	}

	done, total := run.Progress()
	s.log.Info().
		Str("run", run.ID).
		Str("cadence", string(run.Cadence)).
		Int("done", done).
		Int("total", total).
		Msg("inspection run completed")

	return run, nil
}

func (s *inspectionService) AbortRun(ctx context.Context, runID, reason string) (*domain.InspectionRun, error) {
	run, err := s.inspectionRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	if err := run.Abort(s.now(), strings.TrimSpace(reason)); err != nil {
		return nil, err
	}

	if err := s.inspectionRepo.UpdateRun(ctx, run); err != nil {
		return nil, err
	}

	s.log.Info().Str("run", run.ID).Str("cadence", string(run.Cadence)).Msg("inspection run aborted")
	return run, nil
}

func (s *inspectionService) Overdue(ctx context.Context, cadence domain.Cadence) (*TaskStatus, error) {
	threshold, ok := s.thresholds[cadence]
	if !ok {
		return nil, domain.NewValidationError("cadence", cadence, "unknown cadence")
	}

	last, err := s.inspectionRepo.LastCompleted(ctx, cadence)
	if err != nil {
		return nil, err
	}

	active, err := s.inspectionRepo.GetActive(ctx, cadence)
	if err != nil {
		return nil, err
	}

	return &TaskStatus{
		Cadence:         cadence,
		ThresholdDays:   threshold,
		LastCompletedAt: last,
		ActiveRun:       active,
		TaskOverdue:     obligation.DeriveTaskOverdue(last, threshold, s.now()),
	}, nil
}

func (s *inspectionService) OverdueAll(ctx context.Context) ([]*TaskStatus, error) {
	statuses := make([]*TaskStatus, 0, len(domain.AllCadences))
	for _, cadence := range domain.AllCadences {
		status, err := s.Overdue(ctx, cadence)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
