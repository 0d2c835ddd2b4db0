package service

import (
	"context"
	"testing"
	"time"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInspectionService(now *time.Time) (*inspectionService, *mockChecklistRepo, *mockInspectionRepo) {
	checklist := &mockChecklistRepo{items: make(map[string]*domain.ChecklistItem)}
	runs := &mockInspectionRepo{runs: make(map[string]*domain.InspectionRun)}
	svc := &inspectionService{
		checklistRepo:  checklist,
		inspectionRepo: runs,
		thresholds:     DefaultThresholds(),
		now:            func() time.Time { return *now },
		log:            zerolog.Nop(),
	}
	return svc, checklist, runs
}

func TestInspectionService_AddItemOrder(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	svc, _, _ := newTestInspectionService(&now)

	first, err := svc.AddItem(ctx, "Heizung prüfen", "", domain.CadenceWeekly, nil)
	require.NoError(t, err)
	second, err := svc.AddItem(ctx, "Fenster schließen", "", domain.CadenceWeekly, nil)
	require.NoError(t, err)
	other, err := svc.AddItem(ctx, "Briefkasten leeren", "", domain.CadenceDaily, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, first.SortOrder)
	assert.Equal(t, 1, second.SortOrder)
	assert.Equal(t, 0, other.SortOrder)

	_, err = svc.AddItem(ctx, "x", "", domain.Cadence("jaehrlich"), nil)
	assert.Error(t, err)
}

func TestInspectionService_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	svc, _, _ := newTestInspectionService(&now)

	a, err := svc.AddItem(ctx, "Zählerstand ablesen", "", domain.CadenceMonthly, nil)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "Rauchmelder testen", "", domain.CadenceMonthly, nil)
	require.NoError(t, err)

	run, err := svc.StartRun(ctx, domain.CadenceMonthly)
	require.NoError(t, err)
	require.Len(t, run.Items, 2)
	assert.Equal(t, a.ID, run.Items[0].ChecklistItemID)

	_, err = svc.StartRun(ctx, domain.CadenceMonthly)
	assert.ErrorIs(t, err, ErrRunAlreadyActive)

	// template edits do not reach into the running snapshot
	renamed := "Zählerstände ablesen"
	_, err = svc.EditItem(ctx, a.ID, ChecklistEdit{Title: &renamed})
	require.NoError(t, err)

	item, err := svc.CheckItem(ctx, run.ID, run.Items[0].ID, "12345 kWh")
	require.NoError(t, err)
	assert.True(t, item.IsDone)
	assert.Equal(t, "12345 kWh", item.Remark)

	stored, err := svc.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zählerstand ablesen", stored.Items[0].Title)
	done, total := stored.Progress()
	assert.Equal(t, 1, done)
	assert.Equal(t, 2, total)

	now = fixedNow.Add(2 * time.Hour)
	completed, err := svc.CompleteRun(ctx, run.ID, "alles in Ordnung")
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	_, err = svc.CheckItem(ctx, run.ID, run.Items[1].ID, "")
	assert.ErrorIs(t, err, domain.ErrRunClosed)

	active, err := svc.ActiveRun(ctx, domain.CadenceMonthly)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestInspectionService_StartRunEmptyChecklist(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	svc, _, _ := newTestInspectionService(&now)

	item, err := svc.AddItem(ctx, "Pflanzen gießen", "", domain.CadenceDaily, nil)
	require.NoError(t, err)
	require.NoError(t, svc.DeactivateItem(ctx, item.ID))

	_, err = svc.StartRun(ctx, domain.CadenceDaily)
	assert.ErrorIs(t, err, ErrEmptyChecklist)
}

func TestInspectionService_AbortDoesNotResetOverdue(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	svc, _, _ := newTestInspectionService(&now)

	_, err := svc.AddItem(ctx, "Tür abschließen", "", domain.CadenceDaily, nil)
	require.NoError(t, err)

	run, err := svc.StartRun(ctx, domain.CadenceDaily)
	require.NoError(t, err)
	aborted, err := svc.AbortRun(ctx, run.ID, "krank")
	require.NoError(t, err)
	assert.Equal(t, domain.RunAborted, aborted.Status)

	status, err := svc.Overdue(ctx, domain.CadenceDaily)
	require.NoError(t, err)
	assert.True(t, status.NeverRun)
	assert.True(t, status.IsOverdue)
	assert.Equal(t, 1, status.DaysOverdue)
}

func TestInspectionService_OverdueAll(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	svc, _, runs := newTestInspectionService(&now)

	weeklyDone := fixedNow.AddDate(0, 0, -10)
	runs.runs["w-1"] = &domain.InspectionRun{
		ID:          "w-1",
		Cadence:     domain.CadenceWeekly,
		Status:      domain.RunCompleted,
		StartedAt:   weeklyDone.Add(-time.Hour),
		CompletedAt: &weeklyDone,
	}
	monthlyDone := fixedNow.AddDate(0, 0, -3)
	runs.runs["m-1"] = &domain.InspectionRun{
		ID:          "m-1",
		Cadence:     domain.CadenceMonthly,
		Status:      domain.RunCompleted,
		StartedAt:   monthlyDone.Add(-time.Hour),
		CompletedAt: &monthlyDone,
	}

	statuses, err := svc.OverdueAll(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	daily, weekly, monthly := statuses[0], statuses[1], statuses[2]
	assert.Equal(t, domain.CadenceDaily, daily.Cadence)
	assert.True(t, daily.NeverRun)

	assert.True(t, weekly.IsOverdue)
	assert.Equal(t, 10, weekly.DaysSince)
	assert.Equal(t, 3, weekly.DaysOverdue)

	assert.False(t, monthly.IsOverdue)
	assert.Equal(t, 3, monthly.DaysSince)
	assert.Equal(t, 30, monthly.ThresholdDays)
}

func TestNewInspectionService_MergesThresholds(t *testing.T) {
	svc := NewInspectionService(nil, nil, Thresholds{domain.CadenceWeekly: 14}).(*inspectionService)

	assert.Equal(t, 1, svc.thresholds[domain.CadenceDaily])
	assert.Equal(t, 14, svc.thresholds[domain.CadenceWeekly])
	assert.Equal(t, 30, svc.thresholds[domain.CadenceMonthly])
}
