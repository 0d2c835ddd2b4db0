package domain

import (
	"errors"
	"testing"
	"time"
)

func checklistFixture() []*ChecklistItem {
	a := NewChecklistItem("Fenster schliessen", "", CadenceDaily, 2)
	b := NewChecklistItem("Heizung pruefen", "Thermostate", CadenceDaily, 1)
	c := NewChecklistItem("Feuerloescher", "", CadenceMonthly, 0)
	d := NewChecklistItem("Alte Pruefung", "", CadenceDaily, 0)
	d.IsActive = false
	return []*ChecklistItem{a, b, c, d}
}

func TestNewInspectionRun_Snapshot(t *testing.T) {
	items := checklistFixture()
	started := time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)

	run := NewInspectionRun(CadenceDaily, items, started)

	if run.Status != RunInProgress {
		t.Fatalf("expected status %s, got %s", RunInProgress, run.Status)
	}
	if len(run.Items) != 2 {
		t.Fatalf("expected 2 run items, got %d", len(run.Items))
	}
	if run.Items[0].Title != "Heizung pruefen" || run.Items[1].Title != "Fenster schliessen" {
		t.Fatalf("items not ordered by sort order: %q, %q", run.Items[0].Title, run.Items[1].Title)
	}
	for _, item := range run.Items {
		if item.RunID != run.ID {
			t.Errorf("item %s has run id %s, want %s", item.ID, item.RunID, run.ID)
		}
	}

	// editing the template must not reach into the run
	items[1].Title = "Heizung entlueften"
	if run.Items[0].Title != "Heizung pruefen" {
		t.Fatalf("run item changed with template: %q", run.Items[0].Title)
	}
}

func TestInspectionRun_CheckAndProgress(t *testing.T) {
	run := NewInspectionRun(CadenceDaily, checklistFixture(), time.Now())
	at := time.Date(2024, 3, 20, 9, 30, 0, 0, time.UTC)

	item, err := run.Check(run.Items[0].ID, "alles ok", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !item.IsDone || item.DoneAt == nil || !item.DoneAt.Equal(at) {
		t.Fatalf("item not checked: %+v", item)
	}
	if item.Remark != "alles ok" {
		t.Fatalf("expected remark to be stored, got %q", item.Remark)
	}

	if done, total := run.Progress(); done != 1 || total != 2 {
		t.Fatalf("expected progress 1/2, got %d/%d", done, total)
	}

	if _, err := run.Uncheck(run.Items[0].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Items[0].IsDone || run.Items[0].DoneAt != nil {
		t.Fatalf("item still checked after uncheck")
	}
	if run.Items[0].Remark != "alles ok" {
		t.Fatalf("uncheck should keep the remark")
	}

	if _, err := run.Check("missing", "", at); !errors.Is(err, ErrRunItemNotFound) {
		t.Fatalf("expected ErrRunItemNotFound, got %v", err)
	}
}

func TestInspectionRun_TerminalStates(t *testing.T) {
	at := time.Date(2024, 3, 20, 18, 0, 0, 0, time.UTC)

	completed := NewInspectionRun(CadenceDaily, checklistFixture(), at.Add(-time.Hour))
	if err := completed.Complete(at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completed.Status != RunCompleted || completed.CompletedAt == nil || !completed.CompletedAt.Equal(at) {
		t.Fatalf("run not completed: %+v", completed)
	}

	aborted := NewInspectionRun(CadenceDaily, checklistFixture(), at.Add(-time.Hour))
	if err := aborted.Abort(at, "Stromausfall"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aborted.Status != RunAborted || aborted.Notes != "Stromausfall" {
		t.Fatalf("run not aborted: %+v", aborted)
	}

	for _, run := range []*InspectionRun{completed, aborted} {
		if !run.IsClosed() {
			t.Fatalf("expected %s run to be closed", run.Status)
		}
		if err := run.Complete(at); !errors.Is(err, ErrRunClosed) {
			t.Errorf("Complete on %s: expected ErrRunClosed, got %v", run.Status, err)
		}
		if err := run.Abort(at, ""); !errors.Is(err, ErrRunClosed) {
			t.Errorf("Abort on %s: expected ErrRunClosed, got %v", run.Status, err)
		}
		if _, err := run.Check(run.Items[0].ID, "", at); !errors.Is(err, ErrRunClosed) {
			t.Errorf("Check on %s: expected ErrRunClosed, got %v", run.Status, err)
		}
		if _, err := run.Uncheck(run.Items[0].ID); !errors.Is(err, ErrRunClosed) {
			t.Errorf("Uncheck on %s: expected ErrRunClosed, got %v", run.Status, err)
		}
	}
}

func TestNewInspectionRun_EmptyChecklist(t *testing.T) {
	run := NewInspectionRun(CadenceWeekly, checklistFixture(), time.Now())
	if len(run.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(run.Items))
	}
	if done, total := run.Progress(); done != 0 || total != 0 {
		t.Fatalf("expected 0/0, got %d/%d", done, total)
	}
}
