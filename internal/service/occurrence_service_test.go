package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"carehub/internal/logger"
	"carehub/internal/model"
	"carehub/internal/recurrence"
	"carehub/internal/repository"
	"carehub/internal/service"
)

type testEnv struct {
	store       *repository.TaskRepository
	occurrences *service.OccurrenceService
	series      *service.SeriesService
	tasks       *service.TaskService
	familyID    uuid.UUID
	actorID     uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "carehub_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := logger.NewNop()
	store := repository.NewTaskRepository(db)
	return &testEnv{
		store:       store,
		occurrences: service.NewOccurrenceService(store, log),
		series:      service.NewSeriesService(store, log),
		tasks:       service.NewTaskService(store, repository.NewCategoryRepository(db), log),
		familyID:    uuid.New(),
		actorID:     uuid.New(),
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// newWeeklyTemplate creates a weekly series anchored on the given day.
func (e *testEnv) newWeeklyTemplate(t *testing.T, anchor time.Time) *model.Task {
	t.Helper()
	tpl, err := e.tasks.CreateTask(context.Background(), service.TaskInput{
		FamilyID:    e.familyID,
		Title:       "physio exercises",
		Description: "morning routine",
		DueDate:     &anchor,
		Priority:    model.PriorityHigh,
		Recurrence:  &recurrence.Pattern{Type: model.RecurrenceWeekly},
		CreatedByID: e.actorID,
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	return tpl
}

func TestListOccurrencesMergesVirtualAndPhysical(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tpl := env.newWeeklyTemplate(t, day(2024, 1, 1))

	materialized, err := env.occurrences.Materialize(ctx, recurrence.EncodeID(tpl.ID, day(2024, 1, 8)), env.actorID)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	occs, err := env.occurrences.ListOccurrences(ctx, env.familyID, day(2024, 1, 1), day(2024, 1, 31), true)
	if err != nil {
		t.Fatalf("list occurrences: %v", err)
	}
	if len(occs) != 5 {
		t.Fatalf("expected 5 occurrences for January, got %d", len(occs))
	}

	var physicalOn8, virtualOn8 int
	for _, occ := range occs {
		due := occ.DueDate()
		if due == nil || !recurrence.DayOf(*due).Equal(day(2024, 1, 8)) {
			continue
		}
		if occ.IsVirtual() {
			virtualOn8++
		} else {
			physicalOn8++
			if occ.Physical.ID != materialized.ID {
				t.Fatalf("expected the materialized row on 01-08, got %s", occ.Physical.ID)
			}
		}
	}
	if physicalOn8 != 1 || virtualOn8 != 0 {
		t.Fatalf("expected exactly one physical and no virtual entry on 01-08, got %d/%d", physicalOn8, virtualOn8)
	}
}

func TestListOccurrencesWithoutVirtual(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tpl := env.newWeeklyTemplate(t, day(2024, 1, 1))

	if _, err := env.occurrences.Materialize(ctx, recurrence.EncodeID(tpl.ID, day(2024, 1, 8)), env.actorID); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	occs, err := env.occurrences.ListOccurrences(ctx, env.familyID, day(2024, 1, 1), day(2024, 1, 31), false)
	if err != nil {
		t.Fatalf("list occurrences: %v", err)
	}
	if len(occs) != 1 {
		t.Fatalf("expected only the physical row, got %d entries", len(occs))
	}
	if occs[0].IsVirtual() {
		t.Fatal("expected a physical occurrence")
	}
}

func TestMaterializeIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tpl := env.newWeeklyTemplate(t, day(2024, 1, 1))
	id := recurrence.EncodeID(tpl.ID, day(2024, 1, 15))

	first, err := env.occurrences.Materialize(ctx, id, env.actorID)
	if err != nil {
		t.Fatalf("first materialize: %v", err)
	}
	second, err := env.occurrences.Materialize(ctx, id, env.actorID)
	if err != nil {
		t.Fatalf("second materialize: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same row, got %s and %s", first.ID, second.ID)
	}

	rows, err := env.store.FindExistingMaterialized(ctx, tpl.ID, []time.Time{day(2024, 1, 15)})
	if err != nil {
		t.Fatalf("find materialized: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly one physical row, got %d", len(rows))
	}
}

func TestMaterializeCopiesTemplateAttributes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tpl := env.newWeeklyTemplate(t, day(2024, 1, 1))

	task, err := env.occurrences.Materialize(ctx, recurrence.EncodeID(tpl.ID, day(2024, 1, 22)), env.actorID)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if task.Title != tpl.Title || task.Description != tpl.Description || task.Priority != tpl.Priority {
		t.Fatalf("expected template attributes to be copied, got %+v", task)
	}
	if task.IsTemplate {
		t.Fatal("an instance must never be a template")
	}
	if task.ParentTemplateID == nil || *task.ParentTemplateID != tpl.ID {
		t.Fatalf("expected parent template %s, got %v", tpl.ID, task.ParentTemplateID)
	}
	if task.Status != model.StatusPending {
		t.Fatalf("expected pending instance, got %s", task.Status)
	}
	if task.DueDate == nil || !task.DueDate.Equal(day(2024, 1, 22)) {
		t.Fatalf("expected due date 2024-01-22, got %v", task.DueDate)
	}

	logs, err := env.store.ListLogs(ctx, task.ID)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 1 || logs[0].Notes != "materialized from recurrence" {
		t.Fatalf("expected one materialization log entry, got %+v", logs)
	}
}

func TestMaterializePhysicalIDPassesThrough(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tpl := env.newWeeklyTemplate(t, day(2024, 1, 1))

	created, err := env.occurrences.Materialize(ctx, recurrence.EncodeID(tpl.ID, day(2024, 1, 8)), env.actorID)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	again, err := env.occurrences.Materialize(ctx, created.ID.String(), env.actorID)
	if err != nil {
		t.Fatalf("materialize physical id: %v", err)
	}
	if again.ID != created.ID {
		t.Fatalf("expected pass-through of the existing row, got %s", again.ID)
	}
}

func TestCompleteVirtualOccurrenceMaterializesFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tpl := env.newWeeklyTemplate(t, day(2024, 1, 1))
	id := recurrence.EncodeID(tpl.ID, day(2024, 1, 8))

	task, err := env.occurrences.Complete(ctx, id, env.actorID, "gave the morning dose")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if task.Status != model.StatusCompleted {
		t.Fatalf("expected completed, got %s", task.Status)
	}

	logs, err := env.store.ListLogs(ctx, task.ID)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected materialize + complete log entries, got %d", len(logs))
	}
	if logs[1].Action != "completed" || logs[1].Notes != "gave the morning dose" {
		t.Fatalf("expected completion log with notes, got %+v", logs[1])
	}

	// Completing again must fail: completed is terminal.
	if _, err := env.occurrences.Complete(ctx, task.ID.String(), env.actorID, ""); err == nil {
		t.Fatal("expected completing a completed task to fail")
	}
}

func TestCompleteRejectsTemplates(t *testing.T) {
	env := newTestEnv(t)
	tpl := env.newWeeklyTemplate(t, day(2024, 1, 1))
	if _, err := env.occurrences.Complete(context.Background(), tpl.ID.String(), env.actorID, ""); err == nil {
		t.Fatal("expected completing a template to fail")
	}
}
