package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"carehub/internal/model"
	"carehub/internal/service"
)

func newTestRepo(t *testing.T) *TaskRepository {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "repo_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewTaskRepository(db)
}

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func instanceRow(familyID, templateID uuid.UUID, due time.Time, status model.Status) *model.Task {
	return &model.Task{
		FamilyID:         familyID,
		Title:            "instance",
		DueDate:          &due,
		Status:           status,
		Priority:         model.PriorityMedium,
		ParentTemplateID: &templateID,
	}
}

func TestCreateTaskEnforcesOneRowPerTemplateDay(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	familyID, templateID := uuid.New(), uuid.New()
	due := utcDay(2024, 1, 8)

	if err := repo.CreateTask(ctx, instanceRow(familyID, templateID, due, model.StatusPending)); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	// Same calendar day at a different clock time still collides.
	err := repo.CreateTask(ctx, instanceRow(familyID, templateID, due.Add(10*time.Hour), model.StatusPending))
	if !errors.Is(err, service.ErrAlreadyMaterialized) {
		t.Fatalf("expected ErrAlreadyMaterialized, got %v", err)
	}

	// A different template on the same day is fine.
	if err := repo.CreateTask(ctx, instanceRow(familyID, uuid.New(), due, model.StatusPending)); err != nil {
		t.Fatalf("insert for other template: %v", err)
	}
}

func TestFindPhysicalInRangeIncludesUndatedTasks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	familyID := uuid.New()

	inRange := utcDay(2024, 2, 10)
	outOfRange := utcDay(2024, 5, 1)
	if err := repo.CreateTask(ctx, &model.Task{FamilyID: familyID, Title: "dated", DueDate: &inRange, Status: model.StatusPending}); err != nil {
		t.Fatalf("create dated: %v", err)
	}
	if err := repo.CreateTask(ctx, &model.Task{FamilyID: familyID, Title: "far away", DueDate: &outOfRange, Status: model.StatusPending}); err != nil {
		t.Fatalf("create out of range: %v", err)
	}
	if err := repo.CreateTask(ctx, &model.Task{FamilyID: familyID, Title: "undated", Status: model.StatusPending}); err != nil {
		t.Fatalf("create undated: %v", err)
	}

	tasks, err := repo.FindPhysicalInRange(ctx, familyID, utcDay(2024, 2, 1), utcDay(2024, 2, 28))
	if err != nil {
		t.Fatalf("find in range: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected dated-in-range + undated, got %d rows", len(tasks))
	}
}

func TestDeleteInstancesFromFiltersStatusAndDate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	familyID, templateID := uuid.New(), uuid.New()

	rows := []struct {
		due    time.Time
		status model.Status
	}{
		{utcDay(2024, 1, 1), model.StatusPending},   // before cutoff: stays
		{utcDay(2024, 1, 15), model.StatusPending},  // goes
		{utcDay(2024, 1, 22), model.StatusCancelled}, // goes
		{utcDay(2024, 1, 29), model.StatusCompleted}, // completed: stays
	}
	for _, row := range rows {
		if err := repo.CreateTask(ctx, instanceRow(familyID, templateID, row.due, row.status)); err != nil {
			t.Fatalf("create %v: %v", row.due, err)
		}
	}

	deleted, err := repo.DeleteInstancesFrom(ctx, templateID, utcDay(2024, 1, 10), []model.Status{model.StatusPending, model.StatusCancelled})
	if err != nil {
		t.Fatalf("delete instances: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted rows, got %d", deleted)
	}

	remaining, err := repo.FindExistingMaterialized(ctx, templateID,
		[]time.Time{utcDay(2024, 1, 1), utcDay(2024, 1, 15), utcDay(2024, 1, 22), utcDay(2024, 1, 29)})
	if err != nil {
		t.Fatalf("find remaining: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected pre-cutoff pending + completed to remain, got %d", len(remaining))
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	familyID, templateID := uuid.New(), uuid.New()

	sentinel := errors.New("abort")
	err := repo.Transaction(ctx, func(tx service.TaskStore) error {
		if err := tx.CreateTask(ctx, instanceRow(familyID, templateID, utcDay(2024, 3, 1), model.StatusPending)); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected the closure error back, got %v", err)
	}

	rows, err := repo.FindExistingMaterialized(ctx, templateID, []time.Time{utcDay(2024, 3, 1)})
	if err != nil {
		t.Fatalf("find after rollback: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected rollback to discard the insert, got %d rows", len(rows))
	}
}
