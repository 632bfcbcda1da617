package service_test

import (
	"context"
	"errors"
	"testing"

	"carehub/internal/model"
	"carehub/internal/recurrence"
	"carehub/internal/service"
)

func TestCreateTaskRequiresTitle(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.tasks.CreateTask(context.Background(), service.TaskInput{
		FamilyID:    env.familyID,
		CreatedByID: env.actorID,
	})
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCreateRecurringTaskRequiresAnchor(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.tasks.CreateTask(context.Background(), service.TaskInput{
		FamilyID:    env.familyID,
		Title:       "water the plants",
		Recurrence:  &recurrence.Pattern{Type: model.RecurrenceDaily},
		CreatedByID: env.actorID,
	})
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation for a template without a due date, got %v", err)
	}
}

func TestCreateTaskAttachesCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	due := day(2024, 3, 1)
	task, err := env.tasks.CreateTask(ctx, service.TaskInput{
		FamilyID:    env.familyID,
		Title:       "blood pressure medication",
		Category:    "medication",
		DueDate:     &due,
		CreatedByID: env.actorID,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.CategoryID == nil {
		t.Fatal("expected a category to be created and attached")
	}

	// Same name reuses the category.
	second, err := env.tasks.CreateTask(ctx, service.TaskInput{
		FamilyID:    env.familyID,
		Title:       "evening medication",
		Category:    "medication",
		CreatedByID: env.actorID,
	})
	if err != nil {
		t.Fatalf("create second task: %v", err)
	}
	if second.CategoryID == nil || *second.CategoryID != *task.CategoryID {
		t.Fatalf("expected category reuse, got %v and %v", task.CategoryID, second.CategoryID)
	}
}

func TestStatusTransitionsAreForwardOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task, err := env.tasks.CreateTask(ctx, service.TaskInput{
		FamilyID:    env.familyID,
		Title:       "call the pharmacy",
		CreatedByID: env.actorID,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if _, err := env.tasks.UpdateStatus(ctx, task.ID, model.StatusInProgress, env.actorID, ""); err != nil {
		t.Fatalf("pending → in_progress: %v", err)
	}
	if _, err := env.tasks.UpdateStatus(ctx, task.ID, model.StatusPending, env.actorID, ""); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected backward transition to fail, got %v", err)
	}
	if _, err := env.tasks.UpdateStatus(ctx, task.ID, model.StatusCompleted, env.actorID, ""); err != nil {
		t.Fatalf("in_progress → completed: %v", err)
	}
	if _, err := env.tasks.UpdateStatus(ctx, task.ID, model.StatusCancelled, env.actorID, ""); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected terminal state to be final, got %v", err)
	}

	logs, err := env.tasks.ListLogs(ctx, task.ID)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	// created + two successful transitions; failed ones leave no trace.
	if len(logs) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(logs))
	}
}

func TestDeleteTemplateIsRejected(t *testing.T) {
	env := newTestEnv(t)
	tpl := env.newWeeklyTemplate(t, day(2024, 1, 1))
	err := env.tasks.DeleteTask(context.Background(), tpl.ID, env.actorID)
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected template deletion to fail validation, got %v", err)
	}
}

func TestDeleteCompletedOccurrenceIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tpl := env.newWeeklyTemplate(t, day(2024, 1, 1))
	task, err := env.occurrences.Complete(ctx, recurrence.EncodeID(tpl.ID, day(2024, 1, 8)), env.actorID, "")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := env.tasks.DeleteTask(ctx, task.ID, env.actorID); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected deleting completed history to fail, got %v", err)
	}
}
