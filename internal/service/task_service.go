package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"carehub/internal/logger"
	"carehub/internal/model"
	"carehub/internal/recurrence"
)

// CategoryStore resolves category names to rows, creating them on first
// use.
type CategoryStore interface {
	GetOrCreate(ctx context.Context, familyID uuid.UUID, name string) (*model.Category, error)
}

// TaskInput is the data required to create a task or a series template.
type TaskInput struct {
	FamilyID     uuid.UUID
	Title        string
	Description  string
	Category     string
	DueDate      *time.Time
	ReminderDate *time.Time
	AssignedToID *uuid.UUID
	Priority     model.Priority
	Recurrence   *recurrence.Pattern
	CreatedByID  uuid.UUID
}

// TaskService wraps direct task business logic: creation, status
// transitions, deletion of one-off tasks. Series-level changes go
// through SeriesService, occurrence-level ones through OccurrenceService.
type TaskService struct {
	store        TaskStore
	categoryRepo CategoryStore
	log          *logger.Logger
}

func NewTaskService(store TaskStore, categoryRepo CategoryStore, baseLog *logger.Logger) *TaskService {
	return &TaskService{store: store, categoryRepo: categoryRepo, log: baseLog.With("service", "task")}
}

// CreateTask persists a new task. When input carries a recurrence
// pattern the row becomes a series template, which requires a due date
// to anchor the series.
func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.Task, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if input.Priority == "" {
		input.Priority = model.PriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, input.Priority)
	}

	task := model.Task{
		FamilyID:     input.FamilyID,
		Title:        input.Title,
		Description:  input.Description,
		DueDate:      input.DueDate,
		ReminderDate: input.ReminderDate,
		AssignedToID: input.AssignedToID,
		Priority:     input.Priority,
		Status:       model.StatusPending,
		CreatedByID:  input.CreatedByID,
	}

	if input.Recurrence != nil {
		if err := input.Recurrence.Validate(); err != nil {
			return nil, err
		}
		if input.DueDate == nil {
			return nil, fmt.Errorf("%w: a recurring task needs a due date to anchor the series", ErrValidation)
		}
		anchor := recurrence.DayOf(*input.DueDate)
		task.DueDate = &anchor
		task.IsTemplate = true
		task.RecurrenceType = &input.Recurrence.Type
		if input.Recurrence.EndDate != nil {
			end := recurrence.DayOf(*input.Recurrence.EndDate)
			task.RecurrenceEndDate = &end
		}
	}

	if input.Category != "" {
		category, err := s.categoryRepo.GetOrCreate(ctx, input.FamilyID, input.Category)
		if err != nil {
			return nil, err
		}
		if category != nil {
			task.CategoryID = &category.ID
		}
	}

	err := s.store.Transaction(ctx, func(tx TaskStore) error {
		if err := tx.CreateTask(ctx, &task); err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		return tx.AppendLog(ctx, &model.TaskLog{
			TaskID:  task.ID,
			ActorID: input.CreatedByID,
			Action:  "created",
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("task created", "task_id", task.ID, "family_id", task.FamilyID, "template", task.IsTemplate)
	return &task, nil
}

// GetTask loads a single task by id.
func (s *TaskService) GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	return s.store.FindTaskByID(ctx, id)
}

// UpdateStatus moves a task forward through its lifecycle and records
// the action. Backward moves and edits to terminal tasks fail
// validation.
func (s *TaskService) UpdateStatus(ctx context.Context, id uuid.UUID, to model.Status, actorID uuid.UUID, notes string) (*model.Task, error) {
	var task *model.Task
	err := s.store.Transaction(ctx, func(tx TaskStore) error {
		var err error
		task, err = tx.FindTaskByID(ctx, id)
		if err != nil {
			return err
		}
		if task.IsTemplate {
			return fmt.Errorf("%w: templates have no status lifecycle", ErrValidation)
		}
		if !model.CanTransition(task.Status, to) {
			return fmt.Errorf("%w: cannot move %s task to %s", ErrValidation, task.Status, to)
		}
		task.Status = to
		if err := tx.UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return tx.AppendLog(ctx, &model.TaskLog{
			TaskID:  task.ID,
			ActorID: actorID,
			Action:  "status_" + string(to),
			Notes:   notes,
		})
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a one-off task. Templates cannot be deleted: a
// series ends through a series edit that sets the pattern's end date,
// and instance cleanup is the series editor's job.
func (s *TaskService) DeleteTask(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	task, err := s.store.FindTaskByID(ctx, id)
	if err != nil {
		return err
	}
	if task.IsTemplate {
		return fmt.Errorf("%w: end the series by setting its end date instead of deleting the template", ErrValidation)
	}
	if task.ParentTemplateID != nil && task.Status == model.StatusCompleted {
		return fmt.Errorf("%w: completed occurrences are history and cannot be deleted", ErrValidation)
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	s.log.Info("task deleted", "task_id", id, "actor_id", actorID)
	return nil
}

// ListLogs returns the append-only history of a task.
func (s *TaskService) ListLogs(ctx context.Context, taskID uuid.UUID) ([]model.TaskLog, error) {
	return s.store.ListLogs(ctx, taskID)
}
