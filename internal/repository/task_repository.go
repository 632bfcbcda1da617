package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"carehub/internal/model"
	"carehub/internal/recurrence"
	"carehub/internal/service"
)

// TaskRepository is the GORM-backed TaskStore. Transaction hands out a
// repository bound to the transaction's handle, so every store call
// inside the closure shares one atomic unit of work.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

var _ service.TaskStore = (*TaskRepository)(nil)

func (r *TaskRepository) FindPhysicalInRange(ctx context.Context, familyID uuid.UUID, start, end time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Where("due_date IS NULL OR (due_date >= ? AND due_date < ?)",
			recurrence.DayOf(start), recurrence.DayOf(end).AddDate(0, 0, 1)).
		Order("due_date, created_at").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("find tasks in range: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindTemplatesWithPattern(ctx context.Context, familyID uuid.UUID) ([]model.Task, error) {
	var templates []model.Task
	err := r.db.WithContext(ctx).
		Where("family_id = ? AND is_template = ? AND recurrence_type IS NOT NULL", familyID, true).
		Order("created_at").
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("find templates: %w", err)
	}
	return templates, nil
}

func (r *TaskRepository) FindTaskByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("%w: %s", service.ErrNotFound, id)
	default:
		return nil, fmt.Errorf("find task: %w", err)
	}
}

func (r *TaskRepository) FindExistingMaterialized(ctx context.Context, templateID uuid.UUID, dates []time.Time) ([]model.Task, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	days := make([]string, 0, len(dates))
	for _, d := range dates {
		days = append(days, recurrence.DayKey(d))
	}
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("parent_template_id = ? AND due_day IN ?", templateID, days).
		Order("due_day").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("find materialized instances: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) CreateTask(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: template %v day %v", service.ErrAlreadyMaterialized, task.ParentTemplateID, task.DueDay)
		}
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) UpdateTask(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

func (r *TaskRepository) UpdateTemplate(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND is_template = ?", id, true).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update template: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: template %s", service.ErrNotFound, id)
	}
	return nil
}

func (r *TaskRepository) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Task{}).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (r *TaskRepository) DeleteInstancesFrom(ctx context.Context, templateID uuid.UUID, from time.Time, statuses []model.Status) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("parent_template_id = ? AND due_date >= ? AND status IN ?",
			templateID, recurrence.DayOf(from), statuses).
		Delete(&model.Task{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete instances: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *TaskRepository) AppendLog(ctx context.Context, entry *model.TaskLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append task log: %w", err)
	}
	return nil
}

func (r *TaskRepository) ListLogs(ctx context.Context, taskID uuid.UUID) ([]model.TaskLog, error) {
	var logs []model.TaskLog
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list task logs: %w", err)
	}
	return logs, nil
}

func (r *TaskRepository) Transaction(ctx context.Context, fn func(service.TaskStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TaskRepository{db: tx})
	})
}
