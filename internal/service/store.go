package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"carehub/internal/model"
)

// TaskStore is the persistence boundary the scheduling engine writes
// through. Implementations must make Transaction all-or-nothing: a
// series edit that fails midway must leave no partial state behind.
type TaskStore interface {
	// FindPhysicalInRange returns a family's persisted tasks with a due
	// date inside [start, end] plus its undated tasks. Template rows are
	// included; the merger drops them.
	FindPhysicalInRange(ctx context.Context, familyID uuid.UUID, start, end time.Time) ([]model.Task, error)
	// FindTemplatesWithPattern returns the family's recurring-series
	// templates.
	FindTemplatesWithPattern(ctx context.Context, familyID uuid.UUID) ([]model.Task, error)
	FindTaskByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	// FindExistingMaterialized returns the instances of a template whose
	// due day matches one of the given dates.
	FindExistingMaterialized(ctx context.Context, templateID uuid.UUID, dates []time.Time) ([]model.Task, error)
	// CreateTask persists a new row. Inserting a second instance for the
	// same (template, day) fails with ErrAlreadyMaterialized.
	CreateTask(ctx context.Context, task *model.Task) error
	UpdateTask(ctx context.Context, task *model.Task) error
	// UpdateTemplate applies a partial field update to a template row.
	UpdateTemplate(ctx context.Context, id uuid.UUID, fields map[string]any) error
	// DeleteTask removes a single row.
	DeleteTask(ctx context.Context, id uuid.UUID) error
	// DeleteInstancesFrom removes a template's instances with a due date
	// on or after the cutoff and a status in statuses, returning how many
	// rows went away.
	DeleteInstancesFrom(ctx context.Context, templateID uuid.UUID, from time.Time, statuses []model.Status) (int64, error)
	AppendLog(ctx context.Context, entry *model.TaskLog) error
	ListLogs(ctx context.Context, taskID uuid.UUID) ([]model.TaskLog, error)
	// Transaction runs fn against a store bound to one atomic unit of
	// work; returning an error rolls everything back.
	Transaction(ctx context.Context, fn func(TaskStore) error) error
}
