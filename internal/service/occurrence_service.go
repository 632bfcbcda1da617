package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"carehub/internal/logger"
	"carehub/internal/model"
	"carehub/internal/recurrence"
)

// OccurrenceService answers window queries over a family's schedule and
// turns virtual occurrences into durable rows on demand.
type OccurrenceService struct {
	store TaskStore
	log   *logger.Logger
}

func NewOccurrenceService(store TaskStore, baseLog *logger.Logger) *OccurrenceService {
	return &OccurrenceService{store: store, log: baseLog.With("service", "occurrence")}
}

// ListOccurrences returns the ordered, deduplicated view of a family's
// schedule inside [start, end]. With includeVirtual, every recurring
// template in scope is expanded into its non-persisted occurrences and
// merged with the physical rows.
func (s *OccurrenceService) ListOccurrences(ctx context.Context, familyID uuid.UUID, start, end time.Time, includeVirtual bool) ([]recurrence.Occurrence, error) {
	if recurrence.DayOf(end).Before(recurrence.DayOf(start)) {
		return nil, fmt.Errorf("%w: window end before start", recurrence.ErrInvalidWindow)
	}

	physical, err := s.store.FindPhysicalInRange(ctx, familyID, start, end)
	if err != nil {
		return nil, fmt.Errorf("find physical tasks: %w", err)
	}

	var virtual map[uuid.UUID][]recurrence.VirtualOccurrence
	if includeVirtual {
		templates, err := s.store.FindTemplatesWithPattern(ctx, familyID)
		if err != nil {
			return nil, fmt.Errorf("find templates: %w", err)
		}
		virtual = make(map[uuid.UUID][]recurrence.VirtualOccurrence, len(templates))
		for _, tpl := range templates {
			pattern, ok := recurrence.PatternOf(tpl)
			if !ok || tpl.DueDate == nil {
				continue
			}
			dates, err := recurrence.Generate(pattern, *tpl.DueDate, start, end)
			if err != nil {
				return nil, fmt.Errorf("generate occurrences for template %s: %w", tpl.ID, err)
			}
			occs := make([]recurrence.VirtualOccurrence, 0, len(dates))
			for _, d := range dates {
				occs = append(occs, recurrence.Project(tpl, d))
			}
			if len(occs) > 0 {
				virtual[tpl.ID] = occs
			}
		}
	}

	merged := recurrence.Merge(physical, virtual)
	s.log.Debug("listed occurrences",
		"family_id", familyID,
		"start", recurrence.DayKey(start),
		"end", recurrence.DayKey(end),
		"physical", len(physical),
		"total", len(merged),
	)
	return merged, nil
}

// Materialize converts the occurrence named by id into a persisted row.
// A physical id passes through to the existing row. Materializing the
// same virtual occurrence twice yields the same single row: a lost race
// against a concurrent writer surfaces as ErrAlreadyMaterialized from
// the store and resolves to the winner's row.
func (s *OccurrenceService) Materialize(ctx context.Context, id string, actorID uuid.UUID) (*model.Task, error) {
	if !recurrence.IsVirtualID(id) {
		taskID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", recurrence.ErrInvalidIdentity, id)
		}
		task, err := s.store.FindTaskByID(ctx, taskID)
		if err != nil {
			return nil, err
		}
		return task, nil
	}

	templateID, date, err := recurrence.DecodeID(id)
	if err != nil {
		return nil, err
	}

	var result *model.Task
	err = s.store.Transaction(ctx, func(tx TaskStore) error {
		task, err := s.materializeLocked(ctx, tx, templateID, date, actorID)
		if err != nil {
			return err
		}
		result = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// materializeLocked creates the instance row for (templateID, date)
// inside an open transaction, reusing the existing row when the day is
// already materialized.
func (s *OccurrenceService) materializeLocked(ctx context.Context, tx TaskStore, templateID uuid.UUID, date time.Time, actorID uuid.UUID) (*model.Task, error) {
	tpl, err := tx.FindTaskByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if _, ok := recurrence.PatternOf(*tpl); !ok || !tpl.IsTemplate {
		return nil, fmt.Errorf("%w: %s", ErrNotRecurring, templateID)
	}

	existing, err := tx.FindExistingMaterialized(ctx, templateID, []time.Time{date})
	if err != nil {
		return nil, fmt.Errorf("check existing instance: %w", err)
	}
	if len(existing) > 0 {
		return &existing[0], nil
	}

	instance := recurrence.Materialize(*tpl, date, actorID)
	if err := tx.CreateTask(ctx, &instance); err != nil {
		if errors.Is(err, ErrAlreadyMaterialized) {
			// Benign race: another writer created the row first.
			rows, findErr := tx.FindExistingMaterialized(ctx, templateID, []time.Time{date})
			if findErr == nil && len(rows) > 0 {
				return &rows[0], nil
			}
			return nil, err
		}
		return nil, fmt.Errorf("create instance: %w", err)
	}

	if err := tx.AppendLog(ctx, &model.TaskLog{
		TaskID:  instance.ID,
		ActorID: actorID,
		Action:  "materialized",
		Notes:   "materialized from recurrence",
	}); err != nil {
		return nil, fmt.Errorf("append log: %w", err)
	}

	s.log.Info("materialized occurrence",
		"template_id", templateID,
		"due_day", recurrence.DayKey(date),
		"task_id", instance.ID,
	)
	return &instance, nil
}

// Complete marks the occurrence named by id as completed. A virtual id
// is materialized first, in the same transaction, so completing a
// not-yet-persisted occurrence is a single atomic step.
func (s *OccurrenceService) Complete(ctx context.Context, id string, actorID uuid.UUID, notes string) (*model.Task, error) {
	var result *model.Task
	err := s.store.Transaction(ctx, func(tx TaskStore) error {
		var task *model.Task

		if recurrence.IsVirtualID(id) {
			templateID, date, err := recurrence.DecodeID(id)
			if err != nil {
				return err
			}
			task, err = s.materializeLocked(ctx, tx, templateID, date, actorID)
			if err != nil {
				return err
			}
		} else {
			taskID, err := uuid.Parse(id)
			if err != nil {
				return fmt.Errorf("%w: %q", recurrence.ErrInvalidIdentity, id)
			}
			task, err = tx.FindTaskByID(ctx, taskID)
			if err != nil {
				return err
			}
			if task.IsTemplate {
				return fmt.Errorf("%w: templates cannot be completed", ErrValidation)
			}
		}

		if !model.CanTransition(task.Status, model.StatusCompleted) {
			return fmt.Errorf("%w: cannot complete task in status %s", ErrValidation, task.Status)
		}
		task.Status = model.StatusCompleted
		if err := tx.UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("update task: %w", err)
		}

		if err := tx.AppendLog(ctx, &model.TaskLog{
			TaskID:  task.ID,
			ActorID: actorID,
			Action:  "completed",
			Notes:   notes,
		}); err != nil {
			return fmt.Errorf("append log: %w", err)
		}

		result = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("completed occurrence", "task_id", result.ID, "actor_id", actorID)
	return result, nil
}
