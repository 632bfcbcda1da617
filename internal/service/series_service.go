package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"carehub/internal/logger"
	"carehub/internal/model"
	"carehub/internal/recurrence"
)

// SeriesEdits lists the template fields a series edit may change. Nil
// pointers leave a field untouched; the Clear flags reset optional
// fields to empty. Recurrence replaces the whole pattern: omitting its
// end date clears any previously stored one.
type SeriesEdits struct {
	Title            *string
	Description      *string
	Priority         *model.Priority
	CategoryID       *uuid.UUID
	AssignedToID     *uuid.UUID
	ClearAssignee    bool
	DueDate          *time.Time
	ReminderDate     *time.Time
	Recurrence       *recurrence.Pattern
	ClearSeriesEnd   bool
}

// SeriesEditResult reports what an atomic series rewrite did.
type SeriesEditResult struct {
	UpdatedTemplate   *model.Task `json:"updatedTemplate"`
	MaterializedCount int         `json:"materializedCount"`
	DeletedCount      int         `json:"deletedCount"`
}

// SeriesService rewrites a recurring series when its template changes:
// history before the reference date is frozen into physical rows under
// the pre-edit values, the template is updated, and stale pending future
// instances are deleted so the new rule regenerates them virtually. The
// whole plan applies in one transaction or not at all.
type SeriesService struct {
	store TaskStore
	log   *logger.Logger
	now   func() time.Time
}

func NewSeriesService(store TaskStore, baseLog *logger.Logger) *SeriesService {
	return &SeriesService{store: store, log: baseLog.With("service", "series"), now: time.Now}
}

// EditSeries applies edits to the series identified by id, which may be
// the template itself or one of its physical instances. referenceDate
// (nil for "today", or the instance's due day when the edit came from an
// instance) is the cutoff: strictly before it, occurrences become
// history; from it on, they follow the new rule.
func (s *SeriesService) EditSeries(ctx context.Context, id string, edits SeriesEdits, referenceDate *time.Time, actorID uuid.UUID) (*SeriesEditResult, error) {
	if recurrence.IsVirtualID(id) {
		return nil, fmt.Errorf("%w: materialize the occurrence before editing through it", recurrence.ErrInvalidIdentity)
	}
	taskID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", recurrence.ErrInvalidIdentity, id)
	}

	if edits.Recurrence != nil {
		if err := edits.Recurrence.Validate(); err != nil {
			return nil, err
		}
	}
	if edits.Priority != nil && !edits.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, *edits.Priority)
	}

	var result SeriesEditResult
	err = s.store.Transaction(ctx, func(tx TaskStore) error {
		task, err := tx.FindTaskByID(ctx, taskID)
		if err != nil {
			return err
		}

		tpl := task
		refDate := referenceDate
		if !task.IsTemplate {
			if task.ParentTemplateID == nil {
				return fmt.Errorf("%w: %s", ErrNotRecurring, taskID)
			}
			if refDate == nil && task.DueDate != nil {
				d := *task.DueDate
				refDate = &d
			}
			tpl, err = tx.FindTaskByID(ctx, *task.ParentTemplateID)
			if err != nil {
				return err
			}
		}

		pattern, ok := recurrence.PatternOf(*tpl)
		if !ok || !tpl.IsTemplate {
			return fmt.Errorf("%w: %s", ErrNotRecurring, tpl.ID)
		}
		if tpl.DueDate == nil {
			return fmt.Errorf("%w: template %s has no anchor date", ErrValidation, tpl.ID)
		}

		ref := recurrence.DayOf(s.now())
		if refDate != nil {
			ref = recurrence.DayOf(*refDate)
		}

		// History under the pre-edit rule: every occurrence day strictly
		// before the reference date, materialized before the template
		// changes. A reference date at or before the anchor is a no-op here.
		anchor := recurrence.DayOf(*tpl.DueDate)
		historyEnd := ref.AddDate(0, 0, -1)
		var historyDays []time.Time
		if !historyEnd.Before(anchor) {
			historyDays, err = recurrence.Generate(pattern, anchor, anchor, historyEnd)
			if err != nil {
				return err
			}
		}

		existing, err := tx.FindExistingMaterialized(ctx, tpl.ID, historyDays)
		if err != nil {
			return fmt.Errorf("find materialized history: %w", err)
		}
		occupied := make(map[string]bool, len(existing))
		for _, row := range existing {
			if row.DueDate != nil {
				occupied[recurrence.DayKey(*row.DueDate)] = true
			}
		}

		for _, d := range historyDays {
			if occupied[recurrence.DayKey(d)] {
				continue
			}
			instance := recurrence.Materialize(*tpl, d, actorID)
			if err := tx.CreateTask(ctx, &instance); err != nil {
				return fmt.Errorf("materialize history %s: %w", recurrence.DayKey(d), err)
			}
			if err := tx.AppendLog(ctx, &model.TaskLog{
				TaskID:  instance.ID,
				ActorID: actorID,
				Action:  "materialized",
				Notes:   "materialized from recurrence",
			}); err != nil {
				return fmt.Errorf("append log: %w", err)
			}
			result.MaterializedCount++
		}

		fields, changed := buildTemplateUpdate(edits)
		if len(fields) > 0 {
			if err := tx.UpdateTemplate(ctx, tpl.ID, fields); err != nil {
				return fmt.Errorf("update template: %w", err)
			}
		}

		// Pending and cancelled copies from the reference date on are
		// stale under the new rule and cheap to regenerate virtually.
		// Completed and in-progress rows stay: finished work is never
		// erased and in-flight work is the actor's to resolve.
		deleted, err := tx.DeleteInstancesFrom(ctx, tpl.ID, ref, []model.Status{model.StatusPending, model.StatusCancelled})
		if err != nil {
			return fmt.Errorf("delete stale instances: %w", err)
		}
		result.DeletedCount = int(deleted)

		if err := tx.AppendLog(ctx, &model.TaskLog{
			TaskID:  tpl.ID,
			ActorID: actorID,
			Action:  "series_edited",
			Notes: fmt.Sprintf("changed [%s] from %s; materialized %d, deleted %d",
				strings.Join(changed, ", "), recurrence.DayKey(ref), result.MaterializedCount, result.DeletedCount),
		}); err != nil {
			return fmt.Errorf("append log: %w", err)
		}

		updated, err := tx.FindTaskByID(ctx, tpl.ID)
		if err != nil {
			return err
		}
		result.UpdatedTemplate = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("series edited",
		"template_id", result.UpdatedTemplate.ID,
		"materialized", result.MaterializedCount,
		"deleted", result.DeletedCount,
	)
	return &result, nil
}

// buildTemplateUpdate maps the requested edits onto column updates and
// returns the list of changed field names for the audit entry.
func buildTemplateUpdate(edits SeriesEdits) (map[string]any, []string) {
	fields := make(map[string]any)
	var changed []string

	if edits.Title != nil {
		fields["title"] = *edits.Title
		changed = append(changed, "title")
	}
	if edits.Description != nil {
		fields["description"] = *edits.Description
		changed = append(changed, "description")
	}
	if edits.Priority != nil {
		fields["priority"] = *edits.Priority
		changed = append(changed, "priority")
	}
	if edits.CategoryID != nil {
		fields["category_id"] = *edits.CategoryID
		changed = append(changed, "category")
	}
	if edits.ClearAssignee {
		fields["assigned_to_id"] = nil
		changed = append(changed, "assignee")
	} else if edits.AssignedToID != nil {
		fields["assigned_to_id"] = *edits.AssignedToID
		changed = append(changed, "assignee")
	}
	if edits.DueDate != nil {
		fields["due_date"] = recurrence.DayOf(*edits.DueDate)
		changed = append(changed, "anchor")
	}
	if edits.ReminderDate != nil {
		fields["reminder_date"] = *edits.ReminderDate
		changed = append(changed, "reminder")
	}
	if edits.Recurrence != nil {
		fields["recurrence_type"] = edits.Recurrence.Type
		if edits.Recurrence.EndDate != nil {
			fields["recurrence_end_date"] = recurrence.DayOf(*edits.Recurrence.EndDate)
		} else {
			fields["recurrence_end_date"] = nil
		}
		changed = append(changed, "recurrence")
	}
	if edits.ClearSeriesEnd {
		fields["recurrence_end_date"] = nil
		if edits.Recurrence == nil {
			changed = append(changed, "recurrence")
		}
	}

	return fields, changed
}
