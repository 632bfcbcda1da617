package recurrence

import (
	"time"

	"github.com/google/uuid"

	"carehub/internal/model"
)

// Materialize builds the persistable instance of a template's occurrence
// on the given day. Template attributes are copied as they stand at call
// time; the instance starts pending and is owned by the acting member.
// Persistence, and the idempotency guarantee against the store's
// (template, day) uniqueness constraint, are the caller's business.
func Materialize(tpl model.Task, date time.Time, actorID uuid.UUID) model.Task {
	due := DayOf(date)
	parentID := tpl.ID
	return model.Task{
		ID:               uuid.New(),
		FamilyID:         tpl.FamilyID,
		CategoryID:       tpl.CategoryID,
		Title:            tpl.Title,
		Description:      tpl.Description,
		DueDate:          &due,
		AssignedToID:     tpl.AssignedToID,
		Priority:         tpl.Priority,
		Status:           model.StatusPending,
		IsTemplate:       false,
		ParentTemplateID: &parentID,
		CreatedByID:      actorID,
	}
}
