package recurrence

import (
	"time"

	"github.com/google/uuid"

	"carehub/internal/model"
)

// VirtualOccurrence is a computed projection of a template onto one
// calendar day. It is never persisted: it lives for the duration of a
// single query and is either discarded or materialized.
type VirtualOccurrence struct {
	SyntheticID  string          `json:"id"`
	TemplateID   uuid.UUID       `json:"parentTemplateId"`
	FamilyID     uuid.UUID       `json:"familyId"`
	CategoryID   *uuid.UUID      `json:"categoryId,omitempty"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	DueDate      time.Time       `json:"dueDate"`
	AssignedToID *uuid.UUID      `json:"assignedToId,omitempty"`
	Priority     model.Priority  `json:"priority"`
}

// Project derives the virtual occurrence of a template on the given day.
func Project(tpl model.Task, date time.Time) VirtualOccurrence {
	day := DayOf(date)
	return VirtualOccurrence{
		SyntheticID:  EncodeID(tpl.ID, day),
		TemplateID:   tpl.ID,
		FamilyID:     tpl.FamilyID,
		CategoryID:   tpl.CategoryID,
		Title:        tpl.Title,
		Description:  tpl.Description,
		DueDate:      day,
		AssignedToID: tpl.AssignedToID,
		Priority:     tpl.Priority,
	}
}

// Occurrence is the tagged union returned by window queries: exactly one
// of Physical or Virtual is set.
type Occurrence struct {
	Physical *model.Task        `json:"physical,omitempty"`
	Virtual  *VirtualOccurrence `json:"virtual,omitempty"`
}

// IsVirtual reports which arm of the union is populated.
func (o Occurrence) IsVirtual() bool {
	return o.Virtual != nil
}

// ID returns the occurrence's identifier: the row's uuid for physical
// occurrences, the synthetic id for virtual ones.
func (o Occurrence) ID() string {
	if o.Virtual != nil {
		return o.Virtual.SyntheticID
	}
	return o.Physical.ID.String()
}

// DueDate returns the occurrence's due date, nil for undated physical
// tasks.
func (o Occurrence) DueDate() *time.Time {
	if o.Virtual != nil {
		d := o.Virtual.DueDate
		return &d
	}
	return o.Physical.DueDate
}

// Status returns the occurrence's status; a virtual occurrence is
// implicitly pending.
func (o Occurrence) Status() model.Status {
	if o.Virtual != nil {
		return model.StatusPending
	}
	return o.Physical.Status
}

// Priority returns the occurrence's priority.
func (o Occurrence) Priority() model.Priority {
	if o.Virtual != nil {
		return o.Virtual.Priority
	}
	return o.Physical.Priority
}

// Title returns the occurrence's title.
func (o Occurrence) Title() string {
	if o.Virtual != nil {
		return o.Virtual.Title
	}
	return o.Physical.Title
}
