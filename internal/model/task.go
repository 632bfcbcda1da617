package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Priority orders tasks within a day's plan.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns the sort rank of a priority; high sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p.Rank() < 3
}

// Status tracks a task through its lifecycle. Transitions only move
// forward: pending → in_progress → completed/cancelled. Completed and
// cancelled are terminal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Rank returns the sort rank of a status; open work sorts first.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 4
	}
}

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether a task may move from one status to another.
// Skipping in_progress is allowed; moving backward or out of a terminal
// status is not.
func CanTransition(from, to Status) bool {
	if from.Terminal() || from == to {
		return false
	}
	switch from {
	case StatusPending:
		return to == StatusInProgress || to == StatusCompleted || to == StatusCancelled
	case StatusInProgress:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}

// RecurrenceType names how often a template repeats.
type RecurrenceType string

const (
	RecurrenceDaily    RecurrenceType = "daily"
	RecurrenceWeekly   RecurrenceType = "weekly"
	RecurrenceBiweekly RecurrenceType = "biweekly"
	RecurrenceMonthly  RecurrenceType = "monthly"
)

// DueDayLayout is the day-granularity key used for the per-series
// uniqueness constraint and the synthetic occurrence ids.
const DueDayLayout = "2006-01-02"

// Task is either a plain one-off task, a recurring-series template
// (IsTemplate), or a materialized instance of a template
// (ParentTemplateID set). A template is never itself an occurrence.
type Task struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FamilyID          uuid.UUID `gorm:"type:uuid;index" json:"familyId"`
	CategoryID        *uuid.UUID `gorm:"type:uuid;index" json:"categoryId,omitempty"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	DueDate           *time.Time `gorm:"index" json:"dueDate,omitempty"`
	ReminderDate      *time.Time `json:"reminderDate,omitempty"`
	AssignedToID      *uuid.UUID `gorm:"type:uuid" json:"assignedToId,omitempty"`
	Priority          Priority   `gorm:"default:medium" json:"priority"`
	Status            Status     `gorm:"default:pending;index" json:"status"`
	RecurrenceType    *RecurrenceType `json:"recurrenceType,omitempty"`
	RecurrenceEndDate *time.Time      `json:"recurrenceEndDate,omitempty"`
	IsTemplate        bool            `gorm:"default:false;index" json:"isTemplate"`
	ParentTemplateID  *uuid.UUID      `gorm:"type:uuid;index:idx_task_template_day,unique" json:"parentTemplateId,omitempty"`
	// DueDay is derived from DueDate for instance rows only. Together with
	// ParentTemplateID it enforces at most one physical row per
	// (template, calendar day).
	DueDay      *string   `gorm:"index:idx_task_template_day,unique" json:"-"`
	CreatedByID uuid.UUID `gorm:"type:uuid" json:"createdById"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *Task) BeforeSave(tx *gorm.DB) error {
	if t.ParentTemplateID != nil && t.DueDate != nil {
		day := t.DueDate.UTC().Format(DueDayLayout)
		t.DueDay = &day
	} else {
		t.DueDay = nil
	}
	return nil
}

// TaskLog is an append-only record of a state-changing action on a task.
// Rows are never updated or deleted.
type TaskLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID    uuid.UUID `gorm:"type:uuid;index" json:"taskId"`
	ActorID   uuid.UUID `gorm:"type:uuid" json:"actorId"`
	Action    string    `json:"action"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}

func (l *TaskLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
