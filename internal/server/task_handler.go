package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carehub/internal/model"
	"carehub/internal/recurrence"
	"carehub/internal/service"
)

// TaskHandler exposes direct task CRUD. Mutations address persisted
// rows only: a synthetic occurrence id is rejected here and must be
// materialized through the occurrences endpoints first.
type TaskHandler struct {
	tasks *service.TaskService
}

func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type recurrenceRequest struct {
	Type    model.RecurrenceType `json:"type" binding:"required"`
	EndDate *string              `json:"endDate"`
}

type createTaskRequest struct {
	FamilyID     uuid.UUID          `json:"familyId" binding:"required"`
	Title        string             `json:"title" binding:"required"`
	Description  string             `json:"description"`
	Category     string             `json:"category"`
	DueDate      *string            `json:"dueDate"`
	ReminderDate *time.Time         `json:"reminderDate"`
	AssignedToID *uuid.UUID         `json:"assignedToId"`
	Priority     model.Priority     `json:"priority"`
	Recurrence   *recurrenceRequest `json:"recurrence"`
	ActorID      uuid.UUID          `json:"actorId" binding:"required"`
}

// parseDay parses a YYYY-MM-DD request field.
func parseDay(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(model.DueDayLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	input := service.TaskInput{
		FamilyID:     req.FamilyID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		ReminderDate: req.ReminderDate,
		AssignedToID: req.AssignedToID,
		Priority:     req.Priority,
		CreatedByID:  req.ActorID,
	}
	if req.DueDate != nil {
		due, err := parseDay(*req.DueDate)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation", err)
			return
		}
		input.DueDate = &due
	}
	if req.Recurrence != nil {
		pattern := recurrence.Pattern{Type: req.Recurrence.Type}
		if req.Recurrence.EndDate != nil {
			end, err := parseDay(*req.Recurrence.EndDate)
			if err != nil {
				respondError(c, http.StatusBadRequest, "validation", err)
				return
			}
			pattern.EndDate = &end
		}
		input.Recurrence = &pattern
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// parsePhysicalID rejects synthetic ids before touching the store.
func parsePhysicalID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Param("id")
	if recurrence.IsVirtualID(raw) {
		respondError(c, http.StatusConflict, "virtual_id",
			fmt.Errorf("%q is a virtual occurrence: materialize it first", raw))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation", err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := parsePhysicalID(c)
	if !ok {
		return
	}
	task, err := h.tasks.GetTask(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, task)
}

type updateStatusRequest struct {
	Status  model.Status `json:"status" binding:"required"`
	ActorID uuid.UUID    `json:"actorId" binding:"required"`
	Notes   string       `json:"notes"`
}

func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	id, ok := parsePhysicalID(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	task, err := h.tasks.UpdateStatus(c.Request.Context(), id, req.Status, req.ActorID, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parsePhysicalID(c)
	if !ok {
		return
	}
	actorID, err := uuid.Parse(c.Query("actorId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation", fmt.Errorf("actorId query parameter required"))
		return
	}
	if err := h.tasks.DeleteTask(c.Request.Context(), id, actorID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) Logs(c *gin.Context) {
	id, ok := parsePhysicalID(c)
	if !ok {
		return
	}
	logs, err := h.tasks.ListLogs(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, logs)
}
