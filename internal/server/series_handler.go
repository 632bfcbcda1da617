package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carehub/internal/model"
	"carehub/internal/recurrence"
	"carehub/internal/service"
)

// SeriesHandler exposes the atomic series rewrite.
type SeriesHandler struct {
	series *service.SeriesService
}

func NewSeriesHandler(series *service.SeriesService) *SeriesHandler {
	return &SeriesHandler{series: series}
}

type editSeriesRequest struct {
	Title          *string            `json:"title"`
	Description    *string            `json:"description"`
	Priority       *model.Priority    `json:"priority"`
	CategoryID     *uuid.UUID         `json:"categoryId"`
	AssignedToID   *uuid.UUID         `json:"assignedToId"`
	ClearAssignee  bool               `json:"clearAssignee"`
	DueDate        *string            `json:"dueDate"`
	ReminderDate   *string            `json:"reminderDate"`
	Recurrence     *recurrenceRequest `json:"recurrence"`
	ClearSeriesEnd bool               `json:"clearSeriesEnd"`
	ReferenceDate  *string            `json:"referenceDate"`
	ActorID        uuid.UUID          `json:"actorId" binding:"required"`
}

func (h *SeriesHandler) Edit(c *gin.Context) {
	var req editSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	edits := service.SeriesEdits{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		CategoryID:     req.CategoryID,
		AssignedToID:   req.AssignedToID,
		ClearAssignee:  req.ClearAssignee,
		ClearSeriesEnd: req.ClearSeriesEnd,
	}
	if req.DueDate != nil {
		due, err := parseDay(*req.DueDate)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation", err)
			return
		}
		edits.DueDate = &due
	}
	if req.ReminderDate != nil {
		remind, err := parseDay(*req.ReminderDate)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation", err)
			return
		}
		edits.ReminderDate = &remind
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
		edits.Recurrence = &pattern
	}

	var referenceDate *time.Time
	if req.ReferenceDate != nil {
		ref, err := parseDay(*req.ReferenceDate)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation", err)
			return
		}
		referenceDate = &ref
	}

	result, err := h.series.EditSeries(c.Request.Context(), c.Param("id"), edits, referenceDate, req.ActorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}
