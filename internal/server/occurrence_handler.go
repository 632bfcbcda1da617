package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carehub/internal/model"
	"carehub/internal/recurrence"
	"carehub/internal/service"
)

// OccurrenceHandler exposes the merged schedule view and the
// materialize/complete operations that may address virtual occurrences.
type OccurrenceHandler struct {
	occurrences *service.OccurrenceService
	calendar    *service.CalendarService
}

func NewOccurrenceHandler(occurrences *service.OccurrenceService, calendar *service.CalendarService) *OccurrenceHandler {
	return &OccurrenceHandler{occurrences: occurrences, calendar: calendar}
}

// occurrenceView flattens the physical/virtual union for API clients.
type occurrenceView struct {
	ID               string         `json:"id"`
	Virtual          bool           `json:"virtual"`
	ParentTemplateID *uuid.UUID     `json:"parentTemplateId,omitempty"`
	Title            string         `json:"title"`
	Description      string         `json:"description,omitempty"`
	DueDate          *string        `json:"dueDate,omitempty"`
	Status           model.Status   `json:"status"`
	Priority         model.Priority `json:"priority"`
	AssignedToID     *uuid.UUID     `json:"assignedToId,omitempty"`
	CategoryID       *uuid.UUID     `json:"categoryId,omitempty"`
}

func toView(occ recurrence.Occurrence) occurrenceView {
	view := occurrenceView{
		ID:       occ.ID(),
		Virtual:  occ.IsVirtual(),
		Title:    occ.Title(),
		Status:   occ.Status(),
		Priority: occ.Priority(),
	}
	if due := occ.DueDate(); due != nil {
		day := recurrence.DayKey(*due)
		view.DueDate = &day
	}
	if occ.IsVirtual() {
		v := occ.Virtual
		view.ParentTemplateID = &v.TemplateID
		view.Description = v.Description
		view.AssignedToID = v.AssignedToID
		view.CategoryID = v.CategoryID
	} else {
		p := occ.Physical
		view.ParentTemplateID = p.ParentTemplateID
		view.Description = p.Description
		view.AssignedToID = p.AssignedToID
		view.CategoryID = p.CategoryID
	}
	return view
}

// parseWindow reads the start/end query parameters, defaulting to a
// four-week window from today.
func parseWindow(c *gin.Context) (time.Time, time.Time, bool) {
	start := recurrence.DayOf(time.Now())
	end := start.AddDate(0, 0, 28)
	if raw := c.Query("start"); raw != "" {
		parsed, err := parseDay(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation", err)
			return time.Time{}, time.Time{}, false
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := parseDay(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation", err)
			return time.Time{}, time.Time{}, false
		}
		end = parsed
	}
	return start, end, true
}

func (h *OccurrenceHandler) List(c *gin.Context) {
	familyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	start, end, ok := parseWindow(c)
	if !ok {
		return
	}
	includeVirtual := true
	if raw := c.Query("includeVirtual"); raw != "" {
		includeVirtual, err = strconv.ParseBool(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation", err)
			return
		}
	}

	occs, err := h.occurrences.ListOccurrences(c.Request.Context(), familyID, start, end, includeVirtual)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	views := make([]occurrenceView, 0, len(occs))
	for _, occ := range occs {
		views = append(views, toView(occ))
	}
	respondOK(c, views)
}

type actorRequest struct {
	ActorID uuid.UUID `json:"actorId" binding:"required"`
	Notes   string    `json:"notes"`
}

func (h *OccurrenceHandler) Materialize(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	task, err := h.occurrences.Materialize(c.Request.Context(), c.Param("id"), req.ActorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *OccurrenceHandler) Complete(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	task, err := h.occurrences.Complete(c.Request.Context(), c.Param("id"), req.ActorID, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, task)
}

func (h *OccurrenceHandler) CalendarFeed(c *gin.Context) {
	familyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	start, end, ok := parseWindow(c)
	if !ok {
		return
	}
	feed, err := h.calendar.BuildFeed(c.Request.Context(), familyID, start, end)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}
