package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carehub/internal/recurrence"
	"carehub/internal/service"
)

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, errorEnvelope{Error: apiError{Message: msg, Code: code}})
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondServiceError maps the engine's error taxonomy onto HTTP
// statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrNotRecurring):
		respondError(c, http.StatusConflict, "not_recurring", err)
	case errors.Is(err, recurrence.ErrInvalidIdentity):
		respondError(c, http.StatusBadRequest, "invalid_identity", err)
	case errors.Is(err, recurrence.ErrInvalidPattern),
		errors.Is(err, recurrence.ErrInvalidWindow),
		errors.Is(err, service.ErrValidation):
		respondError(c, http.StatusBadRequest, "validation", err)
	case errors.Is(err, service.ErrAlreadyMaterialized):
		// Benign race; the row exists, which is what the caller wanted.
		respondError(c, http.StatusConflict, "already_materialized", err)
	default:
		respondError(c, http.StatusInternalServerError, "internal", err)
	}
}
