package service

import "errors"

var (
	// ErrNotFound means the referenced task or template does not exist.
	ErrNotFound = errors.New("task not found")
	// ErrNotRecurring means a series operation targeted a task without a
	// recurrence pattern.
	ErrNotRecurring = errors.New("task is not recurring")
	// ErrAlreadyMaterialized means a physical row already exists for the
	// (template, day) pair. Callers treat it as success: the existing row
	// is the occurrence.
	ErrAlreadyMaterialized = errors.New("occurrence already materialized")
	// ErrValidation covers malformed input: empty titles, bad enums,
	// templates without an anchor date, illegal status transitions.
	ErrValidation = errors.New("validation failed")
)
