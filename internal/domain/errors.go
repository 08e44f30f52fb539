package domain

import "errors"

var (
	// ErrValidation marks caller input that failed domain validation.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a state transition that is no longer legal.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyScheduled marks an idempotency-key collision on task creation.
	// Callers treat it as success: the task already exists.
	ErrAlreadyScheduled = errors.New("task already scheduled")
)
