package entity

import "errors"

// Error kinds surfaced by the task lifecycle and the services around it.
// Callers wrap them with context and match with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrAlreadyDeposited  = errors.New("already deposited")
	ErrNotAvailable      = errors.New("task not available")
	ErrConflict          = errors.New("conflict")
)
