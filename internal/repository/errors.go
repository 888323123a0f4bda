package repository

import "errors"

var (
	// ErrNotFound is returned by Get* methods when no row matches
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate wraps unique constraint violations
	ErrDuplicate = errors.New("duplicate record")
	// ErrAlreadyProcessed is returned when a pending payment was already approved
	ErrAlreadyProcessed = errors.New("payment already processed")
)
