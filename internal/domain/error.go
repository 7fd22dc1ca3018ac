package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrSessionNotFound = errors.New("no active session")
	ErrBlocked         = errors.New("user is blocked")
	ErrNoContactHandle = errors.New("user has no contact handle")
	ErrValidation      = errors.New("input rejected by validation rule")
	ErrGateway         = errors.New("external gateway call failed")
	ErrUnresolved      = errors.New("location could not be resolved")
)
