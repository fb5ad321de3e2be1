// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidOwnerID is returned when an owner identifier is not a
	// strictly positive integer.
	ErrInvalidOwnerID = errors.New("invalid owner ID")

	// ErrInvalidStatus is returned when a task status is not one of the
	// known enumeration values.
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrInvalidPriority is returned when a task priority is not one of the
	// known enumeration values.
	ErrInvalidPriority = errors.New("invalid task priority")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)
