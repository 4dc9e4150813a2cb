// Package common defines sentinel errors and shared constants used across the
// intake engine. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// ErrConfiguration marks a missing or malformed setting. It is fatal at
	// process start and never recovered per request.
	ErrConfiguration = errors.New("configuration fault")

	// ErrStorageFault wraps file storage and persistence I/O failures seen by
	// the packet pipeline.
	ErrStorageFault = errors.New("storage fault")

	// ErrInvalidTransition is returned when a packet request status change
	// would move backwards or out of a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")

	// Checklist errors.
	ErrAutoItemOwned   = errors.New("checklist item is managed by reconciliation")
	ErrInvalidItemType = errors.New("invalid checklist item type")
)
