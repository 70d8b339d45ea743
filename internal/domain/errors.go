package domain

import "errors"

var (
	// ErrUserAnonymizedNotFound is returned when no anonymized user exists for the supplied id.
	ErrUserAnonymizedNotFound = errors.New("anonymized user not found")
	// ErrGoalConfiguration indicates a matched activity category without a corresponding goal.
	// The data model asserts this cannot happen, so it is a logic error, not user input.
	ErrGoalConfiguration = errors.New("goal configuration inconsistency")
	// ErrInvalidEvent is returned for malformed activity events (end before start).
	ErrInvalidEvent = errors.New("invalid activity event")
)
