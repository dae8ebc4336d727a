package errors

import "errors"

var (
	ErrMissingServiceID = errors.New("booking wizard requires a service ID")

	ErrMissingDependency = errors.New("booking wizard dependency is not configured")

	ErrSubmissionInFlight = errors.New("a booking submission is already in progress")

	ErrWizardClosed = errors.New("booking wizard is closed")

	ErrNotEditable = errors.New("booking draft cannot be edited right now")

	ErrDismissWhileSubmitting = errors.New("cannot leave the booking wizard while a submission is in progress")

	ErrIllegalTransition = errors.New("illegal booking wizard state transition")

	ErrUnknownField = errors.New("unknown booking draft field")

	ErrUnknownTimeSlot = errors.New("time slot is not one of the available times")

	ErrSessionNotFound = errors.New("wizard session not found")
)
