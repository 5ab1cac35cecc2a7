package service

import "errors"

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrSlotUnavailable   = errors.New("requested time slot is not available")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrBookingInProgress = errors.New("another booking for this staff member is in progress")
	ErrPastDate          = errors.New("appointment start is in the past")
	ErrDateTooFar        = errors.New("appointment start is too far in the future")
)
