package medication

import "errors"

var (
	ErrMedicationNotFound = errors.New("medication not found")
	ErrInvalidFrequency   = errors.New("invalid medication frequency")
	ErrInvalidDoseTime    = errors.New("dose time must be HH:MM (24h)")
	ErrInvalidDateRange   = errors.New("end date cannot be before start date")
	ErrDoseNotScheduled   = errors.New("no dose of this medication is scheduled at that time")
)
