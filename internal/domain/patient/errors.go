package patient

import "errors"

var (
	ErrPatientNotFound    = errors.New("patient not found")
	ErrPatientInactive    = errors.New("operation not permitted: patient is inactive")
	ErrInvalidGender      = errors.New("invalid gender value")
	ErrInvalidBloodType   = errors.New("invalid blood type")
	ErrInvalidDateOfBirth = errors.New("date of birth cannot be in the future")
)
