package patient

import "errors"

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrNameRequired    = errors.New("patient name must not be empty")
)
