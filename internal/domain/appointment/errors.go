package appointment

import "errors"

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrTitleRequired       = errors.New("appointment title must not be empty")
	ErrInvalidTimeRange    = errors.New("appointment must end after it starts")
	ErrFileNotFound        = errors.New("appointment file not found")
)
