package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, cmd *UpdateAppointmentCommand) (*Appointment, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error

	// List returns appointments intersecting the query range, ordered by
	// StartAt ascending then ID ascending.
	List(ctx context.Context, q *ListAppointmentsQuery) ([]*Appointment, error)

	// AttachFile records an uploaded attachment for an appointment.
	AttachFile(ctx context.Context, f *File) error
	ListFiles(ctx context.Context, ownerID, appointmentID uuid.UUID) ([]*File, error)
	DeleteFile(ctx context.Context, ownerID, fileID uuid.UUID) (*File, error)
}
