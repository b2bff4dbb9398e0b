package question

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, q *Question) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Question, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, cmd *UpdateQuestionCommand) (*Question, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error

	// List returns questions ordered by priority descending, then
	// creation time descending.
	List(ctx context.Context, q *ListQuestionsQuery) ([]*Question, error)

	LinkAppointment(ctx context.Context, link *AppointmentLink) error
	UnlinkAppointment(ctx context.Context, ownerID, questionID, appointmentID uuid.UUID) error
	ListAppointmentLinks(ctx context.Context, ownerID, questionID uuid.UUID) ([]*AppointmentLink, error)

	AttachFile(ctx context.Context, link *FileLink) error
	DetachFile(ctx context.Context, ownerID, linkID uuid.UUID) (*FileLink, error)
	ListFileLinks(ctx context.Context, ownerID, questionID uuid.UUID) ([]*FileLink, error)
}
