package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient owned by ownerID. Returns
	// ErrPatientNotFound if missing or owned by someone else.
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Patient, error)

	// List returns all of the owner's patients ordered by name ascending.
	List(ctx context.Context, ownerID uuid.UUID) ([]*Patient, error)

	Rename(ctx context.Context, ownerID, id uuid.UUID, name string) (*Patient, error)

	// Delete removes the patient record. Data scoped to the patient is
	// intentionally left in place.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
