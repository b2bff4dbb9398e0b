package document

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Document, error)

	// List returns documents for the scope ordered by creation time
	// descending. A nil PatientID selects the general namespace only.
	List(ctx context.Context, q *ListDocumentsQuery) ([]*Document, error)

	// SetText stores the extraction result and flips the status.
	SetText(ctx context.Context, ownerID, id uuid.UUID, text *string, status Status) error

	// Reassign moves the document to another patient scope and records
	// its new storage key.
	Reassign(ctx context.Context, ownerID, id uuid.UUID, patientID *uuid.UUID, storageKey string) error

	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
