package drive

import (
	"context"

	"github.com/google/uuid"
)

// FolderRepository is the relational side of the drive. Every query takes
// the (owner, patient) pair explicitly; a nil patient addresses the
// owner's general namespace, not a wildcard.
type FolderRepository interface {
	// Create persists a new folder record. Returns ErrFolderAlreadyExists
	// when (owner, patient, full_path) is already taken.
	Create(ctx context.Context, f *Folder) error

	// ResolveByPath finds the folder with the exact full path.
	// Returns ErrFolderNotFound on a legitimate miss.
	ResolveByPath(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, fullPath string) (*Folder, error)

	// ListChildren returns folders directly below parentID (nil = root),
	// ordered by name ascending.
	ListChildren(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, parentID *uuid.UUID) ([]*Folder, error)

	// DescendantPaths returns rootPath plus the full path of every folder
	// underneath it, segment-aware. The root is included even when the
	// folder has no children.
	DescendantPaths(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, rootPath string) ([]string, error)

	// DeleteSubtree removes the folder records for rootPath and everything
	// below it.
	DeleteSubtree(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, rootPath string) error
}
