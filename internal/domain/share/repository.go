package share

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Share) error

	// GetByPathForRecipient returns the share for path visible to the
	// given email (or owned by ownerID). Returns ErrShareNotFound when no
	// such share exists; callers treat that as "not shared with you".
	GetByPathForRecipient(ctx context.Context, path, email string, ownerID uuid.UUID) (*Share, error)

	// ListForRecipient returns all shares addressed to email, newest first.
	ListForRecipient(ctx context.Context, email string) ([]*Share, error)

	// DeleteByPathPrefix removes share records whose path equals prefix or
	// lies underneath it. Used when the underlying files are deleted.
	DeleteByPathPrefix(ctx context.Context, ownerID uuid.UUID, prefix string) error
}
