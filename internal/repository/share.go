package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/project-mc/server/internal/domain/share"
)

type ShareRepository struct {
	db *gorm.DB
}

func NewShareRepository(db *gorm.DB) *ShareRepository {
	return &ShareRepository{db: db}
}

func (r *ShareRepository) Create(ctx context.Context, s *share.Share) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("inserting share: %w", err)
	}
	return nil
}

func (r *ShareRepository) GetByPathForRecipient(ctx context.Context, path, email string, ownerID uuid.UUID) (*share.Share, error) {
	var s share.Share
	err := r.db.WithContext(ctx).
		Where("path = ?", path).
		Where("target_email = ? OR owner_id = ?", email, ownerID).
		Order("created_at DESC").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, share.ErrShareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching share: %w", err)
	}
	return &s, nil
}

func (r *ShareRepository) ListForRecipient(ctx context.Context, email string) ([]*share.Share, error) {
	var shares []*share.Share
	err := r.db.WithContext(ctx).
		Where("target_email = ?", email).
		Order("created_at DESC").
		Find(&shares).Error
	if err != nil {
		return nil, fmt.Errorf("listing shares for recipient: %w", err)
	}
	return shares, nil
}

func (r *ShareRepository) DeleteByPathPrefix(ctx context.Context, ownerID uuid.UUID, prefix string) error {
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where("path = ? OR path LIKE ?", prefix, prefix+"/%").
		Delete(&share.Share{}).Error
	if err != nil {
		return fmt.Errorf("deleting shares under prefix: %w", err)
	}
	return nil
}
