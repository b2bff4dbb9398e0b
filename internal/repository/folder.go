package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/project-mc/server/internal/drive"
)

type FolderRepository struct {
	db *gorm.DB
}

func NewFolderRepository(db *gorm.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

// scoped applies the (owner, patient) pair. A nil patient means the
// owner's general namespace, never a wildcard across patients.
func scoped(tx *gorm.DB, ownerID uuid.UUID, patientID *uuid.UUID) *gorm.DB {
	tx = tx.Where("owner_id = ?", ownerID)
	if patientID != nil {
		return tx.Where("patient_id = ?", *patientID)
	}
	return tx.Where("patient_id IS NULL")
}

func (r *FolderRepository) Create(ctx context.Context, f *drive.Folder) error {
	err := r.db.WithContext(ctx).Create(f).Error
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return drive.ErrFolderAlreadyExists
		}
		return fmt.Errorf("inserting folder: %w", err)
	}
	return nil
}

func (r *FolderRepository) ResolveByPath(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, fullPath string) (*drive.Folder, error) {
	var f drive.Folder
	err := scoped(r.db.WithContext(ctx), ownerID, patientID).
		Where("full_path = ?", fullPath).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, drive.ErrFolderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolving folder path: %w", err)
	}
	return &f, nil
}

func (r *FolderRepository) ListChildren(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, parentID *uuid.UUID) ([]*drive.Folder, error) {
	tx := scoped(r.db.WithContext(ctx), ownerID, patientID)
	if parentID != nil {
		tx = tx.Where("parent_id = ?", *parentID)
	} else {
		tx = tx.Where("parent_id IS NULL")
	}

	var folders []*drive.Folder
	if err := tx.Order("name ASC").Find(&folders).Error; err != nil {
		return nil, fmt.Errorf("listing child folders: %w", err)
	}
	return folders, nil
}

func (r *FolderRepository) DescendantPaths(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, rootPath string) ([]string, error) {
	// full_path = root catches the folder itself; the LIKE with a trailing
	// slash is segment-aware, so "A" never matches "A-other".
	var paths []string
	err := scoped(r.db.WithContext(ctx).Model(&drive.Folder{}), ownerID, patientID).
		Where("full_path = ? OR full_path LIKE ?", rootPath, rootPath+"/%").
		Order("full_path ASC").
		Pluck("full_path", &paths).Error
	if err != nil {
		return nil, fmt.Errorf("collecting descendant paths: %w", err)
	}
	return paths, nil
}

func (r *FolderRepository) DeleteSubtree(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, rootPath string) error {
	err := scoped(r.db.WithContext(ctx), ownerID, patientID).
		Where("full_path = ? OR full_path LIKE ?", rootPath, rootPath+"/%").
		Delete(&drive.Folder{}).Error
	if err != nil {
		return fmt.Errorf("deleting folder subtree: %w", err)
	}
	return nil
}
