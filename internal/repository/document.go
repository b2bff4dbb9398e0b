package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/project-mc/server/internal/domain/document"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, d *document.Document) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*document.Document, error) {
	var d document.Document
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, document.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching document: %w", err)
	}
	return &d, nil
}

func (r *DocumentRepository) List(ctx context.Context, q *document.ListDocumentsQuery) ([]*document.Document, error) {
	tx := r.db.WithContext(ctx).Where("owner_id = ?", q.OwnerID)

	if q.PatientID != nil {
		tx = tx.Where("patient_id = ?", *q.PatientID)
	} else {
		tx = tx.Where("patient_id IS NULL")
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}

	var documents []*document.Document
	if err := tx.Order("created_at DESC").Find(&documents).Error; err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return documents, nil
}

func (r *DocumentRepository) SetText(ctx context.Context, ownerID, id uuid.UUID, text *string, status document.Status) error {
	result := r.db.WithContext(ctx).
		Model(&document.Document{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(map[string]any{"text": text, "status": status})
	if result.Error != nil {
		return fmt.Errorf("storing document text: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return document.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) Reassign(ctx context.Context, ownerID, id uuid.UUID, patientID *uuid.UUID, storageKey string) error {
	result := r.db.WithContext(ctx).
		Model(&document.Document{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(map[string]any{"patient_id": patientID, "storage_key": storageKey})
	if result.Error != nil {
		return fmt.Errorf("reassigning document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return document.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&document.Document{})
	if result.Error != nil {
		return fmt.Errorf("deleting document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return document.ErrDocumentNotFound
	}
	return nil
}
